package handlers

import (
	"errors"
	"net/http"
	"strings"
	"unicode"
	"unicode/utf8"

	"f1fantasy/internal/service"
	"f1fantasy/internal/validation"

	"github.com/rs/zerolog/log"
)

func respondWithError(w http.ResponseWriter, status int, userMsg, logMsg string, err error) {
	if err != nil {
		if logMsg == "" {
			logMsg = userMsg
		}
		log.Error().Err(err).Int("status", status).Msg(logMsg)
	}

	http.Error(w, userMsg, status)
}

var (
	notFoundErrors = []error{
		service.ErrLeagueNotFound, service.ErrTeamNotFound,
		service.ErrInviteNotFound, service.ErrUserNotFound,
	}
	conflictErrors = []error{
		service.ErrLeagueNameTaken, service.ErrTeamNameTaken,
		service.ErrUsernameTaken, service.ErrEmailTaken,
		service.ErrInvitePending, service.ErrAlreadyMember, service.ErrAlreadyHasTeam,
	}
	rejectedErrors = []error{
		service.ErrLeagueFull, service.ErrOwnerCannotLeave, service.ErrCannotModifyOwner,
		service.ErrInvalidCapacity, service.ErrInvalidStatusTransition, service.ErrConfirmationMismatch,
		service.ErrLeagueLimitReached, service.ErrPublicLeaguesDisabled, service.ErrInvalidLeagueSetting,
		service.ErrInviteeNotSearchable, service.ErrNotMember, service.ErrOwnsLeagues,
		service.ErrCannotModifySelf, service.ErrRegistrationClosed, service.ErrUnknownSetting,
		service.ErrInvalidCredentials, service.ErrAccountDisabled,
	}
)

func isAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// statusFor maps a service error onto an HTTP status: constraint violations
// are 409, authorization failures 403, capacity and state violations 422.
func statusFor(err error) int {
	var verr validation.ValidationError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case isAny(err, notFoundErrors):
		return http.StatusNotFound
	case isAny(err, conflictErrors):
		return http.StatusConflict
	case isAny(err, rejectedErrors):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// userMessage is the text shown for err. Internal errors are never echoed.
func userMessage(err error) string {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		return ErrInternalServerError
	}
	msg := capitalize(err.Error())
	if status == http.StatusConflict && !strings.HasSuffix(msg, ".") {
		msg += ". Please try again with a different value."
	}
	return msg
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
