package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"f1fantasy/internal/service"
	"f1fantasy/internal/validation"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondWithErrorWritesStatusAndBody(t *testing.T) {
	recorder := httptest.NewRecorder()

	respondWithError(recorder, 418, "Teapot", "", nil)

	require.Equal(t, 418, recorder.Code)
	assert.Equal(t, "Teapot", strings.TrimSpace(recorder.Body.String()))
}

func TestRespondWithErrorLogsMessage(t *testing.T) {
	var buf bytes.Buffer
	original := log.Logger
	log.Logger = zerolog.New(&buf)
	defer func() { log.Logger = original }()

	recorder := httptest.NewRecorder()
	respondWithError(recorder, 500, "Internal server error", "", errors.New("boom"))

	output := buf.String()
	assert.Contains(t, output, "Internal server error")
	assert.Contains(t, output, "boom")
	assert.Contains(t, output, `"status":500`)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{service.ErrLeagueNameTaken, http.StatusConflict},
		{fmt.Errorf("create: %w", service.ErrTeamNameTaken), http.StatusConflict},
		{service.ErrForbidden, http.StatusForbidden},
		{service.ErrLeagueFull, http.StatusUnprocessableEntity},
		{service.ErrOwnerCannotLeave, http.StatusUnprocessableEntity},
		{fmt.Errorf("%w: must be between 2 and 20", service.ErrInvalidCapacity), http.StatusUnprocessableEntity},
		{validation.ValidationError{Field: "name", Message: "is required"}, http.StatusUnprocessableEntity},
		{service.ErrLeagueNotFound, http.StatusNotFound},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, ErrInternalServerError, userMessage(errors.New("pq: connection refused")))
	assert.Equal(t, "League is full", userMessage(service.ErrLeagueFull))
	assert.Equal(t, "A league with that name already exists. Please try again with a different value.",
		userMessage(service.ErrLeagueNameTaken))
}
