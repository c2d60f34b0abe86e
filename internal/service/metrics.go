package service

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	leagueOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "f1fantasy",
		Name:      "league_operations_total",
		Help:      "League operations by outcome",
	}, []string{"operation", "result"})

	authEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "f1fantasy",
		Name:      "auth_events_total",
		Help:      "Registrations, logins and invite redemptions by outcome",
	}, []string{"event", "result"})
)

// observe records op with a result label derived from err
func observe(vec *prometheus.CounterVec, op string, err error) {
	vec.WithLabelValues(op, resultLabel(err)).Inc()
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrLeagueFull):
		return "full"
	case errors.Is(err, ErrLeagueNameTaken), errors.Is(err, ErrTeamNameTaken),
		errors.Is(err, ErrUsernameTaken), errors.Is(err, ErrEmailTaken),
		errors.Is(err, ErrAlreadyMember), errors.Is(err, ErrInvitePending), errors.Is(err, ErrAlreadyHasTeam):
		return "conflict"
	case errors.Is(err, ErrInvalidCredentials):
		return "denied"
	}
	return "error"
}
