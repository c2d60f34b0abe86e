package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"f1fantasy/internal/database/dbtest"
	"f1fantasy/internal/security"
	"f1fantasy/internal/service"
	"f1fantasy/internal/templates"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimitKeysOnClientAddress(t *testing.T) {
	limited := func(t *testing.T, trustProxy bool) http.Handler {
		t.Helper()
		db := dbtest.New(t)
		tmpl, err := templates.Load()
		require.NoError(t, err)
		settingsService := service.NewSettingsService(db, nil)
		csrf := security.NewCSRFGenerator("test-secret")
		limiter := security.NewRateLimiter(1, time.Minute, clockwork.NewFakeClock())
		m := NewMiddleware(nil, settingsService, csrf, limiter, NewRenderer(tmpl, settingsService, nil, csrf), trustProxy)
		return m.ProxyHeaders(m.RateLimit(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))
	}
	send := func(h http.Handler, remoteAddr, forwarded string) int {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = remoteAddr
		if forwarded != "" {
			req.Header.Set("X-Forwarded-For", forwarded)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	t.Run("forwarding headers ignored without a trusted proxy", func(t *testing.T) {
		h := limited(t, false)
		assert.Equal(t, http.StatusNoContent, send(h, "198.51.100.7:1111", "10.0.0.1"))
		assert.Equal(t, http.StatusTooManyRequests, send(h, "198.51.100.7:2222", "10.0.0.2"))
		assert.Equal(t, http.StatusNoContent, send(h, "198.51.100.8:1111", ""))
	})

	t.Run("last forwarded hop behind a trusted proxy", func(t *testing.T) {
		h := limited(t, true)
		assert.Equal(t, http.StatusNoContent, send(h, "127.0.0.1:1111", "10.0.0.1, 203.0.113.5"))
		assert.Equal(t, http.StatusTooManyRequests, send(h, "127.0.0.1:2222", "10.0.0.9, 203.0.113.5"))
		assert.Equal(t, http.StatusNoContent, send(h, "127.0.0.1:3333", "203.0.113.6"))
	})
}
