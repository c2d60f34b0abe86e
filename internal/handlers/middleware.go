package handlers

import (
	"context"
	"net/http"
	"net/url"
	"runtime/debug"
	"strings"
	"time"

	"f1fantasy/internal/models"
	"f1fantasy/internal/security"
	"f1fantasy/internal/service"
	"f1fantasy/internal/settings"

	"github.com/rs/zerolog/log"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	UserContextKey    ContextKey = "user"
	SessionContextKey ContextKey = "session"
	infoContextKey    ContextKey = "request_info"
)

// Stage wraps a handler with one step of request processing
type Stage func(http.Handler) http.Handler

// Chain composes stages around h. The first stage is the outermost, so it
// sees the request first and the response last.
func Chain(h http.Handler, stages ...Stage) http.Handler {
	for i := len(stages) - 1; i >= 0; i-- {
		h = stages[i](h)
	}
	return h
}

// requestInfo collects facts learned by inner stages for the outer ones
type requestInfo struct {
	userID int64
	route  string
}

// statusRecorder captures the response status for logging and metrics
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *statusRecorder) Write(b []byte) (int, error) {
	n, err := rec.ResponseWriter.Write(b)
	rec.bytes += n
	return n, err
}

func (rec *statusRecorder) Unwrap() http.ResponseWriter {
	return rec.ResponseWriter
}

// recorderFor reuses the recorder and info installed by an outer stage so
// logging and metrics observe the same response.
func recorderFor(w http.ResponseWriter, r *http.Request) (*statusRecorder, *requestInfo) {
	rec, ok := w.(*statusRecorder)
	if !ok {
		rec = &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	}
	info, _ := r.Context().Value(infoContextKey).(*requestInfo)
	if info == nil {
		info = &requestInfo{}
	}
	return rec, info
}

// Middleware holds dependencies for middleware functions
type Middleware struct {
	authService     *service.AuthService
	settingsService *service.SettingsService
	csrf            *security.CSRFGenerator
	limiter         *security.RateLimiter
	renderer        *Renderer
	trustProxy      bool
}

// NewMiddleware creates a new middleware instance. trustProxy makes client
// addresses come from the reverse proxy's forwarding headers.
func NewMiddleware(authService *service.AuthService, settingsService *service.SettingsService, csrf *security.CSRFGenerator, limiter *security.RateLimiter, renderer *Renderer, trustProxy bool) *Middleware {
	return &Middleware{
		authService:     authService,
		settingsService: settingsService,
		csrf:            csrf,
		limiter:         limiter,
		renderer:        renderer,
		trustProxy:      trustProxy,
	}
}

// Pipeline wraps the router in the global stages, outermost first: Recover,
// ProxyHeaders, RequestLogging, Metrics, LoadSession, Maintenance,
// AdminLanding.
func (m *Middleware) Pipeline(router http.Handler) http.Handler {
	return Chain(recordRoute(router),
		Recover,
		m.ProxyHeaders,
		RequestLogging,
		Metrics,
		m.LoadSession,
		m.Maintenance,
		AdminLanding,
	)
}

// Recover turns a panic in any inner stage into a 500 response
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				log.Error().Interface("panic", rec).Bytes("stack", debug.Stack()).
					Str("method", r.Method).Str("path", r.URL.Path).Msg("Recovered from panic")
				http.Error(w, ErrInternalServerError, http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// ProxyHeaders replaces the peer address with the client address forwarded
// by the reverse proxy. Without a trusted proxy the headers are client
// controlled, so the stage passes requests through untouched.
func (m *Middleware) ProxyHeaders(next http.Handler) http.Handler {
	if !m.trustProxy {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ip := security.ForwardedFor(r); ip != "" {
			r.RemoteAddr = ip
		}
		next.ServeHTTP(w, r)
	})
}

// RequestLogging logs every request once it has been served
func RequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		info := &requestInfo{}
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r.WithContext(context.WithValue(r.Context(), infoContextKey, info)))

		event := log.Info()
		if rec.status >= http.StatusInternalServerError {
			event = log.Error()
		}
		if info.userID != 0 {
			event = event.Int64("user_id", info.userID)
		}
		event.Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Int("bytes", rec.bytes).
			Str("client", security.GetClientIP(r)).
			Dur("duration", time.Since(start)).
			Msg("HTTP request")
	})
}

// recordRoute notes the pattern the router matched
func recordRoute(router http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		router.ServeHTTP(w, r)
		if info, ok := r.Context().Value(infoContextKey).(*requestInfo); ok {
			info.route = r.Pattern
		}
	})
}

// LoadSession resolves the session cookie into a user. Invalid sessions
// clear the cookie and continue anonymously.
func (m *Middleware) LoadSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(security.SessionCookieName)
		if err != nil || cookie.Value == "" {
			next.ServeHTTP(w, r)
			return
		}

		user, err := m.authService.ValidateSession(r.Context(), cookie.Value)
		if err != nil {
			http.SetCookie(w, security.CreateDeleteCookie(r, security.SessionCookieName))
			next.ServeHTTP(w, r)
			return
		}

		if info, ok := r.Context().Value(infoContextKey).(*requestInfo); ok {
			info.userID = user.ID
		}
		ctx := context.WithValue(r.Context(), UserContextKey, user)
		ctx = context.WithValue(ctx, SessionContextKey, cookie.Value)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// maintenanceExempt lists path prefixes reachable during maintenance so an
// administrator can still sign in.
var maintenanceExempt = []string{"/login", "/logout", "/auth/", "/static/", "/healthz", "/metrics"}

// Maintenance blocks everyone but administrators while the maintenance_mode
// setting is on.
func (m *Middleware) Maintenance(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user := GetUserFromContext(r.Context()); user != nil && user.IsAdmin {
			next.ServeHTTP(w, r)
			return
		}
		for _, prefix := range maintenanceExempt {
			if strings.HasPrefix(r.URL.Path, prefix) {
				next.ServeHTTP(w, r)
				return
			}
		}
		if !m.settingsService.Bool(r.Context(), settings.MaintenanceMode) {
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("Retry-After", "300")
		m.renderer.render(w, http.StatusServiceUnavailable, "maintenance.tmpl", m.renderer.page(w, r, "Maintenance"))
	})
}

// AdminLanding sends administrators to the admin panel instead of the
// player dashboard.
func AdminLanding(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := GetUserFromContext(r.Context())
		if user != nil && user.IsAdmin && r.Method == http.MethodGet && (r.URL.Path == "/" || r.URL.Path == "/dashboard") {
			http.Redirect(w, r, "/admin", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAuth is middleware that requires a valid session
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if GetUserFromContext(r.Context()) == nil {
			http.Redirect(w, r, "/login?next="+url.QueryEscape(r.URL.RequestURI()), http.StatusSeeOther)
			return
		}
		next(w, r)
	}
}

// RequireAdmin is middleware that requires an administrator session
func (m *Middleware) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return m.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		if !GetUserFromContext(r.Context()).IsAdmin {
			m.renderer.renderError(w, r, http.StatusForbidden, ErrForbidden)
			return
		}
		next(w, r)
	})
}

// CSRFProtect rejects state-changing requests without the session's token
func (m *Middleware) CSRFProtect(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next(w, r)
			return
		}
		sessionID := GetSessionIDFromContext(r.Context())
		if !m.csrf.ValidateToken(sessionID, security.TokenFromRequest(r)) {
			log.Warn().Str("path", r.URL.Path).Str("client", security.GetClientIP(r)).Msg("CSRF token rejected")
			m.renderer.renderError(w, r, http.StatusForbidden, ErrInvalidCSRF)
			return
		}
		next(w, r)
	}
}

// RateLimit limits each client to the limiter's budget per path
func (m *Middleware) RateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := security.GetClientIP(r) + " " + r.URL.Path
		if !m.limiter.Allow(key) {
			log.Warn().Str("path", r.URL.Path).Str("client", security.GetClientIP(r)).Msg("Rate limit exceeded")
			w.Header().Set("Retry-After", "60")
			m.renderer.renderError(w, r, http.StatusTooManyRequests, ErrTooManyRequests)
			return
		}
		next(w, r)
	}
}

// GetUserFromContext retrieves the user from the request context
func GetUserFromContext(ctx context.Context) *models.User {
	user, ok := ctx.Value(UserContextKey).(*models.User)
	if !ok {
		return nil
	}
	return user
}

// GetSessionIDFromContext returns the current session ID, or ""
func GetSessionIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(SessionContextKey).(string)
	return id
}
