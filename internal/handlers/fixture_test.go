package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"f1fantasy/internal/database"
	"f1fantasy/internal/database/dbtest"
	"f1fantasy/internal/invite"
	"f1fantasy/internal/models"
	"f1fantasy/internal/security"
	"f1fantasy/internal/service"
	"f1fantasy/internal/templates"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

const testPassword = "correct-horse"

// testApp is the full router over a throwaway database
type testApp struct {
	db       *database.DB
	handler  http.Handler
	csrf     *security.CSRFGenerator
	tokens   *invite.TokenIssuer
	auth     *service.AuthService
	settings *service.SettingsService
	leagues  *service.LeagueService
	invites  *service.InviteService
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	db := dbtest.New(t)
	tmpl, err := templates.Load()
	require.NoError(t, err)

	clock := clockwork.NewFakeClockAt(time.Now())
	tokens := invite.NewTokenIssuer("test-secret", invite.DefaultTTL, clock)
	settingsService := service.NewSettingsService(db, nil)
	authService := service.NewAuthService(db, settingsService, tokens, time.Hour, clock)
	leagueService := service.NewLeagueService(db, settingsService)
	inviteService := service.NewInviteService(db, tokens, nil, "http://fantasy.test")
	teamService := service.NewTeamService(db)
	emailService, err := service.NewEmailService(context.Background(), service.EmailConfig{})
	require.NoError(t, err)

	csrf := security.NewCSRFGenerator("test-secret")
	limiter := security.NewRateLimiter(1000, time.Minute, clock)
	renderer := NewRenderer(tmpl, settingsService, inviteService, csrf)

	router := &Router{
		Middleware: NewMiddleware(authService, settingsService, csrf, limiter, renderer, false),
		Auth:       NewAuthHandler(authService, settingsService, nil, renderer, nil, "http://fantasy.test"),
		Dashboard:  NewDashboardHandler(leagueService, inviteService, settingsService, renderer),
		Leagues:    NewLeagueHandler(leagueService, settingsService, renderer),
		Teams:      NewTeamHandler(teamService, renderer),
		Invites:    NewInviteHandler(inviteService, authService, renderer),
		Account:    NewAccountHandler(authService, leagueService, renderer),
		Seasons:    NewSeasonHandler(service.NewSeasonService(db), renderer),
		Admin: NewAdminHandler(service.NewAdminService(db), settingsService, service.NewBackupService(db),
			emailService, renderer, "test"),
		MetricsEnabled: true,
	}

	return &testApp{
		db:       db,
		handler:  router.Handler(),
		csrf:     csrf,
		tokens:   tokens,
		auth:     authService,
		settings: settingsService,
		leagues:  leagueService,
		invites:  inviteService,
	}
}

// client is a signed-in browser
type client struct {
	app     *testApp
	user    *models.User
	session string
}

// signup registers username and returns a signed-in client. The first
// account on a fresh database is an administrator.
func (a *testApp) signup(t *testing.T, username string) *client {
	t.Helper()
	ctx := context.Background()
	user, _, err := a.auth.Register(ctx, service.Registration{
		Username: username,
		Email:    username + "@example.com",
		Password: testPassword,
	})
	require.NoError(t, err)
	session, _, err := a.auth.Login(ctx, username, testPassword)
	require.NoError(t, err)
	return &client{app: a, user: user, session: session.ID}
}

// anonymous performs a request without a session
func (a *testApp) anonymous(method, path string, form url.Values) *httptest.ResponseRecorder {
	return a.do(newRequest(method, path, form))
}

func (a *testApp) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func newRequest(method, path string, form url.Values) *http.Request {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	return req
}

func (c *client) request(method, path string, form url.Values) *http.Request {
	if method == http.MethodPost {
		if form == nil {
			form = url.Values{}
		}
		if form.Get(security.CSRFFormField) == "" {
			token, _ := c.app.csrf.GenerateToken(c.session)
			form.Set(security.CSRFFormField, token)
		}
	}
	req := newRequest(method, path, form)
	req.AddCookie(&http.Cookie{Name: security.SessionCookieName, Value: c.session})
	return req
}

func (c *client) get(path string) *httptest.ResponseRecorder {
	return c.app.do(c.request(http.MethodGet, path, nil))
}

func (c *client) post(path string, form url.Values) *httptest.ResponseRecorder {
	return c.app.do(c.request(http.MethodPost, path, form))
}

// flashOf decodes the flash cookie set by a redirecting response
func flashOf(t *testing.T, rec *httptest.ResponseRecorder) *Flash {
	t.Helper()
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name != flashCookieName || cookie.Value == "" {
			continue
		}
		raw, err := url.QueryUnescape(cookie.Value)
		require.NoError(t, err)
		kind, message, ok := strings.Cut(raw, "|")
		require.True(t, ok)
		return &Flash{Kind: kind, Message: message}
	}
	return nil
}

// createLeague creates a league through the service as owner
func (a *testApp) createLeague(t *testing.T, owner *client, name string, public bool) *models.League {
	t.Helper()
	league, err := a.leagues.Create(context.Background(), owner.user.ID, service.LeagueInput{
		Name:        name,
		MaxTeams:    4,
		IsPublic:    public,
		DraftType:   models.DraftSnake,
		PointSystem: models.PointSystemDefault,
	})
	require.NoError(t, err)
	return league
}
