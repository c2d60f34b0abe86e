package handlers

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"f1fantasy/internal/security"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogin(t *testing.T) {
	app := newTestApp(t)
	app.signup(t, "admin")
	app.signup(t, "oscar")

	rec := app.anonymous(http.MethodGet, "/login", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Log in")

	t.Run("wrong password", func(t *testing.T) {
		rec := app.anonymous(http.MethodPost, "/login", url.Values{"identifier": {"oscar"}, "password": {"nope-nope"}})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "Invalid username or password")
	})

	t.Run("by email", func(t *testing.T) {
		rec := app.anonymous(http.MethodPost, "/login", url.Values{"identifier": {"oscar@example.com"}, "password": {testPassword}})
		require.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/dashboard", rec.Header().Get("Location"))

		var session *http.Cookie
		for _, c := range rec.Result().Cookies() {
			if c.Name == security.SessionCookieName {
				session = c
			}
		}
		require.NotNil(t, session)
		assert.True(t, session.HttpOnly)
	})

	t.Run("next stays on site", func(t *testing.T) {
		rec := app.anonymous(http.MethodPost, "/login", url.Values{
			"identifier": {"oscar"}, "password": {testPassword}, "next": {"//evil.example/"},
		})
		require.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/dashboard", rec.Header().Get("Location"))

		rec = app.anonymous(http.MethodPost, "/login", url.Values{
			"identifier": {"oscar"}, "password": {testPassword}, "next": {"/leagues"},
		})
		assert.Equal(t, "/leagues", rec.Header().Get("Location"))
	})

	t.Run("administrators land on the admin panel", func(t *testing.T) {
		rec := app.anonymous(http.MethodPost, "/login", url.Values{"identifier": {"admin"}, "password": {testPassword}})
		require.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/admin", rec.Header().Get("Location"))
	})
}

func TestRegister(t *testing.T) {
	app := newTestApp(t)
	app.signup(t, "admin")

	rec := app.anonymous(http.MethodPost, "/register", url.Values{
		"username": {"lando"},
		"email":    {"lando@example.com"},
		"password": {testPassword},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/dashboard", rec.Header().Get("Location"))

	t.Run("duplicate username re-renders the form", func(t *testing.T) {
		rec := app.anonymous(http.MethodPost, "/register", url.Values{
			"username": {"lando"},
			"password": {testPassword},
		})
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Contains(t, rec.Body.String(), "Username already taken")
	})

	t.Run("short password", func(t *testing.T) {
		rec := app.anonymous(http.MethodPost, "/register", url.Values{
			"username": {"george"},
			"password": {"short"},
		})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})
}

func TestRegisterWithInviteToken(t *testing.T) {
	app := newTestApp(t)
	app.signup(t, "admin")
	owner := app.signup(t, "toto")
	league := app.createLeague(t, owner, "Silver Arrows", false)

	rec := owner.post(leagueURL(league.ID)+"/invites", url.Values{
		"identifier": {"kimi@example.com"},
		"role":       {"member"},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	flash := flashOf(t, rec)
	require.NotNil(t, flash)
	assert.Contains(t, flash.Message, "http://fantasy.test/register?invite_token=")

	link, err := url.Parse(flash.Message[strings.LastIndex(flash.Message, " ")+1:])
	require.NoError(t, err)
	token := link.Query().Get("invite_token")
	require.NotEmpty(t, token)

	rec = app.anonymous(http.MethodGet, "/register?invite_token="+url.QueryEscape(token), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Silver Arrows")
	assert.Contains(t, rec.Body.String(), "kimi@example.com")

	rec = app.anonymous(http.MethodPost, "/register", url.Values{
		"username":     {"kimi"},
		"password":     {testPassword},
		"invite_token": {token},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, leagueURL(league.ID), rec.Header().Get("Location"))
	flash = flashOf(t, rec)
	require.NotNil(t, flash)
	assert.Equal(t, "success", flash.Kind)
	assert.Contains(t, flash.Message, "Silver Arrows")

	members, err := app.leagues.Members(context.Background(), league.ID)
	require.NoError(t, err)
	assert.Len(t, members, 2)
}

func TestRequireAuthRedirectsToLogin(t *testing.T) {
	app := newTestApp(t)

	rec := app.anonymous(http.MethodGet, "/leagues", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login?next=%2Fleagues", rec.Header().Get("Location"))
}

func TestLogoutClearsSession(t *testing.T) {
	app := newTestApp(t)
	app.signup(t, "admin")
	c := app.signup(t, "yuki")

	rec := c.post("/logout", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	rec = c.get("/dashboard")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Contains(t, rec.Header().Get("Location"), "/login")
}

func TestSafeNext(t *testing.T) {
	assert.Equal(t, "/leagues/1", safeNext("/leagues/1"))
	assert.Empty(t, safeNext("https://example.com"))
	assert.Empty(t, safeNext("//example.com"))
	assert.Empty(t, safeNext("/\\example.com"))
	assert.Empty(t, safeNext(""))
}
