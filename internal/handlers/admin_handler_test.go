package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"f1fantasy/internal/security"
	"f1fantasy/internal/service"
	"f1fantasy/internal/settings"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminRoutesRequireAdministrator(t *testing.T) {
	app := newTestApp(t)
	admin := app.signup(t, "admin")
	player := app.signup(t, "logan")

	for _, path := range []string{"/admin", "/admin/settings", "/admin/users", "/admin/leagues", "/admin/backup"} {
		rec := player.get(path)
		assert.Equal(t, http.StatusForbidden, rec.Code, path)

		rec = admin.get(path)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}

	rec := app.anonymous(http.MethodGet, "/admin", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
}

func TestAdminLandsOnPanel(t *testing.T) {
	app := newTestApp(t)
	admin := app.signup(t, "admin")
	player := app.signup(t, "nico")

	rec := admin.get("/dashboard")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin", rec.Header().Get("Location"))

	rec = player.get("/dashboard")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Welcome")
}

func TestMaintenanceMode(t *testing.T) {
	app := newTestApp(t)
	admin := app.signup(t, "admin")
	player := app.signup(t, "kevin")
	require.NoError(t, app.settings.Set(context.Background(), settings.MaintenanceMode, "true", admin.user.ID))

	rec := app.anonymous(http.MethodGet, "/login", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = player.get("/leagues")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "300", rec.Header().Get("Retry-After"))

	rec = admin.get("/admin/settings")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUpdateSettings(t *testing.T) {
	app := newTestApp(t)
	admin := app.signup(t, "admin")

	rec := admin.post("/admin/settings", url.Values{
		"category":             {"league"},
		"max_leagues_per_user": {"2"},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin/settings?category=league", rec.Header().Get("Location"))
	assert.Equal(t, 2, app.settings.Int(context.Background(), settings.MaxLeaguesPerUser))

	rec = admin.post("/admin/settings", url.Values{
		"category":             {"league"},
		"max_leagues_per_user": {"lots"},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, 2, app.settings.Int(context.Background(), settings.MaxLeaguesPerUser))
}

func TestAdminDeactivatesUser(t *testing.T) {
	app := newTestApp(t)
	admin := app.signup(t, "admin")
	player := app.signup(t, "pierre")

	rec := admin.get("/admin/users")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "pierre")

	path := fmt.Sprintf("/admin/users/%d", player.user.ID)
	rec = admin.post(path, url.Values{
		"username": {"pierre"},
		"email":    {"pierre@example.com"},
		"name":     {"Pierre"},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code)

	_, _, err := app.auth.Login(context.Background(), "pierre", testPassword)
	assert.ErrorIs(t, err, service.ErrAccountDisabled)
}

func TestExportBackup(t *testing.T) {
	app := newTestApp(t)
	admin := app.signup(t, "admin")
	owner := app.signup(t, "esteban")
	app.createLeague(t, owner, "Pink Panthers", false)

	rec := admin.get("/admin/backup/export")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	disposition := rec.Header().Get("Content-Disposition")
	assert.True(t, strings.HasPrefix(disposition, "attachment; filename=f1fantasy_backup_"), disposition)

	var backup service.BackupData
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &backup))
	assert.Equal(t, service.BackupVersion, backup.Version)
	assert.Len(t, backup.Users, 2)
	require.Len(t, backup.Leagues, 1)
	assert.Equal(t, "Pink Panthers", backup.Leagues[0].Name)
}

func TestImportBackup(t *testing.T) {
	app := newTestApp(t)
	admin := app.signup(t, "admin")
	owner := app.signup(t, "lance")
	app.createLeague(t, owner, "Green Machine", false)

	rec := admin.get("/admin/backup/export")
	require.Equal(t, http.StatusOK, rec.Code)
	backup := rec.Body.Bytes()

	app.createLeague(t, owner, "After Export", false)

	upload := func(content []byte) *http.Request {
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		part, err := mw.CreateFormFile("backup_file", "backup.json")
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/admin/backup/import", &body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		token, err := app.csrf.GenerateToken(admin.session)
		require.NoError(t, err)
		req.Header.Set(security.CSRFHeader, token)
		req.AddCookie(&http.Cookie{Name: security.SessionCookieName, Value: admin.session})
		return req
	}

	rec = app.do(upload([]byte(`{"version":"0.1"}`)))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Failed to import database")

	rec = app.do(upload(backup))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	leagues, err := app.leagues.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, leagues, 1)
	assert.Equal(t, "Green Machine", leagues[0].Name)

	_, _, err = app.auth.Login(context.Background(), "lance", testPassword)
	assert.NoError(t, err)
}

func TestMetricsEndpoint(t *testing.T) {
	app := newTestApp(t)
	app.anonymous(http.MethodGet, "/login", nil)

	rec := app.anonymous(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "f1fantasy_http_requests_total")
}
