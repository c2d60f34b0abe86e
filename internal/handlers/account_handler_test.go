package handlers

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"f1fantasy/internal/models"
	"f1fantasy/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountVisibility(t *testing.T) {
	app := newTestApp(t)
	app.signup(t, "admin")
	c := app.signup(t, "daniel")

	rec := c.get("/account")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = c.post("/account/visibility", url.Values{"visibility": {"hidden"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)

	user, err := app.auth.ValidateSession(context.Background(), c.session)
	require.NoError(t, err)
	assert.Equal(t, models.VisibilityHidden, user.Visibility)

	rec = c.post("/account/visibility", url.Values{"visibility": {"everyone"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	flash := flashOf(t, rec)
	require.NotNil(t, flash)
	assert.Equal(t, "error", flash.Kind)
}

func TestChangePassword(t *testing.T) {
	app := newTestApp(t)
	app.signup(t, "admin")
	c := app.signup(t, "valtteri")

	rec := c.post("/account/password", url.Values{"current_password": {"wrong-one"}, "new_password": {"brand-new-pass"}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = c.post("/account/password", url.Values{"current_password": {testPassword}, "new_password": {"brand-new-pass"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)

	_, _, err := app.auth.Login(context.Background(), "valtteri", "brand-new-pass")
	assert.NoError(t, err)
}

func TestDeleteAccount(t *testing.T) {
	app := newTestApp(t)
	app.signup(t, "admin")
	owner := app.signup(t, "sebastian")
	c := app.signup(t, "kimi")
	app.createLeague(t, owner, "Iceman Fans", false)

	rec := c.post("/account/delete", url.Values{"confirm": {"delete"}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = owner.post("/account/delete", url.Values{"confirm": {"DELETE"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	flash := flashOf(t, rec)
	require.NotNil(t, flash)
	assert.Contains(t, flash.Message, "Transfer or delete your leagues")

	rec = c.post("/account/delete", url.Values{"confirm": {"DELETE"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	_, _, err := app.auth.Login(context.Background(), "kimi", testPassword)
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
}
