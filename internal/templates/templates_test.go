package templates

import (
	"io/fs"
	"testing"
	"time"

	"f1fantasy/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadParsesEveryPage(t *testing.T) {
	tmpl, err := Load()
	require.NoError(t, err)

	for _, name := range []string{
		"login.tmpl", "register.tmpl", "dashboard.tmpl", "league.tmpl", "league_form.tmpl",
		"league_delete.tmpl", "leagues.tmpl", "team.tmpl", "invites.tmpl", "account.tmpl",
		"season.tmpl", "error.tmpl", "maintenance.tmpl",
		"admin_dashboard.tmpl", "admin_settings.tmpl", "admin_users.tmpl", "admin_user.tmpl",
		"admin_leagues.tmpl", "admin_backup.tmpl",
	} {
		assert.NotNil(t, tmpl.Lookup(name), name)
	}
	assert.NotNil(t, tmpl.Lookup("header"))
	assert.NotNil(t, tmpl.Lookup("footer"))
}

func TestStaticAssets(t *testing.T) {
	data, err := fs.ReadFile(Static(), "app.css")
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}

func TestFuncMap(t *testing.T) {
	funcs := FuncMap()

	formatDate := funcs["formatDate"].(func(time.Time) string)
	assert.Equal(t, "", formatDate(time.Time{}))
	assert.Equal(t, "May 26, 2024", formatDate(time.Date(2024, 5, 26, 13, 0, 0, 0, time.UTC)))

	formatTime := funcs["formatTime"].(func(*time.Time) string)
	assert.Equal(t, "never", formatTime(nil))

	hasField := funcs["hasField"].(func([]models.Field, models.Field) bool)
	assert.True(t, hasField([]models.Field{models.FieldName, models.FieldMaxTeams}, models.FieldMaxTeams))
	assert.False(t, hasField(nil, models.FieldName))

	assert.Len(t, funcs["until"].(func(int) []int)(3), 3)
}
