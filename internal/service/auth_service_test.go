package service

import (
	"context"
	"testing"
	"time"

	"f1fantasy/internal/invite"
	"f1fantasy/internal/models"
	"f1fantasy/internal/settings"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func register(t *testing.T, f *fixture, username string) *models.User {
	t.Helper()
	user, redemption, err := f.auth.Register(context.Background(), Registration{
		Username: username,
		Email:    username + "@example.com",
		Password: "password123",
	})
	require.NoError(t, err)
	assert.Nil(t, redemption)
	return user
}

func TestRegister(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := register(t, f, "sebastian")
	assert.True(t, first.IsAdmin, "first account becomes administrator")
	assert.True(t, first.IsActive)
	assert.NotEqual(t, "password123", first.PasswordHash)

	second := register(t, f, "kimi")
	assert.False(t, second.IsAdmin)

	_, _, err := f.auth.Register(ctx, Registration{Username: "kimi", Email: "other@example.com", Password: "password123"})
	assert.ErrorIs(t, err, ErrUsernameTaken)

	_, _, err = f.auth.Register(ctx, Registration{Username: "iceman", Email: "KIMI@example.com", Password: "password123"})
	assert.ErrorIs(t, err, ErrEmailTaken)

	_, _, err = f.auth.Register(ctx, Registration{Username: "shorty", Password: "short"})
	assert.Error(t, err)

	t.Run("registration closed", func(t *testing.T) {
		require.NoError(t, f.settings.Set(ctx, settings.AllowRegistration, "false", first.ID))
		_, _, err := f.auth.Register(ctx, Registration{Username: "mick", Password: "password123"})
		assert.ErrorIs(t, err, ErrRegistrationClosed)
	})
}

func TestRegisterWithInviteToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "toto")
	league := f.league(t, owner, "Brackley", 4, false)

	mint := func(email string, role models.Role, grants models.EditGrants) string {
		token, err := f.tokens.Mint(league.ID, email, role, grants)
		require.NoError(t, err)
		return token
	}

	t.Run("joins with the token role even when registration is closed", func(t *testing.T) {
		require.NoError(t, f.settings.Set(ctx, settings.AllowRegistration, "false", owner.ID))
		t.Cleanup(func() { _ = f.settings.Set(ctx, settings.AllowRegistration, "true", owner.ID) })

		grants := models.EditGrants{Description: true}
		user, redemption, err := f.auth.Register(ctx, Registration{
			Username:    "george",
			Password:    "password123",
			InviteToken: mint("george@example.com", models.RoleCommissioner, grants),
		})
		require.NoError(t, err)
		assert.Equal(t, "george@example.com", user.Email)
		require.True(t, redemption.Joined())
		assert.Equal(t, "Brackley", redemption.LeagueName)

		m := f.membership(t, league, user)
		require.NotNil(t, m)
		assert.Equal(t, models.RoleCommissioner, m.Role)
		assert.Equal(t, grants, m.Grants)
	})

	t.Run("mismatched email creates the account without joining", func(t *testing.T) {
		user, redemption, err := f.auth.Register(ctx, Registration{
			Username:    "kimi",
			Email:       "kimi@example.com",
			Password:    "password123",
			InviteToken: mint("someone@example.com", models.RoleMember, models.EditGrants{}),
		})
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.False(t, redemption.Joined())
		assert.ErrorIs(t, redemption.Err, ErrInvalidInvite)
		assert.Nil(t, f.membership(t, league, user))
	})

	t.Run("expired token", func(t *testing.T) {
		token := mint("valtteri@example.com", models.RoleMember, models.EditGrants{})
		f.clock.Advance(invite.DefaultTTL + time.Minute)

		user, redemption, err := f.auth.Register(ctx, Registration{
			Username:    "valtteri",
			Password:    "password123",
			InviteToken: token,
		})
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.ErrorIs(t, redemption.Err, invite.ErrTokenExpired)
		assert.Nil(t, f.membership(t, league, user))
	})

	t.Run("deleted league", func(t *testing.T) {
		doomed := f.league(t, owner, "Doomed", 4, false)
		token, err := f.tokens.Mint(doomed.ID, "lewis@example.com", models.RoleMember, models.EditGrants{})
		require.NoError(t, err)
		require.NoError(t, f.leagues.Delete(ctx, owner.ID, doomed.ID, "Doomed"))

		user, redemption, err := f.auth.Register(ctx, Registration{
			Username:    "lewis",
			Password:    "password123",
			InviteToken: token,
		})
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.ErrorIs(t, redemption.Err, ErrLeagueNotFound)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, redemption, err := f.auth.Register(ctx, Registration{
			Username:    "nico",
			Email:       "nico@example.com",
			Password:    "password123",
			InviteToken: "not-a-token",
		})
		require.NoError(t, err)
		assert.ErrorIs(t, redemption.Err, invite.ErrTokenInvalid)
	})
}

func TestRedeemTokenForSignedInUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "frederic")
	user := f.user(t, "charles")
	league := f.league(t, owner, "Scuderia", 4, false)

	token, err := f.tokens.Mint(league.ID, "charles@example.com", models.RoleMember, models.EditGrants{})
	require.NoError(t, err)

	redemption := f.auth.RedeemToken(ctx, user, token)
	require.True(t, redemption.Joined())

	again := f.auth.RedeemToken(ctx, user, token)
	assert.ErrorIs(t, again.Err, ErrAlreadyMember)

	commissionerToken, err := f.tokens.Mint(league.ID, "carlos@example.com", models.RoleCommissioner, models.AllGrants())
	require.NoError(t, err)

	t.Run("account with a different email", func(t *testing.T) {
		other := f.user(t, "lewis")
		redemption := f.auth.RedeemToken(ctx, other, commissionerToken)
		assert.ErrorIs(t, redemption.Err, ErrInvalidInvite)
		assert.False(t, redemption.Joined())
		assert.Nil(t, f.membership(t, league, other))
	})

	t.Run("account without an email", func(t *testing.T) {
		noEmail := &models.User{
			Username:     "kimi",
			PasswordHash: "unused",
			IsActive:     true,
			Visibility:   models.VisibilityPublic,
		}
		require.NoError(t, f.repos.users.CreateUser(ctx, noEmail))

		redemption := f.auth.RedeemToken(ctx, noEmail, commissionerToken)
		assert.ErrorIs(t, redemption.Err, ErrInvalidInvite)
		assert.False(t, redemption.Joined())
		assert.Nil(t, f.membership(t, league, noEmail))
	})

	t.Run("matching email in a different case", func(t *testing.T) {
		carlos := f.user(t, "Carlos")
		redemption := f.auth.RedeemToken(ctx, carlos, commissionerToken)
		require.NoError(t, redemption.Err)
		m := f.membership(t, league, carlos)
		require.NotNil(t, m)
		assert.Equal(t, models.RoleCommissioner, m.Role)
	})
}

func TestPreviewInvite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "toto")
	league := f.league(t, owner, "Silver Arrows", 6, false)

	token, err := f.tokens.Mint(league.ID, "george@example.com", models.RoleMember, models.EditGrants{})
	require.NoError(t, err)

	claims, name, err := f.auth.PreviewInvite(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "Silver Arrows", name)
	assert.Equal(t, "george@example.com", claims.Email)

	_, _, err = f.auth.PreviewInvite(ctx, "not-a-token")
	assert.ErrorIs(t, err, invite.ErrTokenInvalid)

	require.NoError(t, f.leagues.Delete(ctx, owner.ID, league.ID, "Silver Arrows"))
	_, _, err = f.auth.PreviewInvite(ctx, token)
	assert.ErrorIs(t, err, ErrLeagueNotFound)
}

func TestLoginAndSessions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := register(t, f, "daniel")

	_, _, err := f.auth.Login(ctx, "daniel", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = f.auth.Login(ctx, "nobody", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	session, loggedIn, err := f.auth.Login(ctx, "DANIEL@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)
	assert.WithinDuration(t, f.clock.Now().Add(24*time.Hour), session.ExpiresAt, time.Second)

	got, err := f.auth.ValidateSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	t.Run("session_timeout setting controls lifetime", func(t *testing.T) {
		require.NoError(t, f.settings.Set(ctx, settings.SessionTimeout, "30", user.ID))
		assert.Equal(t, 30*time.Minute, f.auth.SessionDuration(ctx))

		short, _, err := f.auth.Login(ctx, "daniel", "password123")
		require.NoError(t, err)
		f.clock.Advance(31 * time.Minute)

		_, err = f.auth.ValidateSession(ctx, short.ID)
		assert.ErrorIs(t, err, ErrSessionExpired)
		_, err = f.auth.ValidateSession(ctx, short.ID)
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("logout", func(t *testing.T) {
		require.NoError(t, f.auth.Logout(ctx, session.ID))
		_, err := f.auth.ValidateSession(ctx, session.ID)
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("disabled accounts", func(t *testing.T) {
		user.IsActive = false
		require.NoError(t, f.repos.users.UpdateUser(ctx, user))
		_, _, err := f.auth.Login(ctx, "daniel", "password123")
		assert.ErrorIs(t, err, ErrAccountDisabled)
	})
}

func TestOAuthLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	existing := register(t, f, "oscar")

	t.Run("links by email", func(t *testing.T) {
		_, user, err := f.auth.OAuthLogin(ctx, OAuthIdentity{Provider: "google", Subject: "g-1", Email: "oscar@example.com"})
		require.NoError(t, err)
		assert.Equal(t, existing.ID, user.ID)

		_, again, err := f.auth.OAuthLogin(ctx, OAuthIdentity{Provider: "google", Subject: "g-1", Email: "oscar@example.com"})
		require.NoError(t, err)
		assert.Equal(t, existing.ID, again.ID)
	})

	t.Run("creates an account with a unique username", func(t *testing.T) {
		_, user, err := f.auth.OAuthLogin(ctx, OAuthIdentity{Provider: "facebook", Subject: "f-9", Email: "oscar@other.example", Name: "Oscar P"})
		require.NoError(t, err)
		assert.Equal(t, "oscar2", user.Username)
		assert.Equal(t, "Oscar P", user.Name)
		assert.False(t, user.IsAdmin)
	})

	t.Run("another provider cannot take a linked email", func(t *testing.T) {
		_, _, err := f.auth.OAuthLogin(ctx, OAuthIdentity{Provider: "facebook", Subject: "f-10", Email: "oscar@example.com"})
		assert.ErrorIs(t, err, ErrEmailTaken)
	})

	t.Run("registration closed", func(t *testing.T) {
		require.NoError(t, f.settings.Set(ctx, settings.AllowRegistration, "false", existing.ID))
		_, _, err := f.auth.OAuthLogin(ctx, OAuthIdentity{Provider: "google", Subject: "g-2", Email: "new@example.com"})
		assert.ErrorIs(t, err, ErrRegistrationClosed)
	})
}

func TestUsernameFromEmail(t *testing.T) {
	tests := []struct {
		email string
		want  string
	}{
		{"lando.norris@example.com", "lando.norris"},
		{"a@example.com", "a__"},
		{"fun+tag@example.com", "funtag"},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			assert.Equal(t, tt.want, usernameFromEmail(tt.email))
		})
	}
}

func TestAccountManagement(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := register(t, f, "zhou")
	other := register(t, f, "guanyu")
	f.league(t, owner, "Hinwil", 4, true)

	t.Run("change password", func(t *testing.T) {
		assert.ErrorIs(t, f.auth.ChangePassword(ctx, other, "wrong", "newpassword1"), ErrInvalidCredentials)
		require.NoError(t, f.auth.ChangePassword(ctx, other, "password123", "newpassword1"))
		_, _, err := f.auth.Login(ctx, "guanyu", "newpassword1")
		assert.NoError(t, err)
	})

	t.Run("visibility", func(t *testing.T) {
		assert.Error(t, f.auth.SetVisibility(ctx, other.ID, models.Visibility("secret")))
		require.NoError(t, f.auth.SetVisibility(ctx, other.ID, models.VisibilityHidden))
		got, err := f.repos.users.GetUserByID(ctx, other.ID)
		require.NoError(t, err)
		assert.False(t, got.IsSearchable())
	})

	t.Run("delete account", func(t *testing.T) {
		assert.ErrorIs(t, f.auth.DeleteAccount(ctx, owner.ID), ErrOwnsLeagues)
		require.NoError(t, f.auth.DeleteAccount(ctx, other.ID))
		got, err := f.repos.users.GetUserByID(ctx, other.ID)
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}
