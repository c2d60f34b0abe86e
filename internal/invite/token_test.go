package invite

import (
	"testing"
	"time"

	"f1fantasy/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMintVerifyRoundTrip(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2025, 3, 16, 12, 0, 0, 0, time.UTC))
	issuer := NewTokenIssuer("secret", 0, clock)

	grants := models.EditGrants{Name: true, PointSystem: true}
	token, err := issuer.Mint(42, " New.Driver@Example.com ", models.RoleCommissioner, grants)
	require.NoError(t, err)

	claims, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.LeagueID)
	assert.Equal(t, "new.driver@example.com", claims.Email)
	assert.Equal(t, models.RoleCommissioner, claims.Role)
	assert.Equal(t, grants, claims.Permissions)
	assert.True(t, claims.ExpiresAt.Time.Equal(clock.Now().Add(DefaultTTL)))
}

func TestMemberTokensCarryNoGrants(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour, clockwork.NewFakeClock())

	token, err := issuer.Mint(1, "a@example.com", models.RoleMember, models.AllGrants())
	require.NoError(t, err)

	claims, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, models.EditGrants{}, claims.Permissions)
}

func TestVerifyAfterExpiry(t *testing.T) {
	clock := clockwork.NewFakeClock()
	issuer := NewTokenIssuer("secret", 7*24*time.Hour, clock)

	token, err := issuer.Mint(1, "a@example.com", models.RoleMember, models.EditGrants{})
	require.NoError(t, err)

	clock.Advance(7*24*time.Hour - time.Minute)
	_, err = issuer.Verify(token)
	require.NoError(t, err)

	clock.Advance(2 * time.Minute)
	_, err = issuer.Verify(token)
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerifyRejectsBadTokens(t *testing.T) {
	clock := clockwork.NewFakeClock()
	issuer := NewTokenIssuer("secret", time.Hour, clock)

	other := NewTokenIssuer("another-secret", time.Hour, clock)
	foreign, err := other.Mint(1, "a@example.com", models.RoleMember, models.EditGrants{})
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{LeagueID: 1, Role: models.RoleMember}).SignedString([]byte("secret"))
	require.NoError(t, err)

	noLeague, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role:             models.RoleMember,
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(clock.Now().Add(time.Hour))},
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	tests := map[string]string{
		"garbage":        "not-a-token",
		"empty":          "",
		"wrong secret":   foreign,
		"missing expiry": noExpiry,
		"missing league": noLeague,
	}

	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := issuer.Verify(token)
			require.ErrorIs(t, err, ErrTokenInvalid)
		})
	}
}
