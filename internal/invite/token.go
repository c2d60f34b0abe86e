// Package invite mints and verifies signed league invitations for people who
// do not have an account yet.
package invite

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"f1fantasy/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
)

// DefaultTTL is how long an invite link stays valid
const DefaultTTL = 7 * 24 * time.Hour

var (
	ErrTokenExpired = errors.New("invite link has expired")
	ErrTokenInvalid = errors.New("invite link is invalid")
)

// Claims is the payload carried by an invite token
type Claims struct {
	LeagueID    int64             `json:"league_id"`
	Email       string            `json:"email"`
	Role        models.Role       `json:"role"`
	Permissions models.EditGrants `json:"permissions"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 invite tokens
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	clock  clockwork.Clock
}

// NewTokenIssuer creates an issuer. A zero ttl uses DefaultTTL and a nil
// clock uses the wall clock.
func NewTokenIssuer(secret string, ttl time.Duration, clock clockwork.Clock) *TokenIssuer {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, clock: clock}
}

// TTL returns the lifetime of minted tokens
func (i *TokenIssuer) TTL() time.Duration {
	return i.ttl
}

// Mint signs an invite for email to join leagueID with the given role and grants.
func (i *TokenIssuer) Mint(leagueID int64, email string, role models.Role, grants models.EditGrants) (string, error) {
	if !role.Valid() {
		role = models.RoleMember
	}
	if role == models.RoleMember {
		grants = models.EditGrants{}
	}

	now := i.clock.Now()
	claims := Claims{
		LeagueID:    leagueID,
		Email:       strings.ToLower(strings.TrimSpace(email)),
		Role:        role,
		Permissions: grants,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign invite token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and expiry of token and returns its claims.
// Failures are ErrTokenExpired or ErrTokenInvalid.
func (i *TokenIssuer) Verify(token string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.clock.Now),
		jwt.WithExpirationRequired(),
	)

	claims := &Claims{}
	_, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return i.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	if claims.LeagueID <= 0 || !claims.Role.Valid() {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
