package security

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("box-box-box")
	require.NoError(t, err)
	assert.NotEqual(t, "box-box-box", hash)

	assert.True(t, CheckPassword(hash, "box-box-box"))
	assert.False(t, CheckPassword(hash, "wrong"))
	assert.False(t, CheckPassword("", "box-box-box"))
}

func TestCSRFToken(t *testing.T) {
	gen := NewCSRFGenerator("secret")

	token, err := gen.GenerateToken("session-1")
	require.NoError(t, err)

	again, err := gen.GenerateToken("session-1")
	require.NoError(t, err)
	assert.Equal(t, token, again)

	assert.True(t, gen.ValidateToken("session-1", token))
	assert.False(t, gen.ValidateToken("session-2", token))
	assert.False(t, gen.ValidateToken("session-1", ""))
	assert.False(t, NewCSRFGenerator("other").ValidateToken("session-1", token))

	_, err = gen.GenerateToken("")
	assert.Error(t, err)
}

func TestTokenFromRequest(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("csrf_token=from-form"))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	assert.Equal(t, "from-form", TokenFromRequest(r))

	r = httptest.NewRequest(http.MethodPost, "/", nil)
	r.Header.Set(CSRFHeader, "from-header")
	assert.Equal(t, "from-header", TokenFromRequest(r))
}

func TestRateLimiter(t *testing.T) {
	clock := clockwork.NewFakeClock()
	rl := NewRateLimiter(2, time.Minute, clock)

	assert.True(t, rl.Allow("1.2.3.4"))
	assert.True(t, rl.Allow("1.2.3.4"))
	assert.False(t, rl.Allow("1.2.3.4"))
	assert.True(t, rl.Allow("5.6.7.8"), "limits are per key")

	clock.Advance(time.Minute)
	assert.True(t, rl.Allow("1.2.3.4"), "window refills")
}

func TestRateLimiterCleanup(t *testing.T) {
	clock := clockwork.NewFakeClock()
	rl := NewRateLimiter(1, time.Minute, clock)
	rl.Allow("a")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		rl.Run(ctx, time.Minute)
		close(done)
	}()

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(3 * time.Minute)

	assert.Eventually(t, func() bool {
		rl.mu.Lock()
		defer rl.mu.Unlock()
		return len(rl.visitors) == 0
	}, time.Second, 10*time.Millisecond)

	cancel()
	<-done
}

func TestGetClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, "10.0.0.1", GetClientIP(r))

	r.Header.Set("X-Real-IP", "10.0.0.2")
	r.Header.Set("X-Forwarded-For", "203.0.113.9")
	assert.Equal(t, "10.0.0.1", GetClientIP(r))

	r.RemoteAddr = "10.0.0.1"
	assert.Equal(t, "10.0.0.1", GetClientIP(r))
}

func TestForwardedFor(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, "", ForwardedFor(r))

	r.Header.Set("X-Real-IP", " 10.0.0.2 ")
	assert.Equal(t, "10.0.0.2", ForwardedFor(r))

	r.Header.Set("X-Forwarded-For", "198.51.100.1, 203.0.113.9")
	assert.Equal(t, "203.0.113.9", ForwardedFor(r))

	r.Header.Add("X-Forwarded-For", "203.0.113.10")
	assert.Equal(t, "203.0.113.10", ForwardedFor(r))
}

func TestSessionCookies(t *testing.T) {
	id := GenerateSessionID()
	assert.Len(t, id, 36)
	assert.NotEqual(t, id, GenerateSessionID())

	r := httptest.NewRequest(http.MethodGet, "http://example.com/", nil)
	expires := time.Now().Add(time.Hour)
	c := CreateSessionCookie(r, SessionCookieName, id, expires)
	assert.True(t, c.HttpOnly)
	assert.False(t, c.Secure)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)

	r.Header.Set("X-Forwarded-Proto", "https")
	assert.True(t, CreateSessionCookie(r, SessionCookieName, id, expires).Secure)

	del := CreateDeleteCookie(r, SessionCookieName)
	assert.Equal(t, -1, del.MaxAge)
}
