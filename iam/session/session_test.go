package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/arenalabs/tradearena/pkg/config"
	"github.com/arenalabs/tradearena/pkg/kernel"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() config.SessionConfig {
	return config.SessionConfig{
		CookieName: "arena_session",
		TTL:        time.Hour,
	}
}

func TestCodecRoundTrip(t *testing.T) {
	sess := &Session{
		Nonce:          "nonce-1",
		Challenge:      "Sign in to TradeArena\nNonce: nonce-1",
		UserID:         kernel.NewUserID("user-1"),
		Wallet:         kernel.NewWalletAddress("0xabc"),
		ExpirationTime: time.Now().Add(time.Hour).UTC().Truncate(time.Second),
	}

	encoded, err := sess.Encode()
	require.NoError(t, err)

	decoded, err := Decode(encoded)
	require.NoError(t, err)
	assert.Equal(t, sess.Nonce, decoded.Nonce)
	assert.Equal(t, sess.Challenge, decoded.Challenge)
	assert.Equal(t, sess.UserID, decoded.UserID)
	assert.Equal(t, sess.Wallet, decoded.Wallet)
	assert.True(t, sess.ExpirationTime.Equal(decoded.ExpirationTime))
}

func TestDecodeIllegibleValue(t *testing.T) {
	_, err := Decode("not!!base64url!!")
	assert.Error(t, err)
}

func TestLoadWithoutCookieYieldsEmptySession(t *testing.T) {
	mw := NewMiddleware(testConfig())

	app := fiber.New()
	app.Use(mw.Load())
	app.Get("/", func(c *fiber.Ctx) error {
		sess := FromCtx(c)
		assert.True(t, sess.IsEmpty())
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestLoadWithIllegibleCookieYieldsEmptySession(t *testing.T) {
	mw := NewMiddleware(testConfig())

	app := fiber.New()
	app.Use(mw.Load())
	app.Get("/", func(c *fiber.Ctx) error {
		sess := FromCtx(c)
		assert.True(t, sess.IsEmpty())
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: "arena_session", Value: "garbage-value"})

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestLoadClearsExpiredSessionBeforeHandler(t *testing.T) {
	mw := NewMiddleware(testConfig())
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	mw.SetNow(func() time.Time { return now })

	expired := &Session{
		UserID:         kernel.NewUserID("user-1"),
		Wallet:         kernel.NewWalletAddress("0xabc"),
		ExpirationTime: now.Add(-time.Minute),
	}
	encoded, err := expired.Encode()
	require.NoError(t, err)

	app := fiber.New()
	app.Use(mw.Load())
	app.Get("/", func(c *fiber.Ctx) error {
		sess := FromCtx(c)
		// Ningún campo de una sesión expirada debe sobrevivir
		assert.True(t, sess.IsEmpty())
		assert.True(t, sess.UserID.IsEmpty())
		assert.True(t, sess.Wallet.IsEmpty())
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: "arena_session", Value: encoded})

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	// La cookie se reescribe con la sesión vacía
	cookies := resp.Cookies()
	require.NotEmpty(t, cookies)
	found := false
	for _, c := range cookies {
		if c.Name == "arena_session" {
			found = true
			decoded, err := Decode(c.Value)
			require.NoError(t, err)
			assert.True(t, decoded.IsEmpty())
		}
	}
	assert.True(t, found)
}

func TestLoadKeepsLiveSession(t *testing.T) {
	mw := NewMiddleware(testConfig())
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	mw.SetNow(func() time.Time { return now })

	live := &Session{
		UserID:         kernel.NewUserID("user-1"),
		ExpirationTime: now.Add(time.Hour),
	}
	encoded, err := live.Encode()
	require.NoError(t, err)

	app := fiber.New()
	app.Use(mw.Load())
	app.Get("/", func(c *fiber.Ctx) error {
		sess := FromCtx(c)
		assert.Equal(t, kernel.NewUserID("user-1"), sess.UserID)
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: "arena_session", Value: encoded})

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestTouchExtendsExpiration(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sess := &Session{UserID: kernel.NewUserID("user-1")}

	sess.Touch(now, time.Hour)

	assert.True(t, sess.ExpirationTime.Equal(now.Add(time.Hour)))
	assert.False(t, sess.IsExpired(now))
	assert.True(t, sess.IsExpired(now.Add(2*time.Hour)))
}

func TestClearRemovesEveryField(t *testing.T) {
	sess := &Session{
		Nonce:          "n",
		Challenge:      "c",
		UserID:         kernel.NewUserID("u"),
		AdminID:        kernel.NewAdminID("a"),
		AgentID:        kernel.NewAgentID("g"),
		Wallet:         kernel.NewWalletAddress("0x1"),
		ExpirationTime: time.Now(),
	}

	sess.Clear()

	assert.True(t, sess.IsEmpty())
}
