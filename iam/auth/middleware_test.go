package auth

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/arenalabs/tradearena/iam/session"
	"github.com/arenalabs/tradearena/pkg/config"
	"github.com/arenalabs/tradearena/pkg/kernel"
	"github.com/arenalabs/tradearena/pkg/rpcerr"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

// ============================================================================
// Fakes
// ============================================================================

type stubVerifier struct {
	claims *IdentityClaims
	err    error
}

func (s stubVerifier) Verify(string) (*IdentityClaims, error) {
	return s.claims, s.err
}

type stubAgentKeys struct {
	agentID kernel.AgentID
	err     error
	calls   int
}

func (s *stubAgentKeys) ResolveAPIKey(context.Context, string) (kernel.AgentID, error) {
	s.calls++
	return s.agentID, s.err
}

type stubProviderUsers struct {
	userID kernel.UserID
	wallet kernel.WalletAddress
	err    error
}

func (s stubProviderUsers) ResolveProviderSubject(context.Context, string) (kernel.UserID, kernel.WalletAddress, error) {
	return s.userID, s.wallet, s.err
}

func sessionConfig() config.SessionConfig {
	return config.SessionConfig{CookieName: "arena_session", TTL: time.Hour}
}

func idpConfig() config.IdentityProviderConfig {
	return config.IdentityProviderConfig{CookieName: "idp_token", Issuer: "tradearena", Secret: "secret"}
}

func newTestApp(am *AuthMiddleware) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: rpcerr.ErrorHandler()})
	app.Use(session.NewMiddleware(sessionConfig()).Load())
	app.Use(am.Resolve())
	return app
}

func sessionCookie(t *testing.T, sess *session.Session) *http.Cookie {
	t.Helper()
	sess.ExpirationTime = time.Now().Add(time.Hour)
	encoded, err := sess.Encode()
	require.NoError(t, err)
	return &http.Cookie{Name: "arena_session", Value: encoded}
}

// ============================================================================
// Resolution
// ============================================================================

func TestResolveUserFromSession(t *testing.T) {
	am := NewAuthMiddleware(stubVerifier{}, &stubAgentKeys{}, stubProviderUsers{}, idpConfig())
	app := newTestApp(am)
	app.Get("/", func(c *fiber.Ctx) error {
		actor, ok := GetActorContext(c)
		require.True(t, ok)
		assert.True(t, actor.IsUser())
		assert.Equal(t, kernel.NewUserID("user-1"), actor.UserID)
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(sessionCookie(t, &session.Session{
		UserID: kernel.NewUserID("user-1"),
		Wallet: kernel.NewWalletAddress("0xabc"),
	}))

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestResolvePrefersAdminOverUser(t *testing.T) {
	am := NewAuthMiddleware(stubVerifier{}, &stubAgentKeys{}, stubProviderUsers{}, idpConfig())
	app := newTestApp(am)
	app.Get("/", func(c *fiber.Ctx) error {
		actor, ok := GetActorContext(c)
		require.True(t, ok)
		assert.True(t, actor.IsAdmin())
		assert.False(t, actor.IsUser())
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(sessionCookie(t, &session.Session{
		UserID:  kernel.NewUserID("user-1"),
		AdminID: kernel.NewAdminID("admin-1"),
	}))

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestResolveAgentFromBearerKey(t *testing.T) {
	keys := &stubAgentKeys{agentID: kernel.NewAgentID("agent-1")}
	am := NewAuthMiddleware(stubVerifier{}, keys, stubProviderUsers{}, idpConfig())
	app := newTestApp(am)
	app.Get("/", func(c *fiber.Ctx) error {
		actor, ok := GetActorContext(c)
		require.True(t, ok)
		assert.True(t, actor.IsAgent())
		assert.Equal(t, kernel.NewAgentID("agent-1"), actor.AgentID)
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer ta_somekey")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, keys.calls)
}

func TestResolveSwallowsAgentKeyFailure(t *testing.T) {
	keys := &stubAgentKeys{err: errors.New("no such key")}
	am := NewAuthMiddleware(stubVerifier{}, keys, stubProviderUsers{}, idpConfig())
	app := newTestApp(am)
	app.Get("/", func(c *fiber.Ctx) error {
		_, ok := GetActorContext(c)
		assert.False(t, ok)
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer bad-key")

	// La API key inválida no produce error: el request sigue anónimo
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestResolveProviderTokenFromCookie(t *testing.T) {
	am := NewAuthMiddleware(
		stubVerifier{claims: &IdentityClaims{Subject: "privy:123"}},
		&stubAgentKeys{},
		stubProviderUsers{userID: kernel.NewUserID("user-9"), wallet: kernel.NewWalletAddress("0x9")},
		idpConfig(),
	)
	app := newTestApp(am)
	app.Get("/", func(c *fiber.Ctx) error {
		actor, ok := GetActorContext(c)
		require.True(t, ok)
		assert.True(t, actor.IsUser())
		assert.Equal(t, kernel.NewUserID("user-9"), actor.UserID)
		assert.Equal(t, kernel.NewWalletAddress("0x9"), actor.Wallet)
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: "idp_token", Value: "some-jwt"})

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestResolveSwallowsProviderTokenFailure(t *testing.T) {
	am := NewAuthMiddleware(
		stubVerifier{err: errors.New("expired token")},
		&stubAgentKeys{},
		stubProviderUsers{},
		idpConfig(),
	)
	app := newTestApp(am)
	app.Get("/", func(c *fiber.Ctx) error {
		_, ok := GetActorContext(c)
		assert.False(t, ok)
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: "idp_token", Value: "expired"})

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

// ============================================================================
// Gates
// ============================================================================

func TestRequireUserRejectsAnonymousBeforeHandler(t *testing.T) {
	am := NewAuthMiddleware(stubVerifier{}, &stubAgentKeys{}, stubProviderUsers{}, idpConfig())
	app := newTestApp(am)

	handlerCalled := false
	app.Get("/protected", am.RequireUser(), func(c *fiber.Ctx) error {
		handlerCalled = true
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/protected", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.False(t, handlerCalled)

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "UNAUTHORIZED", gjson.GetBytes(body, "error.kind").String())
	assert.False(t, gjson.GetBytes(body, "success").Bool())
}

func TestRequireAdminRejectsUser(t *testing.T) {
	am := NewAuthMiddleware(stubVerifier{}, &stubAgentKeys{}, stubProviderUsers{}, idpConfig())
	app := newTestApp(am)
	app.Get("/admin", am.RequireAdmin(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest("GET", "/admin", nil)
	req.AddCookie(sessionCookie(t, &session.Session{UserID: kernel.NewUserID("user-1")}))

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestRequireAgentAllowsResolvedAgent(t *testing.T) {
	keys := &stubAgentKeys{agentID: kernel.NewAgentID("agent-1")}
	am := NewAuthMiddleware(stubVerifier{}, keys, stubProviderUsers{}, idpConfig())
	app := newTestApp(am)
	app.Get("/agent", am.RequireAgent(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest("GET", "/agent", nil)
	req.Header.Set("Authorization", "Bearer ta_key")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
