package auth

import (
	"strings"

	"github.com/arenalabs/tradearena/iam"
	"github.com/arenalabs/tradearena/iam/session"
	"github.com/arenalabs/tradearena/pkg/config"
	"github.com/arenalabs/tradearena/pkg/kernel"
	"github.com/gofiber/fiber/v2"
)

// AuthMiddleware resuelve la identidad del request y aplica los gates de
// autorización. La resolución NUNCA falla: la ausencia de identidad es un
// estado válido que consumen los gates.
type AuthMiddleware struct {
	verifier     IdentityTokenVerifier
	agentKeys    AgentKeyResolver
	providerUser ProviderUserResolver
	idpCookie    string
}

// NewAuthMiddleware crea un nuevo middleware de autenticación
func NewAuthMiddleware(
	verifier IdentityTokenVerifier,
	agentKeys AgentKeyResolver,
	providerUser ProviderUserResolver,
	idpCfg config.IdentityProviderConfig,
) *AuthMiddleware {
	return &AuthMiddleware{
		verifier:     verifier,
		agentKeys:    agentKeys,
		providerUser: providerUser,
		idpCookie:    idpCfg.CookieName,
	}
}

// Resolve intenta resolver una identidad en este orden:
//  1. Sesión (admin, luego usuario): los actores internos tienen precedencia
//  2. API key de agente en el header Authorization
//  3. Token del proveedor externo de identidad en cookie
//
// Cualquier fallo en un camino se descarta y se continúa con el siguiente.
func (am *AuthMiddleware) Resolve() fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess := session.FromCtx(c)

		if !sess.AdminID.IsEmpty() {
			setActor(c, &kernel.ActorContext{
				Kind:    kernel.ActorKindAdmin,
				AdminID: sess.AdminID,
			})
			return c.Next()
		}

		if !sess.UserID.IsEmpty() {
			setActor(c, &kernel.ActorContext{
				Kind:   kernel.ActorKindUser,
				UserID: sess.UserID,
				Wallet: sess.Wallet,
			})
			return c.Next()
		}

		if actor := am.resolveAgentKey(c); actor != nil {
			setActor(c, actor)
			return c.Next()
		}

		if actor := am.resolveProviderToken(c); actor != nil {
			setActor(c, actor)
		}

		return c.Next()
	}
}

func (am *AuthMiddleware) resolveAgentKey(c *fiber.Ctx) *kernel.ActorContext {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return nil
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return nil
	}

	agentID, err := am.agentKeys.ResolveAPIKey(c.Context(), parts[1])
	if err != nil || agentID.IsEmpty() {
		return nil
	}

	return &kernel.ActorContext{
		Kind:    kernel.ActorKindAgent,
		AgentID: agentID,
	}
}

func (am *AuthMiddleware) resolveProviderToken(c *fiber.Ctx) *kernel.ActorContext {
	token := c.Cookies(am.idpCookie)
	if token == "" {
		return nil
	}

	claims, err := am.verifier.Verify(token)
	if err != nil {
		return nil
	}

	userID, wallet, err := am.providerUser.ResolveProviderSubject(c.Context(), claims.Subject)
	if err != nil || userID.IsEmpty() {
		return nil
	}

	return &kernel.ActorContext{
		Kind:   kernel.ActorKindUser,
		UserID: userID,
		Wallet: wallet,
	}
}

// ============================================================================
// Authorization Gates
// ============================================================================

// RequireUser exige un usuario final resuelto antes de ejecutar el handler
func (am *AuthMiddleware) RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := GetActorContext(c)
		if !ok || !actor.IsUser() {
			return iam.ErrUnauthorized()
		}
		return c.Next()
	}
}

// RequireAdmin exige un administrador resuelto antes de ejecutar el handler
func (am *AuthMiddleware) RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := GetActorContext(c)
		if !ok || !actor.IsAdmin() {
			return iam.ErrUnauthorized()
		}
		return c.Next()
	}
}

// RequireAgent exige un agente resuelto antes de ejecutar el handler
func (am *AuthMiddleware) RequireAgent() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := GetActorContext(c)
		if !ok || !actor.IsAgent() {
			return iam.ErrUnauthorized()
		}
		return c.Next()
	}
}

// ============================================================================
// Helpers
// ============================================================================

func setActor(c *fiber.Ctx, actor *kernel.ActorContext) {
	c.Locals(string(kernel.ActorContextKey), actor)
}

// GetActorContext extrae la identidad resuelta del request
func GetActorContext(c *fiber.Ctx) (*kernel.ActorContext, bool) {
	actor, ok := c.Locals(string(kernel.ActorContextKey)).(*kernel.ActorContext)
	return actor, ok && actor != nil
}
