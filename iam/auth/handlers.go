package auth

import (
	"context"
	"fmt"

	"github.com/arenalabs/tradearena/iam/session"
	"github.com/arenalabs/tradearena/pkg/kernel"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// UserAuthenticator verifica el challenge firmado y resuelve (o registra) al
// usuario dueño del wallet
type UserAuthenticator interface {
	AuthenticateWallet(ctx context.Context, wallet kernel.WalletAddress, challenge, signature string) (kernel.UserID, error)
}

// AdminAuthenticator verifica credenciales de administrador
type AdminAuthenticator interface {
	Authenticate(ctx context.Context, username, password string) (kernel.AdminID, error)
}

// AuthHandlers maneja el flujo de sign-in basado en sesión
type AuthHandlers struct {
	users     UserAuthenticator
	admins    AdminAuthenticator
	sessionMw *session.Middleware
}

// NewAuthHandlers crea los handlers de autenticación
func NewAuthHandlers(users UserAuthenticator, admins AdminAuthenticator, sessionMw *session.Middleware) *AuthHandlers {
	return &AuthHandlers{
		users:     users,
		admins:    admins,
		sessionMw: sessionMw,
	}
}

// GetNonce genera un nonce y su challenge, y los guarda en la sesión
func (h *AuthHandlers) GetNonce(c *fiber.Ctx) error {
	sess := session.FromCtx(c)

	sess.Nonce = uuid.NewString()
	sess.Challenge = fmt.Sprintf("Sign in to TradeArena\nNonce: %s", sess.Nonce)

	if err := h.sessionMw.Save(c, sess); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":   true,
		"nonce":     sess.Nonce,
		"challenge": sess.Challenge,
	})
}

// LoginRequest request de login con firma de wallet
type LoginRequest struct {
	Wallet    string `json:"wallet" validate:"required"`
	Signature string `json:"signature" validate:"required"`
}

// Login verifica la firma del challenge pendiente y resuelve la identidad
func (h *AuthHandlers) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Wallet == "" || req.Signature == "" {
		return fiber.NewError(fiber.StatusBadRequest, "wallet and signature are required")
	}

	sess := session.FromCtx(c)
	if sess.Challenge == "" {
		return ErrNoPendingChallenge()
	}

	userID, err := h.users.AuthenticateWallet(
		c.Context(),
		kernel.NewWalletAddress(req.Wallet),
		sess.Challenge,
		req.Signature,
	)
	if err != nil {
		return err
	}

	// Identidad verificada: se consume el challenge y se fija la identidad
	sess.Nonce = ""
	sess.Challenge = ""
	sess.UserID = userID
	sess.Wallet = kernel.NewWalletAddress(req.Wallet)

	if err := h.sessionMw.Save(c, sess); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"user_id": userID.String(),
	})
}

// AdminLoginRequest request de login de administrador
type AdminLoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AdminLogin verifica credenciales de administrador contra bcrypt
func (h *AuthHandlers) AdminLogin(c *fiber.Ctx) error {
	var req AdminLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Username == "" || req.Password == "" {
		return fiber.NewError(fiber.StatusBadRequest, "username and password are required")
	}

	adminID, err := h.admins.Authenticate(c.Context(), req.Username, req.Password)
	if err != nil {
		return err
	}

	sess := session.FromCtx(c)
	sess.Clear()
	sess.AdminID = adminID

	if err := h.sessionMw.Save(c, sess); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"admin_id": adminID.String(),
	})
}

// Logout invalida la sesión borrando todos sus campos
func (h *AuthHandlers) Logout(c *fiber.Ctx) error {
	sess := session.FromCtx(c)
	sess.Clear()

	if err := h.sessionMw.Write(c, sess); err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true})
}

// SetupRoutes registra las rutas de autenticación
func (h *AuthHandlers) SetupRoutes(app *fiber.App) {
	grp := app.Group("/auth")
	grp.Get("/nonce", h.GetNonce)
	grp.Post("/login", h.Login)
	grp.Post("/logout", h.Logout)
	grp.Post("/admin/login", h.AdminLogin)
}
