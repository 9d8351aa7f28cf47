package userapi

import (
	"github.com/arenalabs/tradearena/iam/auth"
	"github.com/arenalabs/tradearena/iam/user"
	"github.com/arenalabs/tradearena/iam/user/usersrv"
	"github.com/arenalabs/tradearena/pkg/kernel"
	"github.com/gofiber/fiber/v2"
)

// UserHandler maneja las operaciones HTTP de usuarios
type UserHandler struct {
	userService *usersrv.UserService
}

// NewUserHandler crea un nuevo handler de usuarios
func NewUserHandler(userService *usersrv.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// GetMe retorna el perfil del usuario autenticado
func (h *UserHandler) GetMe(c *fiber.Ctx) error {
	actor, _ := auth.GetActorContext(c)

	profile, err := h.userService.GetProfile(c.Context(), actor.UserID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"user":    profile,
	})
}

// UpdateMe actualiza el perfil del usuario autenticado
func (h *UserHandler) UpdateMe(c *fiber.Ctx) error {
	actor, _ := auth.GetActorContext(c)

	var req user.UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	updated, err := h.userService.UpdateProfile(c.Context(), actor.UserID, req)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"user":    updated,
	})
}

// GetPublicProfile retorna la vista pública de cualquier usuario (cacheada)
func (h *UserHandler) GetPublicProfile(c *fiber.Ctx) error {
	userID := kernel.NewUserID(c.Params("userId"))
	if userID.IsEmpty() {
		return fiber.NewError(fiber.StatusBadRequest, "userId is required")
	}

	profile, err := h.userService.GetPublicProfile(c.Context(), userID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"profile": profile,
	})
}

// ListUsers lista usuarios paginados (solo admin)
func (h *UserHandler) ListUsers(c *fiber.Ctx) error {
	var req user.ListUsersRequest
	if err := c.QueryParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid query parameters")
	}
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.PageSize <= 0 || req.PageSize > 100 {
		req.PageSize = 20
	}

	users, err := h.userService.ListUsers(c.Context(), req)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"users":   users,
	})
}

// SetupRoutes registra las rutas del módulo: contexto → [errores a nivel de
// app] → [gate] → [cache en el servicio] → validación → handler
func (h *UserHandler) SetupRoutes(app *fiber.App, authMw *auth.AuthMiddleware) {
	users := app.Group("/users")
	users.Get("/me", authMw.RequireUser(), h.GetMe)
	users.Put("/me", authMw.RequireUser(), h.UpdateMe)
	users.Get("/:userId/profile", h.GetPublicProfile)

	admin := app.Group("/admin/users", authMw.RequireAdmin())
	admin.Get("/", h.ListUsers)
}
