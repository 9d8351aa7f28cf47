package adminapi

import (
	"github.com/arenalabs/tradearena/iam/admin"
	"github.com/arenalabs/tradearena/iam/admin/adminsrv"
	"github.com/arenalabs/tradearena/iam/auth"
	"github.com/gofiber/fiber/v2"
)

// AdminHandler maneja las peticiones HTTP de administradores
type AdminHandler struct {
	adminService *adminsrv.AdminService
}

// NewAdminHandler crea un nuevo handler de administradores
func NewAdminHandler(adminService *adminsrv.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

// CreateAdmin crea un nuevo administrador
func (h *AdminHandler) CreateAdmin(c *fiber.Ctx) error {
	var req admin.CreateAdminRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	created, err := h.adminService.CreateAdmin(c.Context(), req)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

// ListAdmins lista todos los administradores
func (h *AdminHandler) ListAdmins(c *fiber.Ctx) error {
	admins, err := h.adminService.ListAdmins(c.Context())
	if err != nil {
		return err
	}

	return c.JSON(admins)
}

// SetupRoutes configura las rutas de administradores
func (h *AdminHandler) SetupRoutes(app *fiber.App, authMw *auth.AuthMiddleware) {
	admins := app.Group("/admin/admins", authMw.RequireAdmin())
	admins.Post("/", h.CreateAdmin)
	admins.Get("/", h.ListAdmins)
}
