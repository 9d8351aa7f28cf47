package rewardsapi

import (
	"github.com/arenalabs/tradearena/iam/auth"
	"github.com/arenalabs/tradearena/pkg/kernel"
	"github.com/arenalabs/tradearena/rewards"
	"github.com/arenalabs/tradearena/rewards/rewardsrv"
	"github.com/gofiber/fiber/v2"
)

// RewardHandler maneja las operaciones HTTP de premios
type RewardHandler struct {
	rewardService *rewardsrv.RewardService
}

// NewRewardHandler crea un nuevo handler de premios
func NewRewardHandler(rewardService *rewardsrv.RewardService) *RewardHandler {
	return &RewardHandler{rewardService: rewardService}
}

// ListMyRewards lista los premios del usuario autenticado (cacheado)
func (h *RewardHandler) ListMyRewards(c *fiber.Ctx) error {
	actor, _ := auth.GetActorContext(c)

	list, err := h.rewardService.ListMyRewards(c.Context(), actor.UserID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"rewards": list,
	})
}

// GetTotalClaimable retorna el total reclamable del usuario (cacheado)
func (h *RewardHandler) GetTotalClaimable(c *fiber.Ctx) error {
	actor, _ := auth.GetActorContext(c)

	summary, err := h.rewardService.TotalClaimable(c.Context(), actor.UserID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":   true,
		"claimable": summary,
	})
}

// Claim reclama un premio del usuario autenticado
func (h *RewardHandler) Claim(c *fiber.Ctx) error {
	actor, _ := auth.GetActorContext(c)

	rewardID := kernel.NewRewardID(c.Params("rewardId"))
	if rewardID.IsEmpty() {
		return fiber.NewError(fiber.StatusBadRequest, "rewardId is required")
	}

	reward, err := h.rewardService.Claim(c.Context(), actor.UserID, rewardID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"reward":  reward,
	})
}

// Allocate asigna el lote de premios de una competencia (solo admin)
func (h *RewardHandler) Allocate(c *fiber.Ctx) error {
	var req rewards.AllocateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	allocated, err := h.rewardService.Allocate(c.Context(), req)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"rewards": allocated,
	})
}

// SetupRoutes registra las rutas del módulo
func (h *RewardHandler) SetupRoutes(app *fiber.App, authMw *auth.AuthMiddleware) {
	userRoutes := app.Group("/rewards", authMw.RequireUser())
	userRoutes.Get("/", h.ListMyRewards)
	userRoutes.Get("/claimable", h.GetTotalClaimable)
	userRoutes.Post("/:rewardId/claim", h.Claim)

	admin := app.Group("/admin/rewards", authMw.RequireAdmin())
	admin.Post("/allocate", h.Allocate)
}
