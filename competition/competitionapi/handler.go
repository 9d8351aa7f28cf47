package competitionapi

import (
	"github.com/arenalabs/tradearena/competition"
	"github.com/arenalabs/tradearena/competition/compsrv"
	"github.com/arenalabs/tradearena/iam/auth"
	"github.com/arenalabs/tradearena/pkg/kernel"
	"github.com/gofiber/fiber/v2"
)

// CompetitionHandler maneja las operaciones HTTP de competencias
type CompetitionHandler struct {
	competitionService *compsrv.CompetitionService
}

// NewCompetitionHandler crea un nuevo handler de competencias
func NewCompetitionHandler(competitionService *compsrv.CompetitionService) *CompetitionHandler {
	return &CompetitionHandler{competitionService: competitionService}
}

// GetCompetition retorna una competencia (cacheada)
func (h *CompetitionHandler) GetCompetition(c *fiber.Ctx) error {
	competitionID := kernel.NewCompetitionID(c.Params("competitionId"))
	if competitionID.IsEmpty() {
		return fiber.NewError(fiber.StatusBadRequest, "competitionId is required")
	}

	comp, err := h.competitionService.GetCompetition(c.Context(), competitionID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":     true,
		"competition": comp,
	})
}

// ListCompetitions lista competencias paginadas (cacheada)
func (h *CompetitionHandler) ListCompetitions(c *fiber.Ctx) error {
	var req competition.ListCompetitionsRequest
	if err := c.QueryParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid query parameters")
	}
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.PageSize <= 0 || req.PageSize > 100 {
		req.PageSize = 20
	}

	competitions, err := h.competitionService.ListCompetitions(c.Context(), req)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":      true,
		"competitions": competitions,
	})
}

// GetLeaderboard retorna el ranking de una competencia (cacheado)
func (h *CompetitionHandler) GetLeaderboard(c *fiber.Ctx) error {
	competitionID := kernel.NewCompetitionID(c.Params("competitionId"))
	if competitionID.IsEmpty() {
		return fiber.NewError(fiber.StatusBadRequest, "competitionId is required")
	}

	leaderboard, err := h.competitionService.Leaderboard(c.Context(), competitionID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":     true,
		"leaderboard": leaderboard,
	})
}

// Join inscribe al agente autenticado en la competencia
func (h *CompetitionHandler) Join(c *fiber.Ctx) error {
	actor, _ := auth.GetActorContext(c)

	competitionID := kernel.NewCompetitionID(c.Params("competitionId"))
	if competitionID.IsEmpty() {
		return fiber.NewError(fiber.StatusBadRequest, "competitionId is required")
	}

	participant, err := h.competitionService.Join(c.Context(), competitionID, actor.AgentID)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":     true,
		"participant": participant,
	})
}

// Leave retira al agente autenticado de la competencia
func (h *CompetitionHandler) Leave(c *fiber.Ctx) error {
	actor, _ := auth.GetActorContext(c)

	competitionID := kernel.NewCompetitionID(c.Params("competitionId"))
	if competitionID.IsEmpty() {
		return fiber.NewError(fiber.StatusBadRequest, "competitionId is required")
	}

	if err := h.competitionService.Leave(c.Context(), competitionID, actor.AgentID); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
	})
}

// RecordSnapshot registra una foto de portafolio del agente autenticado
func (h *CompetitionHandler) RecordSnapshot(c *fiber.Ctx) error {
	actor, _ := auth.GetActorContext(c)

	competitionID := kernel.NewCompetitionID(c.Params("competitionId"))
	if competitionID.IsEmpty() {
		return fiber.NewError(fiber.StatusBadRequest, "competitionId is required")
	}

	var req competition.RecordSnapshotRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.competitionService.RecordSnapshot(c.Context(), competitionID, actor.AgentID, req); err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
	})
}

// CreateCompetition crea una competencia (solo admin)
func (h *CompetitionHandler) CreateCompetition(c *fiber.Ctx) error {
	var req competition.CreateCompetitionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	comp, err := h.competitionService.CreateCompetition(c.Context(), req)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":     true,
		"competition": comp,
	})
}

// UpdateCompetition actualiza una competencia (solo admin)
func (h *CompetitionHandler) UpdateCompetition(c *fiber.Ctx) error {
	competitionID := kernel.NewCompetitionID(c.Params("competitionId"))
	if competitionID.IsEmpty() {
		return fiber.NewError(fiber.StatusBadRequest, "competitionId is required")
	}

	var req competition.UpdateCompetitionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	comp, err := h.competitionService.UpdateCompetition(c.Context(), competitionID, req)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":     true,
		"competition": comp,
	})
}

// StartCompetition activa una competencia (solo admin)
func (h *CompetitionHandler) StartCompetition(c *fiber.Ctx) error {
	competitionID := kernel.NewCompetitionID(c.Params("competitionId"))
	if competitionID.IsEmpty() {
		return fiber.NewError(fiber.StatusBadRequest, "competitionId is required")
	}

	comp, err := h.competitionService.StartCompetition(c.Context(), competitionID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":     true,
		"competition": comp,
	})
}

// EndCompetition finaliza una competencia (solo admin)
func (h *CompetitionHandler) EndCompetition(c *fiber.Ctx) error {
	competitionID := kernel.NewCompetitionID(c.Params("competitionId"))
	if competitionID.IsEmpty() {
		return fiber.NewError(fiber.StatusBadRequest, "competitionId is required")
	}

	comp, err := h.competitionService.EndCompetition(c.Context(), competitionID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":     true,
		"competition": comp,
	})
}

// SetupRoutes registra las rutas del módulo
func (h *CompetitionHandler) SetupRoutes(app *fiber.App, authMw *auth.AuthMiddleware) {
	competitions := app.Group("/competitions")
	competitions.Get("/", h.ListCompetitions)
	competitions.Get("/:competitionId", h.GetCompetition)
	competitions.Get("/:competitionId/leaderboard", h.GetLeaderboard)
	competitions.Post("/:competitionId/join", authMw.RequireAgent(), h.Join)
	competitions.Post("/:competitionId/leave", authMw.RequireAgent(), h.Leave)
	competitions.Post("/:competitionId/snapshots", authMw.RequireAgent(), h.RecordSnapshot)

	admin := app.Group("/admin/competitions", authMw.RequireAdmin())
	admin.Post("/", h.CreateCompetition)
	admin.Put("/:competitionId", h.UpdateCompetition)
	admin.Post("/:competitionId/start", h.StartCompetition)
	admin.Post("/:competitionId/end", h.EndCompetition)
}
