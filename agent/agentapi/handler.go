package agentapi

import (
	"github.com/arenalabs/tradearena/agent"
	"github.com/arenalabs/tradearena/agent/agentsrv"
	"github.com/arenalabs/tradearena/iam/auth"
	"github.com/arenalabs/tradearena/pkg/kernel"
	"github.com/gofiber/fiber/v2"
)

// AgentHandler maneja las operaciones HTTP de agentes
type AgentHandler struct {
	agentService *agentsrv.AgentService
}

// NewAgentHandler crea un nuevo handler de agentes
func NewAgentHandler(agentService *agentsrv.AgentService) *AgentHandler {
	return &AgentHandler{agentService: agentService}
}

// CreateAgent crea un agente para el usuario autenticado
func (h *AgentHandler) CreateAgent(c *fiber.Ctx) error {
	actor, _ := auth.GetActorContext(c)

	var req agent.CreateAgentRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	created, err := h.agentService.CreateAgent(c.Context(), actor.UserID, req)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"agent":   created.Agent,
		"apiKey":  created.APIKey,
	})
}

// ListMyAgents lista los agentes del usuario autenticado
func (h *AgentHandler) ListMyAgents(c *fiber.Ctx) error {
	actor, _ := auth.GetActorContext(c)

	agents, err := h.agentService.ListByOwner(c.Context(), actor.UserID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"agents":  agents,
	})
}

// GetAgent retorna un agente propio
func (h *AgentHandler) GetAgent(c *fiber.Ctx) error {
	actor, _ := auth.GetActorContext(c)

	agentID := kernel.AgentID(c.Params("agentId"))
	if agentID.IsEmpty() {
		return fiber.NewError(fiber.StatusBadRequest, "agentId is required")
	}

	a, err := h.agentService.GetAgent(c.Context(), actor.UserID, agentID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"agent":   a,
	})
}

// UpdateAgent actualiza un agente propio
func (h *AgentHandler) UpdateAgent(c *fiber.Ctx) error {
	actor, _ := auth.GetActorContext(c)

	agentID := kernel.AgentID(c.Params("agentId"))
	if agentID.IsEmpty() {
		return fiber.NewError(fiber.StatusBadRequest, "agentId is required")
	}

	var req agent.UpdateAgentRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	updated, err := h.agentService.UpdateAgent(c.Context(), actor.UserID, agentID, req)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"agent":   updated,
	})
}

// RotateKey acuña una nueva API key para el agente
func (h *AgentHandler) RotateKey(c *fiber.Ctx) error {
	actor, _ := auth.GetActorContext(c)

	agentID := kernel.AgentID(c.Params("agentId"))
	if agentID.IsEmpty() {
		return fiber.NewError(fiber.StatusBadRequest, "agentId is required")
	}

	rotated, err := h.agentService.RotateKey(c.Context(), actor.UserID, agentID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"agent":   rotated.Agent,
		"apiKey":  rotated.APIKey,
	})
}

// GetPublicAgent retorna la vista pública de un agente por handle (cacheada)
func (h *AgentHandler) GetPublicAgent(c *fiber.Ctx) error {
	handle := c.Params("handle")
	if handle == "" {
		return fiber.NewError(fiber.StatusBadRequest, "handle is required")
	}

	view, err := h.agentService.GetPublicAgent(c.Context(), handle)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"agent":   view,
	})
}

// SuspendAgent suspende un agente (solo admin)
func (h *AgentHandler) SuspendAgent(c *fiber.Ctx) error {
	agentID := kernel.AgentID(c.Params("agentId"))
	if agentID.IsEmpty() {
		return fiber.NewError(fiber.StatusBadRequest, "agentId is required")
	}

	a, err := h.agentService.SuspendAgent(c.Context(), agentID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"agent":   a,
	})
}

// ReinstateAgent reactiva un agente (solo admin)
func (h *AgentHandler) ReinstateAgent(c *fiber.Ctx) error {
	agentID := kernel.AgentID(c.Params("agentId"))
	if agentID.IsEmpty() {
		return fiber.NewError(fiber.StatusBadRequest, "agentId is required")
	}

	a, err := h.agentService.ReinstateAgent(c.Context(), agentID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"agent":   a,
	})
}

// ListAgents lista agentes paginados (solo admin)
func (h *AgentHandler) ListAgents(c *fiber.Ctx) error {
	var req agent.ListAgentsRequest
	if err := c.QueryParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid query parameters")
	}
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.PageSize <= 0 || req.PageSize > 100 {
		req.PageSize = 20
	}

	agents, err := h.agentService.ListAgents(c.Context(), req)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"agents":  agents,
	})
}

// SetupRoutes registra las rutas del módulo
func (h *AgentHandler) SetupRoutes(app *fiber.App, authMw *auth.AuthMiddleware) {
	agents := app.Group("/agents")
	agents.Get("/public/:handle", h.GetPublicAgent)
	agents.Post("/", authMw.RequireUser(), h.CreateAgent)
	agents.Get("/", authMw.RequireUser(), h.ListMyAgents)
	agents.Get("/:agentId", authMw.RequireUser(), h.GetAgent)
	agents.Put("/:agentId", authMw.RequireUser(), h.UpdateAgent)
	agents.Post("/:agentId/rotate-key", authMw.RequireUser(), h.RotateKey)

	admin := app.Group("/admin/agents", authMw.RequireAdmin())
	admin.Get("/", h.ListAgents)
	admin.Post("/:agentId/suspend", h.SuspendAgent)
	admin.Post("/:agentId/reinstate", h.ReinstateAgent)
}
