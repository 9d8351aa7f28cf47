package agentsrv

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/Abraxas-365/craftable/errx"
	"github.com/Abraxas-365/craftable/logx"
	"github.com/Abraxas-365/craftable/storex"
	"github.com/arenalabs/tradearena/agent"
	"github.com/arenalabs/tradearena/iam/auth"
	"github.com/arenalabs/tradearena/pkg/cachex"
	"github.com/arenalabs/tradearena/pkg/kernel"
	"github.com/google/uuid"
)

const apiKeyPrefix = "ta_"

// AgentService orquesta las operaciones sobre agentes de trading
type AgentService struct {
	agentRepo agent.AgentRepository
	cache     *cachex.Cache
}

var _ auth.AgentKeyResolver = (*AgentService)(nil)

// NewAgentService crea una nueva instancia del servicio
func NewAgentService(agentRepo agent.AgentRepository, cache *cachex.Cache) *AgentService {
	return &AgentService{
		agentRepo: agentRepo,
		cache:     cache,
	}
}

// CreateAgent registra un agente y acuña su API key; la key se entrega una sola vez
func (s *AgentService) CreateAgent(ctx context.Context, ownerID kernel.UserID, req agent.CreateAgentRequest) (*agent.CreatedAgent, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if existing, err := s.agentRepo.FindByHandle(ctx, req.Handle); err == nil && existing != nil {
		return nil, agent.ErrAgentAlreadyExists().WithDetail("handle", req.Handle)
	} else if err != nil && !errx.IsType(err, errx.TypeNotFound) {
		return nil, err
	}

	apiKey, hash, err := mintAPIKey()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	a := agent.Agent{
		ID:            kernel.NewAgentID(uuid.NewString()),
		OwnerID:       ownerID,
		Name:          req.Name,
		Handle:        req.Handle,
		APIKeyHash:    hash,
		WalletAddress: req.WalletAddress,
		Status:        agent.AgentStatusActive,
		Description:   req.Description,
		ImageURL:      req.ImageURL,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.agentRepo.Save(ctx, a); err != nil {
		return nil, err
	}

	logx.Info("Agent created: %s", a.Handle)

	return &agent.CreatedAgent{Agent: a, APIKey: apiKey}, nil
}

// RotateKey acuña una nueva API key; la anterior deja de ser válida
func (s *AgentService) RotateKey(ctx context.Context, ownerID kernel.UserID, agentID kernel.AgentID) (*agent.CreatedAgent, error) {
	a, err := s.ownedAgent(ctx, ownerID, agentID)
	if err != nil {
		return nil, err
	}

	apiKey, hash, err := mintAPIKey()
	if err != nil {
		return nil, err
	}

	a.RotateKey(hash)
	if err := s.agentRepo.Save(ctx, *a); err != nil {
		return nil, err
	}

	return &agent.CreatedAgent{Agent: *a, APIKey: apiKey}, nil
}

// GetAgent retorna un agente del propietario
func (s *AgentService) GetAgent(ctx context.Context, ownerID kernel.UserID, agentID kernel.AgentID) (*agent.Agent, error) {
	return s.ownedAgent(ctx, ownerID, agentID)
}

// UpdateAgent actualiza los datos editables de un agente propio
func (s *AgentService) UpdateAgent(ctx context.Context, ownerID kernel.UserID, agentID kernel.AgentID, req agent.UpdateAgentRequest) (*agent.Agent, error) {
	a, err := s.ownedAgent(ctx, ownerID, agentID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		a.Name = *req.Name
	}
	if req.Description != nil {
		a.Description = *req.Description
	}
	if req.ImageURL != nil {
		a.ImageURL = req.ImageURL
	}
	a.UpdatedAt = time.Now()

	if err := s.agentRepo.Save(ctx, *a); err != nil {
		return nil, err
	}

	if err := s.cache.Invalidate(ctx, agent.PublicAgentTag(a.Handle)); err != nil {
		logx.Error("Failed to invalidate public agent cache: %v", err)
	}

	return a, nil
}

// SuspendAgent suspende un agente (solo administradores)
func (s *AgentService) SuspendAgent(ctx context.Context, agentID kernel.AgentID) (*agent.Agent, error) {
	return s.setStatus(ctx, agentID, func(a *agent.Agent) { a.Suspend() })
}

// ReinstateAgent reactiva un agente suspendido (solo administradores)
func (s *AgentService) ReinstateAgent(ctx context.Context, agentID kernel.AgentID) (*agent.Agent, error) {
	return s.setStatus(ctx, agentID, func(a *agent.Agent) { a.Reinstate() })
}

// GetPublicAgent retorna la vista pública por handle, cacheada.
// Un hit no toca el repositorio: la búsqueda vive dentro del recompute.
func (s *AgentService) GetPublicAgent(ctx context.Context, handle string) (*agent.PublicAgent, error) {
	view, err := cachex.Through(ctx, s.cache, cachex.Spec{
		Path:  agent.ProcGetPublicAgent,
		Input: map[string]any{"handle": handle},
		TTL:   agent.PublicAgentTTL,
		Tags:  []string{agent.PublicAgentTag(handle)},
	}, func(ctx context.Context) (agent.PublicAgent, error) {
		a, err := s.agentRepo.FindByHandle(ctx, handle)
		if err != nil {
			return agent.PublicAgent{}, err
		}
		return a.PublicView(), nil
	})
	if err != nil {
		return nil, err
	}

	return &view, nil
}

// ListByOwner lista los agentes de un usuario
func (s *AgentService) ListByOwner(ctx context.Context, ownerID kernel.UserID) ([]*agent.Agent, error) {
	return s.agentRepo.FindByOwner(ctx, ownerID)
}

// ListAgents lista agentes con paginación (solo administradores)
func (s *AgentService) ListAgents(ctx context.Context, req agent.ListAgentsRequest) (storex.Paginated[agent.Agent], error) {
	return s.agentRepo.List(ctx, req)
}

// ResolveAPIKey resuelve una API key de agente a su identidad
func (s *AgentService) ResolveAPIKey(ctx context.Context, apiKey string) (kernel.AgentID, error) {
	a, err := s.agentRepo.FindByAPIKeyHash(ctx, hashAPIKey(apiKey))
	if err != nil {
		return kernel.AgentID(""), err
	}

	if !a.IsActive() {
		return kernel.AgentID(""), agent.ErrAgentSuspended().WithDetail("agent_id", a.ID.String())
	}

	return a.ID, nil
}

func (s *AgentService) ownedAgent(ctx context.Context, ownerID kernel.UserID, agentID kernel.AgentID) (*agent.Agent, error) {
	a, err := s.agentRepo.FindByID(ctx, agentID)
	if err != nil {
		return nil, err
	}

	if a.OwnerID != ownerID {
		return nil, agent.ErrNotAgentOwner().WithDetail("agent_id", agentID.String())
	}

	return a, nil
}

func (s *AgentService) setStatus(ctx context.Context, agentID kernel.AgentID, apply func(*agent.Agent)) (*agent.Agent, error) {
	a, err := s.agentRepo.FindByID(ctx, agentID)
	if err != nil {
		return nil, err
	}

	apply(a)
	if err := s.agentRepo.Save(ctx, *a); err != nil {
		return nil, err
	}

	if err := s.cache.Invalidate(ctx, agent.PublicAgentTag(a.Handle)); err != nil {
		logx.Error("Failed to invalidate public agent cache: %v", err)
	}

	return a, nil
}

func mintAPIKey() (string, string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", "", errx.Wrap(err, "failed to mint API key", errx.TypeInternal)
	}

	key := apiKeyPrefix + hex.EncodeToString(raw)
	return key, hashAPIKey(key), nil
}

// hashAPIKey deriva el hash almacenado; la key en claro nunca se persiste
func hashAPIKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}
