package agent

import (
	"context"

	"github.com/Abraxas-365/craftable/storex"
	"github.com/arenalabs/tradearena/pkg/kernel"
)

// AgentRepository puerto de persistencia de agentes
type AgentRepository interface {
	Save(ctx context.Context, a Agent) error
	FindByID(ctx context.Context, id kernel.AgentID) (*Agent, error)
	FindByHandle(ctx context.Context, handle string) (*Agent, error)
	FindByAPIKeyHash(ctx context.Context, hash string) (*Agent, error)
	FindByOwner(ctx context.Context, ownerID kernel.UserID) ([]*Agent, error)
	List(ctx context.Context, req ListAgentsRequest) (storex.Paginated[Agent], error)
}
