package agentinfra

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/Abraxas-365/craftable/errx"
	"github.com/Abraxas-365/craftable/storex"
	"github.com/arenalabs/tradearena/agent"
	"github.com/arenalabs/tradearena/pkg/kernel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// PostgresAgentRepository implementación de PostgreSQL para AgentRepository
type PostgresAgentRepository struct {
	db *sqlx.DB
}

var _ agent.AgentRepository = (*PostgresAgentRepository)(nil)

// NewPostgresAgentRepository crea una nueva instancia del repositorio
func NewPostgresAgentRepository(db *sqlx.DB) *PostgresAgentRepository {
	return &PostgresAgentRepository{db: db}
}

const agentColumns = `id, owner_id, name, handle, api_key_hash, wallet_address,
	status, description, image_url, created_at, updated_at`

// Save inserta o actualiza un agente
func (r *PostgresAgentRepository) Save(ctx context.Context, a agent.Agent) error {
	query := `
		INSERT INTO agents (
			id, owner_id, name, handle, api_key_hash, wallet_address,
			status, description, image_url, created_at, updated_at
		) VALUES (
			:id, :owner_id, :name, :handle, :api_key_hash, :wallet_address,
			:status, :description, :image_url, :created_at, :updated_at
		)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			api_key_hash = EXCLUDED.api_key_hash,
			wallet_address = EXCLUDED.wallet_address,
			status = EXCLUDED.status,
			description = EXCLUDED.description,
			image_url = EXCLUDED.image_url,
			updated_at = EXCLUDED.updated_at`

	_, err := r.db.NamedExecContext(ctx, query, a)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return agent.ErrAgentAlreadyExists().WithDetail("handle", a.Handle)
		}
		return errx.Wrap(err, "failed to save agent", errx.TypeInternal).
			WithDetail("agent_id", a.ID.String())
	}

	return nil
}

// FindByID busca un agente por ID
func (r *PostgresAgentRepository) FindByID(ctx context.Context, id kernel.AgentID) (*agent.Agent, error) {
	query := fmt.Sprintf(`SELECT %s FROM agents WHERE id = $1`, agentColumns)

	var a agent.Agent
	err := r.db.GetContext(ctx, &a, query, id.String())
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, agent.ErrAgentNotFound().WithDetail("agent_id", id.String())
		}
		return nil, errx.Wrap(err, "failed to find agent by id", errx.TypeInternal).
			WithDetail("agent_id", id.String())
	}

	return &a, nil
}

// FindByHandle busca un agente por handle
func (r *PostgresAgentRepository) FindByHandle(ctx context.Context, handle string) (*agent.Agent, error) {
	query := fmt.Sprintf(`SELECT %s FROM agents WHERE handle = $1`, agentColumns)

	var a agent.Agent
	err := r.db.GetContext(ctx, &a, query, handle)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, agent.ErrAgentNotFound().WithDetail("handle", handle)
		}
		return nil, errx.Wrap(err, "failed to find agent by handle", errx.TypeInternal)
	}

	return &a, nil
}

// FindByAPIKeyHash busca un agente por el hash de su API key
func (r *PostgresAgentRepository) FindByAPIKeyHash(ctx context.Context, hash string) (*agent.Agent, error) {
	query := fmt.Sprintf(`SELECT %s FROM agents WHERE api_key_hash = $1`, agentColumns)

	var a agent.Agent
	err := r.db.GetContext(ctx, &a, query, hash)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, agent.ErrAgentNotFound()
		}
		return nil, errx.Wrap(err, "failed to find agent by api key", errx.TypeInternal)
	}

	return &a, nil
}

// FindByOwner lista los agentes de un usuario
func (r *PostgresAgentRepository) FindByOwner(ctx context.Context, ownerID kernel.UserID) ([]*agent.Agent, error) {
	query := fmt.Sprintf(`SELECT %s FROM agents WHERE owner_id = $1 ORDER BY created_at DESC`, agentColumns)

	var agents []*agent.Agent
	if err := r.db.SelectContext(ctx, &agents, query, ownerID.String()); err != nil {
		return nil, errx.Wrap(err, "failed to list agents by owner", errx.TypeInternal).
			WithDetail("owner_id", ownerID.String())
	}

	return agents, nil
}

// List lista agentes con filtros y paginación
func (r *PostgresAgentRepository) List(ctx context.Context, req agent.ListAgentsRequest) (storex.Paginated[agent.Agent], error) {
	conditions := []string{"1=1"}
	args := []any{}
	argPos := 1

	if req.OwnerID != nil {
		conditions = append(conditions, fmt.Sprintf("owner_id = $%d", argPos))
		args = append(args, req.OwnerID.String())
		argPos++
	}
	if req.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, string(*req.Status))
		argPos++
	}

	whereClause := strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM agents WHERE %s", whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return storex.Paginated[agent.Agent]{}, errx.Wrap(err, "failed to count agents", errx.TypeInternal)
	}

	dataQuery := fmt.Sprintf(`
		SELECT %s
		FROM agents
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		agentColumns, whereClause, argPos, argPos+1)

	args = append(args, req.PageSize, req.GetOffset())

	var agents []agent.Agent
	if err := r.db.SelectContext(ctx, &agents, dataQuery, args...); err != nil {
		return storex.Paginated[agent.Agent]{}, errx.Wrap(err, "failed to list agents", errx.TypeInternal)
	}

	return storex.NewPaginated(agents, req.Page, req.PageSize, total), nil
}
