package agent

import (
	"time"

	"github.com/Abraxas-365/craftable/errx"
	"github.com/Abraxas-365/craftable/storex"
	"github.com/arenalabs/tradearena/pkg/kernel"
)

// AgentStatus representa el estado de un agente
type AgentStatus string

const (
	AgentStatusActive    AgentStatus = "ACTIVE"
	AgentStatusSuspended AgentStatus = "SUSPENDED"
)

// Agent representa un agente de trading operado por un usuario
type Agent struct {
	ID            kernel.AgentID        `json:"id" db:"id"`
	OwnerID       kernel.UserID         `json:"ownerId" db:"owner_id"`
	Name          string                `json:"name" db:"name"`
	Handle        string                `json:"handle" db:"handle"`
	APIKeyHash    string                `json:"-" db:"api_key_hash"`
	WalletAddress *kernel.WalletAddress `json:"walletAddress,omitempty" db:"wallet_address"`
	Status        AgentStatus           `json:"status" db:"status"`
	Description   string                `json:"description" db:"description"`
	ImageURL      *string               `json:"imageUrl,omitempty" db:"image_url"`
	CreatedAt     time.Time             `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time             `json:"updatedAt" db:"updated_at"`
}

// IsActive verifica si el agente está activo
func (a *Agent) IsActive() bool {
	return a.Status == AgentStatusActive
}

// Suspend suspende el agente
func (a *Agent) Suspend() {
	a.Status = AgentStatusSuspended
	a.UpdatedAt = time.Now()
}

// Reinstate reactiva el agente
func (a *Agent) Reinstate() {
	a.Status = AgentStatusActive
	a.UpdatedAt = time.Now()
}

// RotateKey reemplaza el hash de la API key
func (a *Agent) RotateKey(hash string) {
	a.APIKeyHash = hash
	a.UpdatedAt = time.Now()
}

// PublicAgent es la vista pública de un agente
type PublicAgent struct {
	ID          kernel.AgentID `json:"id"`
	Name        string         `json:"name"`
	Handle      string         `json:"handle"`
	Description string         `json:"description"`
	ImageURL    *string        `json:"imageUrl,omitempty"`
	Status      AgentStatus    `json:"status"`
	CreatedAt   time.Time      `json:"createdAt"`
}

// PublicView retorna la proyección pública del agente
func (a *Agent) PublicView() PublicAgent {
	return PublicAgent{
		ID:          a.ID,
		Name:        a.Name,
		Handle:      a.Handle,
		Description: a.Description,
		ImageURL:    a.ImageURL,
		Status:      a.Status,
		CreatedAt:   a.CreatedAt,
	}
}

// CreateAgentRequest request para crear un agente
type CreateAgentRequest struct {
	Name          string                `json:"name"`
	Handle        string                `json:"handle"`
	Description   string                `json:"description"`
	ImageURL      *string               `json:"imageUrl,omitempty"`
	WalletAddress *kernel.WalletAddress `json:"walletAddress,omitempty"`
}

// Validate valida el request de creación
func (r CreateAgentRequest) Validate() error {
	if r.Name == "" {
		return ErrInvalidAgentData().WithDetail("field", "name")
	}
	if r.Handle == "" {
		return ErrInvalidAgentData().WithDetail("field", "handle")
	}
	return nil
}

// UpdateAgentRequest request para actualizar un agente propio
type UpdateAgentRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	ImageURL    *string `json:"imageUrl,omitempty"`
}

// CreatedAgent es la respuesta de creación: la API key se entrega una sola vez
type CreatedAgent struct {
	Agent  Agent  `json:"agent"`
	APIKey string `json:"apiKey"`
}

// ListAgentsRequest request para listar agentes con paginación
type ListAgentsRequest struct {
	storex.PaginationOptions
	OwnerID *kernel.UserID `query:"-"`
	Status  *AgentStatus   `query:"status"`
}

func (r ListAgentsRequest) GetOffset() int {
	return (r.Page - 1) * r.PageSize
}

// ============================================================================
// ERRORES
// ============================================================================

var ErrRegistry = errx.NewRegistry("AGENT")

var (
	CodeAgentNotFound      = ErrRegistry.Register("NOT_FOUND", errx.TypeNotFound, 404, "Agent not found")
	CodeAgentAlreadyExists = ErrRegistry.Register("ALREADY_EXISTS", errx.TypeConflict, 409, "Agent handle already taken")
	CodeAgentSuspended     = ErrRegistry.Register("SUSPENDED", errx.TypeBusiness, 403, "Agent is suspended")
	CodeInvalidAgentData   = ErrRegistry.Register("INVALID_DATA", errx.TypeValidation, 400, "Invalid agent data")
	CodeNotAgentOwner      = ErrRegistry.Register("NOT_OWNER", errx.TypeBusiness, 403, "Agent belongs to another user")
)

func ErrAgentNotFound() *errx.Error      { return ErrRegistry.New(CodeAgentNotFound) }
func ErrAgentAlreadyExists() *errx.Error { return ErrRegistry.New(CodeAgentAlreadyExists) }
func ErrAgentSuspended() *errx.Error     { return ErrRegistry.New(CodeAgentSuspended) }
func ErrInvalidAgentData() *errx.Error   { return ErrRegistry.New(CodeInvalidAgentData) }
func ErrNotAgentOwner() *errx.Error      { return ErrRegistry.New(CodeNotAgentOwner) }
