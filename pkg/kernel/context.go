package kernel

// ============================================================================
// Context Types - Tipos para el contexto de cada request
// ============================================================================

// ActorKind identifica el tipo de identidad resuelta en un request
type ActorKind string

const (
	ActorKindUser  ActorKind = "USER"
	ActorKindAdmin ActorKind = "ADMIN"
	ActorKindAgent ActorKind = "AGENT"
)

// ActorContext es la identidad resuelta que se inyecta en cada request.
// Cada middleware solo agrega campos; nunca se mutan los ya establecidos.
type ActorContext struct {
	Kind    ActorKind     `json:"kind"`
	UserID  UserID        `json:"user_id,omitempty"`
	AdminID AdminID       `json:"admin_id,omitempty"`
	AgentID AgentID       `json:"agent_id,omitempty"`
	Wallet  WalletAddress `json:"wallet,omitempty"`
}

// IsUser verifica si el actor es un usuario final
func (a *ActorContext) IsUser() bool {
	return a.Kind == ActorKindUser && !a.UserID.IsEmpty()
}

// IsAdmin verifica si el actor es un administrador
func (a *ActorContext) IsAdmin() bool {
	return a.Kind == ActorKindAdmin && !a.AdminID.IsEmpty()
}

// IsAgent verifica si el actor es un agente de trading
func (a *ActorContext) IsAgent() bool {
	return a.Kind == ActorKindAgent && !a.AgentID.IsEmpty()
}

// ============================================================================
// Context Keys - Claves para fiber.Ctx.Locals
// ============================================================================

type ContextKey string

const (
	// ActorContextKey es la clave para almacenar ActorContext en el request
	ActorContextKey ContextKey = "actor_context"

	// SessionContextKey es la clave para almacenar la sesión decodificada
	SessionContextKey ContextKey = "session_context"

	// RequestIDKey es la clave para almacenar el ID de la petición
	RequestIDKey ContextKey = "request_id"
)
