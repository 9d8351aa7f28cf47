package competition

import (
	"math/big"
	"time"

	"github.com/Abraxas-365/craftable/errx"
	"github.com/Abraxas-365/craftable/storex"
	"github.com/arenalabs/tradearena/pkg/kernel"
)

// CompetitionStatus representa el estado del ciclo de vida de una competencia
type CompetitionStatus string

const (
	CompetitionStatusPending CompetitionStatus = "PENDING"
	CompetitionStatusActive  CompetitionStatus = "ACTIVE"
	CompetitionStatusEnded   CompetitionStatus = "ENDED"
)

// Competition representa una competencia de trading
type Competition struct {
	ID              kernel.CompetitionID `json:"id" db:"id"`
	Name            string               `json:"name" db:"name"`
	Description     string               `json:"description" db:"description"`
	Status          CompetitionStatus    `json:"status" db:"status"`
	External        bool                 `json:"external" db:"external"`
	StartDate       time.Time            `json:"startDate" db:"start_date"`
	EndDate         time.Time            `json:"endDate" db:"end_date"`
	JoinDeadline    *time.Time           `json:"joinDeadline,omitempty" db:"join_deadline"`
	MaxParticipants *int                 `json:"maxParticipants,omitempty" db:"max_participants"`
	RewardPool      *big.Int             `json:"rewardPool" db:"-"`
	CreatedAt       time.Time            `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time            `json:"updatedAt" db:"updated_at"`
}

// CanStart verifica si la competencia puede iniciarse
func (c *Competition) CanStart() bool {
	return c.Status == CompetitionStatusPending
}

// Start activa la competencia; solo válido desde PENDING
func (c *Competition) Start() error {
	if !c.CanStart() {
		return ErrInvalidTransition().
			WithDetail("from", string(c.Status)).
			WithDetail("to", string(CompetitionStatusActive))
	}
	c.Status = CompetitionStatusActive
	c.UpdatedAt = time.Now()
	return nil
}

// CanEnd verifica si la competencia puede finalizarse
func (c *Competition) CanEnd() bool {
	return c.Status == CompetitionStatusActive
}

// End finaliza la competencia; solo válido desde ACTIVE
func (c *Competition) End() error {
	if !c.CanEnd() {
		return ErrInvalidTransition().
			WithDetail("from", string(c.Status)).
			WithDetail("to", string(CompetitionStatusEnded))
	}
	c.Status = CompetitionStatusEnded
	c.UpdatedAt = time.Now()
	return nil
}

// IsEnded verifica si la competencia terminó
func (c *Competition) IsEnded() bool {
	return c.Status == CompetitionStatusEnded
}

// JoinOpen verifica si un agente puede unirse en el instante dado:
// estado PENDING o ACTIVE y antes del deadline de inscripción
func (c *Competition) JoinOpen(now time.Time) bool {
	if c.Status != CompetitionStatusPending && c.Status != CompetitionStatusActive {
		return false
	}
	deadline := c.EndDate
	if c.JoinDeadline != nil {
		deadline = *c.JoinDeadline
	}
	return now.Before(deadline)
}

// ParticipantStatus estado de un agente dentro de una competencia
type ParticipantStatus string

const (
	ParticipantStatusJoined ParticipantStatus = "JOINED"
	ParticipantStatusLeft   ParticipantStatus = "LEFT"
)

// Participant representa la inscripción de un agente en una competencia
type Participant struct {
	CompetitionID kernel.CompetitionID `json:"competitionId" db:"competition_id"`
	AgentID       kernel.AgentID       `json:"agentId" db:"agent_id"`
	Status        ParticipantStatus    `json:"status" db:"status"`
	JoinedAt      time.Time            `json:"joinedAt" db:"joined_at"`
	LeftAt        *time.Time           `json:"leftAt,omitempty" db:"left_at"`
}

// Snapshot es una foto del portafolio de un agente; insumo del leaderboard
type Snapshot struct {
	ID             string               `json:"id" db:"id"`
	CompetitionID  kernel.CompetitionID `json:"competitionId" db:"competition_id"`
	AgentID        kernel.AgentID       `json:"agentId" db:"agent_id"`
	PortfolioValue *big.Int             `json:"portfolioValue" db:"-"`
	PnL            *big.Int             `json:"pnl" db:"-"`
	TakenAt        time.Time            `json:"takenAt" db:"taken_at"`
}

// LeaderboardEntry es una fila del ranking de una competencia
type LeaderboardEntry struct {
	Rank           int            `json:"rank"`
	AgentID        kernel.AgentID `json:"agentId"`
	AgentName      string         `json:"agentName"`
	PortfolioValue *big.Int       `json:"portfolioValue"`
	PnL            *big.Int       `json:"pnl"`
}

// CreateCompetitionRequest request para crear una competencia
type CreateCompetitionRequest struct {
	Name            string     `json:"name"`
	Description     string     `json:"description"`
	External        bool       `json:"external"`
	StartDate       time.Time  `json:"startDate"`
	EndDate         time.Time  `json:"endDate"`
	JoinDeadline    *time.Time `json:"joinDeadline,omitempty"`
	MaxParticipants *int       `json:"maxParticipants,omitempty"`
	RewardPool      string     `json:"rewardPool"`
}

// Validate valida el request de creación
func (r CreateCompetitionRequest) Validate() error {
	if r.Name == "" {
		return ErrInvalidCompetitionData().WithDetail("field", "name")
	}
	if !r.EndDate.After(r.StartDate) {
		return ErrInvalidCompetitionData().WithDetail("field", "endDate")
	}
	if r.RewardPool != "" {
		if _, ok := new(big.Int).SetString(r.RewardPool, 10); !ok {
			return ErrInvalidCompetitionData().WithDetail("field", "rewardPool")
		}
	}
	return nil
}

// UpdateCompetitionRequest request para actualizar una competencia
type UpdateCompetitionRequest struct {
	Name            *string    `json:"name,omitempty"`
	Description     *string    `json:"description,omitempty"`
	JoinDeadline    *time.Time `json:"joinDeadline,omitempty"`
	MaxParticipants *int       `json:"maxParticipants,omitempty"`
	RewardPool      *string    `json:"rewardPool,omitempty"`
}

// RecordSnapshotRequest request para registrar una foto de portafolio
type RecordSnapshotRequest struct {
	PortfolioValue string `json:"portfolioValue"`
	PnL            string `json:"pnl"`
}

// ListCompetitionsRequest request para listar competencias con paginación
type ListCompetitionsRequest struct {
	storex.PaginationOptions
	Status *CompetitionStatus `query:"status"`
}

func (r ListCompetitionsRequest) GetOffset() int {
	return (r.Page - 1) * r.PageSize
}

// ============================================================================
// ERRORES
// ============================================================================

var ErrRegistry = errx.NewRegistry("COMPETITION")

var (
	CodeCompetitionNotFound    = ErrRegistry.Register("NOT_FOUND", errx.TypeNotFound, 404, "Competition not found")
	CodeInvalidCompetitionData = ErrRegistry.Register("INVALID_DATA", errx.TypeValidation, 400, "Invalid competition data")
	CodeInvalidTransition      = ErrRegistry.Register("INVALID_TRANSITION", errx.TypeConflict, 409, "Invalid competition state transition")
	CodeJoinClosed             = ErrRegistry.Register("JOIN_CLOSED", errx.TypeBusiness, 403, "Competition is not open for joining")
	CodeCompetitionFull        = ErrRegistry.Register("FULL", errx.TypeConflict, 409, "Competition is full")
	CodeAlreadyJoined          = ErrRegistry.Register("ALREADY_JOINED", errx.TypeConflict, 409, "Agent already joined this competition")
	CodeNotParticipant         = ErrRegistry.Register("NOT_PARTICIPANT", errx.TypeNotFound, 404, "Agent is not a participant")
)

func ErrCompetitionNotFound() *errx.Error    { return ErrRegistry.New(CodeCompetitionNotFound) }
func ErrInvalidCompetitionData() *errx.Error { return ErrRegistry.New(CodeInvalidCompetitionData) }
func ErrInvalidTransition() *errx.Error      { return ErrRegistry.New(CodeInvalidTransition) }
func ErrJoinClosed() *errx.Error             { return ErrRegistry.New(CodeJoinClosed) }
func ErrCompetitionFull() *errx.Error        { return ErrRegistry.New(CodeCompetitionFull) }
func ErrAlreadyJoined() *errx.Error          { return ErrRegistry.New(CodeAlreadyJoined) }
func ErrNotParticipant() *errx.Error         { return ErrRegistry.New(CodeNotParticipant) }
