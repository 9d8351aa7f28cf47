package rewards

import (
	"math/big"
	"time"

	"github.com/Abraxas-365/craftable/errx"
	"github.com/arenalabs/tradearena/pkg/kernel"
)

// Reward representa la asignación de premio de un usuario en una competencia
type Reward struct {
	ID            kernel.RewardID      `json:"id" db:"id"`
	CompetitionID kernel.CompetitionID `json:"competitionId" db:"competition_id"`
	UserID        kernel.UserID        `json:"userId" db:"user_id"`
	Amount        *big.Int             `json:"amount" db:"-"`
	Rank          int                  `json:"rank" db:"rank"`
	Claimed       bool                 `json:"claimed" db:"claimed"`
	ClaimedAt     *time.Time           `json:"claimedAt,omitempty" db:"claimed_at"`
	CreatedAt     time.Time            `json:"createdAt" db:"created_at"`
}

// Claim marca el premio como reclamado; falla si ya lo estaba
func (r *Reward) Claim(now time.Time) error {
	if r.Claimed {
		return ErrAlreadyClaimed().WithDetail("reward_id", r.ID.String())
	}
	r.Claimed = true
	r.ClaimedAt = &now
	return nil
}

// Allocation es una entrada del lote de asignación
type Allocation struct {
	UserID kernel.UserID `json:"userId"`
	Amount string        `json:"amount"`
	Rank   int           `json:"rank"`
}

// AllocateRequest request para asignar premios de una competencia finalizada
type AllocateRequest struct {
	CompetitionID kernel.CompetitionID `json:"competitionId"`
	Allocations   []Allocation         `json:"allocations"`
}

// Validate valida el lote de asignación
func (r AllocateRequest) Validate() error {
	if r.CompetitionID.IsEmpty() {
		return ErrInvalidRewardData().WithDetail("field", "competitionId")
	}
	if len(r.Allocations) == 0 {
		return ErrInvalidRewardData().WithDetail("field", "allocations")
	}
	for _, a := range r.Allocations {
		if a.UserID.IsEmpty() {
			return ErrInvalidRewardData().WithDetail("field", "userId")
		}
		amount, ok := new(big.Int).SetString(a.Amount, 10)
		if !ok || amount.Sign() <= 0 {
			return ErrInvalidRewardData().WithDetail("field", "amount")
		}
	}
	return nil
}

// ClaimableSummary es el total reclamable de un usuario
type ClaimableSummary struct {
	UserID kernel.UserID `json:"userId"`
	Total  *big.Int      `json:"total"`
	Count  int           `json:"count"`
}

// ============================================================================
// ERRORES
// ============================================================================

var ErrRegistry = errx.NewRegistry("REWARDS")

var (
	CodeRewardNotFound      = ErrRegistry.Register("NOT_FOUND", errx.TypeNotFound, 404, "Reward not found")
	CodeInvalidRewardData   = ErrRegistry.Register("INVALID_DATA", errx.TypeValidation, 400, "Invalid reward data")
	CodeAlreadyAllocated    = ErrRegistry.Register("ALREADY_ALLOCATED", errx.TypeConflict, 409, "Reward already allocated for this user and competition")
	CodeAlreadyClaimed      = ErrRegistry.Register("ALREADY_CLAIMED", errx.TypeConflict, 409, "Reward already claimed")
	CodeCompetitionNotEnded = ErrRegistry.Register("COMPETITION_NOT_ENDED", errx.TypeConflict, 409, "Rewards can only be allocated for ended competitions")
	CodeNotRewardOwner      = ErrRegistry.Register("NOT_OWNER", errx.TypeBusiness, 403, "Reward belongs to another user")
)

func ErrRewardNotFound() *errx.Error      { return ErrRegistry.New(CodeRewardNotFound) }
func ErrInvalidRewardData() *errx.Error   { return ErrRegistry.New(CodeInvalidRewardData) }
func ErrAlreadyAllocated() *errx.Error    { return ErrRegistry.New(CodeAlreadyAllocated) }
func ErrAlreadyClaimed() *errx.Error      { return ErrRegistry.New(CodeAlreadyClaimed) }
func ErrCompetitionNotEnded() *errx.Error { return ErrRegistry.New(CodeCompetitionNotEnded) }
func ErrNotRewardOwner() *errx.Error      { return ErrRegistry.New(CodeNotRewardOwner) }
