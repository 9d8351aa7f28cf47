package rewards

import (
	"context"

	"github.com/arenalabs/tradearena/pkg/kernel"
)

// RewardRepository puerto de persistencia de premios
type RewardRepository interface {
	Save(ctx context.Context, r Reward) error
	FindByID(ctx context.Context, id kernel.RewardID) (*Reward, error)
	// Exists verifica si ya hay asignación para el par competencia/usuario
	Exists(ctx context.Context, competitionID kernel.CompetitionID, userID kernel.UserID) (bool, error)
	ListByUser(ctx context.Context, userID kernel.UserID) ([]*Reward, error)
	ListUnclaimedByUser(ctx context.Context, userID kernel.UserID) ([]*Reward, error)
}
