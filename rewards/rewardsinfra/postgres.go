package rewardsinfra

import (
	"context"
	"database/sql"
	"fmt"
	"math/big"
	"time"

	"github.com/Abraxas-365/craftable/errx"
	"github.com/arenalabs/tradearena/pkg/kernel"
	"github.com/arenalabs/tradearena/rewards"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type rewardRow struct {
	ID            string     `db:"id"`
	CompetitionID string     `db:"competition_id"`
	UserID        string     `db:"user_id"`
	Amount        string     `db:"amount"`
	Rank          int        `db:"rank"`
	Claimed       bool       `db:"claimed"`
	ClaimedAt     *time.Time `db:"claimed_at"`
	CreatedAt     time.Time  `db:"created_at"`
}

func (r rewardRow) toDomain() (rewards.Reward, error) {
	amount, ok := new(big.Int).SetString(r.Amount, 10)
	if !ok {
		return rewards.Reward{}, errx.New("invalid reward amount in storage", errx.TypeInternal).
			WithDetail("reward_id", r.ID)
	}

	return rewards.Reward{
		ID:            kernel.NewRewardID(r.ID),
		CompetitionID: kernel.NewCompetitionID(r.CompetitionID),
		UserID:        kernel.NewUserID(r.UserID),
		Amount:        amount,
		Rank:          r.Rank,
		Claimed:       r.Claimed,
		ClaimedAt:     r.ClaimedAt,
		CreatedAt:     r.CreatedAt,
	}, nil
}

const rewardColumns = `id, competition_id, user_id, amount::text AS amount,
	rank, claimed, claimed_at, created_at`

// PostgresRewardRepository implementación de PostgreSQL para RewardRepository
type PostgresRewardRepository struct {
	db *sqlx.DB
}

var _ rewards.RewardRepository = (*PostgresRewardRepository)(nil)

// NewPostgresRewardRepository crea una nueva instancia del repositorio
func NewPostgresRewardRepository(db *sqlx.DB) *PostgresRewardRepository {
	return &PostgresRewardRepository{db: db}
}

// Save inserta o actualiza un premio
func (r *PostgresRewardRepository) Save(ctx context.Context, reward rewards.Reward) error {
	query := `
		INSERT INTO rewards (
			id, competition_id, user_id, amount, rank, claimed, claimed_at, created_at
		) VALUES (
			:id, :competition_id, :user_id, :amount::numeric, :rank, :claimed, :claimed_at, :created_at
		)
		ON CONFLICT (id) DO UPDATE SET
			claimed = EXCLUDED.claimed,
			claimed_at = EXCLUDED.claimed_at`

	row := rewardRow{
		ID:            reward.ID.String(),
		CompetitionID: reward.CompetitionID.String(),
		UserID:        reward.UserID.String(),
		Amount:        reward.Amount.String(),
		Rank:          reward.Rank,
		Claimed:       reward.Claimed,
		ClaimedAt:     reward.ClaimedAt,
		CreatedAt:     reward.CreatedAt,
	}

	_, err := r.db.NamedExecContext(ctx, query, row)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return rewards.ErrAlreadyAllocated().
				WithDetail("competition_id", reward.CompetitionID.String()).
				WithDetail("user_id", reward.UserID.String())
		}
		return errx.Wrap(err, "failed to save reward", errx.TypeInternal).
			WithDetail("reward_id", reward.ID.String())
	}

	return nil
}

// FindByID busca un premio por ID
func (r *PostgresRewardRepository) FindByID(ctx context.Context, id kernel.RewardID) (*rewards.Reward, error) {
	query := fmt.Sprintf(`SELECT %s FROM rewards WHERE id = $1`, rewardColumns)

	var row rewardRow
	err := r.db.GetContext(ctx, &row, query, id.String())
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, rewards.ErrRewardNotFound().WithDetail("reward_id", id.String())
		}
		return nil, errx.Wrap(err, "failed to find reward by id", errx.TypeInternal).
			WithDetail("reward_id", id.String())
	}

	reward, err := row.toDomain()
	if err != nil {
		return nil, err
	}
	return &reward, nil
}

// Exists verifica si ya hay asignación para el par competencia/usuario
func (r *PostgresRewardRepository) Exists(ctx context.Context, competitionID kernel.CompetitionID, userID kernel.UserID) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM rewards WHERE competition_id = $1 AND user_id = $2)`,
		competitionID.String(), userID.String())
	if err != nil {
		return false, errx.Wrap(err, "failed to check reward existence", errx.TypeInternal)
	}
	return exists, nil
}

// ListByUser lista los premios de un usuario
func (r *PostgresRewardRepository) ListByUser(ctx context.Context, userID kernel.UserID) ([]*rewards.Reward, error) {
	query := fmt.Sprintf(`SELECT %s FROM rewards WHERE user_id = $1 ORDER BY created_at DESC`, rewardColumns)
	return r.list(ctx, query, userID.String())
}

// ListUnclaimedByUser lista los premios no reclamados de un usuario
func (r *PostgresRewardRepository) ListUnclaimedByUser(ctx context.Context, userID kernel.UserID) ([]*rewards.Reward, error) {
	query := fmt.Sprintf(`SELECT %s FROM rewards WHERE user_id = $1 AND claimed = false ORDER BY created_at DESC`, rewardColumns)
	return r.list(ctx, query, userID.String())
}

func (r *PostgresRewardRepository) list(ctx context.Context, query string, args ...any) ([]*rewards.Reward, error) {
	var rows []rewardRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errx.Wrap(err, "failed to list rewards", errx.TypeInternal)
	}

	list := make([]*rewards.Reward, 0, len(rows))
	for _, row := range rows {
		reward, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		list = append(list, &reward)
	}

	return list, nil
}
