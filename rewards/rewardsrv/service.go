package rewardsrv

import (
	"context"
	"math/big"
	"time"

	"github.com/Abraxas-365/craftable/logx"
	"github.com/arenalabs/tradearena/competition"
	"github.com/arenalabs/tradearena/pkg/cachex"
	"github.com/arenalabs/tradearena/pkg/kernel"
	"github.com/arenalabs/tradearena/rewards"
	"github.com/google/uuid"
)

// RewardService orquesta la asignación y el reclamo de premios
type RewardService struct {
	rewardRepo      rewards.RewardRepository
	competitionRepo competition.CompetitionRepository
	cache           *cachex.Cache
	now             func() time.Time
}

// NewRewardService crea una nueva instancia del servicio
func NewRewardService(
	rewardRepo rewards.RewardRepository,
	competitionRepo competition.CompetitionRepository,
	cache *cachex.Cache,
) *RewardService {
	return &RewardService{
		rewardRepo:      rewardRepo,
		competitionRepo: competitionRepo,
		cache:           cache,
		now:             time.Now,
	}
}

// Allocate asigna el lote de premios de una competencia finalizada.
// La asignación duplicada para un mismo usuario es un conflicto.
func (s *RewardService) Allocate(ctx context.Context, req rewards.AllocateRequest) ([]*rewards.Reward, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	comp, err := s.competitionRepo.FindByID(ctx, req.CompetitionID)
	if err != nil {
		return nil, err
	}
	if !comp.IsEnded() {
		return nil, rewards.ErrCompetitionNotEnded().
			WithDetail("competition_id", req.CompetitionID.String()).
			WithDetail("status", string(comp.Status))
	}

	now := s.now()
	allocated := make([]*rewards.Reward, 0, len(req.Allocations))
	for _, a := range req.Allocations {
		exists, err := s.rewardRepo.Exists(ctx, req.CompetitionID, a.UserID)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, rewards.ErrAlreadyAllocated().
				WithDetail("competition_id", req.CompetitionID.String()).
				WithDetail("user_id", a.UserID.String())
		}

		amount, _ := new(big.Int).SetString(a.Amount, 10)
		reward := rewards.Reward{
			ID:            kernel.NewRewardID(uuid.NewString()),
			CompetitionID: req.CompetitionID,
			UserID:        a.UserID,
			Amount:        amount,
			Rank:          a.Rank,
			CreatedAt:     now,
		}

		if err := s.rewardRepo.Save(ctx, reward); err != nil {
			return nil, err
		}

		s.invalidate(ctx, rewards.UserRewardsTag(a.UserID))
		allocated = append(allocated, &reward)
	}

	logx.Info("Rewards allocated for competition %s", req.CompetitionID.String())

	return allocated, nil
}

// ListMyRewards lista los premios de un usuario, cacheado
func (s *RewardService) ListMyRewards(ctx context.Context, userID kernel.UserID) ([]rewards.Reward, error) {
	return cachex.Through(ctx, s.cache, cachex.Spec{
		Path:  rewards.ProcListRewards,
		Input: map[string]any{"userId": userID.String()},
		TTL:   rewards.RewardsTTL,
		Tags:  []string{rewards.UserRewardsTag(userID)},
	}, func(ctx context.Context) ([]rewards.Reward, error) {
		found, err := s.rewardRepo.ListByUser(ctx, userID)
		if err != nil {
			return nil, err
		}
		list := make([]rewards.Reward, 0, len(found))
		for _, r := range found {
			list = append(list, *r)
		}
		return list, nil
	})
}

// Claim reclama un premio; reclamar dos veces es un conflicto
func (s *RewardService) Claim(ctx context.Context, userID kernel.UserID, rewardID kernel.RewardID) (*rewards.Reward, error) {
	reward, err := s.rewardRepo.FindByID(ctx, rewardID)
	if err != nil {
		return nil, err
	}

	if reward.UserID != userID {
		return nil, rewards.ErrNotRewardOwner().WithDetail("reward_id", rewardID.String())
	}

	if err := reward.Claim(s.now()); err != nil {
		return nil, err
	}

	if err := s.rewardRepo.Save(ctx, *reward); err != nil {
		return nil, err
	}

	s.invalidate(ctx, rewards.UserRewardsTag(userID))

	return reward, nil
}

// TotalClaimable suma los premios no reclamados de un usuario, cacheado
func (s *RewardService) TotalClaimable(ctx context.Context, userID kernel.UserID) (*rewards.ClaimableSummary, error) {
	summary, err := cachex.Through(ctx, s.cache, cachex.Spec{
		Path:  rewards.ProcTotalClaimable,
		Input: map[string]any{"userId": userID.String()},
		TTL:   rewards.RewardsTTL,
		Tags:  []string{rewards.UserRewardsTag(userID)},
	}, func(ctx context.Context) (rewards.ClaimableSummary, error) {
		unclaimed, err := s.rewardRepo.ListUnclaimedByUser(ctx, userID)
		if err != nil {
			return rewards.ClaimableSummary{}, err
		}

		total := big.NewInt(0)
		for _, r := range unclaimed {
			total.Add(total, r.Amount)
		}

		return rewards.ClaimableSummary{
			UserID: userID,
			Total:  total,
			Count:  len(unclaimed),
		}, nil
	})
	if err != nil {
		return nil, err
	}

	return &summary, nil
}

// SetNow inyecta el reloj; solo para tests
func (s *RewardService) SetNow(now func() time.Time) {
	s.now = now
}

func (s *RewardService) invalidate(ctx context.Context, tag string) {
	if err := s.cache.Invalidate(ctx, tag); err != nil {
		logx.Error("Failed to invalidate cache tag %s: %v", tag, err)
	}
}
