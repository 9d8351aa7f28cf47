package rewardsrv

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/Abraxas-365/craftable/errx"
	"github.com/Abraxas-365/craftable/storex"
	"github.com/arenalabs/tradearena/competition"
	"github.com/arenalabs/tradearena/pkg/cachex"
	"github.com/arenalabs/tradearena/pkg/kernel"
	"github.com/arenalabs/tradearena/rewards"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Fakes
// ============================================================================

type fakeRewardRepo struct {
	byID           map[kernel.RewardID]*rewards.Reward
	listByUserN    int
	listUnclaimedN int
}

func newFakeRewardRepo() *fakeRewardRepo {
	return &fakeRewardRepo{byID: make(map[kernel.RewardID]*rewards.Reward)}
}

func (r *fakeRewardRepo) Save(_ context.Context, reward rewards.Reward) error {
	copied := reward
	copied.Amount = new(big.Int).Set(reward.Amount)
	r.byID[reward.ID] = &copied
	return nil
}

func (r *fakeRewardRepo) FindByID(_ context.Context, id kernel.RewardID) (*rewards.Reward, error) {
	if reward, ok := r.byID[id]; ok {
		copied := *reward
		return &copied, nil
	}
	return nil, rewards.ErrRewardNotFound()
}

func (r *fakeRewardRepo) Exists(_ context.Context, compID kernel.CompetitionID, userID kernel.UserID) (bool, error) {
	for _, reward := range r.byID {
		if reward.CompetitionID == compID && reward.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeRewardRepo) ListByUser(_ context.Context, userID kernel.UserID) ([]*rewards.Reward, error) {
	r.listByUserN++
	var list []*rewards.Reward
	for _, reward := range r.byID {
		if reward.UserID == userID {
			list = append(list, reward)
		}
	}
	return list, nil
}

func (r *fakeRewardRepo) ListUnclaimedByUser(_ context.Context, userID kernel.UserID) ([]*rewards.Reward, error) {
	r.listUnclaimedN++
	var list []*rewards.Reward
	for _, reward := range r.byID {
		if reward.UserID == userID && !reward.Claimed {
			list = append(list, reward)
		}
	}
	return list, nil
}

type fakeCompetitionRepo struct {
	byID map[kernel.CompetitionID]*competition.Competition
}

func (r *fakeCompetitionRepo) Save(_ context.Context, c competition.Competition) error {
	copied := c
	r.byID[c.ID] = &copied
	return nil
}

func (r *fakeCompetitionRepo) FindByID(_ context.Context, id kernel.CompetitionID) (*competition.Competition, error) {
	if c, ok := r.byID[id]; ok {
		copied := *c
		return &copied, nil
	}
	return nil, competition.ErrCompetitionNotFound()
}

func (r *fakeCompetitionRepo) List(_ context.Context, req competition.ListCompetitionsRequest) (storex.Paginated[competition.Competition], error) {
	return storex.NewPaginated([]competition.Competition{}, req.Page, req.PageSize, 0), nil
}

func (r *fakeCompetitionRepo) FindDueToStart(context.Context, time.Time) ([]*competition.Competition, error) {
	return nil, nil
}

func (r *fakeCompetitionRepo) FindDueToEnd(context.Context, time.Time) ([]*competition.Competition, error) {
	return nil, nil
}

func (r *fakeCompetitionRepo) FindActive(context.Context) ([]*competition.Competition, error) {
	return nil, nil
}

// ============================================================================
// Helpers
// ============================================================================

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, compStatus competition.CompetitionStatus) (*RewardService, *fakeRewardRepo, kernel.CompetitionID) {
	t.Helper()

	compID := kernel.NewCompetitionID("comp-1")
	comps := &fakeCompetitionRepo{byID: map[kernel.CompetitionID]*competition.Competition{
		compID: {
			ID:         compID,
			Name:       "Arena Cup",
			Status:     compStatus,
			StartDate:  testNow.Add(-48 * time.Hour),
			EndDate:    testNow.Add(-24 * time.Hour),
			RewardPool: big.NewInt(1_000_000),
		},
	}}
	rewardRepo := newFakeRewardRepo()

	svc := NewRewardService(rewardRepo, comps, cachex.New(cachex.NewMemoryStore()))
	svc.SetNow(func() time.Time { return testNow })

	return svc, rewardRepo, compID
}

func allocateOne(t *testing.T, svc *RewardService, compID kernel.CompetitionID, userID kernel.UserID, amount string) *rewards.Reward {
	t.Helper()
	allocated, err := svc.Allocate(context.Background(), rewards.AllocateRequest{
		CompetitionID: compID,
		Allocations:   []rewards.Allocation{{UserID: userID, Amount: amount, Rank: 1}},
	})
	require.NoError(t, err)
	require.Len(t, allocated, 1)
	return allocated[0]
}

// ============================================================================
// Allocation
// ============================================================================

func TestAllocateOnlyForEndedCompetitions(t *testing.T) {
	svc, _, compID := newTestService(t, competition.CompetitionStatusActive)

	_, err := svc.Allocate(context.Background(), rewards.AllocateRequest{
		CompetitionID: compID,
		Allocations:   []rewards.Allocation{{UserID: kernel.NewUserID("user-1"), Amount: "100", Rank: 1}},
	})

	require.Error(t, err)
	assert.True(t, errx.IsType(err, errx.TypeConflict))
}

func TestAllocateRejectsNonPositiveAmounts(t *testing.T) {
	svc, _, compID := newTestService(t, competition.CompetitionStatusEnded)

	for _, amount := range []string{"0", "-5", "1.5", "garbage"} {
		_, err := svc.Allocate(context.Background(), rewards.AllocateRequest{
			CompetitionID: compID,
			Allocations:   []rewards.Allocation{{UserID: kernel.NewUserID("user-1"), Amount: amount, Rank: 1}},
		})
		require.Error(t, err, "amount %q", amount)
		assert.True(t, errx.IsType(err, errx.TypeValidation), "amount %q", amount)
	}
}

func TestAllocateTwiceForSameUserIsConflict(t *testing.T) {
	svc, _, compID := newTestService(t, competition.CompetitionStatusEnded)
	userID := kernel.NewUserID("user-1")

	allocateOne(t, svc, compID, userID, "100")

	_, err := svc.Allocate(context.Background(), rewards.AllocateRequest{
		CompetitionID: compID,
		Allocations:   []rewards.Allocation{{UserID: userID, Amount: "200", Rank: 2}},
	})

	require.Error(t, err)
	assert.True(t, errx.IsType(err, errx.TypeConflict))
}

// ============================================================================
// Claims
// ============================================================================

func TestClaimMarksRewardClaimed(t *testing.T) {
	svc, repo, compID := newTestService(t, competition.CompetitionStatusEnded)
	userID := kernel.NewUserID("user-1")
	reward := allocateOne(t, svc, compID, userID, "100")

	claimed, err := svc.Claim(context.Background(), userID, reward.ID)

	require.NoError(t, err)
	assert.True(t, claimed.Claimed)
	require.NotNil(t, claimed.ClaimedAt)
	assert.Equal(t, testNow, *claimed.ClaimedAt)
	assert.True(t, repo.byID[reward.ID].Claimed)
}

func TestClaimTwiceIsConflict(t *testing.T) {
	svc, _, compID := newTestService(t, competition.CompetitionStatusEnded)
	userID := kernel.NewUserID("user-1")
	reward := allocateOne(t, svc, compID, userID, "100")

	_, err := svc.Claim(context.Background(), userID, reward.ID)
	require.NoError(t, err)

	_, err = svc.Claim(context.Background(), userID, reward.ID)
	require.Error(t, err)
	assert.True(t, errx.IsType(err, errx.TypeConflict))
}

func TestClaimSomeoneElsesReward(t *testing.T) {
	svc, _, compID := newTestService(t, competition.CompetitionStatusEnded)
	reward := allocateOne(t, svc, compID, kernel.NewUserID("owner"), "100")

	_, err := svc.Claim(context.Background(), kernel.NewUserID("intruder"), reward.ID)

	require.Error(t, err)
	assert.True(t, errx.IsType(err, errx.TypeBusiness))
}

// ============================================================================
// Claimable summary
// ============================================================================

func TestTotalClaimableSumsUnclaimedAmounts(t *testing.T) {
	svc, _, compID := newTestService(t, competition.CompetitionStatusEnded)
	userID := kernel.NewUserID("user-1")

	// Montos que exceden int64 para forzar la aritmética big.Int
	_, err := svc.Allocate(context.Background(), rewards.AllocateRequest{
		CompetitionID: compID,
		Allocations: []rewards.Allocation{
			{UserID: userID, Amount: "90000000000000000000", Rank: 1},
			{UserID: kernel.NewUserID("someone-else"), Amount: "7", Rank: 2},
		},
	})
	require.NoError(t, err)

	summary, err := svc.TotalClaimable(context.Background(), userID)

	require.NoError(t, err)
	assert.Equal(t, userID, summary.UserID)
	assert.Equal(t, 1, summary.Count)
	expected, _ := new(big.Int).SetString("90000000000000000000", 10)
	assert.Equal(t, 0, summary.Total.Cmp(expected))
}

func TestClaimInvalidatesClaimableSummary(t *testing.T) {
	svc, repo, compID := newTestService(t, competition.CompetitionStatusEnded)
	userID := kernel.NewUserID("user-1")
	reward := allocateOne(t, svc, compID, userID, "100")

	summary, err := svc.TotalClaimable(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Count)
	reads := repo.listUnclaimedN

	// Una segunda lectura sale del cache
	_, err = svc.TotalClaimable(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, reads, repo.listUnclaimedN)

	_, err = svc.Claim(context.Background(), userID, reward.ID)
	require.NoError(t, err)

	summary, err = svc.TotalClaimable(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, reads+1, repo.listUnclaimedN)
	assert.Equal(t, 0, summary.Count)
	assert.Equal(t, 0, summary.Total.Sign())
}
