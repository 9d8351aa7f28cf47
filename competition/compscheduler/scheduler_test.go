package compscheduler

import (
	"context"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/Abraxas-365/craftable/storex"
	"github.com/arenalabs/tradearena/agent"
	"github.com/arenalabs/tradearena/competition"
	"github.com/arenalabs/tradearena/competition/compsrv"
	"github.com/arenalabs/tradearena/pkg/cachex"
	"github.com/arenalabs/tradearena/pkg/kernel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Fakes
// ============================================================================

type stubCompetitionRepo struct {
	mu   sync.Mutex
	byID map[kernel.CompetitionID]*competition.Competition
}

func newStubCompetitionRepo() *stubCompetitionRepo {
	return &stubCompetitionRepo{byID: make(map[kernel.CompetitionID]*competition.Competition)}
}

func (r *stubCompetitionRepo) Save(_ context.Context, c competition.Competition) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := c
	r.byID[c.ID] = &copied
	return nil
}

func (r *stubCompetitionRepo) FindByID(_ context.Context, id kernel.CompetitionID) (*competition.Competition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.byID[id]; ok {
		copied := *c
		return &copied, nil
	}
	return nil, competition.ErrCompetitionNotFound()
}

func (r *stubCompetitionRepo) List(_ context.Context, req competition.ListCompetitionsRequest) (storex.Paginated[competition.Competition], error) {
	return storex.NewPaginated([]competition.Competition{}, req.Page, req.PageSize, 0), nil
}

func (r *stubCompetitionRepo) FindDueToStart(_ context.Context, now time.Time) ([]*competition.Competition, error) {
	return r.filter(func(c *competition.Competition) bool {
		return c.Status == competition.CompetitionStatusPending && !c.StartDate.After(now) && !c.External
	}), nil
}

func (r *stubCompetitionRepo) FindDueToEnd(_ context.Context, now time.Time) ([]*competition.Competition, error) {
	return r.filter(func(c *competition.Competition) bool {
		return c.Status == competition.CompetitionStatusActive && !c.EndDate.After(now) && !c.External
	}), nil
}

func (r *stubCompetitionRepo) FindActive(_ context.Context) ([]*competition.Competition, error) {
	return r.filter(func(c *competition.Competition) bool {
		return c.Status == competition.CompetitionStatusActive
	}), nil
}

func (r *stubCompetitionRepo) filter(keep func(*competition.Competition) bool) []*competition.Competition {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*competition.Competition
	for _, c := range r.byID {
		if keep(c) {
			copied := *c
			out = append(out, &copied)
		}
	}
	return out
}

func (r *stubCompetitionRepo) status(id kernel.CompetitionID) competition.CompetitionStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byID[id].Status
}

type stubParticipantRepo struct{}

func (stubParticipantRepo) Save(context.Context, competition.Participant) error { return nil }
func (stubParticipantRepo) Find(context.Context, kernel.CompetitionID, kernel.AgentID) (*competition.Participant, error) {
	return nil, competition.ErrNotParticipant()
}
func (stubParticipantRepo) ListByCompetition(context.Context, kernel.CompetitionID) ([]*competition.Participant, error) {
	return nil, nil
}
func (stubParticipantRepo) CountJoined(context.Context, kernel.CompetitionID) (int, error) {
	return 0, nil
}

type stubSnapshotRepo struct{}

func (stubSnapshotRepo) Save(context.Context, competition.Snapshot) error { return nil }
func (stubSnapshotRepo) LatestPerAgent(context.Context, kernel.CompetitionID) ([]*competition.Snapshot, error) {
	return nil, nil
}

type stubAgentRepo struct{}

func (stubAgentRepo) Save(context.Context, agent.Agent) error { return nil }
func (stubAgentRepo) FindByID(context.Context, kernel.AgentID) (*agent.Agent, error) {
	return nil, agent.ErrAgentNotFound()
}
func (stubAgentRepo) FindByHandle(context.Context, string) (*agent.Agent, error) {
	return nil, agent.ErrAgentNotFound()
}
func (stubAgentRepo) FindByAPIKeyHash(context.Context, string) (*agent.Agent, error) {
	return nil, agent.ErrAgentNotFound()
}
func (stubAgentRepo) FindByOwner(context.Context, kernel.UserID) ([]*agent.Agent, error) {
	return nil, nil
}
func (stubAgentRepo) List(_ context.Context, req agent.ListAgentsRequest) (storex.Paginated[agent.Agent], error) {
	return storex.NewPaginated([]agent.Agent{}, req.Page, req.PageSize, 0), nil
}

// ============================================================================
// Helpers
// ============================================================================

func newTestScheduler(interval time.Duration) (*CompetitionScheduler, *stubCompetitionRepo) {
	repo := newStubCompetitionRepo()
	cache := cachex.New(cachex.NewMemoryStore())
	svc := compsrv.NewCompetitionService(repo, stubParticipantRepo{}, stubSnapshotRepo{}, stubAgentRepo{}, cache)
	return NewCompetitionScheduler(repo, svc, cache, interval, "*/5 * * * *"), repo
}

func seedCompetition(repo *stubCompetitionRepo, id string, status competition.CompetitionStatus, start, end time.Time) kernel.CompetitionID {
	compID := kernel.NewCompetitionID(id)
	repo.byID[compID] = &competition.Competition{
		ID:         compID,
		Name:       "Arena Cup " + id,
		Status:     status,
		StartDate:  start,
		EndDate:    end,
		RewardPool: big.NewInt(0),
	}
	return compID
}

// ============================================================================
// Tests
// ============================================================================

func TestTickAdvancesCompetitionLifecycle(t *testing.T) {
	s, repo := newTestScheduler(time.Hour)
	now := time.Now()

	dueToStart := seedCompetition(repo, "starting", competition.CompetitionStatusPending, now.Add(-time.Minute), now.Add(time.Hour))
	dueToEnd := seedCompetition(repo, "ending", competition.CompetitionStatusActive, now.Add(-2*time.Hour), now.Add(-time.Minute))
	notYet := seedCompetition(repo, "future", competition.CompetitionStatusPending, now.Add(time.Hour), now.Add(2*time.Hour))

	s.tick(context.Background())

	assert.Equal(t, competition.CompetitionStatusActive, repo.status(dueToStart))
	assert.Equal(t, competition.CompetitionStatusEnded, repo.status(dueToEnd))
	assert.Equal(t, competition.CompetitionStatusPending, repo.status(notYet))
}

func TestStartStopConcurrency(t *testing.T) {
	s, _ := newTestScheduler(5 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		s.Start(context.Background())
		close(done)
	}()

	// Dejar correr algunos ticks antes de detener desde otra goroutine
	time.Sleep(25 * time.Millisecond)
	s.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}

	// Stop repetido no debe entrar en pánico por doble close
	require.NotPanics(t, func() { s.Stop() })
}

func TestStartWhileRunningReturns(t *testing.T) {
	s, _ := newTestScheduler(5 * time.Millisecond)

	go s.Start(context.Background())
	time.Sleep(10 * time.Millisecond)

	finished := make(chan struct{})
	go func() {
		s.Start(context.Background())
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("second Start should return immediately while running")
	}

	s.Stop()
}
