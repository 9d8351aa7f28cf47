package compsrv

import (
	"context"
	"math/big"
	"sort"
	"time"

	"github.com/Abraxas-365/craftable/errx"
	"github.com/Abraxas-365/craftable/logx"
	"github.com/Abraxas-365/craftable/storex"
	"github.com/arenalabs/tradearena/agent"
	"github.com/arenalabs/tradearena/competition"
	"github.com/arenalabs/tradearena/pkg/cachex"
	"github.com/arenalabs/tradearena/pkg/kernel"
	"github.com/google/uuid"
)

// CompetitionService orquesta el ciclo de vida de las competencias
type CompetitionService struct {
	competitionRepo competition.CompetitionRepository
	participantRepo competition.ParticipantRepository
	snapshotRepo    competition.SnapshotRepository
	agentRepo       agent.AgentRepository
	cache           *cachex.Cache
	now             func() time.Time
}

// NewCompetitionService crea una nueva instancia del servicio
func NewCompetitionService(
	competitionRepo competition.CompetitionRepository,
	participantRepo competition.ParticipantRepository,
	snapshotRepo competition.SnapshotRepository,
	agentRepo agent.AgentRepository,
	cache *cachex.Cache,
) *CompetitionService {
	return &CompetitionService{
		competitionRepo: competitionRepo,
		participantRepo: participantRepo,
		snapshotRepo:    snapshotRepo,
		agentRepo:       agentRepo,
		cache:           cache,
		now:             time.Now,
	}
}

// CreateCompetition registra una competencia nueva en estado PENDING
func (s *CompetitionService) CreateCompetition(ctx context.Context, req competition.CreateCompetitionRequest) (*competition.Competition, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	pool := big.NewInt(0)
	if req.RewardPool != "" {
		pool, _ = new(big.Int).SetString(req.RewardPool, 10)
	}

	now := s.now()
	c := competition.Competition{
		ID:              kernel.NewCompetitionID(uuid.NewString()),
		Name:            req.Name,
		Description:     req.Description,
		Status:          competition.CompetitionStatusPending,
		External:        req.External,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		JoinDeadline:    req.JoinDeadline,
		MaxParticipants: req.MaxParticipants,
		RewardPool:      pool,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.competitionRepo.Save(ctx, c); err != nil {
		return nil, err
	}

	s.invalidate(ctx, competition.TagCompetitions)
	logx.Info("Competition created: %s", c.Name)

	return &c, nil
}

// UpdateCompetition actualiza los campos editables de una competencia
func (s *CompetitionService) UpdateCompetition(ctx context.Context, id kernel.CompetitionID, req competition.UpdateCompetitionRequest) (*competition.Competition, error) {
	c, err := s.competitionRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		c.Name = *req.Name
	}
	if req.Description != nil {
		c.Description = *req.Description
	}
	if req.JoinDeadline != nil {
		c.JoinDeadline = req.JoinDeadline
	}
	if req.MaxParticipants != nil {
		c.MaxParticipants = req.MaxParticipants
	}
	if req.RewardPool != nil {
		pool, ok := new(big.Int).SetString(*req.RewardPool, 10)
		if !ok {
			return nil, competition.ErrInvalidCompetitionData().WithDetail("field", "rewardPool")
		}
		c.RewardPool = pool
	}
	c.UpdatedAt = s.now()

	if err := s.competitionRepo.Save(ctx, *c); err != nil {
		return nil, err
	}

	s.invalidate(ctx, competition.TagCompetitions)

	return c, nil
}

// StartCompetition activa una competencia PENDING
func (s *CompetitionService) StartCompetition(ctx context.Context, id kernel.CompetitionID) (*competition.Competition, error) {
	c, err := s.competitionRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := c.Start(); err != nil {
		return nil, err
	}

	if err := s.competitionRepo.Save(ctx, *c); err != nil {
		return nil, err
	}

	s.invalidate(ctx, competition.TagCompetitions)
	logx.Info("Competition started: %s", c.Name)

	return c, nil
}

// EndCompetition finaliza una competencia ACTIVE e invalida su leaderboard
func (s *CompetitionService) EndCompetition(ctx context.Context, id kernel.CompetitionID) (*competition.Competition, error) {
	c, err := s.competitionRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := c.End(); err != nil {
		return nil, err
	}

	if err := s.competitionRepo.Save(ctx, *c); err != nil {
		return nil, err
	}

	s.invalidate(ctx, competition.TagCompetitions)
	s.invalidate(ctx, competition.LeaderboardTag(c.ID))
	logx.Info("Competition ended: %s", c.Name)

	return c, nil
}

// GetCompetition retorna una competencia, cacheada
func (s *CompetitionService) GetCompetition(ctx context.Context, id kernel.CompetitionID) (*competition.Competition, error) {
	c, err := cachex.Through(ctx, s.cache, cachex.Spec{
		Path:  competition.ProcGetCompetition,
		Input: map[string]any{"competitionId": id.String()},
		TTL:   competition.CompetitionTTL,
		Tags:  []string{competition.TagCompetitions},
	}, func(ctx context.Context) (competition.Competition, error) {
		found, err := s.competitionRepo.FindByID(ctx, id)
		if err != nil {
			return competition.Competition{}, err
		}
		return *found, nil
	})
	if err != nil {
		return nil, err
	}

	return &c, nil
}

// ListCompetitions lista competencias paginadas, cacheada
func (s *CompetitionService) ListCompetitions(ctx context.Context, req competition.ListCompetitionsRequest) (storex.Paginated[competition.Competition], error) {
	input := map[string]any{
		"page":     req.Page,
		"pageSize": req.PageSize,
	}
	if req.Status != nil {
		input["status"] = string(*req.Status)
	}

	return cachex.Through(ctx, s.cache, cachex.Spec{
		Path:  competition.ProcListCompetitions,
		Input: input,
		TTL:   competition.CompetitionTTL,
		Tags:  []string{competition.TagCompetitions},
	}, func(ctx context.Context) (storex.Paginated[competition.Competition], error) {
		return s.competitionRepo.List(ctx, req)
	})
}

// Join inscribe a un agente: solo antes del deadline, con cupo y estado válidos
func (s *CompetitionService) Join(ctx context.Context, competitionID kernel.CompetitionID, agentID kernel.AgentID) (*competition.Participant, error) {
	c, err := s.competitionRepo.FindByID(ctx, competitionID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if !c.JoinOpen(now) {
		return nil, competition.ErrJoinClosed().WithDetail("competition_id", competitionID.String())
	}

	existing, err := s.participantRepo.Find(ctx, competitionID, agentID)
	if err != nil && !errx.IsType(err, errx.TypeNotFound) {
		return nil, err
	}
	if existing != nil && existing.Status == competition.ParticipantStatusJoined {
		return nil, competition.ErrAlreadyJoined().WithDetail("agent_id", agentID.String())
	}

	if c.MaxParticipants != nil {
		joined, err := s.participantRepo.CountJoined(ctx, competitionID)
		if err != nil {
			return nil, err
		}
		if joined >= *c.MaxParticipants {
			return nil, competition.ErrCompetitionFull().WithDetail("competition_id", competitionID.String())
		}
	}

	p := competition.Participant{
		CompetitionID: competitionID,
		AgentID:       agentID,
		Status:        competition.ParticipantStatusJoined,
		JoinedAt:      now,
	}

	if err := s.participantRepo.Save(ctx, p); err != nil {
		return nil, err
	}

	s.invalidate(ctx, competition.LeaderboardTag(competitionID))

	return &p, nil
}

// Leave retira a un agente inscrito de la competencia
func (s *CompetitionService) Leave(ctx context.Context, competitionID kernel.CompetitionID, agentID kernel.AgentID) error {
	p, err := s.participantRepo.Find(ctx, competitionID, agentID)
	if err != nil {
		return err
	}
	if p.Status != competition.ParticipantStatusJoined {
		return competition.ErrNotParticipant().WithDetail("agent_id", agentID.String())
	}

	now := s.now()
	p.Status = competition.ParticipantStatusLeft
	p.LeftAt = &now

	if err := s.participantRepo.Save(ctx, *p); err != nil {
		return err
	}

	s.invalidate(ctx, competition.LeaderboardTag(competitionID))

	return nil
}

// RecordSnapshot registra la foto de portafolio de un agente inscrito
func (s *CompetitionService) RecordSnapshot(ctx context.Context, competitionID kernel.CompetitionID, agentID kernel.AgentID, req competition.RecordSnapshotRequest) error {
	p, err := s.participantRepo.Find(ctx, competitionID, agentID)
	if err != nil {
		return err
	}
	if p.Status != competition.ParticipantStatusJoined {
		return competition.ErrNotParticipant().WithDetail("agent_id", agentID.String())
	}

	value, ok := new(big.Int).SetString(req.PortfolioValue, 10)
	if !ok {
		return competition.ErrInvalidCompetitionData().WithDetail("field", "portfolioValue")
	}
	pnl, ok := new(big.Int).SetString(req.PnL, 10)
	if !ok {
		return competition.ErrInvalidCompetitionData().WithDetail("field", "pnl")
	}

	snap := competition.Snapshot{
		ID:             uuid.NewString(),
		CompetitionID:  competitionID,
		AgentID:        agentID,
		PortfolioValue: value,
		PnL:            pnl,
		TakenAt:        s.now(),
	}

	return s.snapshotRepo.Save(ctx, snap)
}

// Leaderboard retorna el ranking de la competencia, cacheado
func (s *CompetitionService) Leaderboard(ctx context.Context, competitionID kernel.CompetitionID) ([]competition.LeaderboardEntry, error) {
	if _, err := s.competitionRepo.FindByID(ctx, competitionID); err != nil {
		return nil, err
	}

	return cachex.Through(ctx, s.cache, cachex.Spec{
		Path:  competition.ProcLeaderboard,
		Input: map[string]any{"competitionId": competitionID.String()},
		TTL:   competition.LeaderboardTTL,
		Tags:  []string{competition.LeaderboardTag(competitionID)},
	}, func(ctx context.Context) ([]competition.LeaderboardEntry, error) {
		return s.computeLeaderboard(ctx, competitionID)
	})
}

func (s *CompetitionService) computeLeaderboard(ctx context.Context, competitionID kernel.CompetitionID) ([]competition.LeaderboardEntry, error) {
	snapshots, err := s.snapshotRepo.LatestPerAgent(ctx, competitionID)
	if err != nil {
		return nil, err
	}

	entries := make([]competition.LeaderboardEntry, 0, len(snapshots))
	for _, snap := range snapshots {
		name := ""
		if a, err := s.agentRepo.FindByID(ctx, snap.AgentID); err == nil {
			name = a.Name
		}
		entries = append(entries, competition.LeaderboardEntry{
			AgentID:        snap.AgentID,
			AgentName:      name,
			PortfolioValue: snap.PortfolioValue,
			PnL:            snap.PnL,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].PortfolioValue.Cmp(entries[j].PortfolioValue) > 0
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}

	return entries, nil
}

// SetNow inyecta el reloj; solo para tests
func (s *CompetitionService) SetNow(now func() time.Time) {
	s.now = now
}

func (s *CompetitionService) invalidate(ctx context.Context, tag string) {
	if err := s.cache.Invalidate(ctx, tag); err != nil {
		logx.Error("Failed to invalidate cache tag %s: %v", tag, err)
	}
}
