package compscheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/arenalabs/tradearena/competition"
	"github.com/arenalabs/tradearena/competition/compsrv"
	"github.com/arenalabs/tradearena/pkg/cachex"
	"github.com/robfig/cron/v3"
)

// CompetitionScheduler avanza automáticamente el ciclo de vida de las
// competencias: inicia las PENDING vencidas, finaliza las ACTIVE vencidas y
// refresca los leaderboards según el cron de snapshots.
type CompetitionScheduler struct {
	competitionRepo competition.CompetitionRepository
	service         *compsrv.CompetitionService
	cache           *cachex.Cache
	cronParser      cron.Parser
	interval        time.Duration
	snapshotSpec    string
	nextRefresh     time.Time
	stopChan        chan struct{}

	// mu protege running entre la goroutine del loop y Stop
	mu      sync.Mutex
	running bool
}

// NewCompetitionScheduler crea un nuevo scheduler de competencias
func NewCompetitionScheduler(
	competitionRepo competition.CompetitionRepository,
	service *compsrv.CompetitionService,
	cache *cachex.Cache,
	interval time.Duration,
	snapshotSpec string,
) *CompetitionScheduler {
	return &CompetitionScheduler{
		competitionRepo: competitionRepo,
		service:         service,
		cache:           cache,
		cronParser:      cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow),
		interval:        interval,
		snapshotSpec:    snapshotSpec,
		stopChan:        make(chan struct{}),
	}
}

// Start starts the scheduler
func (s *CompetitionScheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		log.Println("⚠️  Competition scheduler already running")
		return
	}
	s.running = true
	s.mu.Unlock()

	log.Println("⏰ Starting competition scheduler...")

	if schedule, err := s.cronParser.Parse(s.snapshotSpec); err != nil {
		log.Printf("⚠️  Invalid snapshot schedule %q, leaderboard refresh disabled: %v", s.snapshotSpec, err)
	} else {
		s.nextRefresh = schedule.Next(time.Now())
	}

	// Run immediately on start
	s.tick(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("⏹️  Competition scheduler stopped (context done)")
			return
		case <-s.stopChan:
			log.Println("⏹️  Competition scheduler stopped")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// Stop stops the scheduler
func (s *CompetitionScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	close(s.stopChan)
	s.running = false
}

func (s *CompetitionScheduler) tick(ctx context.Context) {
	now := time.Now()
	s.startDue(ctx, now)
	s.endDue(ctx, now)
	s.refreshLeaderboards(ctx, now)
}

// startDue activa las competencias PENDING cuya fecha de inicio ya pasó
func (s *CompetitionScheduler) startDue(ctx context.Context, now time.Time) {
	due, err := s.competitionRepo.FindDueToStart(ctx, now)
	if err != nil {
		log.Printf("❌ Failed to fetch competitions due to start: %v", err)
		return
	}

	for _, c := range due {
		if _, err := s.service.StartCompetition(ctx, c.ID); err != nil {
			log.Printf("❌ Failed to auto-start competition %s: %v", c.ID, err)
			continue
		}
		log.Printf("▶️  Competition auto-started: %s", c.Name)
	}
}

// endDue finaliza las competencias ACTIVE cuya fecha de fin ya pasó
func (s *CompetitionScheduler) endDue(ctx context.Context, now time.Time) {
	due, err := s.competitionRepo.FindDueToEnd(ctx, now)
	if err != nil {
		log.Printf("❌ Failed to fetch competitions due to end: %v", err)
		return
	}

	for _, c := range due {
		if _, err := s.service.EndCompetition(ctx, c.ID); err != nil {
			log.Printf("❌ Failed to auto-end competition %s: %v", c.ID, err)
			continue
		}
		log.Printf("🏁 Competition auto-ended: %s", c.Name)
	}
}

// refreshLeaderboards invalida los leaderboards de las competencias activas
// cuando vence el cron de snapshots, forzando un ranking fresco
func (s *CompetitionScheduler) refreshLeaderboards(ctx context.Context, now time.Time) {
	if s.nextRefresh.IsZero() || now.Before(s.nextRefresh) {
		return
	}

	active, err := s.competitionRepo.FindActive(ctx)
	if err != nil {
		log.Printf("❌ Failed to fetch active competitions: %v", err)
		return
	}

	for _, c := range active {
		if err := s.cache.Invalidate(ctx, competition.LeaderboardTag(c.ID)); err != nil {
			log.Printf("⚠️  Failed to refresh leaderboard for %s: %v", c.ID, err)
		}
	}

	if schedule, err := s.cronParser.Parse(s.snapshotSpec); err == nil {
		s.nextRefresh = schedule.Next(now)
	}

	if len(active) > 0 {
		log.Printf("✅ Refreshed %d leaderboard(s)", len(active))
	}
}
