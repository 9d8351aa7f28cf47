package competition

import (
	"context"
	"time"

	"github.com/Abraxas-365/craftable/storex"
	"github.com/arenalabs/tradearena/pkg/kernel"
)

// CompetitionRepository puerto de persistencia de competencias
type CompetitionRepository interface {
	Save(ctx context.Context, c Competition) error
	FindByID(ctx context.Context, id kernel.CompetitionID) (*Competition, error)
	List(ctx context.Context, req ListCompetitionsRequest) (storex.Paginated[Competition], error)
	// FindDueToStart retorna competencias PENDING cuya fecha de inicio ya pasó
	FindDueToStart(ctx context.Context, now time.Time) ([]*Competition, error)
	// FindDueToEnd retorna competencias ACTIVE cuya fecha de fin ya pasó
	FindDueToEnd(ctx context.Context, now time.Time) ([]*Competition, error)
	FindActive(ctx context.Context) ([]*Competition, error)
}

// ParticipantRepository puerto de persistencia de inscripciones
type ParticipantRepository interface {
	Save(ctx context.Context, p Participant) error
	Find(ctx context.Context, competitionID kernel.CompetitionID, agentID kernel.AgentID) (*Participant, error)
	ListByCompetition(ctx context.Context, competitionID kernel.CompetitionID) ([]*Participant, error)
	CountJoined(ctx context.Context, competitionID kernel.CompetitionID) (int, error)
}

// SnapshotRepository puerto de persistencia de fotos de portafolio
type SnapshotRepository interface {
	Save(ctx context.Context, s Snapshot) error
	// LatestPerAgent retorna la foto más reciente de cada agente inscrito
	LatestPerAgent(ctx context.Context, competitionID kernel.CompetitionID) ([]*Snapshot, error)
}
