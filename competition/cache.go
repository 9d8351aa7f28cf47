package competition

import (
	"time"

	"github.com/arenalabs/tradearena/pkg/kernel"
)

// Identificadores de las operaciones cacheadas del módulo
const (
	ProcGetCompetition   = "competition.get"
	ProcListCompetitions = "competition.list"
	ProcLeaderboard      = "competition.leaderboard"
)

const (
	CompetitionTTL = 30 * time.Second
	LeaderboardTTL = 60 * time.Second
)

// TagCompetitions tag de invalidación del catálogo de competencias
const TagCompetitions = "competitions"

// LeaderboardTag tag de invalidación del leaderboard de una competencia
func LeaderboardTag(id kernel.CompetitionID) string {
	return "leaderboard:" + id.String()
}
