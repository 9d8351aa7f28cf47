package competitioninfra

import (
	"context"
	"database/sql"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/Abraxas-365/craftable/errx"
	"github.com/Abraxas-365/craftable/storex"
	"github.com/arenalabs/tradearena/competition"
	"github.com/arenalabs/tradearena/pkg/kernel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// competitionRow es la proyección de tabla; los montos NUMERIC viajan como texto
type competitionRow struct {
	ID              string     `db:"id"`
	Name            string     `db:"name"`
	Description     string     `db:"description"`
	Status          string     `db:"status"`
	External        bool       `db:"external"`
	StartDate       time.Time  `db:"start_date"`
	EndDate         time.Time  `db:"end_date"`
	JoinDeadline    *time.Time `db:"join_deadline"`
	MaxParticipants *int       `db:"max_participants"`
	RewardPool      string     `db:"reward_pool"`
	CreatedAt       time.Time  `db:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at"`
}

func (r competitionRow) toDomain() (competition.Competition, error) {
	pool, ok := new(big.Int).SetString(r.RewardPool, 10)
	if !ok {
		return competition.Competition{}, errx.New("invalid reward pool value in storage", errx.TypeInternal).
			WithDetail("competition_id", r.ID)
	}

	return competition.Competition{
		ID:              kernel.NewCompetitionID(r.ID),
		Name:            r.Name,
		Description:     r.Description,
		Status:          competition.CompetitionStatus(r.Status),
		External:        r.External,
		StartDate:       r.StartDate,
		EndDate:         r.EndDate,
		JoinDeadline:    r.JoinDeadline,
		MaxParticipants: r.MaxParticipants,
		RewardPool:      pool,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}, nil
}

func fromDomain(c competition.Competition) competitionRow {
	pool := "0"
	if c.RewardPool != nil {
		pool = c.RewardPool.String()
	}

	return competitionRow{
		ID:              c.ID.String(),
		Name:            c.Name,
		Description:     c.Description,
		Status:          string(c.Status),
		External:        c.External,
		StartDate:       c.StartDate,
		EndDate:         c.EndDate,
		JoinDeadline:    c.JoinDeadline,
		MaxParticipants: c.MaxParticipants,
		RewardPool:      pool,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}

const competitionColumns = `id, name, description, status, external, start_date,
	end_date, join_deadline, max_participants, reward_pool::text AS reward_pool,
	created_at, updated_at`

// PostgresCompetitionRepository implementación de PostgreSQL para CompetitionRepository
type PostgresCompetitionRepository struct {
	db *sqlx.DB
}

var _ competition.CompetitionRepository = (*PostgresCompetitionRepository)(nil)

// NewPostgresCompetitionRepository crea una nueva instancia del repositorio
func NewPostgresCompetitionRepository(db *sqlx.DB) *PostgresCompetitionRepository {
	return &PostgresCompetitionRepository{db: db}
}

// Save inserta o actualiza una competencia
func (r *PostgresCompetitionRepository) Save(ctx context.Context, c competition.Competition) error {
	query := `
		INSERT INTO competitions (
			id, name, description, status, external, start_date, end_date,
			join_deadline, max_participants, reward_pool, created_at, updated_at
		) VALUES (
			:id, :name, :description, :status, :external, :start_date, :end_date,
			:join_deadline, :max_participants, :reward_pool::numeric, :created_at, :updated_at
		)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			status = EXCLUDED.status,
			start_date = EXCLUDED.start_date,
			end_date = EXCLUDED.end_date,
			join_deadline = EXCLUDED.join_deadline,
			max_participants = EXCLUDED.max_participants,
			reward_pool = EXCLUDED.reward_pool,
			updated_at = EXCLUDED.updated_at`

	_, err := r.db.NamedExecContext(ctx, query, fromDomain(c))
	if err != nil {
		return errx.Wrap(err, "failed to save competition", errx.TypeInternal).
			WithDetail("competition_id", c.ID.String())
	}

	return nil
}

// FindByID busca una competencia por ID
func (r *PostgresCompetitionRepository) FindByID(ctx context.Context, id kernel.CompetitionID) (*competition.Competition, error) {
	query := fmt.Sprintf(`SELECT %s FROM competitions WHERE id = $1`, competitionColumns)

	var row competitionRow
	err := r.db.GetContext(ctx, &row, query, id.String())
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, competition.ErrCompetitionNotFound().WithDetail("competition_id", id.String())
		}
		return nil, errx.Wrap(err, "failed to find competition by id", errx.TypeInternal).
			WithDetail("competition_id", id.String())
	}

	c, err := row.toDomain()
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// List lista competencias con filtros y paginación
func (r *PostgresCompetitionRepository) List(ctx context.Context, req competition.ListCompetitionsRequest) (storex.Paginated[competition.Competition], error) {
	conditions := []string{"1=1"}
	args := []any{}
	argPos := 1

	if req.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, string(*req.Status))
		argPos++
	}

	whereClause := strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM competitions WHERE %s", whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return storex.Paginated[competition.Competition]{}, errx.Wrap(err, "failed to count competitions", errx.TypeInternal)
	}

	dataQuery := fmt.Sprintf(`
		SELECT %s
		FROM competitions
		WHERE %s
		ORDER BY start_date DESC
		LIMIT $%d OFFSET $%d`,
		competitionColumns, whereClause, argPos, argPos+1)

	args = append(args, req.PageSize, req.GetOffset())

	var rows []competitionRow
	if err := r.db.SelectContext(ctx, &rows, dataQuery, args...); err != nil {
		return storex.Paginated[competition.Competition]{}, errx.Wrap(err, "failed to list competitions", errx.TypeInternal)
	}

	competitions := make([]competition.Competition, 0, len(rows))
	for _, row := range rows {
		c, err := row.toDomain()
		if err != nil {
			return storex.Paginated[competition.Competition]{}, err
		}
		competitions = append(competitions, c)
	}

	return storex.NewPaginated(competitions, req.Page, req.PageSize, total), nil
}

// FindDueToStart retorna competencias PENDING cuya fecha de inicio ya pasó
func (r *PostgresCompetitionRepository) FindDueToStart(ctx context.Context, now time.Time) ([]*competition.Competition, error) {
	return r.findDue(ctx, `status = 'PENDING' AND start_date <= $1`, now)
}

// FindDueToEnd retorna competencias ACTIVE cuya fecha de fin ya pasó
func (r *PostgresCompetitionRepository) FindDueToEnd(ctx context.Context, now time.Time) ([]*competition.Competition, error) {
	return r.findDue(ctx, `status = 'ACTIVE' AND end_date <= $1`, now)
}

// FindActive retorna las competencias en curso
func (r *PostgresCompetitionRepository) FindActive(ctx context.Context) ([]*competition.Competition, error) {
	query := fmt.Sprintf(`SELECT %s FROM competitions WHERE status = 'ACTIVE'`, competitionColumns)

	var rows []competitionRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, errx.Wrap(err, "failed to find active competitions", errx.TypeInternal)
	}

	competitions := make([]*competition.Competition, 0, len(rows))
	for _, row := range rows {
		c, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		competitions = append(competitions, &c)
	}

	return competitions, nil
}

func (r *PostgresCompetitionRepository) findDue(ctx context.Context, condition string, now time.Time) ([]*competition.Competition, error) {
	query := fmt.Sprintf(`SELECT %s FROM competitions WHERE %s AND external = false`, competitionColumns, condition)

	var rows []competitionRow
	if err := r.db.SelectContext(ctx, &rows, query, now); err != nil {
		return nil, errx.Wrap(err, "failed to find due competitions", errx.TypeInternal)
	}

	competitions := make([]*competition.Competition, 0, len(rows))
	for _, row := range rows {
		c, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		competitions = append(competitions, &c)
	}

	return competitions, nil
}

// ============================================================================
// PARTICIPANTES
// ============================================================================

// PostgresParticipantRepository implementación de PostgreSQL para ParticipantRepository
type PostgresParticipantRepository struct {
	db *sqlx.DB
}

var _ competition.ParticipantRepository = (*PostgresParticipantRepository)(nil)

// NewPostgresParticipantRepository crea una nueva instancia del repositorio
func NewPostgresParticipantRepository(db *sqlx.DB) *PostgresParticipantRepository {
	return &PostgresParticipantRepository{db: db}
}

// Save inserta o actualiza una inscripción
func (r *PostgresParticipantRepository) Save(ctx context.Context, p competition.Participant) error {
	query := `
		INSERT INTO competition_participants (
			competition_id, agent_id, status, joined_at, left_at
		) VALUES (
			:competition_id, :agent_id, :status, :joined_at, :left_at
		)
		ON CONFLICT (competition_id, agent_id) DO UPDATE SET
			status = EXCLUDED.status,
			joined_at = EXCLUDED.joined_at,
			left_at = EXCLUDED.left_at`

	_, err := r.db.NamedExecContext(ctx, query, p)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return competition.ErrAlreadyJoined().WithDetail("agent_id", p.AgentID.String())
		}
		return errx.Wrap(err, "failed to save participant", errx.TypeInternal).
			WithDetail("agent_id", p.AgentID.String())
	}

	return nil
}

// Find busca la inscripción de un agente en una competencia
func (r *PostgresParticipantRepository) Find(ctx context.Context, competitionID kernel.CompetitionID, agentID kernel.AgentID) (*competition.Participant, error) {
	query := `
		SELECT competition_id, agent_id, status, joined_at, left_at
		FROM competition_participants
		WHERE competition_id = $1 AND agent_id = $2`

	var p competition.Participant
	err := r.db.GetContext(ctx, &p, query, competitionID.String(), agentID.String())
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, competition.ErrNotParticipant().
				WithDetail("competition_id", competitionID.String()).
				WithDetail("agent_id", agentID.String())
		}
		return nil, errx.Wrap(err, "failed to find participant", errx.TypeInternal)
	}

	return &p, nil
}

// ListByCompetition lista las inscripciones de una competencia
func (r *PostgresParticipantRepository) ListByCompetition(ctx context.Context, competitionID kernel.CompetitionID) ([]*competition.Participant, error) {
	query := `
		SELECT competition_id, agent_id, status, joined_at, left_at
		FROM competition_participants
		WHERE competition_id = $1
		ORDER BY joined_at ASC`

	var participants []*competition.Participant
	if err := r.db.SelectContext(ctx, &participants, query, competitionID.String()); err != nil {
		return nil, errx.Wrap(err, "failed to list participants", errx.TypeInternal)
	}

	return participants, nil
}

// CountJoined cuenta los agentes actualmente inscritos
func (r *PostgresParticipantRepository) CountJoined(ctx context.Context, competitionID kernel.CompetitionID) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM competition_participants WHERE competition_id = $1 AND status = 'JOINED'`,
		competitionID.String())
	if err != nil {
		return 0, errx.Wrap(err, "failed to count participants", errx.TypeInternal)
	}
	return count, nil
}

// ============================================================================
// SNAPSHOTS
// ============================================================================

type snapshotRow struct {
	ID             string    `db:"id"`
	CompetitionID  string    `db:"competition_id"`
	AgentID        string    `db:"agent_id"`
	PortfolioValue string    `db:"portfolio_value"`
	PnL            string    `db:"pnl"`
	TakenAt        time.Time `db:"taken_at"`
}

func (r snapshotRow) toDomain() (competition.Snapshot, error) {
	value, ok := new(big.Int).SetString(r.PortfolioValue, 10)
	if !ok {
		return competition.Snapshot{}, errx.New("invalid portfolio value in storage", errx.TypeInternal).
			WithDetail("snapshot_id", r.ID)
	}
	pnl, ok := new(big.Int).SetString(r.PnL, 10)
	if !ok {
		return competition.Snapshot{}, errx.New("invalid pnl value in storage", errx.TypeInternal).
			WithDetail("snapshot_id", r.ID)
	}

	return competition.Snapshot{
		ID:             r.ID,
		CompetitionID:  kernel.NewCompetitionID(r.CompetitionID),
		AgentID:        kernel.NewAgentID(r.AgentID),
		PortfolioValue: value,
		PnL:            pnl,
		TakenAt:        r.TakenAt,
	}, nil
}

// PostgresSnapshotRepository implementación de PostgreSQL para SnapshotRepository
type PostgresSnapshotRepository struct {
	db *sqlx.DB
}

var _ competition.SnapshotRepository = (*PostgresSnapshotRepository)(nil)

// NewPostgresSnapshotRepository crea una nueva instancia del repositorio
func NewPostgresSnapshotRepository(db *sqlx.DB) *PostgresSnapshotRepository {
	return &PostgresSnapshotRepository{db: db}
}

// Save inserta una foto de portafolio
func (r *PostgresSnapshotRepository) Save(ctx context.Context, s competition.Snapshot) error {
	query := `
		INSERT INTO portfolio_snapshots (
			id, competition_id, agent_id, portfolio_value, pnl, taken_at
		) VALUES (
			:id, :competition_id, :agent_id, :portfolio_value::numeric, :pnl::numeric, :taken_at
		)`

	row := snapshotRow{
		ID:             s.ID,
		CompetitionID:  s.CompetitionID.String(),
		AgentID:        s.AgentID.String(),
		PortfolioValue: s.PortfolioValue.String(),
		PnL:            s.PnL.String(),
		TakenAt:        s.TakenAt,
	}

	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return errx.Wrap(err, "failed to save snapshot", errx.TypeInternal).
			WithDetail("snapshot_id", s.ID)
	}

	return nil
}

// LatestPerAgent retorna la foto más reciente de cada agente inscrito
func (r *PostgresSnapshotRepository) LatestPerAgent(ctx context.Context, competitionID kernel.CompetitionID) ([]*competition.Snapshot, error) {
	query := `
		SELECT DISTINCT ON (s.agent_id)
			s.id, s.competition_id, s.agent_id,
			s.portfolio_value::text AS portfolio_value, s.pnl::text AS pnl, s.taken_at
		FROM portfolio_snapshots s
		JOIN competition_participants p
			ON p.competition_id = s.competition_id AND p.agent_id = s.agent_id
		WHERE s.competition_id = $1 AND p.status = 'JOINED'
		ORDER BY s.agent_id, s.taken_at DESC`

	var rows []snapshotRow
	if err := r.db.SelectContext(ctx, &rows, query, competitionID.String()); err != nil {
		return nil, errx.Wrap(err, "failed to list latest snapshots", errx.TypeInternal)
	}

	snapshots := make([]*competition.Snapshot, 0, len(rows))
	for _, row := range rows {
		snap, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, &snap)
	}

	return snapshots, nil
}
