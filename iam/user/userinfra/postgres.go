package userinfra

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/Abraxas-365/craftable/errx"
	"github.com/Abraxas-365/craftable/logx"
	"github.com/Abraxas-365/craftable/storex"
	"github.com/arenalabs/tradearena/iam/user"
	"github.com/arenalabs/tradearena/pkg/kernel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// PostgresUserRepository implementación de PostgreSQL para UserRepository
type PostgresUserRepository struct {
	db *sqlx.DB
}

var _ user.UserRepository = (*PostgresUserRepository)(nil)

// NewPostgresUserRepository crea una nueva instancia del repositorio de usuarios
func NewPostgresUserRepository(db *sqlx.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

// Save inserta o actualiza un usuario
func (r *PostgresUserRepository) Save(ctx context.Context, u user.User) error {
	query := `
		INSERT INTO users (
			id, wallet, provider_subject, name, email, image_url,
			status, last_login_at, created_at, updated_at
		) VALUES (
			:id, :wallet, :provider_subject, :name, :email, :image_url,
			:status, :last_login_at, :created_at, :updated_at
		)
		ON CONFLICT (id) DO UPDATE SET
			provider_subject = EXCLUDED.provider_subject,
			name = EXCLUDED.name,
			email = EXCLUDED.email,
			image_url = EXCLUDED.image_url,
			status = EXCLUDED.status,
			last_login_at = EXCLUDED.last_login_at,
			updated_at = EXCLUDED.updated_at`

	_, err := r.db.NamedExecContext(ctx, query, u)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return user.ErrUserAlreadyExists().WithDetail("wallet", u.Wallet.String())
		}
		return errx.Wrap(err, "failed to save user", errx.TypeInternal).
			WithDetail("user_id", u.ID.String())
	}

	return nil
}

// FindByID busca un usuario por ID
func (r *PostgresUserRepository) FindByID(ctx context.Context, id kernel.UserID) (*user.User, error) {
	query := `
		SELECT
			id, wallet, provider_subject, name, email, image_url,
			status, last_login_at, created_at, updated_at
		FROM users
		WHERE id = $1`

	var u user.User
	err := r.db.GetContext(ctx, &u, query, id.String())
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, user.ErrUserNotFound().WithDetail("user_id", id.String())
		}
		logx.Error("Error fetching user by ID: %v", err)
		return nil, errx.Wrap(err, "failed to find user by id", errx.TypeInternal).
			WithDetail("user_id", id.String())
	}

	return &u, nil
}

// FindByWallet busca un usuario por su wallet
func (r *PostgresUserRepository) FindByWallet(ctx context.Context, wallet kernel.WalletAddress) (*user.User, error) {
	query := `
		SELECT
			id, wallet, provider_subject, name, email, image_url,
			status, last_login_at, created_at, updated_at
		FROM users
		WHERE wallet = $1`

	var u user.User
	err := r.db.GetContext(ctx, &u, query, wallet.String())
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, user.ErrUserNotFound().WithDetail("wallet", wallet.String())
		}
		return nil, errx.Wrap(err, "failed to find user by wallet", errx.TypeInternal).
			WithDetail("wallet", wallet.String())
	}

	return &u, nil
}

// FindByProviderSubject busca un usuario por el subject del proveedor externo
func (r *PostgresUserRepository) FindByProviderSubject(ctx context.Context, subject string) (*user.User, error) {
	query := `
		SELECT
			id, wallet, provider_subject, name, email, image_url,
			status, last_login_at, created_at, updated_at
		FROM users
		WHERE provider_subject = $1`

	var u user.User
	err := r.db.GetContext(ctx, &u, query, subject)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, user.ErrUserNotFound().WithDetail("provider_subject", subject)
		}
		return nil, errx.Wrap(err, "failed to find user by provider subject", errx.TypeInternal)
	}

	return &u, nil
}

// List lista usuarios con filtros y paginación
func (r *PostgresUserRepository) List(ctx context.Context, req user.ListUsersRequest) (user.UserListResponse, error) {
	conditions := []string{"status != 'DELETED'"}
	args := []any{}
	argPos := 1

	if req.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, string(*req.Status))
		argPos++
	}

	if req.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR wallet ILIKE $%d)", argPos, argPos+1))
		searchPattern := "%" + req.Search + "%"
		args = append(args, searchPattern, searchPattern)
		argPos += 2
	}

	whereClause := strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM users WHERE %s", whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return user.UserListResponse{}, errx.Wrap(err, "failed to count users", errx.TypeInternal)
	}

	dataQuery := fmt.Sprintf(`
		SELECT
			id, wallet, provider_subject, name, email, image_url,
			status, last_login_at, created_at, updated_at
		FROM users
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		whereClause, argPos, argPos+1)

	args = append(args, req.PageSize, req.GetOffset())

	var users []user.User
	if err := r.db.SelectContext(ctx, &users, dataQuery, args...); err != nil {
		return user.UserListResponse{}, errx.Wrap(err, "failed to list users", errx.TypeInternal)
	}

	return storex.NewPaginated(users, req.Page, req.PageSize, total), nil
}

// CountAgents cuenta los agentes activos de un usuario
func (r *PostgresUserRepository) CountAgents(ctx context.Context, id kernel.UserID) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM agents WHERE owner_id = $1 AND status != 'DELETED'`,
		id.String())
	if err != nil {
		return 0, errx.Wrap(err, "failed to count agents", errx.TypeInternal).
			WithDetail("user_id", id.String())
	}
	return count, nil
}
