package admininfra

import (
	"context"
	"database/sql"

	"github.com/Abraxas-365/craftable/errx"
	"github.com/arenalabs/tradearena/iam/admin"
	"github.com/arenalabs/tradearena/pkg/kernel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// PostgresAdminRepository implementación de PostgreSQL para AdminRepository
type PostgresAdminRepository struct {
	db *sqlx.DB
}

var _ admin.AdminRepository = (*PostgresAdminRepository)(nil)

// NewPostgresAdminRepository crea una nueva instancia del repositorio
func NewPostgresAdminRepository(db *sqlx.DB) *PostgresAdminRepository {
	return &PostgresAdminRepository{db: db}
}

// Save inserta o actualiza un administrador
func (r *PostgresAdminRepository) Save(ctx context.Context, a admin.Admin) error {
	query := `
		INSERT INTO admins (
			id, username, password_hash, status, last_login_at, created_at, updated_at
		) VALUES (
			:id, :username, :password_hash, :status, :last_login_at, :created_at, :updated_at
		)
		ON CONFLICT (id) DO UPDATE SET
			password_hash = EXCLUDED.password_hash,
			status = EXCLUDED.status,
			last_login_at = EXCLUDED.last_login_at,
			updated_at = EXCLUDED.updated_at`

	_, err := r.db.NamedExecContext(ctx, query, a)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return admin.ErrAdminAlreadyExists().WithDetail("username", a.Username)
		}
		return errx.Wrap(err, "failed to save admin", errx.TypeInternal).
			WithDetail("admin_id", a.ID.String())
	}

	return nil
}

// FindByID busca un administrador por ID
func (r *PostgresAdminRepository) FindByID(ctx context.Context, id kernel.AdminID) (*admin.Admin, error) {
	query := `
		SELECT id, username, password_hash, status, last_login_at, created_at, updated_at
		FROM admins
		WHERE id = $1`

	var a admin.Admin
	err := r.db.GetContext(ctx, &a, query, id.String())
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, admin.ErrAdminNotFound().WithDetail("admin_id", id.String())
		}
		return nil, errx.Wrap(err, "failed to find admin by id", errx.TypeInternal).
			WithDetail("admin_id", id.String())
	}

	return &a, nil
}

// FindByUsername busca un administrador por username
func (r *PostgresAdminRepository) FindByUsername(ctx context.Context, username string) (*admin.Admin, error) {
	query := `
		SELECT id, username, password_hash, status, last_login_at, created_at, updated_at
		FROM admins
		WHERE username = $1`

	var a admin.Admin
	err := r.db.GetContext(ctx, &a, query, username)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, admin.ErrAdminNotFound().WithDetail("username", username)
		}
		return nil, errx.Wrap(err, "failed to find admin by username", errx.TypeInternal)
	}

	return &a, nil
}

// List lista todos los administradores
func (r *PostgresAdminRepository) List(ctx context.Context) ([]*admin.Admin, error) {
	query := `
		SELECT id, username, password_hash, status, last_login_at, created_at, updated_at
		FROM admins
		ORDER BY username ASC`

	var admins []*admin.Admin
	if err := r.db.SelectContext(ctx, &admins, query); err != nil {
		return nil, errx.Wrap(err, "failed to list admins", errx.TypeInternal)
	}

	return admins, nil
}
