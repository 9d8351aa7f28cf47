package admin

import (
	"net/http"
	"time"

	"github.com/Abraxas-365/craftable/errx"
	"github.com/arenalabs/tradearena/pkg/kernel"
)

// ============================================================================
// Admin Entity
// ============================================================================

// AdminStatus define los posibles estados de un administrador
type AdminStatus string

const (
	AdminStatusActive   AdminStatus = "ACTIVE"
	AdminStatusDisabled AdminStatus = "DISABLED"
)

// Admin es la entidad que representa a un administrador de la plataforma
type Admin struct {
	ID           kernel.AdminID `db:"id" json:"id"`
	Username     string         `db:"username" json:"username"`
	PasswordHash string         `db:"password_hash" json:"-"`
	Status       AdminStatus    `db:"status" json:"status"`
	LastLoginAt  *time.Time     `db:"last_login_at" json:"last_login_at,omitempty"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
}

// IsActive verifica si el administrador está activo
func (a *Admin) IsActive() bool {
	return a.Status == AdminStatusActive
}

// UpdateLastLogin actualiza la fecha del último login
func (a *Admin) UpdateLastLogin() {
	now := time.Now()
	a.LastLoginAt = &now
	a.UpdatedAt = now
}

// ============================================================================
// DTOs
// ============================================================================

// CreateAdminRequest request para crear un administrador
type CreateAdminRequest struct {
	Username string `json:"username" validate:"required,min=3"`
	Password string `json:"password" validate:"required,min=12"`
}

// ============================================================================
// Error Registry - Errores específicos de Admin
// ============================================================================

var ErrRegistry = errx.NewRegistry("ADMIN")

var (
	CodeAdminNotFound      = ErrRegistry.Register("ADMIN_NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Administrador no encontrado")
	CodeAdminAlreadyExists = ErrRegistry.Register("ADMIN_ALREADY_EXISTS", errx.TypeConflict, http.StatusConflict, "El administrador ya existe")
	CodeAdminDisabled      = ErrRegistry.Register("ADMIN_DISABLED", errx.TypeBusiness, http.StatusForbidden, "Administrador deshabilitado")
)

func ErrAdminNotFound() *errx.Error {
	return ErrRegistry.New(CodeAdminNotFound)
}

func ErrAdminAlreadyExists() *errx.Error {
	return ErrRegistry.New(CodeAdminAlreadyExists)
}

func ErrAdminDisabled() *errx.Error {
	return ErrRegistry.New(CodeAdminDisabled)
}
