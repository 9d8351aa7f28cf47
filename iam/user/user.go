package user

import (
	"net/http"
	"time"

	"github.com/Abraxas-365/craftable/errx"
	"github.com/Abraxas-365/craftable/ptrx"
	"github.com/Abraxas-365/craftable/storex"
	"github.com/arenalabs/tradearena/pkg/kernel"
)

// ============================================================================
// User Entity
// ============================================================================

// UserStatus define los posibles estados de un usuario
type UserStatus string

const (
	UserStatusActive    UserStatus = "ACTIVE"
	UserStatusSuspended UserStatus = "SUSPENDED"
	UserStatusDeleted   UserStatus = "DELETED"
)

// User es la entidad que representa a un usuario final identificado por su wallet
type User struct {
	ID              kernel.UserID        `db:"id" json:"id"`
	Wallet          kernel.WalletAddress `db:"wallet" json:"wallet"`
	ProviderSubject *string              `db:"provider_subject" json:"provider_subject,omitempty"`
	Name            string               `db:"name" json:"name"`
	Email           *string              `db:"email" json:"email,omitempty"`
	ImageURL        *string              `db:"image_url" json:"image_url,omitempty"`
	Status          UserStatus           `db:"status" json:"status"`
	LastLoginAt     *time.Time           `db:"last_login_at" json:"last_login_at,omitempty"`
	CreatedAt       time.Time            `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time            `db:"updated_at" json:"updated_at"`
}

// ============================================================================
// Domain Methods
// ============================================================================

// IsActive verifica si el usuario está activo
func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}

// UpdateLastLogin actualiza la fecha del último login
func (u *User) UpdateLastLogin() {
	now := time.Now()
	u.LastLoginAt = &now
	u.UpdatedAt = now
}

// UpdateProfile actualiza la información del perfil
func (u *User) UpdateProfile(name, email, imageURL string) {
	if name != "" {
		u.Name = name
	}
	if email != "" {
		u.Email = ptrx.String(email)
	}
	if imageURL != "" {
		u.ImageURL = ptrx.String(imageURL)
	}
	u.UpdatedAt = time.Now()
}

// Suspend suspende un usuario activo
func (u *User) Suspend() error {
	if !u.IsActive() {
		return ErrInvalidStatus().WithDetail("current_status", u.Status)
	}
	u.Status = UserStatusSuspended
	u.UpdatedAt = time.Now()
	return nil
}

// ============================================================================
// DTOs
// ============================================================================

// PublicProfile es la vista pública de un usuario, apta para cachear
type PublicProfile struct {
	UserID     kernel.UserID `json:"user_id"`
	Name       string        `json:"name"`
	ImageURL   *string       `json:"image_url,omitempty"`
	AgentCount int           `json:"agent_count"`
	MemberFrom time.Time     `json:"member_from"`
}

// UpdateProfileRequest request para actualizar el perfil propio
type UpdateProfileRequest struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty" validate:"omitempty,email"`
	ImageURL string `json:"image_url,omitempty" validate:"omitempty,url"`
}

// ListUsersRequest request para listar usuarios (solo admin)
type ListUsersRequest struct {
	storex.PaginationOptions

	Status *UserStatus `json:"status,omitempty"`
	Search string      `json:"search,omitempty"`
}

func (r ListUsersRequest) GetOffset() int {
	return (r.Page - 1) * r.PageSize
}

// UserListResponse lista paginada de usuarios
type UserListResponse = storex.Paginated[User]

// ============================================================================
// Error Registry - Errores específicos de User
// ============================================================================

var ErrRegistry = errx.NewRegistry("USER")

var (
	CodeUserNotFound      = ErrRegistry.Register("USER_NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Usuario no encontrado")
	CodeUserAlreadyExists = ErrRegistry.Register("USER_ALREADY_EXISTS", errx.TypeConflict, http.StatusConflict, "El usuario ya existe")
	CodeUserSuspended     = ErrRegistry.Register("USER_SUSPENDED", errx.TypeBusiness, http.StatusForbidden, "Usuario suspendido")
	CodeInvalidStatus     = ErrRegistry.Register("INVALID_STATUS", errx.TypeValidation, http.StatusBadRequest, "Estado de usuario inválido")
	CodeInvalidSignature  = ErrRegistry.Register("INVALID_SIGNATURE", errx.TypeAuthorization, http.StatusUnauthorized, "Firma de wallet inválida")
)

func ErrUserNotFound() *errx.Error {
	return ErrRegistry.New(CodeUserNotFound)
}

func ErrUserAlreadyExists() *errx.Error {
	return ErrRegistry.New(CodeUserAlreadyExists)
}

func ErrUserSuspended() *errx.Error {
	return ErrRegistry.New(CodeUserSuspended)
}

func ErrInvalidStatus() *errx.Error {
	return ErrRegistry.New(CodeInvalidStatus)
}

func ErrInvalidSignature() *errx.Error {
	return ErrRegistry.New(CodeInvalidSignature)
}
