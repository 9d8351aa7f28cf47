package adminsrv

import (
	"context"
	"time"

	"github.com/Abraxas-365/craftable/errx"
	"github.com/arenalabs/tradearena/iam/admin"
	"github.com/arenalabs/tradearena/iam/auth"
	"github.com/arenalabs/tradearena/pkg/kernel"
	"github.com/google/uuid"
)

// AdminService proporciona operaciones de negocio para administradores
type AdminService struct {
	adminRepo   admin.AdminRepository
	passwordSvc admin.PasswordService
}

// NewAdminService crea una nueva instancia del servicio de administradores
func NewAdminService(adminRepo admin.AdminRepository, passwordSvc admin.PasswordService) *AdminService {
	return &AdminService{
		adminRepo:   adminRepo,
		passwordSvc: passwordSvc,
	}
}

// CreateAdmin crea un nuevo administrador
func (s *AdminService) CreateAdmin(ctx context.Context, req admin.CreateAdminRequest) (*admin.Admin, error) {
	if _, err := s.adminRepo.FindByUsername(ctx, req.Username); err == nil {
		return nil, admin.ErrAdminAlreadyExists().WithDetail("username", req.Username)
	}

	hash, err := s.passwordSvc.HashPassword(req.Password)
	if err != nil {
		return nil, errx.Wrap(err, "failed to hash password", errx.TypeInternal)
	}

	now := time.Now()
	newAdmin := admin.Admin{
		ID:           kernel.NewAdminID(uuid.NewString()),
		Username:     req.Username,
		PasswordHash: hash,
		Status:       admin.AdminStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.adminRepo.Save(ctx, newAdmin); err != nil {
		return nil, errx.Wrap(err, "failed to save admin", errx.TypeInternal)
	}

	return &newAdmin, nil
}

// Authenticate verifica credenciales y retorna el ID del administrador.
// Las fallas se reportan de forma uniforme para no revelar si el usuario existe.
func (s *AdminService) Authenticate(ctx context.Context, username, password string) (kernel.AdminID, error) {
	found, err := s.adminRepo.FindByUsername(ctx, username)
	if err != nil {
		return "", auth.ErrInvalidCredentials()
	}

	if !found.IsActive() {
		return "", admin.ErrAdminDisabled().WithDetail("admin_id", found.ID.String())
	}

	if !s.passwordSvc.VerifyPassword(found.PasswordHash, password) {
		return "", auth.ErrInvalidCredentials()
	}

	found.UpdateLastLogin()
	if err := s.adminRepo.Save(ctx, *found); err != nil {
		return "", errx.Wrap(err, "failed to update admin last login", errx.TypeInternal)
	}

	return found.ID, nil
}

// ListAdmins lista todos los administradores
func (s *AdminService) ListAdmins(ctx context.Context) ([]*admin.Admin, error) {
	return s.adminRepo.List(ctx)
}
