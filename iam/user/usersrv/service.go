package usersrv

import (
	"context"
	"time"

	"github.com/Abraxas-365/craftable/errx"
	"github.com/arenalabs/tradearena/iam/user"
	"github.com/arenalabs/tradearena/pkg/cachex"
	"github.com/arenalabs/tradearena/pkg/kernel"
	"github.com/google/uuid"
)

// UserService proporciona operaciones de negocio para usuarios
type UserService struct {
	userRepo  user.UserRepository
	signature user.SignatureVerifier
	cache     *cachex.Cache
}

// NewUserService crea una nueva instancia del servicio de usuarios
func NewUserService(
	userRepo user.UserRepository,
	signature user.SignatureVerifier,
	cache *cachex.Cache,
) *UserService {
	return &UserService{
		userRepo:  userRepo,
		signature: signature,
		cache:     cache,
	}
}

// AuthenticateWallet verifica la firma del challenge y resuelve al usuario,
// registrándolo si es su primer login
func (s *UserService) AuthenticateWallet(
	ctx context.Context,
	wallet kernel.WalletAddress,
	challenge, signature string,
) (kernel.UserID, error) {
	if !s.signature.Verify(wallet, challenge, signature) {
		return "", user.ErrInvalidSignature().WithDetail("wallet", wallet.String())
	}

	existing, err := s.userRepo.FindByWallet(ctx, wallet)
	if err != nil {
		if errx.IsType(err, errx.TypeNotFound) {
			return s.register(ctx, wallet)
		}
		return "", err
	}

	if existing.Status == user.UserStatusSuspended {
		return "", user.ErrUserSuspended().WithDetail("user_id", existing.ID.String())
	}

	existing.UpdateLastLogin()
	if err := s.userRepo.Save(ctx, *existing); err != nil {
		return "", errx.Wrap(err, "failed to update last login", errx.TypeInternal)
	}

	return existing.ID, nil
}

func (s *UserService) register(ctx context.Context, wallet kernel.WalletAddress) (kernel.UserID, error) {
	now := time.Now()
	newUser := user.User{
		ID:        kernel.NewUserID(uuid.NewString()),
		Wallet:    wallet,
		Name:      shortWallet(wallet),
		Status:    user.UserStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	newUser.UpdateLastLogin()

	if err := s.userRepo.Save(ctx, newUser); err != nil {
		return "", errx.Wrap(err, "failed to register user", errx.TypeInternal).
			WithDetail("wallet", wallet.String())
	}

	return newUser.ID, nil
}

// ResolveProviderSubject resuelve un usuario por el subject del proveedor
// externo de identidad
func (s *UserService) ResolveProviderSubject(ctx context.Context, subject string) (kernel.UserID, kernel.WalletAddress, error) {
	u, err := s.userRepo.FindByProviderSubject(ctx, subject)
	if err != nil {
		return "", "", err
	}
	if !u.IsActive() {
		return "", "", user.ErrUserSuspended().WithDetail("user_id", u.ID.String())
	}
	return u.ID, u.Wallet, nil
}

// GetProfile retorna el perfil propio del usuario
func (s *UserService) GetProfile(ctx context.Context, id kernel.UserID) (*user.User, error) {
	return s.userRepo.FindByID(ctx, id)
}

// UpdateProfile actualiza el perfil propio e invalida su vista pública cacheada
func (s *UserService) UpdateProfile(ctx context.Context, id kernel.UserID, req user.UpdateProfileRequest) (*user.User, error) {
	u, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	u.UpdateProfile(req.Name, req.Email, req.ImageURL)
	if err := s.userRepo.Save(ctx, *u); err != nil {
		return nil, errx.Wrap(err, "failed to update profile", errx.TypeInternal)
	}

	if err := s.cache.Invalidate(ctx, user.PublicProfileTag(id)); err != nil {
		return nil, err
	}

	return u, nil
}

// GetPublicProfile retorna la vista pública de un usuario, cacheada por 60s
// bajo el tag public-user:<id>
func (s *UserService) GetPublicProfile(ctx context.Context, id kernel.UserID) (user.PublicProfile, error) {
	spec := cachex.Spec{
		Path:  user.ProcGetPublicProfile,
		Input: map[string]string{"userId": id.String()},
		TTL:   user.PublicProfileTTL * time.Second,
		Tags:  []string{user.PublicProfileTag(id)},
	}

	return cachex.Through(ctx, s.cache, spec, func(ctx context.Context) (user.PublicProfile, error) {
		u, err := s.userRepo.FindByID(ctx, id)
		if err != nil {
			return user.PublicProfile{}, err
		}

		agents, err := s.userRepo.CountAgents(ctx, id)
		if err != nil {
			return user.PublicProfile{}, err
		}

		return user.PublicProfile{
			UserID:     u.ID,
			Name:       u.Name,
			ImageURL:   u.ImageURL,
			AgentCount: agents,
			MemberFrom: u.CreatedAt,
		}, nil
	})
}

// ListUsers lista usuarios paginados (solo admin)
func (s *UserService) ListUsers(ctx context.Context, req user.ListUsersRequest) (user.UserListResponse, error) {
	return s.userRepo.List(ctx, req)
}

// shortWallet genera un nombre por defecto a partir del wallet
func shortWallet(wallet kernel.WalletAddress) string {
	w := wallet.String()
	if len(w) <= 10 {
		return w
	}
	return w[:6] + "…" + w[len(w)-4:]
}
