package user

import (
	"context"

	"github.com/arenalabs/tradearena/pkg/kernel"
)

// UserRepository define el contrato para la persistencia de usuarios
type UserRepository interface {
	Save(ctx context.Context, user User) error
	FindByID(ctx context.Context, id kernel.UserID) (*User, error)
	FindByWallet(ctx context.Context, wallet kernel.WalletAddress) (*User, error)
	FindByProviderSubject(ctx context.Context, subject string) (*User, error)
	List(ctx context.Context, req ListUsersRequest) (UserListResponse, error)
	CountAgents(ctx context.Context, id kernel.UserID) (int, error)
}

// SignatureVerifier define el contrato para verificar firmas de wallet.
// La implementación concreta depende de la cadena; el servicio solo necesita
// el veredicto.
type SignatureVerifier interface {
	Verify(wallet kernel.WalletAddress, message, signature string) bool
}
