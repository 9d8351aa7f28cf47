package auth

import (
	"context"

	"github.com/arenalabs/tradearena/pkg/kernel"
)

// IdentityTokenVerifier define el contrato para verificar tokens del
// proveedor externo de identidad
type IdentityTokenVerifier interface {
	Verify(token string) (*IdentityClaims, error)
}

// AgentKeyResolver resuelve la identidad de un agente a partir de su API key
type AgentKeyResolver interface {
	ResolveAPIKey(ctx context.Context, apiKey string) (kernel.AgentID, error)
}

// ProviderUserResolver resuelve un usuario local a partir del subject del
// proveedor externo de identidad
type ProviderUserResolver interface {
	ResolveProviderSubject(ctx context.Context, subject string) (kernel.UserID, kernel.WalletAddress, error)
}
