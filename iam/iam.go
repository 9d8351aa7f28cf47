package iam

import (
	"net/http"

	"github.com/Abraxas-365/craftable/errx"
)

// ============================================================================
// Error Registry - Registro de errores del módulo IAM
// ============================================================================

var ErrRegistry = errx.NewRegistry("IAM")

// Códigos de error del módulo IAM
var (
	// Errores comunes
	CodeUnauthorized = ErrRegistry.Register("UNAUTHORIZED", errx.TypeAuthorization, http.StatusUnauthorized, "No autorizado")
	CodeInvalidToken = ErrRegistry.Register("INVALID_TOKEN", errx.TypeAuthorization, http.StatusUnauthorized, "Token inválido o expirado")
	CodeAccessDenied = ErrRegistry.Register("ACCESS_DENIED", errx.TypeBusiness, http.StatusForbidden, "Acceso denegado")
)

// Helper functions para crear errores comunes
func ErrUnauthorized() *errx.Error {
	return ErrRegistry.New(CodeUnauthorized)
}

func ErrInvalidToken() *errx.Error {
	return ErrRegistry.New(CodeInvalidToken)
}

func ErrAccessDenied() *errx.Error {
	return ErrRegistry.New(CodeAccessDenied)
}

// IdentityProvider representa los proveedores externos de identidad soportados
type IdentityProvider string

const (
	IdentityProviderPrivy  IdentityProvider = "PRIVY"
	IdentityProviderWallet IdentityProvider = "WALLET"
)

// GetProviderName retorna el nombre legible del proveedor
func (p IdentityProvider) GetProviderName() string {
	switch p {
	case IdentityProviderPrivy:
		return "Privy"
	case IdentityProviderWallet:
		return "Wallet"
	default:
		return "Unknown"
	}
}
