package auth

import (
	"net/http"

	"github.com/Abraxas-365/craftable/errx"
)

var ErrRegistry = errx.NewRegistry("AUTH")

var (
	CodeInvalidIdentityToken = ErrRegistry.Register("INVALID_IDENTITY_TOKEN", errx.TypeAuthorization, http.StatusUnauthorized, "Token de identidad inválido")
	CodeInvalidCredentials   = ErrRegistry.Register("INVALID_CREDENTIALS", errx.TypeAuthorization, http.StatusUnauthorized, "Credenciales inválidas")
	CodeChallengeMismatch    = ErrRegistry.Register("CHALLENGE_MISMATCH", errx.TypeAuthorization, http.StatusUnauthorized, "La firma no corresponde al challenge")
	CodeNoPendingChallenge   = ErrRegistry.Register("NO_PENDING_CHALLENGE", errx.TypeValidation, http.StatusBadRequest, "No hay challenge pendiente en la sesión")
)

func ErrInvalidIdentityToken() *errx.Error {
	return ErrRegistry.New(CodeInvalidIdentityToken)
}

func ErrInvalidCredentials() *errx.Error {
	return ErrRegistry.New(CodeInvalidCredentials)
}

func ErrChallengeMismatch() *errx.Error {
	return ErrRegistry.New(CodeChallengeMismatch)
}

func ErrNoPendingChallenge() *errx.Error {
	return ErrRegistry.New(CodeNoPendingChallenge)
}
