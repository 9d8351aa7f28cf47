package userinfra

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"github.com/arenalabs/tradearena/iam/user"
	"github.com/arenalabs/tradearena/pkg/kernel"
)

// HMACSignatureVerifier implementación de SignatureVerifier para desarrollo y
// pruebas: la "firma" esperada es HMAC-SHA256(secret, wallet||message).
// En producción se inyecta un verificador específico de la cadena.
type HMACSignatureVerifier struct {
	secret []byte
}

var _ user.SignatureVerifier = (*HMACSignatureVerifier)(nil)

// NewHMACSignatureVerifier crea un nuevo verificador HMAC
func NewHMACSignatureVerifier(secret string) *HMACSignatureVerifier {
	return &HMACSignatureVerifier{secret: []byte(secret)}
}

// Verify verifica la firma contra el HMAC esperado
func (v *HMACSignatureVerifier) Verify(wallet kernel.WalletAddress, message, signature string) bool {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(wallet.String()))
	mac.Write([]byte(message))
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature))
}
