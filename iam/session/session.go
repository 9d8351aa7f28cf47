package session

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"

	"github.com/Abraxas-365/craftable/errx"
	"github.com/arenalabs/tradearena/pkg/kernel"
)

// ============================================================================
// Session - Sesión transportada en la cookie cifrada
// ============================================================================

// Session es el registro de sesión. Vive exclusivamente en la cookie cifrada
// del cliente; el servidor nunca la persiste.
type Session struct {
	// Nonce pendiente del challenge de firma de wallet
	Nonce string `json:"nonce,omitempty"`

	// Challenge es el mensaje que el wallet debe firmar
	Challenge string `json:"challenge,omitempty"`

	// Identidad resuelta (a lo sumo una)
	UserID  kernel.UserID  `json:"user_id,omitempty"`
	AdminID kernel.AdminID `json:"admin_id,omitempty"`
	AgentID kernel.AgentID `json:"agent_id,omitempty"`

	// Wallet vinculado a la sesión
	Wallet kernel.WalletAddress `json:"wallet,omitempty"`

	// ExpirationTime marca el fin de la vida lógica de la sesión
	ExpirationTime time.Time `json:"expiration_time,omitempty"`
}

// IsEmpty verifica si la sesión no tiene ningún campo establecido
func (s *Session) IsEmpty() bool {
	return s.Nonce == "" &&
		s.Challenge == "" &&
		s.UserID.IsEmpty() &&
		s.AdminID.IsEmpty() &&
		s.AgentID.IsEmpty() &&
		s.Wallet.IsEmpty() &&
		s.ExpirationTime.IsZero()
}

// IsExpired verifica si la sesión pasó su tiempo de vida
func (s *Session) IsExpired(now time.Time) bool {
	return !s.ExpirationTime.IsZero() && s.ExpirationTime.Before(now)
}

// HasIdentity verifica si la sesión tiene una identidad resuelta
func (s *Session) HasIdentity() bool {
	return !s.UserID.IsEmpty() || !s.AdminID.IsEmpty() || !s.AgentID.IsEmpty()
}

// Clear borra TODOS los campos. Una sesión expirada nunca debe llegar a un
// handler con campos estructuralmente presentes.
func (s *Session) Clear() {
	*s = Session{}
}

// Touch extiende la vida de la sesión
func (s *Session) Touch(now time.Time, ttl time.Duration) {
	s.ExpirationTime = now.Add(ttl)
}

// ============================================================================
// Cookie Codec
// ============================================================================

// Encode serializa la sesión para la cookie (base64url sobre JSON; el cifrado
// lo aplica el middleware encryptcookie a nivel de aplicación)
func (s *Session) Encode() (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return "", ErrCodecFailure().WithDetail("cause", err.Error())
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

// Decode deserializa una sesión desde el valor de la cookie
func Decode(raw string) (*Session, error) {
	data, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return nil, ErrCodecFailure().WithDetail("cause", err.Error())
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, ErrCodecFailure().WithDetail("cause", err.Error())
	}

	return &s, nil
}

// ============================================================================
// Error Registry - Errores específicos de Session
// ============================================================================

var ErrRegistry = errx.NewRegistry("SESSION")

var (
	CodeCodecFailure = ErrRegistry.Register("CODEC_FAILURE", errx.TypeValidation, http.StatusBadRequest, "Sesión ilegible")
)

func ErrCodecFailure() *errx.Error {
	return ErrRegistry.New(CodeCodecFailure)
}
