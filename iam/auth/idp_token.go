package auth

import (
	"time"

	"github.com/arenalabs/tradearena/pkg/kernel"
	"github.com/golang-jwt/jwt/v5"
)

// IdentityClaims son los claims verificados de un token del proveedor externo
type IdentityClaims struct {
	Subject   string               `json:"sub"`
	Wallet    kernel.WalletAddress `json:"wallet"`
	IssuedAt  time.Time            `json:"iat"`
	ExpiresAt time.Time            `json:"exp"`
}

// JWTVerifier implementación de IdentityTokenVerifier usando JWT HS256
type JWTVerifier struct {
	secret []byte
	issuer string
}

var _ IdentityTokenVerifier = (*JWTVerifier)(nil)

// NewJWTVerifier crea un nuevo verificador de tokens del proveedor de identidad
func NewJWTVerifier(secret, issuer string) *JWTVerifier {
	return &JWTVerifier{
		secret: []byte(secret),
		issuer: issuer,
	}
}

type identityJWTClaims struct {
	Wallet string `json:"wallet,omitempty"`
	jwt.RegisteredClaims
}

// Verify valida firma, emisor y expiración del token
func (v *JWTVerifier) Verify(tokenString string) (*IdentityClaims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&identityJWTClaims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, ErrInvalidIdentityToken().WithDetail("alg", token.Method.Alg())
			}
			return v.secret, nil
		},
		jwt.WithIssuer(v.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, ErrInvalidIdentityToken().WithDetail("cause", err.Error())
	}

	claims, ok := token.Claims.(*identityJWTClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidIdentityToken()
	}

	out := &IdentityClaims{
		Subject: claims.Subject,
		Wallet:  kernel.NewWalletAddress(claims.Wallet),
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}

	return out, nil
}
