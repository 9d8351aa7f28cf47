package admin

import (
	"context"

	"github.com/arenalabs/tradearena/pkg/kernel"
)

// AdminRepository define el contrato para la persistencia de administradores
type AdminRepository interface {
	Save(ctx context.Context, admin Admin) error
	FindByID(ctx context.Context, id kernel.AdminID) (*Admin, error)
	FindByUsername(ctx context.Context, username string) (*Admin, error)
	List(ctx context.Context) ([]*Admin, error)
}

// PasswordService define el contrato para el manejo de contraseñas
type PasswordService interface {
	HashPassword(password string) (string, error)
	VerifyPassword(hashedPassword, password string) bool
}
