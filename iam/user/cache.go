package user

import "github.com/arenalabs/tradearena/pkg/kernel"

// Rutas de procedimiento y tags de cache del módulo, en un solo lugar para
// que no se dupliquen entre servicio y handlers.
const (
	ProcGetPublicProfile = "user.getPublicProfile"

	PublicProfileTTL = 60 // segundos
)

// PublicProfileTag es el tag de invalidación del perfil público de un usuario
func PublicProfileTag(id kernel.UserID) string {
	return "public-user:" + id.String()
}
