package session

import (
	"time"

	"github.com/arenalabs/tradearena/pkg/config"
	"github.com/arenalabs/tradearena/pkg/kernel"
	"github.com/gofiber/fiber/v2"
)

// Middleware carga la sesión desde la cookie en cada request
type Middleware struct {
	cfg config.SessionConfig
	now func() time.Time
}

// NewMiddleware crea un nuevo middleware de sesión
func NewMiddleware(cfg config.SessionConfig) *Middleware {
	return &Middleware{
		cfg: cfg,
		now: time.Now,
	}
}

// Load decodifica la cookie de sesión y la inyecta en el request.
// Cookie ausente o ilegible => sesión vacía, nunca un error.
// Sesión expirada => se borran TODOS los campos y se reescribe la cookie
// ANTES de continuar, para que ningún handler observe una sesión
// lógicamente expirada pero estructuralmente presente.
func (m *Middleware) Load() fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess := &Session{}

		if raw := c.Cookies(m.cfg.CookieName); raw != "" {
			if decoded, err := Decode(raw); err == nil {
				sess = decoded
			}
		}

		if sess.IsExpired(m.now()) {
			sess.Clear()
			if err := m.Write(c, sess); err != nil {
				return err
			}
		}

		c.Locals(string(kernel.SessionContextKey), sess)
		return c.Next()
	}
}

// Write persiste la sesión en la cookie de salida
func (m *Middleware) Write(c *fiber.Ctx, sess *Session) error {
	encoded, err := sess.Encode()
	if err != nil {
		return err
	}

	cookie := &fiber.Cookie{
		Name:     m.cfg.CookieName,
		Value:    encoded,
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	}
	if !sess.ExpirationTime.IsZero() {
		cookie.Expires = sess.ExpirationTime
	}

	c.Cookie(cookie)
	return nil
}

// Save extiende la expiración de la sesión y la persiste
func (m *Middleware) Save(c *fiber.Ctx, sess *Session) error {
	sess.Touch(m.now(), m.cfg.TTL)
	return m.Write(c, sess)
}

// FromCtx extrae la sesión del request. Siempre hay una (posiblemente vacía)
// si el middleware Load está instalado.
func FromCtx(c *fiber.Ctx) *Session {
	if sess, ok := c.Locals(string(kernel.SessionContextKey)).(*Session); ok && sess != nil {
		return sess
	}
	return &Session{}
}

// SetNow reemplaza el reloj, para pruebas de expiración
func (m *Middleware) SetNow(now func() time.Time) {
	m.now = now
}
