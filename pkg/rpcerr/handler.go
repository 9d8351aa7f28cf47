package rpcerr

import (
	"errors"

	"github.com/Abraxas-365/craftable/errx"
	"github.com/gofiber/fiber/v2"
)

// internalMessage is what clients see for unclassified failures. Real causes
// stay in the server logs only.
const internalMessage = "Internal server error"

// Map normalizes any error into a transport Error. Resolution order: errors
// already mapped pass through verbatim, fiber errors map by status code, errx
// errors map by their registered type, everything else is INTERNAL.
func Map(err error) *Error {
	var mapped *Error
	if errors.As(err, &mapped) {
		return mapped
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		kind := FromStatus(fiberErr.Code)
		if kind == KindInternal {
			return New(KindInternal, internalMessage)
		}
		return New(kind, fiberErr.Message)
	}

	var domainErr *errx.Error
	if errors.As(err, &domainErr) {
		kind := kindFromErrx(err)
		if kind == KindInternal {
			return New(KindInternal, internalMessage)
		}
		// Solo el mensaje registrado cruza el borde: Error() arrastra el
		// código de registro y los detalles, que son material de logs
		return New(kind, domainErr.Message)
	}

	return New(KindInternal, internalMessage)
}

// kindFromErrx maps an errx type to its kind. Authorization errors registered
// as errx.TypeBusiness carry 403 semantics (access denied on a known actor),
// mirroring the status each registry declares at Register time.
func kindFromErrx(err error) Kind {
	switch {
	case errx.IsType(err, errx.TypeValidation):
		return KindBadRequest
	case errx.IsType(err, errx.TypeAuthorization):
		return KindUnauthorized
	case errx.IsType(err, errx.TypeBusiness):
		return KindForbidden
	case errx.IsType(err, errx.TypeNotFound):
		return KindNotFound
	case errx.IsType(err, errx.TypeConflict):
		return KindConflict
	case errx.IsType(err, errx.TypeExternal):
		return KindServiceUnavailable
	default:
		return KindInternal
	}
}

// ErrorHandler returns the app-level Fiber error handler. It is the outermost
// middleware of every procedure chain: success responses pass by untouched,
// every error becomes {success:false, error:{kind, message}}.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		mapped := Map(err)
		return c.Status(mapped.Kind.Status()).JSON(fiber.Map{
			"success": false,
			"error": fiber.Map{
				"kind":    mapped.Kind,
				"message": mapped.Message,
			},
		})
	}
}
