// Package rpcerr is the single place where internal errors become the stable,
// client-facing error vocabulary. Every route goes through its Fiber
// ErrorHandler; handlers never map status codes themselves.
package rpcerr

import "net/http"

// Kind is the closed set of transport-level error kinds.
type Kind string

const (
	KindBadRequest         Kind = "BAD_REQUEST"
	KindUnauthorized       Kind = "UNAUTHORIZED"
	KindForbidden          Kind = "FORBIDDEN"
	KindNotFound           Kind = "NOT_FOUND"
	KindConflict           Kind = "CONFLICT"
	KindServiceUnavailable Kind = "SERVICE_UNAVAILABLE"
	KindInternal           Kind = "INTERNAL"
)

// FromStatus maps a numeric status code to its kind. Unmapped statuses fall
// back to KindInternal so unclassified failures never leak a bogus kind.
func FromStatus(status int) Kind {
	switch status {
	case http.StatusBadRequest:
		return KindBadRequest
	case http.StatusUnauthorized:
		return KindUnauthorized
	case http.StatusForbidden:
		return KindForbidden
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusConflict:
		return KindConflict
	case http.StatusServiceUnavailable:
		return KindServiceUnavailable
	default:
		return KindInternal
	}
}

// Status returns the HTTP status code for a kind.
func (k Kind) Status() int {
	switch k {
	case KindBadRequest:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Error is an already-mapped transport error. The boundary handler passes it
// through verbatim instead of wrapping it a second time.
type Error struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return string(e.Kind) + ": " + e.Message
}

// New creates an already-mapped transport error.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}
