// Package cachex provides the cache capability used by cached procedures: a
// key/value store port with TTL and tag invalidation, a deterministic codec
// for payloads that JSON cannot represent natively, and a read-through
// wrapper with per-process single-flight on misses.
package cachex

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Abraxas-365/craftable/errx"
)

// ErrMiss is returned by Store.Get when the key is absent or expired.
var ErrMiss = errors.New("cachex: miss")

// Store is the external cache provider port. Implementations must tolerate
// concurrent readers and writers on the same key; mutual exclusion across
// processes is not promised, two concurrent first accesses may both compute.
type Store interface {
	// Get returns the stored payload, or ErrMiss.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores the payload under key with the given revalidation window,
	// registering it under every tag.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration, tags []string) error

	// Invalidate forces the next lookup of every key carrying the tag to
	// miss, regardless of remaining TTL.
	Invalidate(ctx context.Context, tag string) error
}

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("CACHE")

var (
	CodeCorruptedEntry = ErrRegistry.Register("CORRUPTED_ENTRY", errx.TypeInternal, http.StatusInternalServerError, "Corrupted cache entry")
	CodeStoreFailure   = ErrRegistry.Register("STORE_FAILURE", errx.TypeExternal, http.StatusServiceUnavailable, "Cache store failure")
	CodeEncodeFailure  = ErrRegistry.Register("ENCODE_FAILURE", errx.TypeInternal, http.StatusInternalServerError, "Cannot encode cache payload")
)

// ErrCorruptedEntry indicates stored bytes that no longer decode. This is a
// fatal internal error, never a silent miss.
func ErrCorruptedEntry() *errx.Error {
	return ErrRegistry.New(CodeCorruptedEntry)
}

func ErrStoreFailure() *errx.Error {
	return ErrRegistry.New(CodeStoreFailure)
}

func ErrEncodeFailure() *errx.Error {
	return ErrRegistry.New(CodeEncodeFailure)
}
