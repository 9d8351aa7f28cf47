package cachex

import (
	"context"
	"errors"
	"time"

	"github.com/Abraxas-365/craftable/logx"
	"golang.org/x/sync/singleflight"
)

// Cache wraps a Store with per-process single-flight so a burst of concurrent
// misses on one key computes once. Across processes two concurrent first
// accesses may still both compute; the store does not do distributed locking.
type Cache struct {
	store Store
	group singleflight.Group
}

func New(store Store) *Cache {
	return &Cache{store: store}
}

// Spec declares how one procedure's results are cached.
type Spec struct {
	// Path identifies the procedure.
	Path string

	// Input is the validated input payload, canonically serialized into the
	// key.
	Input any

	// Extra are additional key components beyond path and input, typically
	// identity fields resolved by earlier middlewares.
	Extra []string

	// TTL is the revalidation window.
	TTL time.Duration

	// Tags enable bulk invalidation independent of the key.
	Tags []string
}

// Invalidate forces the next lookup of every entry carrying the tag to miss.
func (c *Cache) Invalidate(ctx context.Context, tag string) error {
	return c.store.Invalidate(ctx, tag)
}

// Through returns the cached result for spec if fresh, otherwise invokes fn
// once (per process, per key), stores the result and returns it. A stored
// entry that no longer decodes is a corruption error, not a recompute.
func Through[T any](ctx context.Context, c *Cache, spec Spec, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	key, err := Key(spec.Path, spec.Input, spec.Extra...)
	if err != nil {
		return zero, err
	}

	data, err := c.store.Get(ctx, key)
	if err == nil {
		var out T
		if decErr := Decode(data, &out); decErr != nil {
			return zero, decErr
		}
		return out, nil
	}
	if !errors.Is(err, ErrMiss) {
		return zero, ErrStoreFailure().WithDetail("cause", err.Error())
	}

	result, err, _ := c.group.Do(key, func() (any, error) {
		// Another waiter may have stored the entry while we queued.
		if data, getErr := c.store.Get(ctx, key); getErr == nil {
			var out T
			if decErr := Decode(data, &out); decErr != nil {
				return zero, decErr
			}
			return out, nil
		}

		out, fnErr := fn(ctx)
		if fnErr != nil {
			return zero, fnErr
		}

		encoded, encErr := Encode(out)
		if encErr != nil {
			return zero, encErr
		}

		// A failed write degrades to uncached, it must not fail the request.
		if setErr := c.store.Set(ctx, key, encoded, spec.TTL, spec.Tags); setErr != nil {
			logx.Error("cachex: failed to store entry for %s: %v", spec.Path, setErr)
		}

		return out, nil
	})
	if err != nil {
		return zero, err
	}

	return result.(T), nil
}
