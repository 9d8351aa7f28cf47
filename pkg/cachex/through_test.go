package cachex

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type profilePayload struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
}

func TestThroughInvokesHandlerOnce(t *testing.T) {
	cache := New(NewMemoryStore())
	ctx := context.Background()

	var calls int32
	spec := Spec{
		Path:  "user.getPublicProfile",
		Input: map[string]any{"userId": "U1"},
		TTL:   time.Minute,
		Tags:  []string{"public-user:U1"},
	}
	fn := func(context.Context) (profilePayload, error) {
		atomic.AddInt32(&calls, 1)
		return profilePayload{UserID: "U1", Name: "Ada"}, nil
	}

	first, err := Through(ctx, cache, spec, fn)
	require.NoError(t, err)

	second, err := Through(ctx, cache, spec, fn)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls), "second call within the window must not re-invoke the handler")
}

func TestThroughIdenticalStoredBytes(t *testing.T) {
	store := NewMemoryStore()
	cache := New(store)
	ctx := context.Background()

	spec := Spec{Path: "competition.list", Input: map[string]any{"page": 1}, TTL: time.Minute}
	fn := func(context.Context) ([]string, error) {
		return []string{"alpha", "beta"}, nil
	}

	_, err := Through(ctx, cache, spec, fn)
	require.NoError(t, err)

	key, err := Key(spec.Path, spec.Input)
	require.NoError(t, err)

	first, err := store.Get(ctx, key)
	require.NoError(t, err)

	_, err = Through(ctx, cache, spec, fn)
	require.NoError(t, err)

	second, err := store.Get(ctx, key)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestThroughTagInvalidation(t *testing.T) {
	cache := New(NewMemoryStore())
	ctx := context.Background()

	var calls int32
	spec := Spec{
		Path:  "user.getPublicProfile",
		Input: map[string]any{"userId": "U1"},
		TTL:   time.Minute,
		Tags:  []string{"public-user:U1"},
	}
	fn := func(context.Context) (profilePayload, error) {
		atomic.AddInt32(&calls, 1)
		return profilePayload{UserID: "U1", Name: "Ada"}, nil
	}

	_, err := Through(ctx, cache, spec, fn)
	require.NoError(t, err)
	_, err = Through(ctx, cache, spec, fn)
	require.NoError(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))

	require.NoError(t, cache.Invalidate(ctx, "public-user:U1"))

	_, err = Through(ctx, cache, spec, fn)
	require.NoError(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls), "invalidated tag must force a recompute")
}

func TestThroughExpiryRecomputes(t *testing.T) {
	store := NewMemoryStore()
	cache := New(store)
	ctx := context.Background()

	now := time.Now()
	store.SetNow(func() time.Time { return now })

	var calls int32
	spec := Spec{Path: "competition.leaderboard", Input: map[string]any{"id": "C1"}, TTL: 30 * time.Second}
	fn := func(context.Context) (string, error) {
		atomic.AddInt32(&calls, 1)
		return "board", nil
	}

	_, err := Through(ctx, cache, spec, fn)
	require.NoError(t, err)

	now = now.Add(31 * time.Second)

	_, err = Through(ctx, cache, spec, fn)
	require.NoError(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestThroughDistinctExtraComponents(t *testing.T) {
	cache := New(NewMemoryStore())
	ctx := context.Background()

	var calls int32
	fn := func(context.Context) (string, error) {
		atomic.AddInt32(&calls, 1)
		return "payload", nil
	}

	for _, actor := range []string{"U1", "U2"} {
		spec := Spec{Path: "rewards.list", Input: map[string]any{}, Extra: []string{actor}, TTL: time.Minute}
		_, err := Through(ctx, cache, spec, fn)
		require.NoError(t, err)
	}

	assert.EqualValues(t, 2, atomic.LoadInt32(&calls), "different extra key components must not share entries")
}

func TestThroughCorruptedEntryIsFatal(t *testing.T) {
	store := NewMemoryStore()
	cache := New(store)
	ctx := context.Background()

	spec := Spec{Path: "agent.getPublic", Input: map[string]any{"handle": "hft-bot"}, TTL: time.Minute}

	key, err := Key(spec.Path, spec.Input)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, key, []byte(`{"blob":{"$bytes":"***"}}`), time.Minute, nil))

	var calls int32
	_, err = Through(ctx, cache, spec, func(context.Context) (map[string]any, error) {
		atomic.AddInt32(&calls, 1)
		return nil, nil
	})

	require.Error(t, err, "corruption must not degrade into a silent miss")
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestThroughSingleFlight(t *testing.T) {
	cache := New(NewMemoryStore())
	ctx := context.Background()

	var calls int32
	release := make(chan struct{})
	spec := Spec{Path: "competition.leaderboard", Input: map[string]any{"id": "C9"}, TTL: time.Minute}
	fn := func(context.Context) (string, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return "board", nil
	}

	var wg sync.WaitGroup
	results := make([]string, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out, err := Through(ctx, cache, spec, fn)
			assert.NoError(t, err)
			results[i] = out
		}(i)
	}

	// Let the goroutines pile up on the flight before releasing it.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.EqualValues(t, 1, atomic.LoadInt32(&calls), "concurrent misses on one key must compute once per process")
	for _, r := range results {
		assert.Equal(t, "board", r)
	}
}

func TestKeyDeterminism(t *testing.T) {
	first, err := Key("user.getPublicProfile", map[string]any{"userId": "U1", "fields": []string{"name"}}, "viewer:U2")
	require.NoError(t, err)

	second, err := Key("user.getPublicProfile", map[string]any{"fields": []string{"name"}, "userId": "U1"}, "viewer:U2")
	require.NoError(t, err)

	assert.Equal(t, first, second, "key must not depend on map iteration order")

	other, err := Key("user.getPublicProfile", map[string]any{"userId": "U2", "fields": []string{"name"}}, "viewer:U2")
	require.NoError(t, err)
	assert.NotEqual(t, first, other)
}
