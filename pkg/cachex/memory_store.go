package cachex

import (
	"context"
	"sync"
	"time"
)

var _ Store = (*MemoryStore)(nil)

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
	tags      []string
}

// MemoryStore is an in-process Store for tests and single-node development.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return nil, ErrMiss
	}
	if s.now().After(entry.expiresAt) {
		delete(s.entries, key)
		return nil, ErrMiss
	}

	return entry.data, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration, tags []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = memoryEntry{
		data:      value,
		expiresAt: s.now().Add(ttl),
		tags:      tags,
	}
	return nil
}

func (s *MemoryStore) Invalidate(_ context.Context, tag string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, entry := range s.entries {
		for _, t := range entry.tags {
			if t == tag {
				delete(s.entries, key)
				break
			}
		}
	}
	return nil
}

// SetNow overrides the clock, for expiry tests.
func (s *MemoryStore) SetNow(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}
