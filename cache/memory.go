package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryStore is a process-local cache used when no external backend is
// configured, and in tests.
type MemoryStore struct {
	mu    sync.Mutex
	items map[string]memoryEntry
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items: make(map[string]memoryEntry),
		now:   time.Now,
	}
}

func (s *MemoryStore) Ready() bool { return true }

func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.items[key]
	if !ok || !s.now().Before(e.expiresAt) {
		return nil, false
	}
	return e.value, true
}

func (s *MemoryStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = memoryEntry{value: value, expiresAt: s.now().Add(ttl)}
}

func (s *MemoryStore) Delete(ctx context.Context, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
}

func (s *MemoryStore) SweepExpired(ctx context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	now := s.now()
	for k, e := range s.items {
		if !now.Before(e.expiresAt) {
			delete(s.items, k)
			removed++
		}
	}
	return removed
}

func (s *MemoryStore) Close() error { return nil }
