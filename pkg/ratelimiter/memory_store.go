package ratelimiter

import (
	"context"
	"sync"
	"time"
)

type bucket struct {
	tokens int
	refill time.Time
}

// MemoryStore keeps buckets in process memory. Idle buckets are pruned
// lazily once they would have refilled completely.
type MemoryStore struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	now       func() time.Time
	lastPrune time.Time
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{buckets: make(map[string]*bucket), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	s.lastPrune = s.now()
	return s
}

func (s *MemoryStore) Take(_ context.Context, key string, n int, cfg Config) (int, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.prune(now, cfg.ttl())

	b, ok := s.buckets[key]
	if !ok {
		b = &bucket{tokens: cfg.Capacity, refill: now}
		s.buckets[key] = b
	}

	if steps := int(now.Sub(b.refill) / cfg.RefillInterval); steps > 0 {
		b.tokens = min(cfg.Capacity, b.tokens+steps*cfg.RefillRate)
		b.refill = b.refill.Add(time.Duration(steps) * cfg.RefillInterval)
	}

	remaining := b.tokens - n
	if remaining >= 0 {
		b.tokens = remaining
	}
	return remaining, b.refill.Add(cfg.RefillInterval), nil
}

func (s *MemoryStore) Reset(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.buckets, key)
	s.mu.Unlock()
	return nil
}

// Len returns the number of tracked buckets.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buckets)
}

// prune must be called with the lock held.
func (s *MemoryStore) prune(now time.Time, ttl time.Duration) {
	if now.Sub(s.lastPrune) < ttl {
		return
	}
	for k, b := range s.buckets {
		if now.Sub(b.refill) >= ttl {
			delete(s.buckets, k)
		}
	}
	s.lastPrune = now
}
