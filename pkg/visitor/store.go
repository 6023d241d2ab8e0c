package visitor

import (
	"context"
	"net/http"
	"sync"
	"time"
)

// Store persists the upstream cookies of signed in visitors.
type Store interface {
	// Load returns the cookies saved for id, or none.
	Load(ctx context.Context, id string) ([]*http.Cookie, error)
	// Save replaces the cookies saved for id. They expire after ttl.
	Save(ctx context.Context, id string, cookies []*http.Cookie, ttl time.Duration) error
	// Delete forgets id.
	Delete(ctx context.Context, id string) error
}

// storedCookie is the persisted form of an upstream cookie.
type storedCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

func toStored(cookies []*http.Cookie) []storedCookie {
	out := make([]storedCookie, 0, len(cookies))
	for _, c := range cookies {
		out = append(out, storedCookie{Name: c.Name, Value: c.Value})
	}
	return out
}

func fromStored(stored []storedCookie) []*http.Cookie {
	out := make([]*http.Cookie, 0, len(stored))
	for _, s := range stored {
		out = append(out, &http.Cookie{Name: s.Name, Value: s.Value, Path: "/"})
	}
	return out
}

type memoryEntry struct {
	cookies   []storedCookie
	expiresAt time.Time
}

// MemoryStore keeps credentials in process memory.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry), now: time.Now}
}

func (s *MemoryStore) Load(_ context.Context, id string) ([]*http.Cookie, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return nil, nil
	}
	if !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt) {
		delete(s.entries, id)
		return nil, nil
	}
	return fromStored(e.cookies), nil
}

func (s *MemoryStore) Save(_ context.Context, id string, cookies []*http.Cookie, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := memoryEntry{cookies: toStored(cookies)}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}
	s.entries[id] = e
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
	return nil
}

// Prune drops expired credentials and returns how many were removed.
func (s *MemoryStore) Prune() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for id, e := range s.entries {
		if !e.expiresAt.IsZero() && !now.Before(e.expiresAt) {
			delete(s.entries, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored credential sets.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Sweep prunes expired credentials every interval until ctx is done.
// Visitors that never come back would otherwise stay in memory for good.
func (s *MemoryStore) Sweep(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.Prune()
		}
	}
}
