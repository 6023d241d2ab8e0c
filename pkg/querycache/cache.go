package querycache

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Loader produces the value of a key. It runs on a context detached from the
// caller's cancellation, so one reader giving up never fails the others.
type Loader func(ctx context.Context) (any, error)

// Status is the lifecycle state of a key.
type Status int

const (
	StatusIdle Status = iota
	StatusPending
	StatusResolved
	StatusErrored
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusResolved:
		return "resolved"
	case StatusErrored:
		return "errored"
	default:
		return "idle"
	}
}

// Snapshot is a point-in-time copy of a key's entry. Waiters counts the
// readers blocked on the running loader.
type Snapshot struct {
	Key       string
	Value     any
	Err       error
	Status    Status
	Stale     bool
	Fetching  bool
	Waiters   int
	UpdatedAt time.Time
}

type entry struct {
	value     any
	err       error
	status    Status
	stale     bool
	flight    *flight
	updatedAt time.Time

	// writes and invalidations let a settling loader detect that the key was
	// overwritten or invalidated while it was running.
	writes        uint64
	invalidations uint64
	flightWrites  uint64
	flightInvals  uint64
}

// Cache is safe for concurrent use.
type Cache struct {
	mu        sync.Mutex
	entries   map[string]*entry
	subs      map[string]map[uint64]Listener
	nextSubID uint64
	staleTime time.Duration
	now       func() time.Time
	logger    *slog.Logger
}

// Option configures a Cache.
type Option func(*Cache)

// WithStaleTime makes resolved values stale once they are older than d.
// Zero (the default) keeps values fresh until invalidated.
func WithStaleTime(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.staleTime = d
		}
	}
}

// WithLogger sets a logger for load tracing at debug level.
func WithLogger(l *slog.Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// New creates an empty Cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		entries: make(map[string]*entry),
		subs:    make(map[string]map[uint64]Listener),
		now:     time.Now,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Read returns the value of key. A fresh resolved value is returned without
// calling loader. If a loader for key is already running the caller waits for
// it. Otherwise loader is started and its outcome is stored and broadcast.
//
// A running loader overtaken by Write or Remove is never joined: a written
// value is returned directly, and after a Remove the caller waits for the old
// loader to finish and then loads afresh, so at most one loader per key runs.
func (c *Cache) Read(ctx context.Context, key string, loader Loader) (any, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}
	if loader == nil {
		return nil, ErrNilLoader
	}

	for {
		c.mu.Lock()
		e := c.entry(key)

		if f := e.flight; f != nil {
			if e.writes == e.flightWrites {
				c.mu.Unlock()
				c.logger.DebugContext(ctx, "querycache: joined in-flight load", slog.String("cache_key", key))
				return f.wait(ctx)
			}
			if e.status == StatusResolved && !c.isStale(e) {
				v := e.value
				c.mu.Unlock()
				return v, nil
			}
			c.mu.Unlock()
			if err := f.settled(ctx); err != nil {
				return nil, err
			}
			continue
		}

		if e.status == StatusResolved && !c.isStale(e) {
			v := e.value
			c.mu.Unlock()
			return v, nil
		}

		e.status = StatusPending
		e.stale = false
		e.flightWrites = e.writes
		e.flightInvals = e.invalidations
		f := newFlight(context.WithoutCancel(ctx), loader, func(f *flight) { c.settle(key, f) })
		e.flight = f
		c.mu.Unlock()

		c.logger.DebugContext(ctx, "querycache: load started", slog.String("cache_key", key))
		c.notify(Event{Key: key, Kind: EventPending})
		f.open()

		return f.wait(ctx)
	}
}

// Write stores value under key as resolved and fresh without calling a loader.
// A loader running for key still answers the readers already waiting on it,
// but its result is not stored and later readers get the written value.
func (c *Cache) Write(key string, value any) {
	if key == "" {
		return
	}

	c.mu.Lock()
	e := c.entry(key)
	e.value = value
	e.err = nil
	e.status = StatusResolved
	e.stale = false
	e.writes++
	e.updatedAt = c.now()
	c.mu.Unlock()

	c.notify(Event{Key: key, Kind: EventWritten})
}

// Invalidate marks key stale so the next Read calls its loader. Readers that
// arrive while a loader is running still join it; the result it stores stays
// stale.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		c.mu.Unlock()
		return
	}
	e.stale = true
	e.invalidations++
	c.mu.Unlock()

	c.notify(Event{Key: key, Kind: EventInvalidated})
}

// Remove drops the value of key. A running loader still settles for the
// readers already waiting on it, but its result is discarded and later
// readers load afresh once it finishes.
func (c *Cache) Remove(key string) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if ok {
		if e.flight != nil {
			e.value = nil
			e.err = nil
			e.status = StatusPending
			e.writes++
		} else {
			delete(c.entries, key)
		}
	}
	c.mu.Unlock()

	if ok {
		c.notify(Event{Key: key, Kind: EventRemoved})
	}
}

// Peek returns a snapshot of key without loading it.
func (c *Cache) Peek(key string) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return Snapshot{Key: key, Status: StatusIdle}
	}
	return Snapshot{
		Key:       key,
		Value:     e.value,
		Err:       e.err,
		Status:    e.status,
		Stale:     c.isStale(e),
		Fetching:  e.flight != nil,
		Waiters:   waiters(e.flight),
		UpdatedAt: e.updatedAt,
	}
}

// Keys returns the keys currently held.
func (c *Cache) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	return keys
}

func (c *Cache) settle(key string, f *flight) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok || e.flight != f {
		c.mu.Unlock()
		return
	}
	e.flight = nil

	if e.writes != e.flightWrites {
		// Overwritten or removed while loading; keep what is there.
		if e.status == StatusPending {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return
	}

	kind := EventResolved
	if f.err != nil {
		e.status = StatusErrored
		e.err = f.err
		kind = EventErrored
	} else {
		e.status = StatusResolved
		e.value = f.value
		e.err = nil
	}
	e.stale = e.invalidations != e.flightInvals
	e.updatedAt = c.now()
	c.mu.Unlock()

	c.logger.Debug("querycache: load settled",
		slog.String("cache_key", key),
		slog.String("status", kind.String()),
	)
	c.notify(Event{Key: key, Kind: kind})
}

// entry must be called with c.mu held.
func (c *Cache) entry(key string) *entry {
	e, ok := c.entries[key]
	if !ok {
		e = &entry{}
		c.entries[key] = e
	}
	return e
}

// isStale must be called with c.mu held.
func (c *Cache) isStale(e *entry) bool {
	if e.stale {
		return true
	}
	if c.staleTime > 0 && e.status == StatusResolved {
		return c.now().Sub(e.updatedAt) > c.staleTime
	}
	return false
}

// Load is a typed wrapper around Cache.Read.
func Load[T any](ctx context.Context, c *Cache, key string, loader func(context.Context) (T, error)) (T, error) {
	var zero T
	if loader == nil {
		return zero, ErrNilLoader
	}

	v, err := c.Read(ctx, key, func(ctx context.Context) (any, error) {
		return loader(ctx)
	})
	if err != nil {
		return zero, err
	}
	if v == nil {
		return zero, nil
	}
	typed, ok := v.(T)
	if !ok {
		return zero, ErrTypeMismatch
	}
	return typed, nil
}

// Get returns the cached value of key if it is resolved, regardless of staleness.
func Get[T any](c *Cache, key string) (T, bool) {
	var zero T
	snap := c.Peek(key)
	if snap.Status != StatusResolved {
		return zero, false
	}
	if snap.Value == nil {
		return zero, true
	}
	typed, ok := snap.Value.(T)
	return typed, ok
}
