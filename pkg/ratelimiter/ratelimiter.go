package ratelimiter

import (
	"context"
	"errors"
	"time"
)

// Config describes a bucket: it holds at most Capacity tokens and gains
// RefillRate tokens every RefillInterval.
type Config struct {
	Capacity       int           `env:"AUTH_RATE_CAPACITY" envDefault:"10"`
	RefillRate     int           `env:"AUTH_RATE_REFILL" envDefault:"1"`
	RefillInterval time.Duration `env:"AUTH_RATE_INTERVAL" envDefault:"30s"`
}

// Validate reports whether c describes a usable bucket.
func (c Config) Validate() error {
	if c.Capacity <= 0 || c.RefillRate <= 0 || c.RefillInterval <= 0 {
		return ErrInvalidConfig
	}
	return nil
}

// ttl is how long an untouched bucket takes to refill completely.
func (c Config) ttl() time.Duration {
	steps := (c.Capacity + c.RefillRate - 1) / c.RefillRate
	return time.Duration(steps+1) * c.RefillInterval
}

// Result is the outcome of one Allow call.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RetryAfter is how long a rejected caller should wait.
func (r Result) RetryAfter() time.Duration {
	if r.Allowed {
		return 0
	}
	return max(time.Until(r.ResetAt), 0)
}

// Store keeps buckets. Take removes n tokens from key's bucket when enough
// are available and reports the tokens left after the attempt, negative
// when the attempt was rejected, plus the time of the next refill.
type Store interface {
	Take(ctx context.Context, key string, n int, cfg Config) (remaining int, resetAt time.Time, err error)
	Reset(ctx context.Context, key string) error
}

// Limiter applies one bucket configuration to many keys.
type Limiter struct {
	store Store
	cfg   Config
}

// New creates a Limiter.
func New(store Store, cfg Config) (*Limiter, error) {
	if store == nil {
		return nil, ErrNilStore
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Limiter{store: store, cfg: cfg}, nil
}

// Allow spends one token for key.
func (l *Limiter) Allow(ctx context.Context, key string) (Result, error) {
	remaining, resetAt, err := l.store.Take(ctx, key, 1, l.cfg)
	if err != nil {
		return Result{}, errors.Join(ErrStoreFailed, err)
	}
	return Result{
		Allowed:   remaining >= 0,
		Limit:     l.cfg.Capacity,
		Remaining: max(remaining, 0),
		ResetAt:   resetAt,
	}, nil
}

// Reset refills key's bucket.
func (l *Limiter) Reset(ctx context.Context, key string) error {
	if err := l.store.Reset(ctx, key); err != nil {
		return errors.Join(ErrStoreFailed, err)
	}
	return nil
}
