package programs

import (
	"log/slog"
	"time"
)

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the Service's logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRetry sets how often a failed list read is retried and the first
// backoff delay, which doubles on every attempt up to 30s.
func WithRetry(retries uint64, base time.Duration) Option {
	return func(s *Service) {
		s.retries = retries
		if base > 0 {
			s.retryBase = base
		}
	}
}
