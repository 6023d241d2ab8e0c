package visitor

import "time"

// Store drivers.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// Config configures a Registry.
type Config struct {
	Capacity      int           `env:"VISITOR_CAPACITY" envDefault:"1000"`
	CookieName    string        `env:"VISITOR_COOKIE_NAME" envDefault:"gymkit_visitor"`
	CookieMaxAge  time.Duration `env:"VISITOR_COOKIE_MAX_AGE" envDefault:"720h"`
	CredentialTTL time.Duration `env:"VISITOR_CREDENTIAL_TTL" envDefault:"720h"`
	StaleTime     time.Duration `env:"VISITOR_CACHE_STALE_TIME" envDefault:"0s"`
	Store         string        `env:"VISITOR_STORE" envDefault:"memory"`
	// SweepInterval is how often the memory store drops expired credentials.
	SweepInterval time.Duration `env:"VISITOR_SWEEP_INTERVAL" envDefault:"1h"`
}

// DefaultConfig returns the configuration used when no environment is set.
func DefaultConfig() Config {
	return Config{
		Capacity:      1000,
		CookieName:    "gymkit_visitor",
		CookieMaxAge:  30 * 24 * time.Hour,
		CredentialTTL: 30 * 24 * time.Hour,
		Store:         StoreMemory,
		SweepInterval: time.Hour,
	}
}
