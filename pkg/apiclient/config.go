package apiclient

import "time"

// Config holds upstream API settings.
type Config struct {
	BaseURL   string        `env:"API_BASE_URL,required"`
	Timeout   time.Duration `env:"API_TIMEOUT" envDefault:"30s"`
	Token     string        `env:"API_TOKEN"`
	UserAgent string        `env:"API_USER_AGENT" envDefault:"gymkit"`
}

// NewFromConfig creates a Client from Config. Explicit options take precedence.
func NewFromConfig(cfg Config, opts ...Option) (*Client, error) {
	configOpts := make([]Option, 0, 3+len(opts))
	if cfg.Timeout > 0 {
		configOpts = append(configOpts, WithTimeout(cfg.Timeout))
	}
	if cfg.Token != "" {
		configOpts = append(configOpts, WithBearerToken(cfg.Token))
	}
	if cfg.UserAgent != "" {
		configOpts = append(configOpts, WithUserAgent(cfg.UserAgent))
	}
	configOpts = append(configOpts, opts...)

	return New(cfg.BaseURL, configOpts...)
}
