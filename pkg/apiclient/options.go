package apiclient

import (
	"log/slog"
	"net/http"
	"time"
)

// Option configures a Client.
type Option func(*Client)

// WithTransport sets the base RoundTripper. Workspaces share one transport so
// connection pooling survives across visitors.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		if rt != nil {
			c.transport = rt
		}
	}
}

// WithTimeout sets the overall per-request timeout of the underlying http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithBearerToken authenticates every request with a static bearer token in
// addition to the cookie jar.
func WithBearerToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithCookies seeds the cookie jar with previously captured upstream cookies.
func WithCookies(cookies []*http.Cookie) Option {
	return func(c *Client) {
		c.seed = append(c.seed, cookies...)
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithLogger sets the logger used for request tracing at debug level.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}
