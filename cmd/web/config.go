package main

import (
	"time"

	"github.com/dmitrymomot/gymkit/pkg/apiclient"
	"github.com/dmitrymomot/gymkit/pkg/cookie"
	"github.com/dmitrymomot/gymkit/pkg/httpserver"
	"github.com/dmitrymomot/gymkit/pkg/ratelimiter"
	"github.com/dmitrymomot/gymkit/pkg/redis"
	"github.com/dmitrymomot/gymkit/pkg/visitor"
)

// Config is the application configuration, loaded from the environment.
type Config struct {
	AppName string `env:"APP_NAME" envDefault:"gymkit"`
	AppEnv  string `env:"APP_ENV" envDefault:"development"`

	// GuardTimeout bounds how long a protected page waits for the session
	// before it shows the loading placeholder.
	GuardTimeout time.Duration `env:"GUARD_RESOLVE_TIMEOUT" envDefault:"5s"`
	// ListWait bounds how long a program page waits for the list.
	ListWait time.Duration `env:"PROGRAMS_LIST_WAIT" envDefault:"2s"`
	// ListRetries is how often a failed program list read is retried.
	ListRetries uint64 `env:"PROGRAMS_LIST_RETRIES" envDefault:"3"`
	// TrustProxy makes the client address come from reverse proxy headers.
	TrustProxy bool `env:"HTTP_TRUST_PROXY" envDefault:"false"`

	AuthRate ratelimiter.Config

	API     apiclient.Config
	HTTP    httpserver.Config
	Cookie  cookie.Config
	Visitor visitor.Config
	Redis   redis.Config
}
