package guard

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/dmitrymomot/gymkit/handler"
	"github.com/dmitrymomot/gymkit/pkg/authsession"
	"github.com/dmitrymomot/gymkit/pkg/logger"
)

// Decision is the outcome of evaluating a session for a protected route.
type Decision int

const (
	Loading Decision = iota
	Authenticated
	Unauthenticated
)

func (d Decision) String() string {
	switch d {
	case Loading:
		return "loading"
	case Authenticated:
		return "authenticated"
	case Unauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// Decide evaluates s. Loading wins over everything so protected content is
// never shown for a session that has not settled.
func Decide(s authsession.State) Decision {
	switch {
	case s.IsLoading:
		return Loading
	case s.User != nil:
		return Authenticated
	default:
		return Unauthenticated
	}
}

// Session is the part of authsession.Manager the guard needs.
type Session interface {
	ResolveSession(ctx context.Context) *authsession.User
	State() authsession.State
}

// SessionFunc returns the session of the visitor behind r, or nil when the
// visitor has none.
type SessionFunc func(r *http.Request) Session

var stateKey = handler.NewContextKey("guard.state")

// StateFromContext returns the State the guard evaluated for this request.
func StateFromContext(ctx context.Context) (authsession.State, bool) {
	return handler.ContextValueOK[authsession.State](ctx, stateKey)
}

// WithState stores s in ctx.
func WithState(ctx context.Context, s authsession.State) context.Context {
	return context.WithValue(ctx, stateKey, s)
}

type config struct {
	loginPath      string
	homePath       string
	loading        http.Handler
	resolveTimeout time.Duration
	logger         *slog.Logger
}

// Option configures the middlewares.
type Option func(*config)

// WithLoginPath sets where anonymous visitors are sent. Defaults to /login.
func WithLoginPath(p string) Option {
	return func(c *config) {
		if p != "" {
			c.loginPath = p
		}
	}
}

// WithHomePath sets where RequireGuest sends authenticated visitors.
// Defaults to /.
func WithHomePath(p string) Option {
	return func(c *config) {
		if p != "" {
			c.homePath = p
		}
	}
}

// WithLoadingHandler sets the handler that renders the loading placeholder.
func WithLoadingHandler(h http.Handler) Option {
	return func(c *config) {
		if h != nil {
			c.loading = h
		}
	}
}

// WithResolveTimeout bounds how long a request waits for the session to
// settle before the placeholder is served. Defaults to 5s.
func WithResolveTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.resolveTimeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

func newConfig(opts []Option) *config {
	c := &config{
		loginPath:      authsession.LoginPath,
		homePath:       authsession.HomePath,
		loading:        http.HandlerFunc(defaultLoading),
		resolveTimeout: 5 * time.Second,
		logger:         logger.Noop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// evaluate resolves the visitor's session, bounded by the resolve timeout,
// and returns its State. A request without a session is anonymous.
func (c *config) evaluate(r *http.Request, sessions SessionFunc) authsession.State {
	sess := sessions(r)
	if sess == nil {
		return authsession.State{}
	}

	ctx, cancel := context.WithTimeout(r.Context(), c.resolveTimeout)
	defer cancel()
	sess.ResolveSession(ctx)

	return sess.State()
}

// Middleware protects the routes it wraps.
func Middleware(sessions SessionFunc, opts ...Option) func(http.Handler) http.Handler {
	cfg := newConfig(opts)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			state := cfg.evaluate(r, sessions)
			decision := Decide(state)

			cfg.logger.DebugContext(r.Context(), "route guard",
				logger.Component("guard"),
				logger.Path(r.URL.Path),
				slog.String("decision", decision.String()),
			)

			switch decision {
			case Loading:
				cfg.loading.ServeHTTP(w, r)
			case Unauthenticated:
				if err := handler.WriteRedirect(w, r, cfg.loginPath, http.StatusSeeOther); err != nil {
					cfg.logger.ErrorContext(r.Context(), "guard redirect failed", logger.Error(err))
				}
			default:
				next.ServeHTTP(w, r.WithContext(WithState(r.Context(), state)))
			}
		})
	}
}

// RequireGuest sends authenticated visitors to the home page. Everyone else,
// including a visitor whose session is still loading, proceeds.
func RequireGuest(sessions SessionFunc, opts ...Option) func(http.Handler) http.Handler {
	cfg := newConfig(opts)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			state := cfg.evaluate(r, sessions)
			if Decide(state) == Authenticated {
				if err := handler.WriteRedirect(w, r, cfg.homePath, http.StatusSeeOther); err != nil {
					cfg.logger.ErrorContext(r.Context(), "guard redirect failed", logger.Error(err))
				}
				return
			}
			next.ServeHTTP(w, r.WithContext(WithState(r.Context(), state)))
		})
	}
}

func defaultLoading(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Refresh", "1")
	_, _ = w.Write([]byte(`<!doctype html><title>Loading</title><p>Loading...</p>`))
}
