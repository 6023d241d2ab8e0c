package account

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/gymkit/handler"
	"github.com/dmitrymomot/gymkit/pkg/authsession"
	"github.com/dmitrymomot/gymkit/pkg/binder"
	"github.com/dmitrymomot/gymkit/pkg/logger"
)

// Authenticator is the part of the session manager the pages use.
type Authenticator interface {
	Login(ctx context.Context, email, password string) error
	Register(ctx context.Context, email, password string) error
	Logout(ctx context.Context) error
	State() authsession.State
}

// SessionFunc returns the authenticator of the visitor behind r, or nil.
type SessionFunc func(r *http.Request) Authenticator

// Service serves the account pages.
type Service struct {
	sessions     SessionFunc
	guest        func(http.Handler) http.Handler
	attempts     func(http.Handler) http.Handler
	logger       *slog.Logger
	errorHandler handler.ErrorHandler[handler.Context]
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithGuestGuard wraps the login and registration routes, typically with
// guard.RequireGuest.
func WithGuestGuard(mw func(http.Handler) http.Handler) Option {
	return func(s *Service) { s.guest = mw }
}

// WithAttemptLimit wraps the login and registration submissions, typically
// with a ratelimiter.Middleware keyed by client address.
func WithAttemptLimit(mw func(http.Handler) http.Handler) Option {
	return func(s *Service) { s.attempts = mw }
}

func WithErrorHandler(h handler.ErrorHandler[handler.Context]) Option {
	return func(s *Service) { s.errorHandler = h }
}

// New creates the account pages.
func New(sessions SessionFunc, opts ...Option) *Service {
	s := &Service{sessions: sessions, logger: logger.Noop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Routes registers GET/POST /login, GET/POST /register and POST /logout.
func (s *Service) Routes(r chi.Router) {
	r.Group(func(r chi.Router) {
		if s.guest != nil {
			r.Use(s.guest)
		}
		submit := r
		if s.attempts != nil {
			submit = r.With(s.attempts)
		}

		r.Get("/login", handler.Wrap(s.loginPage,
			handler.WithBinders[handler.Context, CredentialsRequest](binder.Query()),
			handler.WithErrorHandler[handler.Context, CredentialsRequest](s.errorHandler),
		))
		submit.Post("/login", handler.Wrap(s.login,
			handler.WithBinders[handler.Context, CredentialsRequest](binder.Form()),
			handler.WithErrorHandler[handler.Context, CredentialsRequest](s.errorHandler),
		))
		r.Get("/register", handler.Wrap(s.registerPage,
			handler.WithBinders[handler.Context, CredentialsRequest](binder.Query()),
			handler.WithErrorHandler[handler.Context, CredentialsRequest](s.errorHandler),
		))
		submit.Post("/register", handler.Wrap(s.register,
			handler.WithBinders[handler.Context, CredentialsRequest](binder.Form()),
			handler.WithErrorHandler[handler.Context, CredentialsRequest](s.errorHandler),
		))
	})
	r.Post("/logout", handler.Wrap(s.logout,
		handler.WithErrorHandler[handler.Context, struct{}](s.errorHandler),
	))
}
