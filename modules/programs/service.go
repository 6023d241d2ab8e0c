package programs

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/gymkit/handler"
	"github.com/dmitrymomot/gymkit/pkg/binder"
	"github.com/dmitrymomot/gymkit/pkg/logger"
	programsvc "github.com/dmitrymomot/gymkit/pkg/programs"
)

// Programs is the part of the program service the pages use.
type Programs interface {
	List(ctx context.Context) ([]programsvc.Program, error)
	Create(ctx context.Context, req programsvc.CreateRequest) (programsvc.Program, error)
	StartGenerate(ctx context.Context, req programsvc.GenerateRequest) error
	IsGenerating() bool
	GenerateError() string
}

// ServiceFunc returns the program service of the visitor behind r, or nil.
type ServiceFunc func(r *http.Request) Programs

// Service serves the program pages.
type Service struct {
	programs     ServiceFunc
	auth         func(http.Handler) http.Handler
	listWait     time.Duration
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

// WithAuthGuard wraps every route, typically with guard.Middleware.
func WithAuthGuard(mw func(http.Handler) http.Handler) Option {
	return func(s *Service) { s.auth = mw }
}

func WithErrorHandler(h handler.ErrorHandler[handler.Context]) Option {
	return func(s *Service) { s.errorHandler = h }
}

// WithListWait bounds how long a page waits for the program list before it
// renders the loading state. Defaults to 2s.
func WithListWait(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.listWait = d
		}
	}
}

// New creates the program pages.
func New(fn ServiceFunc, opts ...Option) *Service {
	s := &Service{programs: fn, listWait: 2 * time.Second, logger: logger.Noop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Routes registers GET /, GET/POST /programs and POST /programs/generate.
func (s *Service) Routes(r chi.Router) {
	r.Group(func(r chi.Router) {
		if s.auth != nil {
			r.Use(s.auth)
		}
		r.Get("/", handler.Wrap(s.home,
			handler.WithErrorHandler[handler.Context, struct{}](s.errorHandler),
		))
		r.Get("/programs", handler.Wrap(s.list,
			handler.WithBinders[handler.Context, PageRequest](binder.Query()),
			handler.WithErrorHandler[handler.Context, PageRequest](s.errorHandler),
		))
		r.Post("/programs", handler.Wrap(s.create,
			handler.WithBinders[handler.Context, CreateRequest](binder.Form()),
			handler.WithErrorHandler[handler.Context, CreateRequest](s.errorHandler),
		))
		r.Post("/programs/generate", handler.Wrap(s.generate,
			handler.WithBinders[handler.Context, GenerateRequest](binder.Form()),
			handler.WithErrorHandler[handler.Context, GenerateRequest](s.errorHandler),
		))
	})
}
