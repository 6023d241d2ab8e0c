package main

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/gymkit/handler"
	"github.com/dmitrymomot/gymkit/modules/account"
	"github.com/dmitrymomot/gymkit/modules/programs"
	"github.com/dmitrymomot/gymkit/pkg/clientip"
	"github.com/dmitrymomot/gymkit/pkg/cookie"
	"github.com/dmitrymomot/gymkit/pkg/guard"
	"github.com/dmitrymomot/gymkit/pkg/httpserver"
	"github.com/dmitrymomot/gymkit/pkg/logger"
	"github.com/dmitrymomot/gymkit/pkg/ratelimiter"
	"github.com/dmitrymomot/gymkit/pkg/requestid"
	"github.com/dmitrymomot/gymkit/pkg/visitor"
	"github.com/dmitrymomot/gymkit/views"
)

type routerDeps struct {
	log          *slog.Logger
	registry     *visitor.Registry
	cookies      *cookie.Manager
	checks       map[string]httpserver.Check
	guardTimeout time.Duration
	listWait     time.Duration
	trustedIP    []string
	attempts     *ratelimiter.Limiter
}

func newRouter(d routerDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		requestid.Middleware,
		clientip.Middleware(d.trustedIP...),
		middleware.Recoverer,
		requestLogger(d.log),
	)

	r.Get("/healthz", httpserver.Health(d.log, 0, nil))
	r.Get("/readyz", httpserver.Health(d.log, 2*time.Second, d.checks))

	errorHandler := handler.NewErrorHandler(d.log, handler.ErrorHandlerConfig{
		ErrorPage:  views.ErrorPage,
		ErrorToast: views.ErrorToast,
	})

	guardOpts := []guard.Option{
		guard.WithLoadingHandler(handler.Wrap(func(handler.Context, struct{}) handler.Response {
			return handler.Templ(views.LoadingPage())
		})),
		guard.WithResolveTimeout(d.guardTimeout),
		guard.WithLogger(d.log),
	}

	accountOpts := []account.Option{
		account.WithGuestGuard(guard.RequireGuest(visitor.Session, guardOpts...)),
		account.WithErrorHandler(errorHandler),
		account.WithLogger(d.log),
	}
	if d.attempts != nil {
		denied := handler.Wrap(func(handler.Context, struct{}) handler.Response {
			return handler.Error(handler.ErrTooManyRequests)
		}, handler.WithErrorHandler[handler.Context, struct{}](errorHandler))
		accountOpts = append(accountOpts, account.WithAttemptLimit(
			ratelimiter.Middleware(d.attempts, ratelimiter.ByClientIP("auth:"),
				ratelimiter.WithDeniedHandler(denied),
				ratelimiter.WithLogger(d.log),
			),
		))
	}

	accountPages := account.New(
		func(r *http.Request) account.Authenticator {
			if ws := visitor.FromContext(r.Context()); ws != nil {
				return ws.Session
			}
			return nil
		},
		accountOpts...,
	)
	programPages := programs.New(
		func(r *http.Request) programs.Programs {
			if ws := visitor.FromContext(r.Context()); ws != nil {
				return ws.Programs
			}
			return nil
		},
		programs.WithAuthGuard(guard.Middleware(visitor.Session, guardOpts...)),
		programs.WithErrorHandler(errorHandler),
		programs.WithListWait(d.listWait),
		programs.WithLogger(d.log),
	)

	r.Group(func(r chi.Router) {
		r.Use(d.registry.Middleware(d.cookies))
		accountPages.Routes(r)
		programPages.Routes(r)
	})

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		_ = handler.WriteRedirect(w, req, "/", http.StatusSeeOther)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		_ = handler.WriteRedirect(w, req, "/", http.StatusSeeOther)
	})

	return r
}

// requestLogger logs every request once it completes.
func requestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			log.InfoContext(r.Context(), "http request",
				logger.Component("http"),
				slog.String("method", r.Method),
				logger.Path(r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}
