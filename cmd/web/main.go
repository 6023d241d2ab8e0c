package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/gymkit/pkg/clientip"
	"github.com/dmitrymomot/gymkit/pkg/config"
	"github.com/dmitrymomot/gymkit/pkg/cookie"
	"github.com/dmitrymomot/gymkit/pkg/httpserver"
	"github.com/dmitrymomot/gymkit/pkg/logger"
	"github.com/dmitrymomot/gymkit/pkg/programs"
	"github.com/dmitrymomot/gymkit/pkg/ratelimiter"
	"github.com/dmitrymomot/gymkit/pkg/redis"
	"github.com/dmitrymomot/gymkit/pkg/requestid"
	"github.com/dmitrymomot/gymkit/pkg/visitor"
)

var (
	ErrCookieManager = errors.New("failed to create cookie manager")
	ErrRedisConnect  = errors.New("failed to connect to redis")
	ErrRegistry      = errors.New("failed to create visitor registry")
	ErrRateLimiter   = errors.New("failed to create rate limiter")
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	var cfg Config
	if err := config.Load(&cfg); err != nil {
		stop()
		logger.New().Error("Failed to load configuration", logger.Component("config"), logger.Error(err))
		os.Exit(1)
	}

	log := logger.New(
		logger.WithEnvironment(cfg.AppEnv, cfg.AppName),
		logger.WithContextExtractors(requestid.LoggerExtractor(), clientip.LoggerExtractor()),
	)

	err := run(ctx, cfg, log)
	stop()
	if err != nil {
		log.Error("Application stopped with error", logger.Component("server"), logger.Error(err))
		os.Exit(1)
	}

	log.Info("Application stopped")
}

// run wires the application and blocks until ctx is done or a component
// fails. Every resource it opens is released before it returns.
func run(ctx context.Context, cfg Config, log *slog.Logger) error {
	cookies, err := cookie.NewFromConfig(cfg.Cookie)
	if err != nil {
		return errors.Join(ErrCookieManager, err)
	}

	checks := map[string]httpserver.Check{}
	var (
		store     visitor.Store
		rateStore ratelimiter.Store
		memStore  *visitor.MemoryStore
	)
	switch cfg.Visitor.Store {
	case visitor.StoreRedis:
		client, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return errors.Join(ErrRedisConnect, err)
		}
		defer client.Close()
		store = visitor.NewRedisStore(client, cfg.Redis.KeyPrefix)
		rateStore = ratelimiter.NewRedisStore(client, cfg.Redis.KeyPrefix)
		checks["redis"] = redis.Healthcheck(client)
	case visitor.StoreMemory, "":
		memStore = visitor.NewMemoryStore()
		store = memStore
		rateStore = ratelimiter.NewMemoryStore()
	default:
		return visitor.ErrUnknownStore
	}

	registry, err := visitor.NewRegistry(cfg.Visitor, cfg.API, store,
		visitor.WithLogger(log),
		visitor.WithProgramOptions(programs.WithRetry(cfg.ListRetries, 0)),
	)
	if err != nil {
		return errors.Join(ErrRegistry, err)
	}
	defer registry.Close()

	attempts, err := ratelimiter.New(rateStore, cfg.AuthRate)
	if err != nil {
		return errors.Join(ErrRateLimiter, err)
	}

	var trusted []string
	if cfg.TrustProxy {
		trusted = clientip.ProxyHeaders
	}

	router := newRouter(routerDeps{
		log:          log,
		registry:     registry,
		cookies:      cookies,
		checks:       checks,
		guardTimeout: cfg.GuardTimeout,
		listWait:     cfg.ListWait,
		trustedIP:    trusted,
		attempts:     attempts,
	})

	srv := httpserver.NewFromConfig(cfg.HTTP,
		httpserver.WithLogger(log),
		httpserver.WithStopHook(registry.Close),
	)

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error { return srv.Run(ctx, router) })
	if memStore != nil {
		eg.Go(func() error { return memStore.Sweep(ctx, cfg.Visitor.SweepInterval) })
	}

	return eg.Wait()
}
