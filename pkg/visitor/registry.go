package visitor

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/gymkit/pkg/apiclient"
	"github.com/dmitrymomot/gymkit/pkg/authsession"
	"github.com/dmitrymomot/gymkit/pkg/cache"
	"github.com/dmitrymomot/gymkit/pkg/logger"
	"github.com/dmitrymomot/gymkit/pkg/programs"
	"github.com/dmitrymomot/gymkit/pkg/querycache"
)

const storeTimeout = 5 * time.Second

// Registry owns the workspaces of all visitors.
type Registry struct {
	cfg         Config
	api         apiclient.Config
	programOpts []programs.Option
	store       Store
	logger      *slog.Logger

	workspaces *cache.LRUCache[string, *Workspace]

	mu         sync.Mutex
	closed     bool
	background sync.WaitGroup
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger shared by every workspace.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithProgramOptions adds options to every workspace's program service.
func WithProgramOptions(opts ...programs.Option) Option {
	return func(r *Registry) {
		r.programOpts = append(r.programOpts, opts...)
	}
}

// NewRegistry creates a Registry whose workspaces talk to the upstream
// described by api.
func NewRegistry(cfg Config, api apiclient.Config, store Store, opts ...Option) (*Registry, error) {
	if store == nil {
		return nil, ErrNilStore
	}
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultConfig().Capacity
	}
	// Validate the upstream settings once instead of on every visitor.
	if _, err := apiclient.NewFromConfig(api); err != nil {
		return nil, err
	}

	r := &Registry{
		cfg:        cfg,
		api:        api,
		store:      store,
		logger:     logger.Noop(),
		workspaces: cache.NewLRUCache[string, *Workspace](cfg.Capacity),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.workspaces.SetEvictCallback(r.release)
	return r, nil
}

// Get returns the workspace of visitor id, creating it on first use.
func (r *Registry) Get(ctx context.Context, id string) (*Workspace, error) {
	if uuid.Validate(id) != nil {
		return nil, ErrInvalidID
	}
	if r.isClosed() {
		return nil, ErrRegistryClosed
	}

	ws, created, err := r.workspaces.GetOrCreate(id, func() (*Workspace, error) {
		return r.build(id)
	})
	if err != nil {
		return nil, err
	}
	if created {
		r.init(ctx, ws)
	}
	if err := ws.wait(ctx); err != nil {
		return nil, err
	}
	return ws, nil
}

// Len returns the number of live workspaces.
func (r *Registry) Len() int {
	return r.workspaces.Len()
}

// Close closes every workspace and waits for their background work.
func (r *Registry) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	r.mu.Unlock()

	r.workspaces.Clear()
	r.background.Wait()
}

// build assembles a workspace. It runs under the LRU lock and does no I/O.
func (r *Registry) build(id string) (*Workspace, error) {
	log := r.logger.With(logger.VisitorID(id))

	api, err := apiclient.NewFromConfig(r.api, apiclient.WithLogger(log))
	if err != nil {
		return nil, err
	}
	qc := querycache.New(querycache.WithStaleTime(r.cfg.StaleTime), querycache.WithLogger(log))

	session, err := authsession.New(api, qc,
		authsession.WithLogger(log),
		authsession.WithDependentKeys(programs.CacheKey),
		authsession.WithSessionHook(func(u *authsession.User) { r.persist(id, api, u) }),
	)
	if err != nil {
		return nil, err
	}
	progs, err := programs.New(api, qc, append([]programs.Option{programs.WithLogger(log)}, r.programOpts...)...)
	if err != nil {
		session.Close()
		return nil, err
	}

	return &Workspace{
		ID:       id,
		API:      api,
		Cache:    qc,
		Session:  session,
		Programs: progs,
		ready:    make(chan struct{}),
	}, nil
}

// init restores saved credentials, marks ws ready and starts resolving the
// session in the background.
func (r *Registry) init(ctx context.Context, ws *Workspace) {
	defer close(ws.ready)

	loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), storeTimeout)
	defer cancel()

	cookies, err := r.store.Load(loadCtx, ws.ID)
	if err != nil {
		r.logger.WarnContext(ctx, "failed to load visitor credentials",
			logger.Component("visitor"),
			logger.VisitorID(ws.ID),
			logger.Error(err),
		)
	}
	ws.API.SetCookies(cookies)

	r.logger.DebugContext(ctx, "workspace created",
		logger.Component("visitor"),
		logger.VisitorID(ws.ID),
		slog.Bool("restored", len(cookies) > 0),
	)

	r.goBackground(func() { ws.Session.Start(context.WithoutCancel(ctx)) })
}

// persist saves or forgets the upstream credentials after a session change.
func (r *Registry) persist(id string, api *apiclient.Client, user *authsession.User) {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	var err error
	if user != nil {
		err = r.store.Save(ctx, id, api.Cookies(), r.cfg.CredentialTTL)
	} else {
		api.ClearCookies()
		err = r.store.Delete(ctx, id)
	}
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to persist visitor credentials",
			logger.Component("visitor"),
			logger.VisitorID(id),
			logger.Error(err),
		)
	}
}

// release closes an evicted workspace without blocking the request that
// caused the eviction.
func (r *Registry) release(id string, ws *Workspace) {
	r.logger.Debug("workspace released", logger.Component("visitor"), logger.VisitorID(id))
	r.goBackground(func() {
		<-ws.ready
		ws.Close()
	})
}

func (r *Registry) goBackground(fn func()) {
	r.background.Add(1)
	go func() {
		defer r.background.Done()
		fn()
	}()
}

func (r *Registry) isClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

// newID returns a fresh visitor id.
func newID() string {
	return uuid.NewString()
}

// errStatus maps a Get failure to an HTTP status.
func errStatus(err error) int {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
