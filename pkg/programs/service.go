package programs

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/dmitrymomot/gymkit/pkg/apiclient"
	"github.com/dmitrymomot/gymkit/pkg/logger"
	"github.com/dmitrymomot/gymkit/pkg/querycache"
)

const maxRetryDelay = 30 * time.Second

// Service lists, creates and generates programs for one visitor.
// It is safe for concurrent use.
type Service struct {
	api       APIClient
	cache     *querycache.Cache
	logger    *slog.Logger
	retries   uint64
	retryBase time.Duration

	mu          sync.Mutex
	generating  bool
	generateErr string
	closed      bool
	background  sync.WaitGroup
}

// New creates a Service.
func New(api APIClient, cache *querycache.Cache, opts ...Option) (*Service, error) {
	if api == nil {
		return nil, ErrNilClient
	}
	if cache == nil {
		return nil, ErrNilCache
	}

	s := &Service{
		api:       api,
		cache:     cache,
		logger:    logger.Noop(),
		retries:   3,
		retryBase: time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// List returns the visitor's programs. Concurrent calls share one request
// and a fresh cached list is returned without one.
func (s *Service) List(ctx context.Context) ([]Program, error) {
	list, err := querycache.Load(ctx, s.cache, CacheKey, s.fetch)
	if err != nil {
		return nil, err
	}
	return list, nil
}

// fetch reads the list upstream. Network failures and 5xx responses are
// retried with exponential backoff.
func (s *Service) fetch(ctx context.Context) ([]Program, error) {
	b := retry.NewExponential(s.retryBase)
	b = retry.WithCappedDuration(maxRetryDelay, b)
	b = retry.WithMaxRetries(s.retries, b)

	var list []Program
	attempt := 0
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		var out []Program
		if err := s.api.Do(ctx, http.MethodGet, pathPrograms, nil, &out); err != nil {
			if retryable(err) {
				s.logger.DebugContext(ctx, "program list read failed",
					logger.Component("programs"),
					slog.Int("attempt", attempt),
					logger.Error(err),
				)
				return retry.RetryableError(err)
			}
			return err
		}
		list = out
		return nil
	})
	if err != nil {
		s.logger.WarnContext(ctx, "program list unavailable",
			logger.Component("programs"),
			slog.Int("attempts", attempt),
			logger.Error(err),
		)
		return nil, err
	}
	if list == nil {
		list = []Program{}
	}
	return list, nil
}

func retryable(err error) bool {
	var netErr *apiclient.NetworkError
	if errors.As(err, &netErr) {
		return true
	}
	var apiErr *apiclient.APIError
	return errors.As(err, &apiErr) && apiErr.Status >= http.StatusInternalServerError
}

// State returns the cached list without blocking.
func (s *Service) State() ListState {
	snap := s.cache.Peek(CacheKey)
	list, _ := snap.Value.([]Program)
	return ListState{
		Programs:  list,
		IsLoading: snap.Status == querycache.StatusIdle || (snap.Status == querycache.StatusPending && snap.UpdatedAt.IsZero()),
		Err:       snap.Err,
	}
}

// Create validates req and creates a program. On success the list is
// invalidated.
func (s *Service) Create(ctx context.Context, req CreateRequest) (Program, error) {
	if err := req.Validate(); err != nil {
		return Program{}, err
	}

	var p Program
	if err := s.api.Do(context.WithoutCancel(ctx), http.MethodPost, pathPrograms, req, &p); err != nil {
		s.logger.InfoContext(ctx, "program creation failed", logger.Component("programs"), logger.Error(err))
		return Program{}, err
	}

	s.cache.Invalidate(CacheKey)
	s.logger.InfoContext(ctx, "program created", logger.Component("programs"), logger.ProgramID(p.ID))
	return p, nil
}

// Generate validates req and asks the upstream to generate a program.
// On success the list is invalidated.
func (s *Service) Generate(ctx context.Context, req GenerateRequest) (Program, error) {
	if err := req.Validate(); err != nil {
		return Program{}, err
	}

	var p Program
	if err := s.api.Do(context.WithoutCancel(ctx), http.MethodPost, pathGenerate, req, &p); err != nil {
		s.logger.WarnContext(ctx, "program generation failed",
			logger.Component("programs"),
			slog.String("goal", string(req.Goal)),
			logger.Error(err),
		)
		return Program{}, err
	}

	s.cache.Invalidate(CacheKey)
	s.logger.InfoContext(ctx, "program generated",
		logger.Component("programs"),
		logger.ProgramID(p.ID),
		slog.String("goal", string(req.Goal)),
	)
	return p, nil
}

// StartGenerate validates req and runs Generate in the background. Only one
// generation runs at a time; IsGenerating is true until it settles.
func (s *Service) StartGenerate(ctx context.Context, req GenerateRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	switch {
	case s.closed:
		s.mu.Unlock()
		return ErrServiceClosed
	case s.generating:
		s.mu.Unlock()
		return ErrAlreadyGenerating
	}
	s.generating = true
	s.generateErr = ""
	s.background.Add(1)
	s.mu.Unlock()

	bg := context.WithoutCancel(ctx)
	go func() {
		defer s.background.Done()
		_, err := s.Generate(bg, req)

		s.mu.Lock()
		s.generating = false
		if err != nil {
			s.generateErr = apiclient.ErrorMessage(err)
		}
		s.mu.Unlock()
	}()
	return nil
}

// IsGenerating reports whether a background generation is running.
func (s *Service) IsGenerating() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generating
}

// GenerateError returns the message of the last failed background
// generation, cleared when the next one starts.
func (s *Service) GenerateError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generateErr
}

// Close waits for a running background generation.
func (s *Service) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.background.Wait()
}
