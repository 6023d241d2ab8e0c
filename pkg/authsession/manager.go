package authsession

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/dmitrymomot/gymkit/pkg/apiclient"
	"github.com/dmitrymomot/gymkit/pkg/logger"
	"github.com/dmitrymomot/gymkit/pkg/querycache"
)

// Manager orchestrates the session of one visitor. It is safe for concurrent use.
type Manager struct {
	api           APIClient
	cache         *querycache.Cache
	nav           Navigator
	logger        *slog.Logger
	dependentKeys []string
	hooks         []func(*User)

	// Each mutation kind is serialized: a second call waits for the first.
	loginMu    sync.Mutex
	registerMu sync.Mutex
	logoutMu   sync.Mutex

	mu      sync.Mutex
	err     string
	pending int
	subs    map[uint64]func(State)
	nextSub uint64
	closed  bool

	background  sync.WaitGroup
	unsubscribe func()
}

// New creates a Manager backed by api and cache. The Manager subscribes to
// SessionKey; call Close to release it.
func New(api APIClient, cache *querycache.Cache, opts ...Option) (*Manager, error) {
	if api == nil {
		return nil, ErrNilClient
	}
	if cache == nil {
		return nil, ErrNilCache
	}

	m := &Manager{
		api:    api,
		cache:  cache,
		nav:    NavigatorFunc(func(context.Context, string) {}),
		logger: logger.Noop(),
		subs:   make(map[uint64]func(State)),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.unsubscribe = cache.Subscribe(SessionKey, m.onCacheEvent)
	return m, nil
}

// Start performs the initial session resolution.
func (m *Manager) Start(ctx context.Context) State {
	m.ResolveSession(ctx)
	return m.State()
}

// ResolveSession asks the upstream who the visitor is. Concurrent calls share
// one request. Any failure resolves to the anonymous state; nothing is
// returned as an error and State().Error is left untouched.
func (m *Manager) ResolveSession(ctx context.Context) *User {
	user, err := querycache.Load(ctx, m.cache, SessionKey, m.loadUser)
	if err != nil {
		// Only the caller's own context can fail here; the loader never does.
		m.logger.DebugContext(ctx, "session resolution abandoned", logger.Error(err))
		return nil
	}
	return user
}

func (m *Manager) loadUser(ctx context.Context) (*User, error) {
	var user User
	if err := m.api.Do(ctx, http.MethodGet, pathMe, nil, &user); err != nil {
		if !apiclient.IsUnauthorized(err) {
			m.logger.WarnContext(ctx, "session probe failed", logger.Error(err))
		}
		return nil, nil
	}
	if user.ID == "" {
		return nil, nil
	}
	return &user, nil
}

// Login exchanges credentials for a session. Arguments are not validated
// locally. On success the session is published, the error cleared and the
// visitor sent home. On failure the display message is stored in
// State().Error, the session is left as it was, and the error is returned.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	m.loginMu.Lock()
	defer m.loginMu.Unlock()

	return m.authenticate(ctx, "login", email, func(ctx context.Context) (*User, error) {
		var resp loginResponse
		if err := m.api.Do(ctx, http.MethodPost, pathLogin, credentials{Email: email, Password: password}, &resp); err != nil {
			return nil, err
		}
		return resp.User, nil
	})
}

// Register creates an account. Registration logs the visitor in, so success
// behaves exactly like Login.
func (m *Manager) Register(ctx context.Context, email, password string) error {
	m.registerMu.Lock()
	defer m.registerMu.Unlock()

	return m.authenticate(ctx, "register", email, func(ctx context.Context) (*User, error) {
		var user User
		if err := m.api.Do(ctx, http.MethodPost, pathRegister, credentials{Email: email, Password: password}, &user); err != nil {
			return nil, err
		}
		return &user, nil
	})
}

func (m *Manager) authenticate(ctx context.Context, op, email string, call func(context.Context) (*User, error)) error {
	if m.isClosed() {
		return ErrManagerClosed
	}

	m.begin()
	defer m.end()

	// The upstream call runs to completion even if the caller goes away.
	user, err := call(context.WithoutCancel(ctx))
	if err == nil && (user == nil || user.ID == "") {
		err = ErrMissingUser
	}
	if err != nil {
		m.setError(apiclient.ErrorMessage(err))
		m.logger.InfoContext(ctx, op+" failed", logger.UserEmail(email), logger.Error(err))
		return err
	}

	m.cache.Write(SessionKey, user)
	m.setError("")
	for _, key := range m.dependentKeys {
		m.cache.Invalidate(key)
	}
	m.runHooks(user)

	m.logger.InfoContext(ctx, op+" succeeded", logger.UserID(user.ID), logger.UserEmail(user.Email))
	m.navigate(ctx, HomePath)
	return nil
}

// Logout ends the session. The upstream call is best effort: whatever its
// outcome, the visitor becomes anonymous and is sent to the login page once.
// A failed call is logged and returned, but never surfaces in State().Error.
func (m *Manager) Logout(ctx context.Context) error {
	m.logoutMu.Lock()
	defer m.logoutMu.Unlock()

	m.begin()
	defer m.end()

	var discard json.RawMessage
	err := m.api.Do(context.WithoutCancel(ctx), http.MethodPost, pathLogout, nil, &discard)
	// Logout failures are never shown to the visitor.
	m.setError("")
	if err != nil {
		m.logger.WarnContext(ctx, "logout request failed",
			logger.Error(err),
			slog.String("message", apiclient.ErrorMessage(err)),
		)
	}

	m.cache.Write(SessionKey, (*User)(nil))
	for _, key := range m.dependentKeys {
		m.cache.Remove(key)
	}
	m.runHooks(nil)

	m.navigate(ctx, LoginPath)
	return err
}

// State returns the current session view.
func (m *Manager) State() State {
	snap := m.cache.Peek(SessionKey)
	user, _ := snap.Value.(*User)

	m.mu.Lock()
	pending := m.pending
	errMsg := m.err
	m.mu.Unlock()

	// A refetch of a known session is not "loading"; only a key that has
	// never settled is.
	neverSettled := snap.Status == querycache.StatusIdle ||
		(snap.Status == querycache.StatusPending && snap.UpdatedAt.IsZero())

	return State{
		User:            user,
		IsAuthenticated: user != nil,
		IsLoading:       pending > 0 || neverSettled,
		Error:           errMsg,
	}
}

// ClearError drops the stored error message.
func (m *Manager) ClearError() {
	m.setError("")
}

// Subscribe registers fn to receive the new State after every change.
// fn runs synchronously and must not block or call back into Login, Register
// or Logout.
func (m *Manager) Subscribe(fn func(State)) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}

	m.mu.Lock()
	m.nextSub++
	id := m.nextSub
	m.subs[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}

// Close detaches the Manager from the cache and waits for background
// resolutions to finish.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.mu.Unlock()

	m.unsubscribe()
	m.background.Wait()
}

func (m *Manager) onCacheEvent(ev querycache.Event) {
	if ev.Kind == querycache.EventInvalidated {
		m.mu.Lock()
		closed := m.closed
		if !closed {
			m.background.Add(1)
		}
		m.mu.Unlock()

		if !closed {
			go func() {
				defer m.background.Done()
				m.ResolveSession(context.Background())
			}()
		}
	}
	m.publish()
}

func (m *Manager) navigate(ctx context.Context, path string) {
	if nav, ok := navigatorFrom(ctx); ok {
		nav.Navigate(ctx, path)
		return
	}
	m.nav.Navigate(ctx, path)
}

func (m *Manager) runHooks(user *User) {
	for _, fn := range m.hooks {
		fn(user)
	}
}

func (m *Manager) begin() {
	m.mu.Lock()
	m.pending++
	m.mu.Unlock()
	m.publish()
}

func (m *Manager) end() {
	m.mu.Lock()
	m.pending--
	m.mu.Unlock()
	m.publish()
}

func (m *Manager) setError(msg string) {
	m.mu.Lock()
	changed := m.err != msg
	m.err = msg
	m.mu.Unlock()
	if changed {
		m.publish()
	}
}

func (m *Manager) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *Manager) publish() {
	m.mu.Lock()
	subs := make([]func(State), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	m.mu.Unlock()

	if len(subs) == 0 {
		return
	}
	state := m.State()
	for _, fn := range subs {
		fn(state)
	}
}
