package authsession_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/gymkit/pkg/apiclient"
	"github.com/dmitrymomot/gymkit/pkg/authsession"
	"github.com/dmitrymomot/gymkit/pkg/querycache"
)

// stubAPI is a scriptable upstream.
type stubAPI struct {
	mu       sync.Mutex
	handlers map[string]http.HandlerFunc
	calls    map[string]int
}

func newStubAPI(t *testing.T) (*stubAPI, *apiclient.Client) {
	t.Helper()
	s := &stubAPI{handlers: map[string]http.HandlerFunc{}, calls: map[string]int{}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		s.mu.Lock()
		s.calls[key]++
		h := s.handlers[key]
		s.mu.Unlock()
		if h == nil {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		h(w, r)
	}))
	t.Cleanup(srv.Close)

	c, err := apiclient.New(srv.URL)
	require.NoError(t, err)
	return s, c
}

func (s *stubAPI) on(method, path string, h http.HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[method+" "+path] = h
}

func (s *stubAPI) count(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method+" "+path]
}

func jsonReply(status int, body any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}
}

// recorder collects navigations.
type recorder struct {
	mu    sync.Mutex
	paths []string
}

func (r *recorder) Navigate(_ context.Context, path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, path)
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

func newManager(t *testing.T, api *apiclient.Client, opts ...authsession.Option) (*authsession.Manager, *querycache.Cache, *recorder) {
	t.Helper()
	nav := &recorder{}
	cache := querycache.New()
	opts = append([]authsession.Option{authsession.WithDefaultNavigator(nav)}, opts...)
	m, err := authsession.New(api, cache, opts...)
	require.NoError(t, err)
	t.Cleanup(m.Close)
	return m, cache, nav
}

func TestNew(t *testing.T) {
	t.Parallel()

	_, err := authsession.New(nil, querycache.New())
	assert.ErrorIs(t, err, authsession.ErrNilClient)

	_, api := newStubAPI(t)
	_, err = authsession.New(api, nil)
	assert.ErrorIs(t, err, authsession.ErrNilCache)
}

func TestLogin(t *testing.T) {
	t.Parallel()

	t.Run("success publishes session and navigates home once", func(t *testing.T) {
		t.Parallel()
		stub, api := newStubAPI(t)
		stub.on(http.MethodPost, "/auth/login", func(w http.ResponseWriter, r *http.Request) {
			var in map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
			assert.Equal(t, "a@x.com", in["email"])
			assert.Equal(t, "pw", in["password"])
			jsonReply(http.StatusOK, map[string]any{"user": map[string]string{"id": "1", "email": "a@x.com"}, "token": "ignored"})(w, r)
		})
		m, _, nav := newManager(t, api)

		require.NoError(t, m.Login(context.Background(), "a@x.com", "pw"))

		st := m.State()
		assert.Equal(t, &authsession.User{ID: "1", Email: "a@x.com"}, st.User)
		assert.True(t, st.IsAuthenticated)
		assert.Empty(t, st.Error)
		assert.False(t, st.IsLoading)
		assert.Equal(t, []string{"/"}, nav.list())
		assert.Zero(t, stub.count(http.MethodGet, "/auth/me"), "login must not trigger a who-am-i round trip")
	})

	t.Run("rejected credentials record the server message", func(t *testing.T) {
		t.Parallel()
		stub, api := newStubAPI(t)
		stub.on(http.MethodPost, "/auth/login", jsonReply(http.StatusUnauthorized, map[string]string{"message": "Invalid credentials"}))
		stub.on(http.MethodGet, "/auth/me", jsonReply(http.StatusUnauthorized, map[string]string{"message": "Unauthorized"}))
		m, _, nav := newManager(t, api)
		m.Start(context.Background())

		err := m.Login(context.Background(), "a@x.com", "wrong")
		require.Error(t, err)
		assert.True(t, apiclient.IsUnauthorized(err))

		st := m.State()
		assert.Equal(t, "Invalid credentials", st.Error)
		assert.False(t, st.IsAuthenticated)
		assert.Nil(t, st.User)
		assert.Empty(t, nav.list())
	})

	t.Run("failure leaves an existing session untouched", func(t *testing.T) {
		t.Parallel()
		stub, api := newStubAPI(t)
		stub.on(http.MethodGet, "/auth/me", jsonReply(http.StatusOK, map[string]string{"id": "9", "email": "old@x.com"}))
		stub.on(http.MethodPost, "/auth/login", jsonReply(http.StatusInternalServerError, map[string]string{}))
		m, _, _ := newManager(t, api)
		m.Start(context.Background())

		require.Error(t, m.Login(context.Background(), "new@x.com", "pw"))
		st := m.State()
		assert.Equal(t, "9", st.User.ID)
		assert.Equal(t, "Request failed with status code 500", st.Error)
	})

	t.Run("response without user is an error", func(t *testing.T) {
		t.Parallel()
		stub, api := newStubAPI(t)
		stub.on(http.MethodPost, "/auth/login", jsonReply(http.StatusOK, map[string]string{}))
		m, _, nav := newManager(t, api)

		err := m.Login(context.Background(), "a@x.com", "pw")
		assert.ErrorIs(t, err, authsession.ErrMissingUser)
		assert.NotEmpty(t, m.State().Error)
		assert.Empty(t, nav.list())
	})

	t.Run("success clears a previous error", func(t *testing.T) {
		t.Parallel()
		stub, api := newStubAPI(t)
		var attempt atomic.Int32
		stub.on(http.MethodPost, "/auth/login", func(w http.ResponseWriter, r *http.Request) {
			if attempt.Add(1) == 1 {
				jsonReply(http.StatusUnauthorized, map[string]string{"message": "Invalid credentials"})(w, r)
				return
			}
			jsonReply(http.StatusOK, map[string]any{"user": map[string]string{"id": "1", "email": "a@x.com"}})(w, r)
		})
		m, _, _ := newManager(t, api)

		require.Error(t, m.Login(context.Background(), "a@x.com", "bad"))
		require.Equal(t, "Invalid credentials", m.State().Error)
		require.NoError(t, m.Login(context.Background(), "a@x.com", "pw"))
		assert.Empty(t, m.State().Error)
	})

	t.Run("context navigator takes precedence", func(t *testing.T) {
		t.Parallel()
		stub, api := newStubAPI(t)
		stub.on(http.MethodPost, "/auth/login", jsonReply(http.StatusOK, map[string]any{"user": map[string]string{"id": "1"}}))
		m, _, fallback := newManager(t, api)

		var got []string
		ctx := authsession.WithNavigator(context.Background(), authsession.NavigatorFunc(func(_ context.Context, p string) {
			got = append(got, p)
		}))
		require.NoError(t, m.Login(ctx, "a@x.com", "pw"))
		assert.Equal(t, []string{"/"}, got)
		assert.Empty(t, fallback.list())
	})

	t.Run("concurrent logins are serialized", func(t *testing.T) {
		t.Parallel()
		stub, api := newStubAPI(t)
		var inFlight, maxInFlight atomic.Int32
		stub.on(http.MethodPost, "/auth/login", func(w http.ResponseWriter, r *http.Request) {
			n := inFlight.Add(1)
			for {
				old := maxInFlight.Load()
				if n <= old || maxInFlight.CompareAndSwap(old, n) {
					break
				}
			}
			time.Sleep(20 * time.Millisecond)
			inFlight.Add(-1)
			jsonReply(http.StatusOK, map[string]any{"user": map[string]string{"id": "1"}})(w, r)
		})
		m, _, nav := newManager(t, api)

		var wg sync.WaitGroup
		for range 3 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				assert.NoError(t, m.Login(context.Background(), "a@x.com", "pw"))
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), maxInFlight.Load())
		assert.Equal(t, 3, stub.count(http.MethodPost, "/auth/login"))
		assert.Len(t, nav.list(), 3)
	})

	t.Run("loading while the call is outstanding", func(t *testing.T) {
		t.Parallel()
		stub, api := newStubAPI(t)
		release := make(chan struct{})
		stub.on(http.MethodGet, "/auth/me", jsonReply(http.StatusUnauthorized, nil))
		stub.on(http.MethodPost, "/auth/login", func(w http.ResponseWriter, r *http.Request) {
			<-release
			jsonReply(http.StatusOK, map[string]any{"user": map[string]string{"id": "1"}})(w, r)
		})
		m, _, _ := newManager(t, api)
		m.Start(context.Background())
		require.False(t, m.State().IsLoading)

		done := make(chan error, 1)
		go func() { done <- m.Login(context.Background(), "a@x.com", "pw") }()

		require.Eventually(t, func() bool { return m.State().IsLoading }, time.Second, time.Millisecond)
		close(release)
		require.NoError(t, <-done)
		assert.False(t, m.State().IsLoading)
	})
}

func TestRegister(t *testing.T) {
	t.Parallel()

	t.Run("registration logs in", func(t *testing.T) {
		t.Parallel()
		stub, api := newStubAPI(t)
		stub.on(http.MethodPost, "/auth/register", jsonReply(http.StatusCreated, map[string]string{"id": "5", "email": "n@x.com"}))
		m, _, nav := newManager(t, api)

		require.NoError(t, m.Register(context.Background(), "n@x.com", "pw"))
		st := m.State()
		assert.True(t, st.IsAuthenticated)
		assert.Equal(t, "n@x.com", st.User.Email)
		assert.Equal(t, []string{"/"}, nav.list())
	})

	t.Run("conflict", func(t *testing.T) {
		t.Parallel()
		stub, api := newStubAPI(t)
		stub.on(http.MethodPost, "/auth/register", jsonReply(http.StatusConflict, map[string]string{"message": "Email already exists"}))
		m, _, nav := newManager(t, api)

		require.Error(t, m.Register(context.Background(), "n@x.com", "pw"))
		assert.Equal(t, "Email already exists", m.State().Error)
		assert.False(t, m.State().IsAuthenticated)
		assert.Empty(t, nav.list())
	})
}

func TestLogout(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		name    string
		status  int
		wantErr bool
	}{
		{name: "success", status: http.StatusNoContent},
		{name: "failure still logs out", status: http.StatusInternalServerError, wantErr: true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			stub, api := newStubAPI(t)
			stub.on(http.MethodPost, "/auth/login", jsonReply(http.StatusOK, map[string]any{"user": map[string]string{"id": "1"}}))
			stub.on(http.MethodPost, "/auth/logout", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			})
			m, _, nav := newManager(t, api)
			require.NoError(t, m.Login(context.Background(), "a@x.com", "pw"))

			err := m.Logout(context.Background())
			if tc.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}

			st := m.State()
			assert.False(t, st.IsAuthenticated)
			assert.Nil(t, st.User)
			assert.Empty(t, st.Error)
			assert.Equal(t, []string{"/", "/login"}, nav.list())
		})
	}

	t.Run("unreachable upstream", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()
		api, err := apiclient.New(url)
		require.NoError(t, err)
		m, cache, nav := newManager(t, api)
		cache.Write(authsession.SessionKey, &authsession.User{ID: "1"})

		require.Error(t, m.Logout(context.Background()))
		assert.False(t, m.State().IsAuthenticated)
		assert.Empty(t, m.State().Error)
		assert.Equal(t, []string{"/login"}, nav.list())
	})
}

func TestResolveSession(t *testing.T) {
	t.Parallel()

	t.Run("initial state is loading", func(t *testing.T) {
		t.Parallel()
		_, api := newStubAPI(t)
		m, _, _ := newManager(t, api)
		st := m.State()
		assert.True(t, st.IsLoading)
		assert.False(t, st.IsAuthenticated)
	})

	t.Run("authenticated visitor", func(t *testing.T) {
		t.Parallel()
		stub, api := newStubAPI(t)
		stub.on(http.MethodGet, "/auth/me", jsonReply(http.StatusOK, map[string]string{"id": "1", "email": "a@x.com"}))
		m, _, nav := newManager(t, api)

		st := m.Start(context.Background())
		assert.True(t, st.IsAuthenticated)
		assert.False(t, st.IsLoading)
		assert.Equal(t, "a@x.com", st.User.Email)
		assert.Empty(t, nav.list())
	})

	t.Run("anonymous visitor is not an error", func(t *testing.T) {
		t.Parallel()
		stub, api := newStubAPI(t)
		stub.on(http.MethodGet, "/auth/me", jsonReply(http.StatusUnauthorized, map[string]string{"message": "Unauthorized"}))
		m, _, _ := newManager(t, api)

		assert.Nil(t, m.ResolveSession(context.Background()))
		st := m.State()
		assert.False(t, st.IsAuthenticated)
		assert.False(t, st.IsLoading)
		assert.Empty(t, st.Error)
	})

	t.Run("concurrent resolves share one request", func(t *testing.T) {
		t.Parallel()
		stub, api := newStubAPI(t)
		release := make(chan struct{})
		stub.on(http.MethodGet, "/auth/me", func(w http.ResponseWriter, r *http.Request) {
			<-release
			jsonReply(http.StatusOK, map[string]string{"id": "1"})(w, r)
		})
		m, _, _ := newManager(t, api)

		var wg sync.WaitGroup
		users := make([]*authsession.User, 5)
		for i := range users {
			wg.Add(1)
			go func() {
				defer wg.Done()
				users[i] = m.ResolveSession(context.Background())
			}()
		}
		require.Eventually(t, func() bool { return stub.count(http.MethodGet, "/auth/me") == 1 }, time.Second, time.Millisecond)
		close(release)
		wg.Wait()

		assert.Equal(t, 1, stub.count(http.MethodGet, "/auth/me"))
		for _, u := range users {
			require.NotNil(t, u)
			assert.Equal(t, "1", u.ID)
		}
	})

	t.Run("invalidation triggers a fresh resolve", func(t *testing.T) {
		t.Parallel()
		stub, api := newStubAPI(t)
		stub.on(http.MethodGet, "/auth/me", jsonReply(http.StatusOK, map[string]string{"id": "1"}))
		m, cache, _ := newManager(t, api)
		m.Start(context.Background())
		require.Equal(t, 1, stub.count(http.MethodGet, "/auth/me"))

		stub.on(http.MethodGet, "/auth/me", jsonReply(http.StatusUnauthorized, nil))
		cache.Invalidate(authsession.SessionKey)

		require.Eventually(t, func() bool {
			return stub.count(http.MethodGet, "/auth/me") == 2 && !m.State().IsAuthenticated
		}, time.Second, 5*time.Millisecond)
	})
}

func TestDependentKeysAndHooks(t *testing.T) {
	t.Parallel()

	stub, api := newStubAPI(t)
	stub.on(http.MethodPost, "/auth/login", jsonReply(http.StatusOK, map[string]any{"user": map[string]string{"id": "1"}}))
	stub.on(http.MethodPost, "/auth/logout", jsonReply(http.StatusOK, nil))

	var hookUsers []*authsession.User
	m, cache, _ := newManager(t, api,
		authsession.WithDependentKeys("programs"),
		authsession.WithSessionHook(func(u *authsession.User) { hookUsers = append(hookUsers, u) }),
	)

	cache.Write("programs", []string{"old"})
	require.NoError(t, m.Login(context.Background(), "a@x.com", "pw"))
	assert.True(t, cache.Peek("programs").Stale)

	require.NoError(t, m.Logout(context.Background()))
	assert.Equal(t, querycache.StatusIdle, cache.Peek("programs").Status)

	require.Len(t, hookUsers, 2)
	assert.Equal(t, "1", hookUsers[0].ID)
	assert.Nil(t, hookUsers[1])
}

func TestSubscribe(t *testing.T) {
	t.Parallel()

	stub, api := newStubAPI(t)
	stub.on(http.MethodPost, "/auth/login", jsonReply(http.StatusOK, map[string]any{"user": map[string]string{"id": "1"}}))
	m, _, _ := newManager(t, api)

	var (
		mu     sync.Mutex
		states []authsession.State
	)
	unsub := m.Subscribe(func(s authsession.State) {
		mu.Lock()
		states = append(states, s)
		mu.Unlock()
	})

	require.NoError(t, m.Login(context.Background(), "a@x.com", "pw"))
	unsub()
	require.NoError(t, m.Login(context.Background(), "a@x.com", "pw"))

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, states)
	assert.True(t, states[0].IsLoading)
	last := states[len(states)-1]
	assert.True(t, last.IsAuthenticated)
	assert.False(t, last.IsLoading)
	for _, s := range states {
		assert.Equal(t, s.User != nil, s.IsAuthenticated)
	}
}
