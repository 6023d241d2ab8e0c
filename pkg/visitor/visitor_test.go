package visitor_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/gymkit/pkg/apiclient"
	"github.com/dmitrymomot/gymkit/pkg/authsession"
	"github.com/dmitrymomot/gymkit/pkg/cookie"
	"github.com/dmitrymomot/gymkit/pkg/visitor"
)

const secret = "0123456789abcdef0123456789abcdef"

// upstream accepts a@x.com / pw and tracks the session with a "sid" cookie.
type upstream struct {
	srv *httptest.Server
	me  atomic.Int32
}

func newUpstream(t *testing.T) *upstream {
	t.Helper()
	u := &upstream{}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /auth/me", func(w http.ResponseWriter, r *http.Request) {
		u.me.Add(1)
		if ck, err := r.Cookie("sid"); err != nil || ck.Value != "s1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "1", "email": "a@x.com"})
	})
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "sid", Value: "s1", Path: "/"})
		_ = json.NewEncoder(w).Encode(map[string]any{"user": map[string]string{"id": "1", "email": "a@x.com"}})
	})
	mux.HandleFunc("POST /auth/logout", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "sid", Value: "", Path: "/", MaxAge: -1})
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("GET /programs", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})
	u.srv = httptest.NewServer(mux)
	t.Cleanup(u.srv.Close)
	return u
}

func newRegistry(t *testing.T, u *upstream, store visitor.Store, capacity int) *visitor.Registry {
	t.Helper()
	cfg := visitor.DefaultConfig()
	cfg.Capacity = capacity
	r, err := visitor.NewRegistry(cfg, apiclient.Config{BaseURL: u.srv.URL}, store)
	require.NoError(t, err)
	t.Cleanup(r.Close)
	return r
}

func TestNewRegistry(t *testing.T) {
	t.Parallel()

	_, err := visitor.NewRegistry(visitor.DefaultConfig(), apiclient.Config{BaseURL: "http://x"}, nil)
	assert.ErrorIs(t, err, visitor.ErrNilStore)

	_, err = visitor.NewRegistry(visitor.DefaultConfig(), apiclient.Config{}, visitor.NewMemoryStore())
	assert.ErrorIs(t, err, apiclient.ErrEmptyBaseURL)
}

func TestRegistry_Get(t *testing.T) {
	t.Parallel()

	t.Run("rejects malformed ids", func(t *testing.T) {
		t.Parallel()
		r := newRegistry(t, newUpstream(t), visitor.NewMemoryStore(), 4)
		_, err := r.Get(context.Background(), "../etc")
		assert.ErrorIs(t, err, visitor.ErrInvalidID)
	})

	t.Run("same id shares one workspace", func(t *testing.T) {
		t.Parallel()
		r := newRegistry(t, newUpstream(t), visitor.NewMemoryStore(), 4)
		id := uuid.NewString()

		var wg sync.WaitGroup
		got := make([]*visitor.Workspace, 8)
		for i := range got {
			wg.Add(1)
			go func() {
				defer wg.Done()
				ws, err := r.Get(context.Background(), id)
				assert.NoError(t, err)
				got[i] = ws
			}()
		}
		wg.Wait()

		for _, ws := range got {
			assert.Same(t, got[0], ws)
		}
		assert.Equal(t, 1, r.Len())
	})

	t.Run("visitors are isolated", func(t *testing.T) {
		t.Parallel()
		r := newRegistry(t, newUpstream(t), visitor.NewMemoryStore(), 4)
		a, err := r.Get(context.Background(), uuid.NewString())
		require.NoError(t, err)
		b, err := r.Get(context.Background(), uuid.NewString())
		require.NoError(t, err)

		require.NoError(t, a.Session.Login(context.Background(), "a@x.com", "pw"))
		assert.True(t, a.Session.State().IsAuthenticated)
		assert.Nil(t, b.Session.ResolveSession(context.Background()))
	})

	t.Run("closed registry refuses new visitors", func(t *testing.T) {
		t.Parallel()
		r := newRegistry(t, newUpstream(t), visitor.NewMemoryStore(), 4)
		r.Close()
		_, err := r.Get(context.Background(), uuid.NewString())
		assert.ErrorIs(t, err, visitor.ErrRegistryClosed)
	})
}

func TestRegistry_Credentials(t *testing.T) {
	t.Parallel()

	u := newUpstream(t)
	store := visitor.NewMemoryStore()
	r := newRegistry(t, u, store, 1)
	id := uuid.NewString()

	ws, err := r.Get(context.Background(), id)
	require.NoError(t, err)
	require.NoError(t, ws.Session.Login(context.Background(), "a@x.com", "pw"))

	saved, err := store.Load(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, "sid", saved[0].Name)

	// Another visitor evicts the first one from a registry of capacity 1.
	_, err = r.Get(context.Background(), uuid.NewString())
	require.NoError(t, err)
	assert.Equal(t, 1, r.Len())

	restored, err := r.Get(context.Background(), id)
	require.NoError(t, err)
	assert.NotSame(t, ws, restored)
	user := restored.Session.ResolveSession(context.Background())
	require.NotNil(t, user)
	assert.Equal(t, "a@x.com", user.Email)

	require.NoError(t, restored.Session.Logout(context.Background()))
	saved, err = store.Load(context.Background(), id)
	require.NoError(t, err)
	assert.Empty(t, saved)
	assert.Empty(t, restored.API.Cookies())
}

func TestMemoryStore_TTL(t *testing.T) {
	t.Parallel()

	s := visitor.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, "a", []*http.Cookie{{Name: "sid", Value: "1"}}, time.Millisecond))
	require.NoError(t, s.Save(ctx, "b", []*http.Cookie{{Name: "sid", Value: "2"}}, 0))

	assert.Eventually(t, func() bool {
		got, _ := s.Load(ctx, "a")
		return len(got) == 0
	}, time.Second, 5*time.Millisecond)

	got, err := s.Load(ctx, "b")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "2", got[0].Value)

	require.NoError(t, s.Delete(ctx, "b"))
	got, err = s.Load(ctx, "b")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMemoryStore_Sweep(t *testing.T) {
	t.Parallel()

	s := visitor.NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.Save(ctx, "gone", []*http.Cookie{{Name: "sid", Value: "1"}}, time.Millisecond))
	require.NoError(t, s.Save(ctx, "kept", []*http.Cookie{{Name: "sid", Value: "2"}}, time.Hour))

	done := make(chan error, 1)
	go func() { done <- s.Sweep(ctx, 5*time.Millisecond) }()

	// Expired entries go away without anyone loading them.
	assert.Eventually(t, func() bool { return s.Len() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	got, err := s.Load(context.Background(), "kept")
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Zero(t, s.Prune())
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	r := newRegistry(t, newUpstream(t), visitor.NewMemoryStore(), 4)
	cookies, err := cookie.New([]string{secret})
	require.NoError(t, err)

	var seen []*visitor.Workspace
	h := r.Middleware(cookies)(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		ws := visitor.FromContext(req.Context())
		require.NotNil(t, ws)
		assert.Same(t, ws.Session, visitor.Session(req).(*authsession.Manager))
		seen = append(seen, ws)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	issued := rec.Result().Cookies()
	require.Len(t, issued, 1)
	assert.Equal(t, "gymkit_visitor", issued[0].Name)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(issued[0])
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Result().Cookies())

	forged := httptest.NewRequest(http.MethodGet, "/", nil)
	forged.AddCookie(&http.Cookie{Name: "gymkit_visitor", Value: uuid.NewString()})
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, forged)
	assert.Len(t, rec.Result().Cookies(), 1)

	require.Len(t, seen, 3)
	assert.Same(t, seen[0], seen[1])
	assert.NotSame(t, seen[0], seen[2])
}

func TestSession_NoWorkspace(t *testing.T) {
	t.Parallel()
	assert.Nil(t, visitor.Session(httptest.NewRequest(http.MethodGet, "/", nil)))
}
