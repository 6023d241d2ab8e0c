package programs_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/gymkit/modules/programs"
	"github.com/dmitrymomot/gymkit/pkg/apiclient"
	"github.com/dmitrymomot/gymkit/pkg/authsession"
	"github.com/dmitrymomot/gymkit/pkg/guard"
	programsvc "github.com/dmitrymomot/gymkit/pkg/programs"
	"github.com/dmitrymomot/gymkit/pkg/querycache"
)

type upstream struct {
	mu       sync.Mutex
	programs []programsvc.Program
	release  chan struct{}
	listFail bool
}

func newService(t *testing.T, u *upstream) *programsvc.Service {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /programs", func(w http.ResponseWriter, r *http.Request) {
		u.mu.Lock()
		fail, list := u.listFail, append([]programsvc.Program(nil), u.programs...)
		u.mu.Unlock()
		if fail {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(list)
	})
	mux.HandleFunc("POST /programs", func(w http.ResponseWriter, r *http.Request) {
		var in programsvc.CreateRequest
		_ = json.NewDecoder(r.Body).Decode(&in)
		p := programsvc.Program{ID: "p1", Name: in.Name, Description: in.Description, CreatedAt: time.Now()}
		u.mu.Lock()
		u.programs = append(u.programs, p)
		u.mu.Unlock()
		_ = json.NewEncoder(w).Encode(p)
	})
	mux.HandleFunc("POST /programs/generate", func(w http.ResponseWriter, r *http.Request) {
		if u.release != nil {
			<-u.release
		}
		p := programsvc.Program{ID: "g1", Name: "Generated"}
		u.mu.Lock()
		u.programs = append(u.programs, p)
		u.mu.Unlock()
		_ = json.NewEncoder(w).Encode(p)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	api, err := apiclient.New(srv.URL)
	require.NoError(t, err)
	svc, err := programsvc.New(api, querycache.New(), programsvc.WithRetry(0, time.Millisecond))
	require.NoError(t, err)
	t.Cleanup(svc.Close)
	return svc
}

var user = &authsession.User{ID: "1", Email: "a@x.com"}

func newRouter(svc programs.Programs) http.Handler {
	r := chi.NewRouter()
	signedIn := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			state := authsession.State{User: user, IsAuthenticated: true}
			next.ServeHTTP(w, req.WithContext(guard.WithState(req.Context(), state)))
		})
	}
	programs.New(func(*http.Request) programs.Programs { return svc }, programs.WithAuthGuard(signedIn)).Routes(r)
	return r
}

func get(h http.Handler, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func post(h http.Handler, target string, values url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHome(t *testing.T) {
	t.Parallel()

	u := &upstream{programs: []programsvc.Program{{ID: "p0", Name: "Push"}}}
	w := get(newRouter(newService(t, u)), "/")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Welcome a@x.com")
	assert.Contains(t, w.Body.String(), "1 program")
}

func TestList(t *testing.T) {
	t.Parallel()

	t.Run("empty", func(t *testing.T) {
		t.Parallel()
		w := get(newRouter(newService(t, &upstream{})), "/programs")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "No programs yet")
	})

	t.Run("error", func(t *testing.T) {
		t.Parallel()
		w := get(newRouter(newService(t, &upstream{listFail: true})), "/programs")
		assert.Contains(t, w.Body.String(), "Failed to load programs. Please try again.")
	})

	t.Run("modal", func(t *testing.T) {
		t.Parallel()
		h := newRouter(newService(t, &upstream{}))
		assert.Contains(t, get(h, "/programs?modal=create").Body.String(), "Create New Program")
		assert.Contains(t, get(h, "/programs?modal=generate").Body.String(), "Generate Program</h2>")
		assert.NotContains(t, get(h, "/programs?modal=bogus").Body.String(), `id="modal"`)
	})

	t.Run("unavailable without a workspace", func(t *testing.T) {
		t.Parallel()
		w := get(newRouter(nil), "/programs")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}

func TestCreate(t *testing.T) {
	t.Parallel()

	t.Run("success closes the modal and refreshes the list", func(t *testing.T) {
		t.Parallel()
		h := newRouter(newService(t, &upstream{}))
		assert.Contains(t, get(h, "/programs").Body.String(), "No programs yet")

		w := post(h, "/programs", url.Values{"name": {"Leg Day"}, "description": {"Squats"}})
		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/programs", w.Header().Get("Location"))

		body := get(h, "/programs").Body.String()
		assert.Equal(t, 1, strings.Count(body, "<h3>Leg Day</h3>"))
	})

	t.Run("missing name keeps the modal open", func(t *testing.T) {
		t.Parallel()
		h := newRouter(newService(t, &upstream{}))

		w := post(h, "/programs", url.Values{"description": {"kept"}})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, w.Body.String(), "Name is required")
		assert.Contains(t, w.Body.String(), ">kept</textarea>")
	})
}

func TestGenerate(t *testing.T) {
	t.Parallel()

	t.Run("runs in the background", func(t *testing.T) {
		t.Parallel()
		u := &upstream{release: make(chan struct{})}
		svc := newService(t, u)
		h := newRouter(svc)

		w := post(h, "/programs/generate", url.Values{"days_per_week": {"4"}, "goal": {"weight_loss"}, "session_minutes": {"45"}})
		assert.Equal(t, http.StatusSeeOther, w.Code)

		body := get(h, "/programs").Body.String()
		assert.Contains(t, body, "Generating Your Program...")
		assert.Contains(t, body, "Generating...</button>")

		// A second submission while generating is ignored.
		w = post(h, "/programs/generate", url.Values{"days_per_week": {"4"}, "goal": {"weight_loss"}, "session_minutes": {"45"}})
		assert.Equal(t, http.StatusSeeOther, w.Code)

		close(u.release)
		assert.Eventually(t, func() bool { return !svc.IsGenerating() }, time.Second, 5*time.Millisecond)
		assert.Contains(t, get(h, "/programs").Body.String(), "Generated")
	})

	t.Run("invalid options re-render the modal", func(t *testing.T) {
		t.Parallel()
		h := newRouter(newService(t, &upstream{}))

		w := post(h, "/programs/generate", url.Values{"days_per_week": {"9"}, "goal": {"bulk"}, "session_minutes": {"50"}})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		body := w.Body.String()
		assert.Contains(t, body, "Days per week must be between 1 and 7")
		assert.Contains(t, body, "Choose a fitness goal")
		assert.Contains(t, body, "Choose a session duration")
	})
}
