package visitor

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/dmitrymomot/gymkit/pkg/cookie"
	"github.com/dmitrymomot/gymkit/pkg/guard"
	"github.com/dmitrymomot/gymkit/pkg/logger"
)

// Middleware attaches the visitor's workspace to the request context,
// issuing a visitor cookie to browsers that have none or a forged one.
func (r *Registry) Middleware(cookies *cookie.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			id, err := cookies.GetSigned(req, r.cfg.CookieName)
			if err != nil || uuid.Validate(id) != nil {
				id = newID()
				cookies.SetSigned(w, r.cfg.CookieName, id, cookie.WithMaxAge(int(r.cfg.CookieMaxAge.Seconds())))
			}

			ws, err := r.Get(req.Context(), id)
			if err != nil {
				r.logger.ErrorContext(req.Context(), "workspace unavailable",
					logger.Component("visitor"),
					logger.VisitorID(id),
					logger.Error(err),
				)
				status := errStatus(err)
				http.Error(w, http.StatusText(status), status)
				return
			}

			next.ServeHTTP(w, req.WithContext(WithWorkspace(req.Context(), ws)))
		})
	}
}

// Session returns the session of the workspace attached to req, for the
// route guard.
func Session(req *http.Request) guard.Session {
	ws := FromContext(req.Context())
	if ws == nil {
		return nil
	}
	return ws.Session
}
