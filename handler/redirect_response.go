package handler

import (
	"net/http"

	"github.com/starfederation/datastar-go/datastar"
)

type redirectResponse struct {
	url  string
	code int
}

func (r redirectResponse) Render(w http.ResponseWriter, req *http.Request) error {
	return WriteRedirect(w, req, r.url, r.code)
}

// Redirect sends the client to url with 303 See Other.
func Redirect(url string) Response {
	return redirectResponse{url: url, code: http.StatusSeeOther}
}

// WriteRedirect redirects outside a HandlerFunc, e.g. from middleware.
// DataStar requests get a script redirect over SSE.
func WriteRedirect(w http.ResponseWriter, r *http.Request, url string, code int) error {
	if IsDataStar(r) {
		return datastar.NewSSE(w, r).Redirect(url)
	}
	http.Redirect(w, r, url, code)
	return nil
}
