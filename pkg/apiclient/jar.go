package apiclient

import (
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"

	"golang.org/x/net/publicsuffix"
)

// resetJar is a cookie jar that can be emptied in one step, whatever the
// Domain and Path attributes of the cookies it holds.
type resetJar struct {
	mu  sync.RWMutex
	jar *cookiejar.Jar
}

func newResetJar() (*resetJar, error) {
	jar, err := newCookieJar()
	if err != nil {
		return nil, err
	}
	return &resetJar{jar: jar}, nil
}

func newCookieJar() (*cookiejar.Jar, error) {
	return cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
}

func (j *resetJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	j.jar.SetCookies(u, cookies)
}

func (j *resetJar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.jar.Cookies(u)
}

// reset swaps in an empty jar.
func (j *resetJar) reset() error {
	jar, err := newCookieJar()
	if err != nil {
		return err
	}
	j.mu.Lock()
	j.jar = jar
	j.mu.Unlock()
	return nil
}
