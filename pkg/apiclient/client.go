package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/dmitrymomot/gymkit/pkg/requestid"
)

const maxBodySize = 4 << 20

// Client issues JSON requests against a fixed base URL.
// It is safe for concurrent use.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	jar       *resetJar
	transport http.RoundTripper
	timeout   time.Duration
	token     string
	seed      []*http.Cookie
	userAgent string
	logger    *slog.Logger
}

// New creates a Client for baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, ErrEmptyBaseURL
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.Join(ErrInvalidBaseURL, err)
	}

	jar, err := newResetJar()
	if err != nil {
		return nil, err
	}

	c := &Client{
		baseURL:   u,
		jar:       jar,
		transport: http.DefaultTransport,
		timeout:   30 * time.Second,
		userAgent: "gymkit",
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}

	rt := c.transport
	if c.token != "" {
		rt = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: c.token, TokenType: "Bearer"}),
			Base:   rt,
		}
	}
	c.http = &http.Client{
		Transport: rt,
		Jar:       jar,
		Timeout:   c.timeout,
	}

	if len(c.seed) > 0 {
		jar.SetCookies(u, c.seed)
		c.seed = nil
	}

	return c, nil
}

// BaseURL returns the upstream base URL.
func (c *Client) BaseURL() string { return c.baseURL.String() }

// Cookies returns the upstream cookies currently held for the base URL.
func (c *Client) Cookies() []*http.Cookie {
	return c.jar.Cookies(c.baseURL)
}

// SetCookies adds cookies to the jar for the base URL.
func (c *Client) SetCookies(cookies []*http.Cookie) {
	if len(cookies) > 0 {
		c.jar.SetCookies(c.baseURL, cookies)
	}
}

// ClearCookies drops every upstream cookie, including those scoped to a
// parent domain or a sub-path of the base URL.
func (c *Client) ClearCookies() {
	if err := c.jar.reset(); err != nil {
		c.logger.Error("apiclient: failed to reset cookie jar", slog.Any("error", err))
	}
}

// Get issues a GET request and decodes the response into T.
func Get[T any](ctx context.Context, c *Client, path string) (T, error) {
	var out T
	err := c.Do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

// Post issues a POST request with an optional JSON body and decodes the
// response into T. A nil body sends no payload.
func Post[T any](ctx context.Context, c *Client, path string, body any) (T, error) {
	var out T
	err := c.Do(ctx, http.MethodPost, path, body, &out)
	return out, err
}

// Do performs a request. out may be nil to discard the response body.
// Empty 2xx bodies leave out untouched.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	endpoint := c.resolve(path)

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return errors.Join(ErrEncodeRequest, err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return &NetworkError{Method: method, URL: endpoint, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if id := requestid.FromContext(ctx); id != "" {
		req.Header.Set(requestid.Header, id)
	}

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.DebugContext(ctx, "upstream request failed",
			slog.String("method", method),
			slog.String("url", endpoint),
			slog.Any("error", err),
		)
		return &NetworkError{Method: method, URL: endpoint, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return &NetworkError{Method: method, URL: endpoint, Err: err}
	}

	c.logger.DebugContext(ctx, "upstream request",
		slog.String("method", method),
		slog.String("url", endpoint),
		slog.Int("status", resp.StatusCode),
		slog.Duration("took", time.Since(started)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{
			Status:  resp.StatusCode,
			Message: extractMessage(payload),
			Body:    payload,
		}
	}

	if out == nil || len(bytes.TrimSpace(payload)) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return errors.Join(ErrDecodeResponse, err)
	}
	return nil
}

func (c *Client) resolve(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL.String() + path
}

// extractMessage reads the "message" field of an error body. Validation
// errors from the upstream may carry a list of messages; they are joined.
func extractMessage(payload []byte) string {
	var body struct {
		Message json.RawMessage `json:"message"`
	}
	if err := json.Unmarshal(payload, &body); err != nil || len(body.Message) == 0 {
		return ""
	}

	var single string
	if err := json.Unmarshal(body.Message, &single); err == nil {
		return strings.TrimSpace(single)
	}

	var list []string
	if err := json.Unmarshal(body.Message, &list); err == nil {
		return strings.Join(list, ", ")
	}
	return ""
}
