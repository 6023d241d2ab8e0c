package apiclient

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrEmptyBaseURL   = errors.New("apiclient: empty base url")
	ErrInvalidBaseURL = errors.New("apiclient: invalid base url")
	ErrEncodeRequest  = errors.New("apiclient: failed to encode request body")
	ErrDecodeResponse = errors.New("apiclient: failed to decode response body")
)

const (
	// FallbackMessage is shown when a transport or API error carries no text.
	FallbackMessage = "An error occurred"
	// UnknownMessage is shown for errors that did not come from this package.
	UnknownMessage = "An unknown error occurred"
)

// NetworkError reports a request that never reached a response.
type NetworkError struct {
	Method string
	URL    string
	Err    error
}

func (e *NetworkError) Error() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func (e *NetworkError) Unwrap() error { return e.Err }

// APIError reports a non-2xx upstream response.
type APIError struct {
	Status  int
	Message string // server-provided "message", may be empty
	Body    []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Request failed with status code %d", e.Status)
}

// IsUnauthorized reports whether err is an upstream 401 response.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// ErrorMessage converts any error into one human-readable string.
// It prefers the server-provided message, then the error's own text, then a
// generic fallback. A nil error yields an empty string.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			return apiErr.Message
		}
		if msg := apiErr.Error(); msg != "" {
			return msg
		}
		return FallbackMessage
	}

	var netErr *NetworkError
	if errors.As(err, &netErr) {
		if msg := netErr.Error(); msg != "" {
			return msg
		}
		return FallbackMessage
	}

	if msg := err.Error(); msg != "" {
		return msg
	}
	return UnknownMessage
}
