package binder

import (
	"errors"
	"mime"
	"net/http"
	"strings"
)

// DefaultMaxMemory bounds the memory used while parsing multipart forms.
const DefaultMaxMemory = 1 << 20

// Form binds urlencoded and multipart form values to `form` tagged fields.
// Requests without a body (GET, HEAD) are not applicable.
func Form() func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		if r.Method == http.MethodGet || r.Method == http.MethodHead {
			return ErrBinderNotApplicable
		}

		contentType := r.Header.Get("Content-Type")
		if contentType == "" {
			return ErrMissingContentType
		}
		mediaType, _, err := mime.ParseMediaType(contentType)
		if err != nil {
			return errors.Join(ErrUnsupportedMediaType, err)
		}

		switch {
		case mediaType == "application/x-www-form-urlencoded":
			if err := r.ParseForm(); err != nil {
				return errors.Join(ErrInvalidForm, err)
			}
			return bindToStruct(v, "form", r.PostForm, ErrInvalidForm)

		case strings.HasPrefix(mediaType, "multipart/form-data"):
			if err := r.ParseMultipartForm(DefaultMaxMemory); err != nil {
				return errors.Join(ErrInvalidForm, err)
			}
			values := map[string][]string{}
			if r.MultipartForm != nil {
				values = r.MultipartForm.Value
			}
			return bindToStruct(v, "form", values, ErrInvalidForm)

		default:
			return ErrUnsupportedMediaType
		}
	}
}
