package querycache

import "errors"

var (
	ErrEmptyKey     = errors.New("querycache: empty key")
	ErrNilLoader    = errors.New("querycache: nil loader")
	ErrLoaderPanic  = errors.New("querycache: loader panicked")
	ErrTypeMismatch = errors.New("querycache: cached value has unexpected type")
)
