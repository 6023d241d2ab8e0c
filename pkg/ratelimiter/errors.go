package ratelimiter

import "errors"

var (
	ErrInvalidConfig = errors.New("ratelimiter: invalid config")
	ErrNilStore      = errors.New("ratelimiter: store is nil")
	ErrStoreFailed   = errors.New("ratelimiter: store failed")
)
