package visitor

import "errors"

var (
	ErrNilStore       = errors.New("visitor: credential store is required")
	ErrInvalidID      = errors.New("visitor: invalid visitor id")
	ErrRegistryClosed = errors.New("visitor: registry is closed")
	ErrUnknownStore   = errors.New("visitor: unknown credential store driver")
)
