package programs

import "errors"

var (
	ErrNilClient         = errors.New("programs: api client is required")
	ErrNilCache          = errors.New("programs: cache is required")
	ErrAlreadyGenerating = errors.New("programs: a program is already being generated")
	ErrServiceClosed     = errors.New("programs: service is closed")
)
