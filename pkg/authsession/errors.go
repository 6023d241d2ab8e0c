package authsession

import "errors"

var (
	ErrNilClient     = errors.New("authsession: nil api client")
	ErrNilCache      = errors.New("authsession: nil cache")
	ErrMissingUser   = errors.New("authsession: upstream response did not contain a user")
	ErrManagerClosed = errors.New("authsession: manager is closed")
)
