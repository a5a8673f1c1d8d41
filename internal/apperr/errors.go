package apperr

import "errors"

var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrInvalid     = errors.New("invalid")
	ErrPersistence = errors.New("persistence failed")
	ErrNoProfile   = errors.New("no profile")
	ErrUnavailable = errors.New("unavailable")
)
