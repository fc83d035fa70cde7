package errs

import (
	"errors"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrValidation      = errors.New("validation failed")
	ErrDuplicate       = errors.New("already exists")
	ErrUnauthorized    = errors.New("invalid credentials")
	ErrForbidden       = errors.New("forbidden")
	ErrStorageDisabled = errors.New("cover storage is not configured")
)
