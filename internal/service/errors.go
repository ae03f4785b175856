package service

import "errors"

// ErrPersistenceDisabled is returned by operations that need the database when none is configured.
var ErrPersistenceDisabled = errors.New("lead persistence is not configured")

// ValidationError indicates that caller input is invalid.
type ValidationError struct {
	Message string
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return e.Message
}
