package domain

import "errors"

// Domain errors shared across entities. Entity-specific errors live next to
// the entity they belong to.
var (
	ErrNotFound      = errors.New("resource not found")
	ErrInvalidInput  = errors.New("invalid input")
	ErrInternalError = errors.New("internal error")
)
