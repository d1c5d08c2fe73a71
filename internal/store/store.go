package store

import (
	"errors"
)

// Sentinel errors shared by every store implementation.
var (
	// ErrConflict is returned when a uniqueness constraint is violated and no more specific error applies.
	ErrConflict = errors.New("value already in use")

	// ErrInvalidReference is returned when a row references a parent that does not exist.
	ErrInvalidReference = errors.New("referenced record does not exist")

	// ErrConstraint is returned for any other constraint violation (check constraints, not null).
	ErrConstraint = errors.New("constraint violation")
)
