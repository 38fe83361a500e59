package store

import "errors"

// Common store errors used across all store implementations.
var (
	// ErrJobNotFound is returned when a requested job does not exist in
	// the store.
	ErrJobNotFound = errors.New("job not found")

	// ErrInvalidEntity is returned when a job fails validation before
	// being stored. Check the wrapped error for specific validation details.
	ErrInvalidEntity = errors.New("invalid entity")
)
