// Package domain defines the core business entities and errors.
package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a sub-task fails validation before any
	// network call. It is never retried.
	ErrValidation = errors.New("validation failed")

	// ErrExecution is returned when an inference call fails on transport or
	// with a non-2xx backend response. The affected sub-task is recorded as
	// failed; inference calls are not retried.
	ErrExecution = errors.New("inference execution failed")

	// ErrParse is returned when a backend reply lacks a well-formed
	// structured fragment or its strict parse fails.
	ErrParse = errors.New("model reply parse failed")

	// ErrDelivery is returned when a callback delivery attempt fails with a
	// transport error or non-2xx response.
	ErrDelivery = errors.New("callback delivery failed")
)
