// Package apperr defines the stable error kinds surfaced to callers.
// Handlers match kinds with errors.Is and never expose storage detail.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput marks requests rejected before any persistence.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound marks lookups of unknown scans or users.
	ErrNotFound = errors.New("not found")
	// ErrConflict marks an aggregate-update race that survived retries.
	ErrConflict = errors.New("transaction conflict")
	// ErrUnavailable marks storage failures; no partial writes remain.
	ErrUnavailable = errors.New("storage unavailable")
)

// InvalidInput wraps ErrInvalidInput with a caller-readable reason.
func InvalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// NotFound wraps ErrNotFound with the missing entity.
func NotFound(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// Unavailable wraps a storage error without leaking its message to the
// API layer; the cause stays reachable for logging via errors.Unwrap.
func Unavailable(err error) error {
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}
