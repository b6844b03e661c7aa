package core

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized is returned when a request carries no valid credential.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound is returned when a requested record is not found.
	ErrNotFound = errors.New("not found")
	// ErrProfileLimitReached is returned when a user already owns the maximum number of profiles.
	ErrProfileLimitReached = errors.New("profile limit reached")
	// ErrProfileNotFound is returned when a profile name resolves to no profile.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrEmbeddingUnavailable is returned when the embedding provider fails for non-empty text.
	ErrEmbeddingUnavailable = errors.New("embedding provider unavailable")
	// ErrStoreUnavailable is returned when either persistence layer is unreachable.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrTimeout is returned when an operation exceeds its caller-supplied deadline.
	ErrTimeout = errors.New("operation timed out")
)

// ValidationError represents a validation error with a field name.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// StoreError wraps a low-level persistence failure so callers can classify it
// with errors.Is(err, ErrStoreUnavailable) while the original cause stays in
// the message.
func StoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %v", ErrStoreUnavailable, op, err)
}
