package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested key does not exist in the store.
	ErrNotFound = errors.New("entity not found")

	// ErrInvalidKey is returned when an operation is given an empty key.
	ErrInvalidKey = errors.New("invalid key")

	// ErrUpdateFailed is returned when a write could not be applied.
	ErrUpdateFailed = errors.New("update failed")

	// ErrStateNotFound indicates that no value is stored under the requested key.
	ErrStateNotFound = fmt.Errorf("%w: state", ErrNotFound)
)

// IsNotFoundError checks if the error is any kind of "not found" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// StoreError is a custom error type for store-specific errors with additional context.
type StoreError struct {
	Key       string // The key the operation targeted
	Operation string // The operation that failed (e.g., "get", "set")
	Message   string // Error message
	Err       error  // Original error
}

// Error implements the error interface for StoreError.
func (e *StoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s operation on key %q failed: %s: %v", e.Operation, e.Key, e.Message, e.Err)
	}
	return fmt.Sprintf("%s operation on key %q failed: %s", e.Operation, e.Key, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError with the given key, operation, message, and wrapped error.
func NewStoreError(key, operation, message string, err error) *StoreError {
	return &StoreError{
		Key:       key,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
