package recovery

import (
	"errors"
	"fmt"
)

// ErrNoIdentityFound is returned by Resolve when no source yields an identity.
// It is recoverable: the user is simply not signed in.
var ErrNoIdentityFound = errors.New("no identity found")

// SourceError wraps a failure reported by a single source.
type SourceError struct {
	Source string
	Err    error
}

// Error implements the error interface.
func (e *SourceError) Error() string {
	return fmt.Sprintf("recovery source %s failed: %v", e.Source, e.Err)
}

// Unwrap returns the underlying cause.
func (e *SourceError) Unwrap() error {
	return e.Err
}

// PersistError is returned when a resolved state could not be written.
// The store keeps its previous value.
type PersistError struct {
	Key string
	Err error
}

// Error implements the error interface.
func (e *PersistError) Error() string {
	return fmt.Sprintf("failed to persist user state under %q: %v", e.Key, e.Err)
}

// Unwrap returns the underlying cause.
func (e *PersistError) Unwrap() error {
	return e.Err
}
