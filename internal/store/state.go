package store

import "context"

// StateStore is the durable key-value store the bootstrap uses to persist the
// converged user state and to read cached credentials back on later runs.
// Keys are opaque strings chosen by the integrator.
type StateStore interface {
	// Get returns the value stored under key.
	// Returns ErrStateNotFound (wrapping ErrNotFound) if nothing is stored.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key, replacing any previous value atomically.
	Set(ctx context.Context, key, value string) error

	// Remove deletes the value under key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error
}

// ValidateKey returns ErrInvalidKey for empty keys.
func ValidateKey(key string) error {
	if key == "" {
		return ErrInvalidKey
	}
	return nil
}
