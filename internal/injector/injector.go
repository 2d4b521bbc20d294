// Package injector fetches external module scripts and executes them so they
// can define their symbols in a registry.
//
// Callers must bound every injection with a timeout: an injector that never
// returns stalls the whole bootstrap sequence.
package injector

import (
	"context"
	"fmt"
)

// Definer receives symbol definitions made by executing code.
type Definer interface {
	// Define records definition under name. It returns false when the
	// definition was ignored because the symbol is already defined.
	Define(name, definition string) bool
}

// Injector fetches and executes the code at url.
type Injector interface {
	Inject(ctx context.Context, url string, def Definer) error
}

// InjectorFunc adapts a function into an Injector.
type InjectorFunc func(ctx context.Context, url string, def Definer) error

// Inject calls f.
func (f InjectorFunc) Inject(ctx context.Context, url string, def Definer) error {
	return f(ctx, url, def)
}

// NetworkError is returned for any load failure: transport, HTTP status,
// script parse or runtime errors, and timeouts.
type NetworkError struct {
	URL string
	Err error
}

// Error implements the error interface.
func (e *NetworkError) Error() string {
	return fmt.Sprintf("failed to load %s: %v", e.URL, e.Err)
}

// Unwrap returns the underlying cause.
func (e *NetworkError) Unwrap() error {
	return e.Err
}
