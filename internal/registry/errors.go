package registry

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyLoading is returned by BeginLoad when another load of the same
	// symbol is in flight. A Guard never returns it for its own concurrent
	// callers; it only surfaces when independent guards share one Registry.
	ErrAlreadyLoading = errors.New("symbol is already loading")

	// ErrInvalidSymbol is returned for an empty symbol name.
	ErrInvalidSymbol = errors.New("invalid symbol name")
)

// ModuleLoadError reports a failed module load.
type ModuleLoadError struct {
	Symbol string
	URL    string
	Err    error
}

// Error implements the error interface.
func (e *ModuleLoadError) Error() string {
	return fmt.Sprintf("failed to load module %s from %s: %v", e.Symbol, e.URL, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ModuleLoadError) Unwrap() error {
	return e.Err
}

// PanicError wraps a value recovered from a panicking injector.
type PanicError struct {
	Value any
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("injector panicked: %v", e.Value)
}
