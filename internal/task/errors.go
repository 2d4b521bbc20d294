package task

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTask is returned by Add when the argument cannot be executed.
	ErrInvalidTask = errors.New("task is not invokable")

	// ErrAlreadyRunning is returned when a run is already in progress.
	// Callers should wait for the in-flight run instead of starting another.
	ErrAlreadyRunning = errors.New("sequence is already running")
)

// TaskError records the failure of a single task within a run.
type TaskError struct {
	Index    int    `json:"index"`
	Label    string `json:"label"`
	Critical bool   `json:"critical"`
	Err      error  `json:"-"`
}

// Error implements the error interface.
func (e TaskError) Error() string {
	return fmt.Sprintf("task %d (%s) failed: %v", e.Index, e.Label, e.Err)
}

// Unwrap returns the task's error.
func (e TaskError) Unwrap() error {
	return e.Err
}

// CriticalTaskError is returned by Run when a critical task fails and the
// remaining tasks were skipped.
type CriticalTaskError struct {
	TaskError
}

// Error implements the error interface.
func (e *CriticalTaskError) Error() string {
	return fmt.Sprintf("critical task %d (%s) failed: %v", e.Index, e.Label, e.Err)
}

// Unwrap returns the task's error.
func (e *CriticalTaskError) Unwrap() error {
	return e.Err
}

// PanicError wraps a value recovered from a panicking task.
type PanicError struct {
	Value any
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("task panicked: %v", e.Value)
}
