package task

import (
	"context"
)

// Task represents a single unit of initialization work.
type Task interface {
	// Label returns a diagnostic name for the task
	Label() string

	// Critical reports whether a failure of this task must abort the sequence
	Critical() bool

	// Execute runs the task logic
	Execute(ctx context.Context) error
}

// Func adapts a plain function into a Task.
type Func struct {
	Name       string
	IsCritical bool
	Fn         func(ctx context.Context) error
}

// NewFunc creates a Task from fn.
func NewFunc(label string, critical bool, fn func(ctx context.Context) error) *Func {
	return &Func{Name: label, IsCritical: critical, Fn: fn}
}

// Label returns the task's diagnostic name
func (f *Func) Label() string {
	return f.Name
}

// Critical reports whether the task is critical
func (f *Func) Critical() bool {
	return f.IsCritical
}

// Execute runs the wrapped function
func (f *Func) Execute(ctx context.Context) error {
	return f.Fn(ctx)
}

// invokable reports whether t can be executed at all.
func invokable(t Task) bool {
	if t == nil {
		return false
	}
	if f, ok := t.(*Func); ok {
		return f != nil && f.Fn != nil
	}
	return true
}
