package task

import (
	"context"
	"sync/atomic"
)

// MockTask is a simple implementation of the Task interface for testing
type MockTask struct {
	LabelName  string
	IsCritical bool
	ExecuteFn  func(ctx context.Context) error

	calls atomic.Int32
}

// NewMockTask creates a MockTask that succeeds unless ExecuteFn is replaced
func NewMockTask(label string, critical bool) *MockTask {
	return &MockTask{
		LabelName:  label,
		IsCritical: critical,
		ExecuteFn:  func(ctx context.Context) error { return nil },
	}
}

// NewFailingMockTask creates a MockTask that always returns err
func NewFailingMockTask(label string, critical bool, err error) *MockTask {
	t := NewMockTask(label, critical)
	t.ExecuteFn = func(ctx context.Context) error { return err }
	return t
}

// Label returns the task's diagnostic name
func (t *MockTask) Label() string {
	return t.LabelName
}

// Critical reports whether the task is critical
func (t *MockTask) Critical() bool {
	return t.IsCritical
}

// Execute runs the task logic
func (t *MockTask) Execute(ctx context.Context) error {
	t.calls.Add(1)
	return t.ExecuteFn(ctx)
}

// Calls returns how many times Execute has been invoked
func (t *MockTask) Calls() int {
	return int(t.calls.Load())
}
