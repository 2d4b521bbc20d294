package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/phrazzld/scry-bootstrap/internal/task"

// SequencerConfig holds configuration for the sequencer
type SequencerConfig struct {
	// TaskTimeout bounds each task's execution. Zero means tasks are only
	// bounded by their own collaborators and the caller's context.
	TaskTimeout time.Duration
}

// DefaultSequencerConfig returns a SequencerConfig with reasonable defaults
func DefaultSequencerConfig() SequencerConfig {
	return SequencerConfig{
		TaskTimeout: 30 * time.Second,
	}
}

// Sequencer executes tasks strictly in insertion order, one at a time.
type Sequencer struct {
	mu        sync.Mutex
	tasks     []Task
	running   bool
	completed bool
	errs      []TaskError

	config SequencerConfig
	logger *slog.Logger
	tracer trace.Tracer
}

// NewSequencer creates an empty Sequencer
func NewSequencer(config SequencerConfig, logger *slog.Logger) *Sequencer {
	return &Sequencer{
		config: config,
		logger: logger.With("component", "task_sequencer"),
		tracer: otel.Tracer(tracerName),
	}
}

// Add appends a task to the sequence.
// Returns ErrInvalidTask if the task cannot be invoked, and ErrAlreadyRunning
// if a run is in progress.
func (s *Sequencer) Add(t Task) error {
	if !invokable(t) {
		return ErrInvalidTask
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrAlreadyRunning
	}
	s.tasks = append(s.tasks, t)
	return nil
}

// Run executes every task in order. A failing recoverable task is recorded and
// the sequence continues; a failing critical task stops the sequence and Run
// returns a *CriticalTaskError. If ctx is done before a task starts, the
// sequence stops and the context error is returned.
func (s *Sequencer) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrAlreadyRunning
	}
	s.running = true
	s.completed = false
	s.errs = nil
	tasks := make([]Task, len(s.tasks))
	copy(tasks, s.tasks)
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	s.logger.Debug("starting sequence", "total_tasks", len(tasks))

	for i, t := range tasks {
		if err := ctx.Err(); err != nil {
			s.logger.Warn("sequence interrupted", "next_index", i, "error", err)
			return fmt.Errorf("sequence interrupted before task %d: %w", i, err)
		}

		err := s.execute(ctx, i, t)
		if err == nil {
			continue
		}

		taskErr := TaskError{Index: i, Label: t.Label(), Critical: t.Critical(), Err: err}
		s.mu.Lock()
		s.errs = append(s.errs, taskErr)
		s.mu.Unlock()

		if t.Critical() {
			s.logger.Error("critical task failed, aborting sequence",
				"index", i,
				"label", t.Label(),
				"skipped", len(tasks)-i-1,
				"error", err)
			return &CriticalTaskError{TaskError: taskErr}
		}

		s.logger.Warn("task failed, continuing", "index", i, "label", t.Label(), "error", err)
	}

	s.mu.Lock()
	s.completed = true
	errorCount := len(s.errs)
	s.mu.Unlock()

	s.logger.Info("sequence completed", "total_tasks", len(tasks), "error_count", errorCount)
	return nil
}

// execute runs one task inside a span, under the configured timeout, turning
// panics into errors.
func (s *Sequencer) execute(ctx context.Context, index int, t Task) (err error) {
	ctx, span := s.tracer.Start(ctx, "task "+t.Label(), trace.WithAttributes(
		attribute.Int("task.index", index),
		attribute.String("task.label", t.Label()),
		attribute.Bool("task.critical", t.Critical()),
	))
	defer span.End()

	if s.config.TaskTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.TaskTimeout)
		defer cancel()
	}

	started := time.Now()
	defer func() {
		if p := recover(); p != nil {
			err = &PanicError{Value: p}
		}
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) && ctx.Err() != nil {
				err = fmt.Errorf("task timed out after %s: %w", s.config.TaskTimeout, err)
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		s.logger.Debug("task finished",
			"index", index,
			"label", t.Label(),
			"duration_ms", time.Since(started).Milliseconds(),
			"failed", err != nil)
	}()

	return t.Execute(ctx)
}

// Status returns a snapshot of the sequence. It is safe to call mid-run.
func (s *Sequencer) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	errs := make([]TaskError, len(s.errs))
	copy(errs, s.errs)

	return Status{
		Running:    s.running,
		Completed:  s.completed,
		TotalTasks: len(s.tasks),
		ErrorCount: len(errs),
		Succeeded:  s.completed && len(errs) == 0,
		Errors:     errs,
	}
}

// Clear removes all tasks and results. It fails with ErrAlreadyRunning while a
// run is in progress.
func (s *Sequencer) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrAlreadyRunning
	}
	s.tasks = nil
	s.errs = nil
	s.completed = false
	return nil
}
