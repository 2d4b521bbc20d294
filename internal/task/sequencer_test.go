package task

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

func newTestSequencer() *Sequencer {
	return NewSequencer(DefaultSequencerConfig(), testLogger())
}

func TestSequencer_Add(t *testing.T) {
	t.Parallel()

	t.Run("rejects nil task", func(t *testing.T) {
		t.Parallel()
		s := newTestSequencer()
		assert.ErrorIs(t, s.Add(nil), ErrInvalidTask)
	})

	t.Run("rejects func without body", func(t *testing.T) {
		t.Parallel()
		s := newTestSequencer()
		assert.ErrorIs(t, s.Add(NewFunc("empty", false, nil)), ErrInvalidTask)

		var nilFunc *Func
		assert.ErrorIs(t, s.Add(nilFunc), ErrInvalidTask)
	})

	t.Run("accepts tasks", func(t *testing.T) {
		t.Parallel()
		s := newTestSequencer()
		require.NoError(t, s.Add(NewMockTask("a", false)))
		require.NoError(t, s.Add(NewFunc("b", true, func(ctx context.Context) error { return nil })))
		assert.Equal(t, 2, s.Status().TotalTasks)
	})
}

func TestSequencer_RunsInInsertionOrder(t *testing.T) {
	t.Parallel()

	s := newTestSequencer()
	var (
		mu    sync.Mutex
		order []string
	)
	for _, label := range []string{"first", "second", "third"} {
		label := label
		require.NoError(t, s.Add(NewFunc(label, false, func(ctx context.Context) error {
			mu.Lock()
			order = append(order, label)
			mu.Unlock()
			return nil
		})))
	}

	require.NoError(t, s.Run(context.Background()))

	assert.Equal(t, []string{"first", "second", "third"}, order)
	status := s.Status()
	assert.True(t, status.Completed)
	assert.True(t, status.Succeeded)
	assert.False(t, status.Running)
	assert.Equal(t, 0, status.ErrorCount)
}

func TestSequencer_NeverRunsTasksConcurrently(t *testing.T) {
	t.Parallel()

	s := newTestSequencer()
	var active, maxActive int32
	var mu sync.Mutex
	for i := 0; i < 5; i++ {
		require.NoError(t, s.Add(NewFunc("slow", false, func(ctx context.Context) error {
			mu.Lock()
			active++
			if active > maxActive {
				maxActive = active
			}
			mu.Unlock()

			time.Sleep(5 * time.Millisecond)

			mu.Lock()
			active--
			mu.Unlock()
			return nil
		})))
	}

	require.NoError(t, s.Run(context.Background()))
	assert.Equal(t, int32(1), maxActive)
}

// For every position k, a non-critical failure is recorded and the rest still run.
func TestSequencer_NonCriticalFailureContinues(t *testing.T) {
	t.Parallel()

	const n = 5
	for k := 0; k < n; k++ {
		s := newTestSequencer()
		tasks := make([]*MockTask, n)
		for i := 0; i < n; i++ {
			if i == k {
				tasks[i] = NewFailingMockTask("failing", false, errors.New("module missing"))
			} else {
				tasks[i] = NewMockTask("ok", false)
			}
			require.NoError(t, s.Add(tasks[i]))
		}

		require.NoError(t, s.Run(context.Background()), "k=%d", k)

		status := s.Status()
		assert.True(t, status.Completed, "k=%d", k)
		assert.False(t, status.Succeeded, "k=%d", k)
		assert.Equal(t, 1, status.ErrorCount, "k=%d", k)
		assert.Equal(t, k, status.Errors[0].Index)
		for i, task := range tasks {
			assert.Equal(t, 1, task.Calls(), "task %d should run exactly once (k=%d)", i, k)
		}
	}
}

func TestSequencer_CriticalFailureAborts(t *testing.T) {
	t.Parallel()

	cause := errors.New("session backend down")
	s := newTestSequencer()
	before := NewMockTask("before", false)
	critical := NewFailingMockTask("critical", true, cause)
	after := NewMockTask("after", false)
	require.NoError(t, s.Add(before))
	require.NoError(t, s.Add(critical))
	require.NoError(t, s.Add(after))

	err := s.Run(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	var critErr *CriticalTaskError
	require.ErrorAs(t, err, &critErr)
	assert.Equal(t, 1, critErr.Index)
	assert.Equal(t, "critical", critErr.Label)

	assert.Equal(t, 1, before.Calls())
	assert.Equal(t, 1, critical.Calls())
	assert.Equal(t, 0, after.Calls(), "no task after a failing critical task may run")

	status := s.Status()
	assert.False(t, status.Completed)
	assert.False(t, status.Succeeded)
	assert.Equal(t, 1, status.ErrorCount)
	assert.True(t, status.Errors[0].Critical)
}

func TestSequencer_AlreadyRunning(t *testing.T) {
	t.Parallel()

	s := newTestSequencer()
	started := make(chan struct{})
	release := make(chan struct{})
	require.NoError(t, s.Add(NewFunc("blocking", false, func(ctx context.Context) error {
		close(started)
		<-release
		return nil
	})))

	done := make(chan error, 1)
	go func() { done <- s.Run(context.Background()) }()
	<-started

	status := s.Status()
	assert.True(t, status.Running, "status must be observable mid-run")
	assert.False(t, status.Completed)

	assert.ErrorIs(t, s.Run(context.Background()), ErrAlreadyRunning)
	assert.ErrorIs(t, s.Clear(), ErrAlreadyRunning)
	assert.ErrorIs(t, s.Add(NewMockTask("late", false)), ErrAlreadyRunning)

	close(release)
	require.NoError(t, <-done)
	assert.True(t, s.Status().Completed)
}

func TestSequencer_PanicIsRecordedAsFailure(t *testing.T) {
	t.Parallel()

	s := newTestSequencer()
	require.NoError(t, s.Add(NewFunc("panics", false, func(ctx context.Context) error {
		panic("boom")
	})))
	next := NewMockTask("next", false)
	require.NoError(t, s.Add(next))

	require.NoError(t, s.Run(context.Background()))

	status := s.Status()
	require.Equal(t, 1, status.ErrorCount)
	var panicErr *PanicError
	assert.ErrorAs(t, status.Errors[0], &panicErr)
	assert.Equal(t, 1, next.Calls())
}

func TestSequencer_TaskTimeout(t *testing.T) {
	t.Parallel()

	s := NewSequencer(SequencerConfig{TaskTimeout: 10 * time.Millisecond}, testLogger())
	require.NoError(t, s.Add(NewFunc("hangs", false, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})))

	require.NoError(t, s.Run(context.Background()))

	status := s.Status()
	require.Equal(t, 1, status.ErrorCount)
	assert.ErrorIs(t, status.Errors[0], context.DeadlineExceeded)
	assert.Contains(t, status.Errors[0].Error(), "timed out")
}

func TestSequencer_CanceledContextStopsSequence(t *testing.T) {
	t.Parallel()

	s := newTestSequencer()
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.Add(NewFunc("cancels", false, func(context.Context) error {
		cancel()
		return nil
	})))
	after := NewMockTask("after", false)
	require.NoError(t, s.Add(after))

	err := s.Run(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, after.Calls())
	assert.False(t, s.Status().Completed)
}

func TestSequencer_ClearAndRerun(t *testing.T) {
	t.Parallel()

	s := newTestSequencer()
	require.NoError(t, s.Add(NewFailingMockTask("fails", false, errors.New("x"))))
	require.NoError(t, s.Run(context.Background()))
	assert.Equal(t, 1, s.Status().ErrorCount)

	// a second run starts from a clean result set
	require.NoError(t, s.Run(context.Background()))
	assert.Equal(t, 1, s.Status().ErrorCount)

	require.NoError(t, s.Clear())
	status := s.Status()
	assert.Equal(t, Status{Errors: []TaskError{}}, status)
	assert.Equal(t, []string{}, status.ErrorMessages())
}
