package task

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunner_Submit(t *testing.T) {
	t.Parallel()

	t.Run("successful submission", func(t *testing.T) {
		t.Parallel()

		runner := NewRunner(RunnerConfig{WorkerCount: 1, QueueSize: 2}, testLogger())

		err := runner.Submit(context.Background(), newStubTask(nil))
		assert.NoError(t, err)
	})

	t.Run("queue full", func(t *testing.T) {
		t.Parallel()

		// Workers are never started, so the queue only drains on Stop.
		runner := NewRunner(RunnerConfig{WorkerCount: 1, QueueSize: 1}, testLogger())

		require.NoError(t, runner.Submit(context.Background(), newStubTask(nil)))

		err := runner.Submit(context.Background(), newStubTask(nil))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "queue is full")
	})
}

func TestRunner_Start_and_Processing(t *testing.T) {
	t.Parallel()

	runner := NewRunner(RunnerConfig{WorkerCount: 2, QueueSize: 10}, testLogger())

	completed := make(chan uuid.UUID, 3)
	tasks := make([]*stubTask, 0, 3)
	for i := 0; i < 3; i++ {
		task := newStubTask(nil)
		task.executeFn = func(ctx context.Context) error {
			completed <- task.id
			return nil
		}
		tasks = append(tasks, task)
	}

	runner.Start()
	defer runner.Stop()

	for _, task := range tasks {
		require.NoError(t, runner.Submit(context.Background(), task))
	}

	seen := make(map[uuid.UUID]bool)
	for i := 0; i < 3; i++ {
		select {
		case id := <-completed:
			seen[id] = true
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for tasks to complete")
		}
	}
	assert.Len(t, seen, 3)
}

func TestRunner_ErrorHandling(t *testing.T) {
	t.Parallel()

	t.Run("task errors reach the error handler", func(t *testing.T) {
		t.Parallel()

		runner := NewRunner(RunnerConfig{WorkerCount: 1, QueueSize: 5}, testLogger())

		var mu sync.Mutex
		var handled []error
		done := make(chan struct{})
		runner.SetErrorHandler(func(task Task, err error) {
			mu.Lock()
			handled = append(handled, err)
			mu.Unlock()
			close(done)
		})

		runner.Start()
		defer runner.Stop()

		taskErr := errors.New("generation exploded")
		require.NoError(t, runner.Submit(context.Background(), newStubTask(func(ctx context.Context) error {
			return taskErr
		})))

		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for error handler")
		}

		mu.Lock()
		defer mu.Unlock()
		require.Len(t, handled, 1)
		assert.ErrorIs(t, handled[0], taskErr)
	})

	t.Run("panicking task does not kill the worker", func(t *testing.T) {
		t.Parallel()

		runner := NewRunner(RunnerConfig{WorkerCount: 1, QueueSize: 5}, testLogger())
		runner.Start()
		defer runner.Stop()

		require.NoError(t, runner.Submit(context.Background(), newStubTask(func(ctx context.Context) error {
			panic("boom")
		})))

		// The same single worker must still process the next task.
		done := make(chan struct{})
		require.NoError(t, runner.Submit(context.Background(), newStubTask(func(ctx context.Context) error {
			close(done)
			return nil
		})))

		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("worker did not survive the panic")
		}
	})
}

func TestRunner_Stop_WaitsForInFlight(t *testing.T) {
	t.Parallel()

	runner := NewRunner(RunnerConfig{WorkerCount: 1, QueueSize: 5}, testLogger())
	runner.Start()

	started := make(chan struct{})
	finished := make(chan struct{})
	require.NoError(t, runner.Submit(context.Background(), newStubTask(func(ctx context.Context) error {
		close(started)
		time.Sleep(100 * time.Millisecond)
		close(finished)
		return nil
	})))

	<-started
	runner.Stop()

	select {
	case <-finished:
	default:
		t.Fatal("Stop returned before the in-flight task finished")
	}
}

func TestNewRunner_DefaultsInvalidConfig(t *testing.T) {
	t.Parallel()

	runner := NewRunner(RunnerConfig{WorkerCount: 0, QueueSize: -1}, testLogger())
	assert.Equal(t, DefaultRunnerConfig().WorkerCount, runner.config.WorkerCount)
	assert.Equal(t, DefaultRunnerConfig().QueueSize, runner.config.QueueSize)
}
