// Package task contains the background execution machinery for the
// generation queue: the worker-pool runner and the per-job generation
// task that drives a request through its lifecycle.
package task

import (
	"context"

	"github.com/google/uuid"
)

// Task type constants
const (
	// TaskTypeMediaGeneration is the task type for generating a media
	// artifact from a submitted request.
	TaskTypeMediaGeneration = "media_generation"
)

// Task represents a unit of background work to be processed.
type Task interface {
	// ID returns the task's unique identifier. For generation tasks
	// this is the job_id of the request being processed.
	ID() uuid.UUID

	// Type returns the task type identifier
	Type() string

	// Execute runs the task logic
	Execute(ctx context.Context) error
}
