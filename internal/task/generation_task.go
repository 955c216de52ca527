package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/bskmedia/media-api/internal/domain"
	"github.com/bskmedia/media-api/internal/generation"
	"github.com/bskmedia/media-api/internal/store"
)

// Common errors
var (
	ErrNilRequestStore = errors.New("request store cannot be nil")
	ErrNilVersionStore = errors.New("version store cannot be nil")
	ErrNilArtifacts    = errors.New("artifact store cannot be nil")
	ErrNilPipeline     = errors.New("pipeline cannot be nil")
	ErrNilLogger       = errors.New("logger cannot be nil")
	ErrEmptyJobID      = errors.New("job ID cannot be empty")
)

// ArtifactStore persists finished media keyed by resource name and
// version and reports where it can be fetched from. Descriptor builds
// the stored artifact's record so URL derivation stays with the store
// that owns the layout.
type ArtifactStore interface {
	Save(resourceName string, version int, media []byte) (path, url string, err error)
	Descriptor(resourceName string, version int, path string, fileSizeMB float64, durationSeconds, totalSlides int) *domain.ArtifactDescriptor
}

// CompletionNotifier pushes a job's outcome to the external consumer
// system. Delivery is best-effort: the boolean only feeds logging, and
// a false never changes the request's status.
type CompletionNotifier interface {
	Push(ctx context.Context, jobID uuid.UUID) bool
}

// GenerationTask implements the Task interface for producing one media
// artifact. It is the sole status-writer for its request after creation:
// it drives the record through processing into completed or failed, and
// any error at any step is absorbed into the failed state rather than
// escaping the worker.
type GenerationTask struct {
	jobID       uuid.UUID
	serviceID   *int64
	serviceName string
	input       generation.Input

	requests  store.RequestStore
	versions  store.VersionStore
	artifacts ArtifactStore
	pipeline  generation.Pipeline
	notifier  CompletionNotifier

	pipelineTimeout time.Duration
	pipelineRetries int

	logger *slog.Logger
}

// NewGenerationTask creates a task for the given request.
// notifier may be nil; completion then simply is not pushed.
func NewGenerationTask(
	req *domain.GenerationRequest,
	input generation.Input,
	requests store.RequestStore,
	versions store.VersionStore,
	artifacts ArtifactStore,
	pipeline generation.Pipeline,
	notifier CompletionNotifier,
	pipelineTimeout time.Duration,
	pipelineRetries int,
	logger *slog.Logger,
) (*GenerationTask, error) {
	if requests == nil {
		return nil, ErrNilRequestStore
	}
	if versions == nil {
		return nil, ErrNilVersionStore
	}
	if artifacts == nil {
		return nil, ErrNilArtifacts
	}
	if pipeline == nil {
		return nil, ErrNilPipeline
	}
	if logger == nil {
		return nil, ErrNilLogger
	}
	if req == nil || req.ID == uuid.Nil {
		return nil, ErrEmptyJobID
	}

	return &GenerationTask{
		jobID:           req.ID,
		serviceID:       req.ServiceID,
		serviceName:     req.ServiceName,
		input:           input,
		requests:        requests,
		versions:        versions,
		artifacts:       artifacts,
		pipeline:        pipeline,
		notifier:        notifier,
		pipelineTimeout: pipelineTimeout,
		pipelineRetries: pipelineRetries,
		logger: logger.With(
			slog.String("task_type", TaskTypeMediaGeneration),
			slog.String("job_id", req.ID.String()),
			slog.String("service_name", req.ServiceName),
		),
	}, nil
}

// ID returns the task's unique identifier
func (t *GenerationTask) ID() uuid.UUID {
	return t.jobID
}

// Type returns the task type identifier
func (t *GenerationTask) Type() string {
	return TaskTypeMediaGeneration
}

// Execute runs the full generation lifecycle: mark the request
// processing, run the pipeline under a deadline, allocate the artifact
// version, persist the media, link the result, and push the outcome.
// On any error the request is moved to failed with the error message
// and a failure push is attempted; the returned error is for logging
// only.
func (t *GenerationTask) Execute(ctx context.Context) error {
	t.logger.Info("starting media generation")

	if err := t.requests.UpdateStatus(ctx, t.jobID, domain.RequestStatusProcessing, ""); err != nil {
		// The request may already be terminal (e.g. failed by recovery);
		// do not overwrite its state.
		t.logger.Error("failed to mark request processing", "error", err)
		return fmt.Errorf("failed to mark request processing: %w", err)
	}

	result, err := t.runPipeline(ctx)
	if err != nil {
		return t.fail(ctx, err)
	}

	version, err := t.versions.Next(ctx, t.serviceID, t.serviceName)
	if err != nil {
		return t.fail(ctx, fmt.Errorf("version allocation failed: %w", err))
	}

	t.logger.Info("version allocated", "version", version)

	path, url, err := t.artifacts.Save(t.serviceName, version, result.Media)
	if err != nil {
		return t.fail(ctx, fmt.Errorf("artifact persistence failed: %w", err))
	}

	descriptor := t.artifacts.Descriptor(t.serviceName, version, path,
		result.FileSizeMB, result.DurationSeconds, result.TotalSlides)

	if err := t.requests.LinkResult(ctx, t.jobID, descriptor); err != nil {
		return t.fail(ctx, fmt.Errorf("failed to link result: %w", err))
	}

	t.logger.Info("media generation complete",
		"version", version,
		"artifact_url", url,
		"file_size_mb", result.FileSizeMB)

	t.push(ctx)
	return nil
}

// runPipeline executes the opaque content pipeline under the configured
// deadline, retrying transient failures up to pipelineRetries times.
// The delivery policy defaults retries to zero.
func (t *GenerationTask) runPipeline(ctx context.Context) (*generation.Result, error) {
	var lastErr error

	for attempt := 0; attempt <= t.pipelineRetries; attempt++ {
		if attempt > 0 {
			t.logger.Info("retrying pipeline call", "attempt", attempt+1)
		}

		result, err := t.generateOnce(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		// Only transient failures are worth another attempt.
		if !errors.Is(err, generation.ErrTransientFailure) {
			break
		}
	}

	return nil, lastErr
}

func (t *GenerationTask) generateOnce(ctx context.Context) (*generation.Result, error) {
	callCtx := ctx
	if t.pipelineTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, t.pipelineTimeout)
		defer cancel()
	}

	result, err := t.pipeline.Generate(callCtx, t.input)
	if err != nil {
		if callCtx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("pipeline call exceeded %s deadline: %w", t.pipelineTimeout, err)
		}
		return nil, err
	}
	return result, nil
}

// fail moves the request to failed with the error message, attempts a
// failure push, and returns the original error for the runner's log.
func (t *GenerationTask) fail(ctx context.Context, cause error) error {
	t.logger.Error("media generation failed", "error", cause)

	if err := t.requests.UpdateStatus(ctx, t.jobID, domain.RequestStatusFailed, cause.Error()); err != nil {
		t.logger.Error("failed to mark request failed", "error", err)
	}

	t.push(ctx)
	return cause
}

// push delivers the outcome to the external system. Push failures are
// logged and otherwise ignored: the record stays listed until it is
// either re-pushed or the external system polls and acknowledges it.
func (t *GenerationTask) push(ctx context.Context) {
	if t.notifier == nil {
		return
	}

	if t.notifier.Push(ctx, t.jobID) {
		t.logger.Info("outcome pushed to external system")
	} else {
		t.logger.Warn("outcome push failed, record remains available for re-push")
	}
}
