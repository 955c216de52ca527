package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/bskmedia/media-api/internal/domain"
	"github.com/bskmedia/media-api/internal/store"
	"github.com/bskmedia/media-api/internal/task"
)

// HealthBucket is a coarse load classification derived from the number
// of in-flight requests.
type HealthBucket string

const (
	HealthEmpty    HealthBucket = "empty"
	HealthNormal   HealthBucket = "normal"
	HealthBusy     HealthBucket = "busy"
	HealthVeryBusy HealthBucket = "very_busy"
)

// TaskFactory creates runnable tasks from persisted request records.
type TaskFactory interface {
	CreateTask(req *domain.GenerationRequest) (task.Task, error)
}

// TaskSubmitter enqueues tasks for background execution.
type TaskSubmitter interface {
	Submit(ctx context.Context, t task.Task) error
}

// QueueService is the facade over the generation queue. It owns request
// intake, status reads, listing, and acknowledgment; the actual
// generation runs in the background executor.
type QueueService struct {
	requests store.RequestStore
	resolver *ResolverService
	factory  TaskFactory
	runner   TaskSubmitter
	logger   *slog.Logger
}

// NewQueueService creates a QueueService with its dependencies.
func NewQueueService(
	requests store.RequestStore,
	resolver *ResolverService,
	factory TaskFactory,
	runner TaskSubmitter,
	logger *slog.Logger,
) (*QueueService, error) {
	if requests == nil {
		return nil, errors.New("request store cannot be nil")
	}
	if resolver == nil {
		return nil, errors.New("resolver cannot be nil")
	}
	if factory == nil {
		return nil, errors.New("task factory cannot be nil")
	}
	if runner == nil {
		return nil, errors.New("task runner cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	return &QueueService{
		requests: requests,
		resolver: resolver,
		factory:  factory,
		runner:   runner,
		logger:   logger.With(slog.String("component", "queue_service")),
	}, nil
}

// SubmitForm validates structured form content, persists a pending
// request, and enqueues it for background generation. It returns as
// soon as the record exists; generation never runs inline.
func (s *QueueService) SubmitForm(ctx context.Context, form *domain.FormContent) (*domain.GenerationRequest, error) {
	if form == nil {
		return nil, NewQueueServiceError("submit", "form content is required", domain.ErrMissingFormField)
	}
	form.Trim()
	if err := form.Validate(); err != nil {
		return nil, NewQueueServiceError("submit", "form validation failed", err)
	}

	input, err := json.Marshal(form)
	if err != nil {
		return nil, NewQueueServiceError("submit", "failed to snapshot form content", err)
	}
	return s.submit(ctx, form.ServiceName, domain.SourceKindForm, input)
}

// SubmitPDF persists a pending request built from extracted PDF text
// and enqueues it for background generation.
func (s *QueueService) SubmitPDF(ctx context.Context, pdf *domain.PDFContent) (*domain.GenerationRequest, error) {
	if pdf == nil {
		return nil, NewQueueServiceError("submit", "pdf content is required", domain.ErrEmptyPDFText)
	}
	if err := pdf.Validate(); err != nil {
		return nil, NewQueueServiceError("submit", "pdf validation failed", err)
	}

	input, err := json.Marshal(pdf)
	if err != nil {
		return nil, NewQueueServiceError("submit", "failed to snapshot pdf content", err)
	}
	return s.submit(ctx, pdf.ServiceName, domain.SourceKindPDF, input)
}

func (s *QueueService) submit(
	ctx context.Context,
	submittedName string,
	kind domain.SourceKind,
	input json.RawMessage,
) (*domain.GenerationRequest, error) {
	serviceID, serviceName, err := s.resolver.Resolve(ctx, submittedName)
	if err != nil {
		return nil, err
	}

	req, err := domain.NewGenerationRequest(serviceID, serviceName, kind, input)
	if err != nil {
		return nil, NewQueueServiceError("submit", "failed to construct request", err)
	}

	if err := s.requests.Create(ctx, req); err != nil {
		return nil, NewQueueServiceError("submit", "failed to persist request", err)
	}

	t, err := s.factory.CreateTask(req)
	if err != nil {
		return nil, NewQueueServiceError("submit", "failed to create generation task", err)
	}

	if err := s.runner.Submit(ctx, t); err != nil {
		// The record stays pending; startup recovery will requeue it.
		s.logger.Warn("task queue full, request persisted but not enqueued",
			slog.String("job_id", req.ID.String()),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: %v", ErrQueueFull, err)
	}

	s.logger.Info("generation request enqueued",
		slog.String("job_id", req.ID.String()),
		slog.String("resource_name", req.ServiceName),
		slog.String("source_kind", string(req.SourceKind)))
	return req, nil
}

// GetStatus returns the current state of a request.
func (s *QueueService) GetStatus(ctx context.Context, jobID uuid.UUID) (*domain.GenerationRequest, error) {
	req, err := s.requests.GetByID(ctx, jobID)
	if err != nil {
		return nil, NewQueueServiceError("get_status", "failed to load request", err)
	}
	return req, nil
}

// ListCompleted returns completed requests that have not yet been
// acknowledged, most recently completed first.
func (s *QueueService) ListCompleted(ctx context.Context) ([]*domain.GenerationRequest, error) {
	reqs, err := s.requests.ListCompleted(ctx)
	if err != nil {
		return nil, NewQueueServiceError("list_completed", "failed to list completed requests", err)
	}
	return reqs, nil
}

// ListInFlight returns up to limit pending and processing requests,
// oldest first, along with a coarse queue health classification based
// on the number returned.
func (s *QueueService) ListInFlight(ctx context.Context, limit int) ([]*domain.GenerationRequest, HealthBucket, error) {
	reqs, err := s.requests.ListInFlight(ctx, limit)
	if err != nil {
		return nil, "", NewQueueServiceError("list_in_flight", "failed to list in-flight requests", err)
	}
	return reqs, bucketFor(len(reqs)), nil
}

// Acknowledge confirms receipt of a delivered outcome and removes the
// record entirely. Acknowledging an unknown ID returns
// ErrRequestNotFound; callers that treat acknowledgment as idempotent
// may ignore it.
func (s *QueueService) Acknowledge(ctx context.Context, jobID uuid.UUID) error {
	if err := s.requests.Delete(ctx, jobID); err != nil {
		return NewQueueServiceError("acknowledge", "failed to delete request", err)
	}
	s.logger.Info("request acknowledged and removed",
		slog.String("job_id", jobID.String()))
	return nil
}

func bucketFor(inFlight int) HealthBucket {
	switch {
	case inFlight == 0:
		return HealthEmpty
	case inFlight <= 5:
		return HealthNormal
	case inFlight <= 15:
		return HealthBusy
	default:
		return HealthVeryBusy
	}
}
