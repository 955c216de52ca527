package task

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/bskmedia/media-api/internal/domain"
	"github.com/bskmedia/media-api/internal/generation"
	"github.com/bskmedia/media-api/internal/store"
)

// GenerationTaskFactory builds GenerationTask instances from persisted
// requests, rehydrating the typed pipeline input from the stored
// payload snapshot.
type GenerationTaskFactory struct {
	requests  store.RequestStore
	versions  store.VersionStore
	artifacts ArtifactStore
	pipeline  generation.Pipeline
	notifier  CompletionNotifier

	pipelineTimeout time.Duration
	pipelineRetries int

	logger *slog.Logger
}

// NewGenerationTaskFactory creates a factory with the shared task
// dependencies. notifier may be nil.
func NewGenerationTaskFactory(
	requests store.RequestStore,
	versions store.VersionStore,
	artifacts ArtifactStore,
	pipeline generation.Pipeline,
	notifier CompletionNotifier,
	pipelineTimeout time.Duration,
	pipelineRetries int,
	logger *slog.Logger,
) (*GenerationTaskFactory, error) {
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

	return &GenerationTaskFactory{
		requests:        requests,
		versions:        versions,
		artifacts:       artifacts,
		pipeline:        pipeline,
		notifier:        notifier,
		pipelineTimeout: pipelineTimeout,
		pipelineRetries: pipelineRetries,
		logger:          logger,
	}, nil
}

// CreateTask builds the generation task for a request.
func (f *GenerationTaskFactory) CreateTask(req *domain.GenerationRequest) (Task, error) {
	input, err := InputFromRequest(req)
	if err != nil {
		return nil, err
	}

	return NewGenerationTask(
		req,
		input,
		f.requests,
		f.versions,
		f.artifacts,
		f.pipeline,
		f.notifier,
		f.pipelineTimeout,
		f.pipelineRetries,
		f.logger,
	)
}

// InputFromRequest rehydrates the typed pipeline input from the
// request's payload snapshot, according to its source kind.
func InputFromRequest(req *domain.GenerationRequest) (generation.Input, error) {
	input := generation.Input{
		ServiceName: req.ServiceName,
		SourceKind:  req.SourceKind,
	}

	switch req.SourceKind {
	case domain.SourceKindForm:
		var form domain.FormContent
		if err := json.Unmarshal(req.Input, &form); err != nil {
			return generation.Input{}, fmt.Errorf("failed to unmarshal form payload: %w", err)
		}
		input.Form = &form
	case domain.SourceKindPDF:
		var pdf domain.PDFContent
		if err := json.Unmarshal(req.Input, &pdf); err != nil {
			return generation.Input{}, fmt.Errorf("failed to unmarshal pdf payload: %w", err)
		}
		input.PDF = &pdf
	default:
		return generation.Input{}, fmt.Errorf("%w: %s", domain.ErrInvalidSourceKind, req.SourceKind)
	}

	return input, nil
}
