package task

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bskmedia/media-api/internal/domain"
	"github.com/bskmedia/media-api/internal/store"
)

// interruptedDetail is the error detail written to requests whose
// execution was cut off by a process restart.
const interruptedDetail = "generation interrupted by service restart"

// RecoverInterrupted reconciles in-flight requests after a restart:
// requests still pending are rebuilt and requeued; requests caught
// mid-processing are failed with an explicit detail, since their
// pipeline work is gone and transitions only move forward.
func RecoverInterrupted(
	ctx context.Context,
	requests store.RequestStore,
	factory *GenerationTaskFactory,
	runner *Runner,
	logger *slog.Logger,
) error {
	inFlight, err := requests.ListInFlight(ctx, 0)
	if err != nil {
		return fmt.Errorf("failed to list in-flight requests: %w", err)
	}

	var requeued, failed int
	for _, req := range inFlight {
		switch req.Status {
		case domain.RequestStatusPending:
			t, err := factory.CreateTask(req)
			if err != nil {
				logger.Error("failed to rebuild task for pending request",
					"job_id", req.ID, "error", err)
				continue
			}
			if err := runner.Submit(ctx, t); err != nil {
				logger.Error("failed to requeue pending request, queue is full",
					"job_id", req.ID, "error", err)
				continue
			}
			requeued++

		case domain.RequestStatusProcessing:
			if err := requests.UpdateStatus(ctx, req.ID, domain.RequestStatusFailed, interruptedDetail); err != nil {
				logger.Error("failed to fail interrupted request",
					"job_id", req.ID, "error", err)
				continue
			}
			failed++
		}
	}

	logger.Info("recovered in-flight requests",
		"requeued_pending", requeued,
		"failed_interrupted", failed)
	return nil
}
