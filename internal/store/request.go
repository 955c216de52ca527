package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/bskmedia/media-api/internal/domain"
)

// RequestStore defines the interface for generation-request persistence.
// It is the system of record for the job state machine, so all status
// writes must be atomic compare-on-status updates: a terminal record can
// never be moved backward, even by two racing writers.
type RequestStore interface {
	// Create saves a new generation request to the store.
	// It handles domain validation internally.
	Create(ctx context.Context, req *domain.GenerationRequest) error

	// GetByID retrieves a request by its unique ID.
	// Returns ErrRequestNotFound if the request does not exist
	// (possibly because it was already acknowledged and deleted).
	GetByID(ctx context.Context, id uuid.UUID) (*domain.GenerationRequest, error)

	// UpdateStatus transitions a request to the given status, stamping
	// the matching lifecycle timestamp (started_at for processing,
	// failed_at for failed) and updated_at. errorDetail is required when
	// status is failed and ignored otherwise.
	// Returns ErrRequestNotFound if the request does not exist.
	// Returns ErrInvalidState if the request is already terminal.
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.RequestStatus, errorDetail string) error

	// LinkResult atomically sets status to completed, attaches the
	// artifact descriptor, and stamps completed_at.
	// Returns ErrRequestNotFound if the request does not exist.
	// Returns ErrInvalidState if the request is already terminal.
	LinkResult(ctx context.Context, id uuid.UUID, result *domain.ArtifactDescriptor) error

	// MarkPushed stamps pushed_at on a request whose outcome was
	// successfully delivered to the external system.
	// Returns ErrRequestNotFound if the request does not exist.
	MarkPushed(ctx context.Context, id uuid.UUID) error

	// ListCompleted returns all completed, not-yet-acknowledged requests
	// ordered by completion time, most recent first. Listing is purely
	// observational; it never mutates state.
	ListCompleted(ctx context.Context) ([]*domain.GenerationRequest, error)

	// ListInFlight returns pending and processing requests, oldest
	// first, capped at limit (0 means no cap).
	ListInFlight(ctx context.Context, limit int) ([]*domain.GenerationRequest, error)

	// Delete permanently removes a request. This is the only deletion
	// path in the system, triggered exclusively by an external
	// acknowledgment.
	// Returns ErrRequestNotFound if the request does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a new RequestStore instance that uses the provided transaction.
	// The transaction should be created and managed by the caller (typically a service).
	WithTx(tx *sql.Tx) RequestStore
}
