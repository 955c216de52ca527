package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/bskmedia/media-api/internal/domain"
	"github.com/bskmedia/media-api/internal/platform/logger"
	"github.com/bskmedia/media-api/internal/store"
)

// PostgresRequestStore implements the store.RequestStore interface
// using a PostgreSQL database as the storage backend.
type PostgresRequestStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresRequestStore creates a new PostgreSQL implementation of the
// RequestStore interface. It accepts a database connection or transaction
// that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresRequestStore(db store.DBTX, logger *slog.Logger) *PostgresRequestStore {
	if db == nil {
		// ALLOW-PANIC: Constructor misuse, not a runtime condition
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresRequestStore{
		db:     db,
		logger: logger.With(slog.String("component", "request_store")),
	}
}

// Ensure PostgresRequestStore implements store.RequestStore interface
var _ store.RequestStore = (*PostgresRequestStore)(nil)

// requestColumns is the column list shared by every SELECT in this store.
const requestColumns = `
	id, service_id, service_name, source_kind, status, input,
	result, error_detail,
	created_at, started_at, completed_at, failed_at, updated_at, pushed_at
`

// Create implements store.RequestStore.Create
func (s *PostgresRequestStore) Create(ctx context.Context, req *domain.GenerationRequest) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := req.Validate(); err != nil {
		log.Warn("request validation failed during create",
			slog.String("error", err.Error()),
			slog.String("job_id", req.ID.String()))
		return err
	}

	query := `
		INSERT INTO generation_requests
			(id, service_id, service_name, source_kind, status, input, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		req.ID,
		req.ServiceID,
		req.ServiceName,
		req.SourceKind,
		req.Status,
		[]byte(req.Input),
		req.CreatedAt,
		req.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create generation request",
			slog.String("error", err.Error()),
			slog.String("job_id", req.ID.String()))
		return store.NewStoreError("generation_request", "create", "failed to insert request", MapError(err))
	}

	log.Info("generation request created",
		slog.String("job_id", req.ID.String()),
		slog.String("service_name", req.ServiceName),
		slog.String("source_kind", string(req.SourceKind)))
	return nil
}

// GetByID implements store.RequestStore.GetByID
// Returns store.ErrRequestNotFound if the request does not exist.
func (s *PostgresRequestStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.GenerationRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM generation_requests WHERE id = $1`

	row := s.db.QueryRowContext(ctx, query, id)
	req, err := scanRequest(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, store.ErrRequestNotFound
		}
		return nil, store.NewStoreError("generation_request", "get", "failed to load request", MapError(err))
	}

	return req, nil
}

// UpdateStatus implements store.RequestStore.UpdateStatus
//
// The WHERE clause doubles as the terminal-state guard: the row is only
// touched while its current status is pending or processing, so two
// racing writers can never move a terminal record backward.
func (s *PostgresRequestStore) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	status domain.RequestStatus,
	errorDetail string,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if status == domain.RequestStatusFailed && errorDetail == "" {
		return fmt.Errorf("%w: failed status requires error detail", store.ErrInvalidEntity)
	}

	now := time.Now().UTC()

	var query string
	var args []any

	switch status {
	case domain.RequestStatusProcessing:
		query = `
			UPDATE generation_requests
			SET status = $1, started_at = $2, updated_at = $2
			WHERE id = $3 AND status = 'pending'
		`
		args = []any{status, now, id}
	case domain.RequestStatusFailed:
		query = `
			UPDATE generation_requests
			SET status = $1, error_detail = $2, failed_at = $3, updated_at = $3
			WHERE id = $4 AND status IN ('pending', 'processing')
		`
		args = []any{status, errorDetail, now, id}
	default:
		// Completion goes through LinkResult so that status and result
		// are always written together.
		return fmt.Errorf("%w: cannot set status %q via UpdateStatus", store.ErrInvalidEntity, status)
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to update request status",
			slog.String("error", err.Error()),
			slog.String("job_id", id.String()),
			slog.String("status", string(status)))
		return store.NewStoreError("generation_request", "update_status", "failed to update status", MapError(err))
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return s.classifyMissedUpdate(ctx, id)
	}

	log.Info("request status updated",
		slog.String("job_id", id.String()),
		slog.String("status", string(status)))
	return nil
}

// LinkResult implements store.RequestStore.LinkResult
func (s *PostgresRequestStore) LinkResult(
	ctx context.Context,
	id uuid.UUID,
	artifact *domain.ArtifactDescriptor,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if artifact == nil {
		return fmt.Errorf("%w: artifact descriptor cannot be nil", store.ErrInvalidEntity)
	}

	resultJSON, err := json.Marshal(artifact)
	if err != nil {
		return fmt.Errorf("failed to marshal artifact descriptor: %w", err)
	}

	now := time.Now().UTC()

	query := `
		UPDATE generation_requests
		SET status = 'completed', result = $1, completed_at = $2, updated_at = $2
		WHERE id = $3 AND status IN ('pending', 'processing')
	`
	result, err := s.db.ExecContext(ctx, query, resultJSON, now, id)
	if err != nil {
		log.Error("failed to link result",
			slog.String("error", err.Error()),
			slog.String("job_id", id.String()))
		return store.NewStoreError("generation_request", "link_result", "failed to record artifact", MapError(err))
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return s.classifyMissedUpdate(ctx, id)
	}

	log.Info("request completed",
		slog.String("job_id", id.String()),
		slog.String("artifact_url", artifact.URL),
		slog.Int("version", artifact.Version))
	return nil
}

// MarkPushed implements store.RequestStore.MarkPushed
func (s *PostgresRequestStore) MarkPushed(ctx context.Context, id uuid.UUID) error {
	now := time.Now().UTC()

	query := `
		UPDATE generation_requests
		SET pushed_at = $1, updated_at = $1
		WHERE id = $2
	`
	result, err := s.db.ExecContext(ctx, query, now, id)
	if err != nil {
		return store.NewStoreError("generation_request", "mark_pushed", "failed to stamp pushed_at", MapError(err))
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return store.ErrRequestNotFound
	}

	return nil
}

// ListCompleted implements store.RequestStore.ListCompleted
func (s *PostgresRequestStore) ListCompleted(ctx context.Context) ([]*domain.GenerationRequest, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM generation_requests
		WHERE status = 'completed'
		ORDER BY completed_at DESC
	`
	return s.queryRequests(ctx, query)
}

// ListInFlight implements store.RequestStore.ListInFlight
func (s *PostgresRequestStore) ListInFlight(ctx context.Context, limit int) ([]*domain.GenerationRequest, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM generation_requests
		WHERE status IN ('pending', 'processing')
		ORDER BY created_at ASC
	`
	if limit > 0 {
		return s.queryRequests(ctx, query+` LIMIT $1`, limit)
	}
	return s.queryRequests(ctx, query)
}

// Delete implements store.RequestStore.Delete
func (s *PostgresRequestStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM generation_requests WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete generation request",
			slog.String("error", err.Error()),
			slog.String("job_id", id.String()))
		return store.NewStoreError("generation_request", "delete", "failed to delete request", MapError(err))
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return store.ErrRequestNotFound
	}

	log.Info("generation request deleted after acknowledgment",
		slog.String("job_id", id.String()))
	return nil
}

// WithTx implements store.RequestStore.WithTx
func (s *PostgresRequestStore) WithTx(tx *sql.Tx) store.RequestStore {
	return &PostgresRequestStore{
		db:     tx,
		logger: s.logger,
	}
}

// classifyMissedUpdate distinguishes "row does not exist" from "row is
// already terminal" after a guarded UPDATE touched zero rows.
func (s *PostgresRequestStore) classifyMissedUpdate(ctx context.Context, id uuid.UUID) error {
	var status domain.RequestStatus
	err := s.db.QueryRowContext(ctx,
		`SELECT status FROM generation_requests WHERE id = $1`, id).Scan(&status)
	if err != nil {
		if err == sql.ErrNoRows {
			return store.ErrRequestNotFound
		}
		return MapError(err)
	}
	return fmt.Errorf("%w: request is already %s", store.ErrInvalidState, status)
}

// queryRequests runs a SELECT with requestColumns and scans all rows.
func (s *PostgresRequestStore) queryRequests(
	ctx context.Context,
	query string,
	args ...any,
) ([]*domain.GenerationRequest, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, store.NewStoreError("generation_request", "list", "failed to query requests", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	var requests []*domain.GenerationRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan generation request row: %w", err)
		}
		requests = append(requests, req)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating generation request rows: %w", err)
	}

	return requests, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanRequest scans one generation_requests row into a domain object.
func scanRequest(row rowScanner) (*domain.GenerationRequest, error) {
	var (
		req         domain.GenerationRequest
		serviceID   sql.NullInt64
		input       []byte
		resultJSON  []byte
		errorDetail sql.NullString
		startedAt   sql.NullTime
		completedAt sql.NullTime
		failedAt    sql.NullTime
		pushedAt    sql.NullTime
	)

	err := row.Scan(
		&req.ID,
		&serviceID,
		&req.ServiceName,
		&req.SourceKind,
		&req.Status,
		&input,
		&resultJSON,
		&errorDetail,
		&req.CreatedAt,
		&startedAt,
		&completedAt,
		&failedAt,
		&req.UpdatedAt,
		&pushedAt,
	)
	if err != nil {
		return nil, err
	}

	if serviceID.Valid {
		req.ServiceID = &serviceID.Int64
	}
	req.Input = input
	req.ErrorDetail = errorDetail.String
	if len(resultJSON) > 0 {
		var artifact domain.ArtifactDescriptor
		if err := json.Unmarshal(resultJSON, &artifact); err != nil {
			return nil, fmt.Errorf("failed to unmarshal artifact descriptor: %w", err)
		}
		req.Result = &artifact
	}
	if startedAt.Valid {
		t := startedAt.Time
		req.StartedAt = &t
	}
	if completedAt.Valid {
		t := completedAt.Time
		req.CompletedAt = &t
	}
	if failedAt.Valid {
		t := failedAt.Time
		req.FailedAt = &t
	}
	if pushedAt.Valid {
		t := pushedAt.Time
		req.PushedAt = &t
	}

	return &req, nil
}
