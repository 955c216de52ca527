package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bskmedia/media-api/internal/domain"
	"github.com/bskmedia/media-api/internal/store"
)

// faultyDB is a store.DBTX whose every call fails with a fixed error,
// standing in for a broken connection.
type faultyDB struct {
	err error
}

func (d *faultyDB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return nil, d.err
}

func (d *faultyDB) PrepareContext(ctx context.Context, query string) (*sql.Stmt, error) {
	return nil, d.err
}

func (d *faultyDB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return nil, d.err
}

func (d *faultyDB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return nil
}

func newTestRequest(t *testing.T) *domain.GenerationRequest {
	t.Helper()

	input, err := json.Marshal(&domain.FormContent{
		ServiceName:         "Birth Certificate",
		ServiceDescription:  "Issues certified copies.",
		HowToApply:          "Counter 4.",
		EligibilityCriteria: "Citizens.",
		RequiredDocuments:   "ID.",
	})
	require.NoError(t, err)

	req, err := domain.NewGenerationRequest(nil, "Birth Certificate", domain.SourceKindForm, input)
	require.NoError(t, err)
	return req
}

func TestPostgresRequestStore_DatabaseFailuresCarryStoreError(t *testing.T) {
	t.Parallel()

	dbErr := errors.New("pq: disk full")
	s := NewPostgresRequestStore(&faultyDB{err: dbErr}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()

	t.Run("create", func(t *testing.T) {
		t.Parallel()

		err := s.Create(ctx, newTestRequest(t))
		require.Error(t, err)

		var storeErr *store.StoreError
		require.ErrorAs(t, err, &storeErr)
		assert.Equal(t, "generation_request", storeErr.Entity)
		assert.Equal(t, "create", storeErr.Operation)
		assert.Contains(t, err.Error(), "disk full")
	})

	t.Run("mark_pushed", func(t *testing.T) {
		t.Parallel()

		err := s.MarkPushed(ctx, uuid.New())

		var storeErr *store.StoreError
		require.ErrorAs(t, err, &storeErr)
		assert.Equal(t, "mark_pushed", storeErr.Operation)
	})

	t.Run("list_completed", func(t *testing.T) {
		t.Parallel()

		_, err := s.ListCompleted(ctx)

		var storeErr *store.StoreError
		require.ErrorAs(t, err, &storeErr)
		assert.Equal(t, "list", storeErr.Operation)
	})

	t.Run("delete", func(t *testing.T) {
		t.Parallel()

		err := s.Delete(ctx, uuid.New())

		var storeErr *store.StoreError
		require.ErrorAs(t, err, &storeErr)
		assert.Equal(t, "delete", storeErr.Operation)
	})
}

func TestPostgresRequestStore_StoreErrorPreservesSentinels(t *testing.T) {
	t.Parallel()

	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "generation_requests_pkey"}
	s := NewPostgresRequestStore(&faultyDB{err: pgErr}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	err := s.Create(context.Background(), newTestRequest(t))

	// The wrapper adds context without hiding the mapped sentinel.
	assert.ErrorIs(t, err, store.ErrDuplicate)
	assert.True(t, store.IsNotFoundError(store.NewStoreError(
		"generation_request", "get", "failed to load request", store.ErrRequestNotFound)))
}
