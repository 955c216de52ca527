package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bskmedia/media-api/internal/platform/logger"
)

// fakeConnector builds *sql.DB instances over an in-memory driver so
// transaction control flow can be exercised without a real database.
type fakeConnector struct {
	conn       driver.Conn
	connectErr error
}

func (c fakeConnector) Connect(context.Context) (driver.Conn, error) {
	if c.connectErr != nil {
		return nil, c.connectErr
	}
	return c.conn, nil
}

func (c fakeConnector) Driver() driver.Driver { return nil }

type fakeConn struct {
	commitErr error
	rolledBack bool
}

func (c *fakeConn) Prepare(string) (driver.Stmt, error) { return nil, errors.New("not supported") }
func (c *fakeConn) Close() error                        { return nil }
func (c *fakeConn) Begin() (driver.Tx, error)           { return &fakeTx{conn: c}, nil }

type fakeTx struct {
	conn *fakeConn
}

func (tx *fakeTx) Commit() error { return tx.conn.commitErr }
func (tx *fakeTx) Rollback() error {
	tx.conn.rolledBack = true
	return nil
}

func txTestContext() context.Context {
	return logger.WithLogger(context.Background(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRunInTransaction(t *testing.T) {
	t.Parallel()

	t.Run("commits on success", func(t *testing.T) {
		t.Parallel()

		db := sql.OpenDB(fakeConnector{conn: &fakeConn{}})
		defer func() { _ = db.Close() }()

		called := false
		err := RunInTransaction(txTestContext(), db, func(ctx context.Context, tx *sql.Tx) error {
			called = true
			return nil
		})
		require.NoError(t, err)
		assert.True(t, called)
	})

	t.Run("begin failure reports ErrTransactionFailed", func(t *testing.T) {
		t.Parallel()

		db := sql.OpenDB(fakeConnector{connectErr: errors.New("connection refused")})
		defer func() { _ = db.Close() }()

		err := RunInTransaction(txTestContext(), db, func(ctx context.Context, tx *sql.Tx) error {
			t.Fatal("fn must not run when the transaction cannot begin")
			return nil
		})
		assert.ErrorIs(t, err, ErrTransactionFailed)
	})

	t.Run("commit failure reports ErrTransactionFailed", func(t *testing.T) {
		t.Parallel()

		db := sql.OpenDB(fakeConnector{conn: &fakeConn{commitErr: errors.New("commit lost")}})
		defer func() { _ = db.Close() }()

		err := RunInTransaction(txTestContext(), db, func(ctx context.Context, tx *sql.Tx) error {
			return nil
		})
		assert.ErrorIs(t, err, ErrTransactionFailed)
	})

	t.Run("fn error rolls back and passes through unchanged", func(t *testing.T) {
		t.Parallel()

		conn := &fakeConn{}
		db := sql.OpenDB(fakeConnector{conn: conn})
		defer func() { _ = db.Close() }()

		fnErr := errors.New("insert rejected")
		err := RunInTransaction(txTestContext(), db, func(ctx context.Context, tx *sql.Tx) error {
			return fnErr
		})
		assert.ErrorIs(t, err, fnErr)
		assert.NotErrorIs(t, err, ErrTransactionFailed)
		assert.True(t, conn.rolledBack)
	})
}
