package store

import (
	"context"
	"database/sql"
)

// DBTX is the common query surface of *sql.DB and *sql.Tx. Store
// implementations hold a DBTX so the same code runs against a plain
// connection or inside a transaction handed down by WithTx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
