package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/bskmedia/media-api/internal/domain"
	"github.com/bskmedia/media-api/internal/store"
)

// PostgresCatalogStore implements store.CatalogStore against the
// service_catalog master-data table.
type PostgresCatalogStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresCatalogStore creates a new PostgreSQL implementation of the
// CatalogStore interface.
func NewPostgresCatalogStore(db store.DBTX, logger *slog.Logger) *PostgresCatalogStore {
	if db == nil {
		// ALLOW-PANIC: Constructor misuse, not a runtime condition
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresCatalogStore{
		db:     db,
		logger: logger.With(slog.String("component", "catalog_store")),
	}
}

// Ensure PostgresCatalogStore implements store.CatalogStore interface
var _ store.CatalogStore = (*PostgresCatalogStore)(nil)

// FindByName implements store.CatalogStore.FindByName
func (s *PostgresCatalogStore) FindByName(ctx context.Context, name string) (*domain.CatalogService, error) {
	query := `
		SELECT service_id, service_name, common_name, department_name, service_link, is_active
		FROM service_catalog
		WHERE LOWER(service_name) = LOWER($1)
		LIMIT 1
	`

	var (
		svc            domain.CatalogService
		commonName     sql.NullString
		departmentName sql.NullString
		serviceLink    sql.NullString
	)

	err := s.db.QueryRowContext(ctx, query, name).Scan(
		&svc.ServiceID,
		&svc.ServiceName,
		&commonName,
		&departmentName,
		&serviceLink,
		&svc.IsActive,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, store.ErrCatalogServiceNotFound
		}
		return nil, fmt.Errorf("failed to look up catalog service: %w", MapError(err))
	}

	svc.CommonName = commonName.String
	svc.DepartmentName = departmentName.String
	svc.ServiceLink = serviceLink.String

	return &svc, nil
}
