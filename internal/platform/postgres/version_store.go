package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bskmedia/media-api/internal/platform/logger"
	"github.com/bskmedia/media-api/internal/store"
)

// PostgresVersionStore implements store.VersionStore on top of a
// version_counters table.
//
// Allocation is a single upsert with RETURNING, so the read-then-write
// race of a "query max version, insert max+1" approach cannot occur:
// the database serializes the increment per resource key, and
// allocations for different keys never contend.
type PostgresVersionStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresVersionStore creates a new PostgreSQL implementation of the
// VersionStore interface.
func NewPostgresVersionStore(db store.DBTX, logger *slog.Logger) *PostgresVersionStore {
	if db == nil {
		// ALLOW-PANIC: Constructor misuse, not a runtime condition
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresVersionStore{
		db:     db,
		logger: logger.With(slog.String("component", "version_store")),
	}
}

// Ensure PostgresVersionStore implements store.VersionStore interface
var _ store.VersionStore = (*PostgresVersionStore)(nil)

// Next implements store.VersionStore.Next
func (s *PostgresVersionStore) Next(ctx context.Context, serviceID *int64, serviceName string) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	key := VersionKey(serviceID, serviceName)

	query := `
		INSERT INTO version_counters (resource_key, current_version, updated_at)
		VALUES ($1, 1, NOW())
		ON CONFLICT (resource_key)
		DO UPDATE SET
			current_version = version_counters.current_version + 1,
			updated_at = NOW()
		RETURNING current_version
	`

	var version int
	if err := s.db.QueryRowContext(ctx, query, key).Scan(&version); err != nil {
		log.Error("failed to allocate version",
			slog.String("error", err.Error()),
			slog.String("resource_key", key))
		return 0, fmt.Errorf("failed to allocate version for %q: %w", key, MapError(err))
	}

	log.Info("version allocated",
		slog.String("resource_key", key),
		slog.Int("version", version))
	return version, nil
}

// VersionKey derives the counter key for a resource: the catalog ID when
// the resolver matched one, otherwise the lowercased, trimmed name. The
// two namespaces are kept distinct so an id-matched resource and an
// unmatched resource with a colliding name never share a counter.
func VersionKey(serviceID *int64, serviceName string) string {
	if serviceID != nil {
		return fmt.Sprintf("id:%d", *serviceID)
	}
	return "name:" + strings.ToLower(strings.TrimSpace(serviceName))
}
