package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/bskmedia/media-api/internal/store"
)

// ResolverService matches submitted resource names against the service
// catalog. Matching is exact but case-insensitive; a hit yields the
// catalog identifier and the catalog's canonical spelling of the name,
// a miss yields no identifier and the trimmed submitted name unchanged.
type ResolverService struct {
	catalog store.CatalogStore
	logger  *slog.Logger
}

// NewResolverService creates a ResolverService backed by the given
// catalog store.
func NewResolverService(catalog store.CatalogStore, logger *slog.Logger) (*ResolverService, error) {
	if catalog == nil {
		return nil, errors.New("catalog store cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	return &ResolverService{
		catalog: catalog,
		logger:  logger.With(slog.String("component", "resolver_service")),
	}, nil
}

// Resolve normalizes name and looks it up in the catalog. Unmatched
// names are not an error; generation proceeds with the submitted name
// and no catalog identifier.
func (s *ResolverService) Resolve(ctx context.Context, name string) (*int64, string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil, "", ErrEmptyResourceName
	}

	entry, err := s.catalog.FindByName(ctx, trimmed)
	if err != nil {
		if errors.Is(err, store.ErrCatalogServiceNotFound) {
			s.logger.Debug("resource name not in catalog, using submitted name",
				slog.String("resource_name", trimmed))
			return nil, trimmed, nil
		}
		return nil, "", NewQueueServiceError("resolve", "catalog lookup failed", err)
	}

	s.logger.Debug("resolved resource name against catalog",
		slog.String("submitted_name", trimmed),
		slog.String("canonical_name", entry.ServiceName),
		slog.Int64("service_id", entry.ServiceID))
	return &entry.ServiceID, entry.ServiceName, nil
}
