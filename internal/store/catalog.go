package store

import (
	"context"

	"github.com/bskmedia/media-api/internal/domain"
)

// CatalogStore defines read access to the master service catalog.
// The queue only ever performs a case-insensitive exact name lookup.
type CatalogStore interface {
	// FindByName performs a case-insensitive exact match on the service
	// name and returns the catalog row, including its canonical spelling.
	// Returns ErrCatalogServiceNotFound when nothing matches; unknown
	// resources are allowed and tracked by name only.
	FindByName(ctx context.Context, name string) (*domain.CatalogService, error)
}
