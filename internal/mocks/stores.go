package mocks

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bskmedia/media-api/internal/domain"
	"github.com/bskmedia/media-api/internal/store"
)

// MemoryRequestStore is a map-backed store.RequestStore. Status writes
// follow the same compare-on-status rules as the SQL implementation: a
// terminal record is never moved backward.
type MemoryRequestStore struct {
	mu       sync.Mutex
	requests map[uuid.UUID]*domain.GenerationRequest

	// CreateErr, when set, is returned by Create to simulate storage
	// failures.
	CreateErr error
}

// NewMemoryRequestStore creates an empty MemoryRequestStore.
func NewMemoryRequestStore() *MemoryRequestStore {
	return &MemoryRequestStore{requests: make(map[uuid.UUID]*domain.GenerationRequest)}
}

var _ store.RequestStore = (*MemoryRequestStore)(nil)

// Create implements store.RequestStore.Create.
func (s *MemoryRequestStore) Create(ctx context.Context, req *domain.GenerationRequest) error {
	if s.CreateErr != nil {
		return s.CreateErr
	}
	if err := req.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.requests[req.ID]; exists {
		return store.ErrDuplicate
	}
	clone := *req
	s.requests[req.ID] = &clone
	return nil
}

// GetByID implements store.RequestStore.GetByID.
func (s *MemoryRequestStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.GenerationRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[id]
	if !ok {
		return nil, store.ErrRequestNotFound
	}
	clone := *req
	return &clone, nil
}

// UpdateStatus implements store.RequestStore.UpdateStatus.
func (s *MemoryRequestStore) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	status domain.RequestStatus,
	errorDetail string,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.requests[id]
	if !ok {
		return store.ErrRequestNotFound
	}
	if !req.CanTransitionTo(status) {
		return fmt.Errorf("%w: request is already %s", store.ErrInvalidState, req.Status)
	}

	now := time.Now().UTC()
	req.Status = status
	req.UpdatedAt = now
	switch status {
	case domain.RequestStatusProcessing:
		req.StartedAt = &now
	case domain.RequestStatusFailed:
		req.ErrorDetail = errorDetail
		req.FailedAt = &now
	}
	return nil
}

// LinkResult implements store.RequestStore.LinkResult.
func (s *MemoryRequestStore) LinkResult(
	ctx context.Context,
	id uuid.UUID,
	result *domain.ArtifactDescriptor,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.requests[id]
	if !ok {
		return store.ErrRequestNotFound
	}
	if !req.CanTransitionTo(domain.RequestStatusCompleted) {
		return fmt.Errorf("%w: request is already %s", store.ErrInvalidState, req.Status)
	}

	now := time.Now().UTC()
	req.Status = domain.RequestStatusCompleted
	req.Result = result
	req.CompletedAt = &now
	req.UpdatedAt = now
	return nil
}

// MarkPushed implements store.RequestStore.MarkPushed.
func (s *MemoryRequestStore) MarkPushed(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.requests[id]
	if !ok {
		return store.ErrRequestNotFound
	}
	now := time.Now().UTC()
	req.PushedAt = &now
	return nil
}

// ListCompleted implements store.RequestStore.ListCompleted.
func (s *MemoryRequestStore) ListCompleted(ctx context.Context) ([]*domain.GenerationRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*domain.GenerationRequest
	for _, req := range s.requests {
		if req.Status == domain.RequestStatusCompleted {
			clone := *req
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CompletedAt.After(*out[j].CompletedAt)
	})
	return out, nil
}

// ListInFlight implements store.RequestStore.ListInFlight.
func (s *MemoryRequestStore) ListInFlight(ctx context.Context, limit int) ([]*domain.GenerationRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*domain.GenerationRequest
	for _, req := range s.requests {
		if req.Status == domain.RequestStatusPending || req.Status == domain.RequestStatusProcessing {
			clone := *req
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Delete implements store.RequestStore.Delete.
func (s *MemoryRequestStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.requests[id]; !ok {
		return store.ErrRequestNotFound
	}
	delete(s.requests, id)
	return nil
}

// WithTx implements store.RequestStore.WithTx. The in-memory store has
// no transactions; it returns itself.
func (s *MemoryRequestStore) WithTx(tx *sql.Tx) store.RequestStore {
	return s
}

// Len reports the number of stored requests.
func (s *MemoryRequestStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

// MemoryCatalogStore resolves names from a fixed set of catalog rows,
// case-insensitively like the SQL implementation.
type MemoryCatalogStore struct {
	Entries []*domain.CatalogService

	// Err, when set, is returned by FindByName to simulate lookup
	// failures.
	Err error
}

var _ store.CatalogStore = (*MemoryCatalogStore)(nil)

// FindByName implements store.CatalogStore.FindByName.
func (s *MemoryCatalogStore) FindByName(ctx context.Context, name string) (*domain.CatalogService, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	for _, entry := range s.Entries {
		if strings.EqualFold(entry.ServiceName, name) {
			return entry, nil
		}
	}
	return nil, store.ErrCatalogServiceNotFound
}
