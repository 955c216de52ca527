package service

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bskmedia/media-api/internal/domain"
	"github.com/bskmedia/media-api/internal/store"
	"github.com/bskmedia/media-api/internal/task"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeCatalogStore resolves names from a fixed set of rows,
// case-insensitively like the real store.
type fakeCatalogStore struct {
	entries []*domain.CatalogService
	err     error
}

func (s *fakeCatalogStore) FindByName(ctx context.Context, name string) (*domain.CatalogService, error) {
	if s.err != nil {
		return nil, s.err
	}
	for _, entry := range s.entries {
		if strings.EqualFold(entry.ServiceName, name) {
			return entry, nil
		}
	}
	return nil, store.ErrCatalogServiceNotFound
}

// fakeRequestStore is a map-backed store.RequestStore sufficient for
// service-level tests.
type fakeRequestStore struct {
	mu       sync.Mutex
	requests map[uuid.UUID]*domain.GenerationRequest

	createErr error
}

func newFakeRequestStore() *fakeRequestStore {
	return &fakeRequestStore{requests: make(map[uuid.UUID]*domain.GenerationRequest)}
}

func (s *fakeRequestStore) Create(ctx context.Context, req *domain.GenerationRequest) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *req
	s.requests[req.ID] = &clone
	return nil
}

func (s *fakeRequestStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.GenerationRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[id]
	if !ok {
		return nil, store.ErrRequestNotFound
	}
	clone := *req
	return &clone, nil
}

func (s *fakeRequestStore) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.RequestStatus, errorDetail string) error {
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

func (s *fakeRequestStore) LinkResult(ctx context.Context, id uuid.UUID, result *domain.ArtifactDescriptor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[id]
	if !ok {
		return store.ErrRequestNotFound
	}
	now := time.Now().UTC()
	req.Status = domain.RequestStatusCompleted
	req.Result = result
	req.CompletedAt = &now
	req.UpdatedAt = now
	return nil
}

func (s *fakeRequestStore) MarkPushed(ctx context.Context, id uuid.UUID) error {
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

func (s *fakeRequestStore) ListCompleted(ctx context.Context) ([]*domain.GenerationRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.GenerationRequest
	for _, req := range s.requests {
		if req.Status == domain.RequestStatusCompleted {
			clone := *req
			out = append(out, &clone)
		}
	}
	// Most recently completed first, matching the real store's ordering.
	sort.Slice(out, func(i, j int) bool {
		return out[i].CompletedAt.After(*out[j].CompletedAt)
	})
	return out, nil
}

// setCompletedAt backdates a completed request so tests can pin a
// deterministic listing order.
func (s *fakeRequestStore) setCompletedAt(id uuid.UUID, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if req, ok := s.requests[id]; ok {
		req.CompletedAt = &at
	}
}

func (s *fakeRequestStore) ListInFlight(ctx context.Context, limit int) ([]*domain.GenerationRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.GenerationRequest
	for _, req := range s.requests {
		if req.Status == domain.RequestStatusPending || req.Status == domain.RequestStatusProcessing {
			clone := *req
			out = append(out, &clone)
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *fakeRequestStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.requests[id]; !ok {
		return store.ErrRequestNotFound
	}
	delete(s.requests, id)
	return nil
}

func (s *fakeRequestStore) WithTx(tx *sql.Tx) store.RequestStore {
	return s
}

// noopTask satisfies task.Task without doing any work.
type noopTask struct {
	id uuid.UUID
}

func (t *noopTask) ID() uuid.UUID                     { return t.id }
func (t *noopTask) Type() string                      { return task.TaskTypeMediaGeneration }
func (t *noopTask) Execute(ctx context.Context) error { return nil }

// stubFactory returns noop tasks, or an error.
type stubFactory struct {
	err error
}

func (f *stubFactory) CreateTask(req *domain.GenerationRequest) (task.Task, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &noopTask{id: req.ID}, nil
}

// stubSubmitter records submitted tasks, optionally rejecting them.
type stubSubmitter struct {
	mu        sync.Mutex
	submitted []task.Task
	err       error
}

func (s *stubSubmitter) Submit(ctx context.Context, t task.Task) error {
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitted = append(s.submitted, t)
	return nil
}

func (s *stubSubmitter) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.submitted)
}
