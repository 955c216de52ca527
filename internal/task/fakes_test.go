package task

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bskmedia/media-api/internal/domain"
	"github.com/bskmedia/media-api/internal/generation"
	"github.com/bskmedia/media-api/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memoryRequestStore is an in-memory store.RequestStore that mirrors the
// database's guarded-update semantics, including the terminal-state
// protection.
type memoryRequestStore struct {
	mu       sync.Mutex
	requests map[uuid.UUID]*domain.GenerationRequest
}

func newMemoryRequestStore() *memoryRequestStore {
	return &memoryRequestStore{requests: make(map[uuid.UUID]*domain.GenerationRequest)}
}

func (s *memoryRequestStore) Create(ctx context.Context, req *domain.GenerationRequest) error {
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

func (s *memoryRequestStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.GenerationRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[id]
	if !ok {
		return nil, store.ErrRequestNotFound
	}
	clone := *req
	return &clone, nil
}

func (s *memoryRequestStore) UpdateStatus(
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

func (s *memoryRequestStore) LinkResult(
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

func (s *memoryRequestStore) MarkPushed(ctx context.Context, id uuid.UUID) error {
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

func (s *memoryRequestStore) ListCompleted(ctx context.Context) ([]*domain.GenerationRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*domain.GenerationRequest
	for _, req := range s.requests {
		if req.Status == domain.RequestStatusCompleted {
			clone := *req
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (s *memoryRequestStore) ListInFlight(ctx context.Context, limit int) ([]*domain.GenerationRequest, error) {
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

func (s *memoryRequestStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.requests[id]; !ok {
		return store.ErrRequestNotFound
	}
	delete(s.requests, id)
	return nil
}

func (s *memoryRequestStore) WithTx(tx *sql.Tx) store.RequestStore {
	return s
}

// memoryVersionStore allocates versions with the same atomicity contract
// as the database implementation.
type memoryVersionStore struct {
	mu       sync.Mutex
	counters map[string]int
}

func newMemoryVersionStore() *memoryVersionStore {
	return &memoryVersionStore{counters: make(map[string]int)}
}

func (s *memoryVersionStore) Next(ctx context.Context, serviceID *int64, serviceName string) (int, error) {
	key := "name:" + strings.ToLower(strings.TrimSpace(serviceName))
	if serviceID != nil {
		key = fmt.Sprintf("id:%d", *serviceID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[key]++
	return s.counters[key], nil
}

// memoryArtifactStore records saves without touching the filesystem.
type memoryArtifactStore struct {
	mu       sync.Mutex
	saves    map[string][]byte
	failWith error
}

func newMemoryArtifactStore() *memoryArtifactStore {
	return &memoryArtifactStore{saves: make(map[string][]byte)}
}

func (s *memoryArtifactStore) Save(resourceName string, version int, media []byte) (string, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failWith != nil {
		return "", "", s.failWith
	}
	key := fmt.Sprintf("%s/%d", resourceName, version)
	s.saves[key] = media
	return "/data/" + key + ".mp4", "/api/media/" + key, nil
}

func (s *memoryArtifactStore) Descriptor(
	resourceName string,
	version int,
	path string,
	fileSizeMB float64,
	durationSeconds, totalSlides int,
) *domain.ArtifactDescriptor {
	return &domain.ArtifactDescriptor{
		Version:         version,
		Path:            path,
		URL:             fmt.Sprintf("/api/media/%s/%d", resourceName, version),
		FileSizeMB:      fileSizeMB,
		DurationSeconds: durationSeconds,
		TotalSlides:     totalSlides,
	}
}

// stubPipeline returns a canned result or error.
type stubPipeline struct {
	result *generation.Result
	err    error
	calls  int
	mu     sync.Mutex
}

func (p *stubPipeline) Generate(ctx context.Context, input generation.Input) (*generation.Result, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()
	if p.err != nil {
		return nil, p.err
	}
	return p.result, nil
}

// stubNotifier records push calls.
type stubNotifier struct {
	mu     sync.Mutex
	pushed []uuid.UUID
	accept bool
}

func (n *stubNotifier) Push(ctx context.Context, jobID uuid.UUID) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.pushed = append(n.pushed, jobID)
	return n.accept
}

func (n *stubNotifier) pushCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.pushed)
}

// stubTask is a minimal Task for runner tests.
type stubTask struct {
	id        uuid.UUID
	executeFn func(ctx context.Context) error
}

func newStubTask(executeFn func(ctx context.Context) error) *stubTask {
	return &stubTask{id: uuid.New(), executeFn: executeFn}
}

func (t *stubTask) ID() uuid.UUID { return t.id }

func (t *stubTask) Type() string { return "stub" }

func (t *stubTask) Execute(ctx context.Context) error {
	if t.executeFn == nil {
		return nil
	}
	return t.executeFn(ctx)
}
