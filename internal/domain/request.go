package domain

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// RequestStatus represents the lifecycle state of a generation request.
type RequestStatus string

// Possible request status values
const (
	RequestStatusPending    RequestStatus = "pending"
	RequestStatusProcessing RequestStatus = "processing"
	RequestStatusCompleted  RequestStatus = "completed"
	RequestStatusFailed     RequestStatus = "failed"
)

// SourceKind tags how a generation request was submitted.
type SourceKind string

// Possible source kind values
const (
	SourceKindForm SourceKind = "form_ai_enhanced"
	SourceKindPDF  SourceKind = "pdf_ai_enhanced"
)

// Common validation errors for GenerationRequest
var (
	ErrEmptyRequestID      = errors.New("request ID cannot be empty")
	ErrEmptyServiceName    = errors.New("service name cannot be empty")
	ErrInvalidSourceKind   = errors.New("invalid source kind")
	ErrInvalidStatus       = errors.New("invalid request status")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrMissingErrorDetail  = errors.New("failed status requires error detail")
	ErrMissingResult       = errors.New("completed status requires a result")
	ErrResultOnFailure     = errors.New("failed request cannot carry a result")
	ErrErrorDetailOnResult = errors.New("completed request cannot carry error detail")
)

// GenerationRequest is the durable record of one queued media-generation
// job. It is created on submission, mutated only by the background
// executor (status/result/error) and the completion notifier (PushedAt),
// and deleted only when the external system acknowledges the pushed
// outcome. Deletion is the terminal lifecycle event, not a status.
type GenerationRequest struct {
	ID          uuid.UUID       `json:"id"`
	ServiceID   *int64          `json:"service_id,omitempty"`
	ServiceName string          `json:"service_name"`
	SourceKind  SourceKind      `json:"source_kind"`
	Status      RequestStatus   `json:"status"`
	Input       json.RawMessage `json:"input,omitempty"`

	// Result is set only once Status is completed.
	Result *ArtifactDescriptor `json:"result,omitempty"`

	// ErrorDetail is set only once Status is failed.
	ErrorDetail string `json:"error_detail,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	FailedAt    *time.Time `json:"failed_at,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// PushedAt records when the outcome was successfully delivered to the
	// external system. Nil means not yet pushed, or the push failed.
	PushedAt *time.Time `json:"pushed_at,omitempty"`
}

// NewGenerationRequest creates a new pending GenerationRequest for the
// given resource. serviceID is nil when the resource resolver found no
// catalog match; serviceName then carries the as-submitted name.
// Returns an error if validation fails.
func NewGenerationRequest(
	serviceID *int64,
	serviceName string,
	kind SourceKind,
	input json.RawMessage,
) (*GenerationRequest, error) {
	now := time.Now().UTC()
	req := &GenerationRequest{
		ID:          uuid.New(),
		ServiceID:   serviceID,
		ServiceName: serviceName,
		SourceKind:  kind,
		Status:      RequestStatusPending,
		Input:       input,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := req.Validate(); err != nil {
		return nil, err
	}

	return req, nil
}

// Validate checks if the GenerationRequest holds consistent data.
// Returns an error if any field fails validation.
func (r *GenerationRequest) Validate() error {
	if r.ID == uuid.Nil {
		return ErrEmptyRequestID
	}

	if r.ServiceName == "" {
		return ErrEmptyServiceName
	}

	if !isValidSourceKind(r.SourceKind) {
		return ErrInvalidSourceKind
	}

	if !isValidRequestStatus(r.Status) {
		return ErrInvalidStatus
	}

	// Exactly one of Result/ErrorDetail may be set, and only in a
	// terminal status.
	switch r.Status {
	case RequestStatusCompleted:
		if r.Result == nil {
			return ErrMissingResult
		}
		if r.ErrorDetail != "" {
			return ErrErrorDetailOnResult
		}
	case RequestStatusFailed:
		if r.ErrorDetail == "" {
			return ErrMissingErrorDetail
		}
		if r.Result != nil {
			return ErrResultOnFailure
		}
	default:
		if r.Result != nil {
			return ErrResultOnFailure
		}
		if r.ErrorDetail != "" {
			return ErrErrorDetailOnResult
		}
	}

	return nil
}

// IsTerminal reports whether the request has reached a terminal status.
// Terminal records stay visible until the external system acknowledges
// them, but their status never moves again.
func (r *GenerationRequest) IsTerminal() bool {
	return r.Status == RequestStatusCompleted || r.Status == RequestStatusFailed
}

// CanTransitionTo reports whether moving to the given status is a legal
// forward transition. Transitions are monotonic and one-directional.
func (r *GenerationRequest) CanTransitionTo(next RequestStatus) bool {
	switch r.Status {
	case RequestStatusPending:
		return next == RequestStatusProcessing || next == RequestStatusFailed
	case RequestStatusProcessing:
		return next == RequestStatusCompleted || next == RequestStatusFailed
	default:
		return false
	}
}

// ProcessingSeconds returns the wall-clock seconds between StartedAt and
// CompletedAt, or nil when either timestamp is missing.
func (r *GenerationRequest) ProcessingSeconds() *int {
	if r.StartedAt == nil || r.CompletedAt == nil {
		return nil
	}
	secs := int(r.CompletedAt.Sub(*r.StartedAt).Seconds())
	return &secs
}

// isValidRequestStatus checks if the given status is a valid RequestStatus.
func isValidRequestStatus(status RequestStatus) bool {
	switch status {
	case RequestStatusPending, RequestStatusProcessing,
		RequestStatusCompleted, RequestStatusFailed:
		return true
	default:
		return false
	}
}

// isValidSourceKind checks if the given kind is a valid SourceKind.
func isValidSourceKind(kind SourceKind) bool {
	switch kind {
	case SourceKindForm, SourceKindPDF:
		return true
	default:
		return false
	}
}
