package service

import (
	"errors"
	"fmt"

	"github.com/bskmedia/media-api/internal/store"
)

// Common sentinel errors for the service layer
var (
	// ErrRequestNotFound indicates that the generation request does not
	// exist. Records are legitimately deleted on acknowledgment, so this
	// is a routine outcome, not an alarm.
	ErrRequestNotFound = errors.New("generation request not found")

	// ErrInvalidTransition indicates an attempt to move a terminal
	// request backward through its lifecycle.
	ErrInvalidTransition = errors.New("invalid request state transition")

	// ErrEmptyResourceName indicates the submitted resource name was
	// empty after trimming.
	ErrEmptyResourceName = errors.New("resource name cannot be empty")

	// ErrQueueFull indicates the background queue cannot accept more
	// work right now. The request record is already persisted as
	// pending and will be requeued on the next service start.
	ErrQueueFull = errors.New("generation queue is full")
)

// QueueServiceError wraps errors from the queue service with context.
type QueueServiceError struct {
	// Operation is the operation that failed (e.g., "submit", "acknowledge")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for QueueServiceError.
func (e *QueueServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("queue service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("queue service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *QueueServiceError) Unwrap() error {
	return e.Err
}

// NewQueueServiceError creates a new QueueServiceError.
// It maps store-level sentinels to service-level ones and returns
// service sentinels directly without wrapping.
func NewQueueServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, ErrRequestNotFound) ||
		errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrEmptyResourceName) ||
		errors.Is(err, ErrQueueFull) {
		return err
	}

	// Any not-found surfacing here is a request lookup; catalog misses
	// never leave the resolver.
	if store.IsNotFoundError(err) {
		return ErrRequestNotFound
	}
	if errors.Is(err, store.ErrInvalidState) {
		return ErrInvalidTransition
	}

	return &QueueServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
