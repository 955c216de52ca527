package api

import (
	"errors"
	"net/http"

	"github.com/bskmedia/media-api/internal/domain"
	"github.com/bskmedia/media-api/internal/service"
	"github.com/bskmedia/media-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status
// codes based on the error type. This prevents leaking internal error
// types or messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, service.ErrRequestNotFound),
		errors.Is(err, store.ErrRequestNotFound):
		return http.StatusNotFound

	// Lifecycle conflicts
	case errors.Is(err, service.ErrInvalidTransition):
		return http.StatusConflict

	// Bad request errors
	case errors.Is(err, service.ErrEmptyResourceName),
		errors.Is(err, domain.ErrMissingFormField),
		errors.Is(err, domain.ErrEmptyPDFText),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	// Queue saturation
	case errors.Is(err, service.ErrQueueFull):
		return http.StatusServiceUnavailable

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, service.ErrRequestNotFound),
		errors.Is(err, store.ErrRequestNotFound):
		return "Generation request not found"

	case errors.Is(err, service.ErrInvalidTransition):
		return "Request is already in a terminal state"

	case errors.Is(err, service.ErrEmptyResourceName):
		return "Resource name cannot be empty"

	case errors.Is(err, domain.ErrMissingFormField):
		// The wrapped message names the offending field and is safe to
		// surface.
		return err.Error()

	case errors.Is(err, domain.ErrEmptyPDFText):
		return "Extracted PDF text cannot be empty"

	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid request data"

	case errors.Is(err, service.ErrQueueFull):
		return "Generation queue is full, try again later"

	default:
		// A store error whose cause matched none of the sentinels above
		// still carries a safe, non-technical message of its own.
		var storeErr *store.StoreError
		if errors.As(err, &storeErr) {
			return "Operation failed: " + storeErr.Message
		}
		return "An unexpected error occurred"
	}
}
