package generation

import "errors"

// Common errors returned by the generation pipeline
var (
	// ErrGenerationFailed is returned when media generation fails for any general reason
	ErrGenerationFailed = errors.New("failed to generate media")

	// ErrInvalidResponse is returned when the LLM response cannot be parsed or is malformed
	ErrInvalidResponse = errors.New("invalid response from language model")

	// ErrContentBlocked is returned when the LLM blocks the content due to safety filters
	ErrContentBlocked = errors.New("content blocked by language model safety filters")

	// ErrTransientFailure is returned for temporary errors that might resolve on retry
	ErrTransientFailure = errors.New("transient error during media generation")

	// ErrInvalidConfig is returned when a pipeline component's configuration is invalid
	ErrInvalidConfig = errors.New("invalid pipeline configuration")

	// ErrEmptyDeck is returned when slide planning produced no slides
	ErrEmptyDeck = errors.New("slide planning produced no slides")

	// ErrEmptyMedia is returned when rendering produced an empty byte stream
	ErrEmptyMedia = errors.New("rendering produced empty media")
)
