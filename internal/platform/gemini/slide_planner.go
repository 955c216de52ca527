// Package gemini implements the generation.SlidePlanner interface using
// Google's Gemini API to turn submitted service content into a
// structured training slide deck.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/bskmedia/media-api/internal/config"
	"github.com/bskmedia/media-api/internal/generation"
)

// Default retry settings for transient API failures.
const (
	defaultMaxRetries        = 3
	defaultRetryDelaySeconds = 2
)

// SlidePlanner implements generation.SlidePlanner using the Gemini API.
type SlidePlanner struct {
	logger *slog.Logger
	client *genai.Client
	model  string
}

// NewSlidePlanner creates a new instance of SlidePlanner with the provided
// dependencies. Returns an error if the configuration is invalid or the
// Gemini client cannot be created.
func NewSlidePlanner(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (*SlidePlanner, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}

	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v",
			generation.ErrInvalidConfig, err)
	}

	return &SlidePlanner{
		logger: logger.With(slog.String("component", "gemini_planner")),
		client: client,
		model:  cfg.ModelName,
	}, nil
}

// Ensure SlidePlanner implements the generation.SlidePlanner interface
var _ generation.SlidePlanner = (*SlidePlanner)(nil)

// PlanSlides implements generation.SlidePlanner.PlanSlides
func (p *SlidePlanner) PlanSlides(ctx context.Context, input generation.Input) (*generation.Deck, error) {
	prompt, err := buildPrompt(input)
	if err != nil {
		return nil, err
	}

	p.logger.DebugContext(ctx, "built slide planning prompt",
		slog.String("service_name", input.ServiceName),
		slog.Int("prompt_length", len(prompt)))

	raw, err := p.callWithRetry(ctx, prompt)
	if err != nil {
		return nil, err
	}

	deck, err := parseDeck(raw)
	if err != nil {
		return nil, err
	}
	deck.ServiceName = input.ServiceName

	p.logger.InfoContext(ctx, "slides planned by Gemini",
		slog.String("service_name", input.ServiceName),
		slog.Int("slide_count", len(deck.Slides)))

	return deck, nil
}

// callWithRetry makes a Gemini API call with exponential backoff for
// transient errors. Permanent errors (safety blocks, malformed
// responses) are returned immediately without retrying.
func (p *SlidePlanner) callWithRetry(ctx context.Context, prompt string) (string, error) {
	maxRetries := defaultMaxRetries
	baseDelaySeconds := defaultRetryDelaySeconds
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	for attempt := 0; ; attempt++ {
		p.logger.InfoContext(ctx, "calling Gemini API",
			slog.Int("attempt", attempt+1),
			slog.Int("max_attempts", maxRetries+1))

		text, err := p.call(ctx, prompt)
		if err == nil {
			return text, nil
		}

		p.logger.ErrorContext(ctx, "Gemini API call failed",
			slog.Int("attempt", attempt+1),
			slog.String("error", err.Error()))

		// Permanent errors are not retried.
		if errors.Is(err, generation.ErrContentBlocked) || errors.Is(err, generation.ErrInvalidResponse) {
			return "", err
		}

		if attempt >= maxRetries {
			return "", fmt.Errorf("%w: exceeded maximum retry attempts (%d)",
				generation.ErrTransientFailure, maxRetries)
		}

		// Exponential backoff with jitter:
		// delay = baseDelay * (2^attempt) * (0.5 + rand(0, 0.5))
		backoffSeconds := float64(baseDelaySeconds) * math.Pow(2, float64(attempt))
		jitterFactor := 0.5 + rng.Float64()*0.5
		delay := time.Duration(backoffSeconds * jitterFactor * float64(time.Second))

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", fmt.Errorf("%w: %v", generation.ErrTransientFailure, ctx.Err())
		}
	}
}

// call performs a single Gemini API request and extracts the response text.
func (p *SlidePlanner) call(ctx context.Context, prompt string) (string, error) {
	resp, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", generation.ErrTransientFailure, err)
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no content generated", generation.ErrInvalidResponse)
	}

	if resp.Candidates[0].FinishReason == genai.FinishReasonSafety {
		return "", fmt.Errorf("%w: finish reason safety", generation.ErrContentBlocked)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("%w: empty response text", generation.ErrInvalidResponse)
	}

	return text, nil
}

// deckSchema is the JSON shape Gemini is instructed to return.
type deckSchema struct {
	Slides []struct {
		Title        string   `json:"title"`
		Bullets      []string `json:"bullets"`
		ImageKeyword string   `json:"image_keyword"`
	} `json:"slides"`
}

// parseDeck extracts the JSON object embedded in the model output and
// unmarshals it. Models routinely wrap JSON in prose or code fences, so
// everything outside the outermost braces is discarded.
func parseDeck(raw string) (*generation.Deck, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("%w: no JSON object in response", generation.ErrInvalidResponse)
	}

	var schema deckSchema
	if err := json.Unmarshal([]byte(raw[start:end+1]), &schema); err != nil {
		return nil, fmt.Errorf("%w: failed to parse JSON response: %v",
			generation.ErrInvalidResponse, err)
	}

	deck := &generation.Deck{}
	for _, s := range schema.Slides {
		deck.Slides = append(deck.Slides, generation.Slide{
			Title:        s.Title,
			Bullets:      s.Bullets,
			ImageKeyword: s.ImageKeyword,
		})
	}

	if len(deck.Slides) == 0 {
		return nil, fmt.Errorf("%w: response contained no slides", generation.ErrInvalidResponse)
	}

	return deck, nil
}
