// Package renderer implements the generation.Renderer interface as a
// client of an external media-composer service. The composer owns image
// search, text-to-speech, and video encoding; this process only ships a
// slide deck over and receives the finished byte stream back.
package renderer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/bskmedia/media-api/internal/config"
	"github.com/bskmedia/media-api/internal/generation"
)

// durationHeader carries the composed narration length back from the
// composer service.
const durationHeader = "X-Duration-Seconds"

// HTTPRenderer renders slide decks by calling a composer service.
type HTTPRenderer struct {
	url    string
	client *http.Client
	logger *slog.Logger
}

// NewHTTPRenderer creates a renderer client from the given configuration.
func NewHTTPRenderer(cfg config.RendererConfig, logger *slog.Logger) (*HTTPRenderer, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("%w: renderer URL cannot be empty", generation.ErrInvalidConfig)
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	return &HTTPRenderer{
		url: cfg.URL,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger.With(slog.String("component", "http_renderer")),
	}, nil
}

// Ensure HTTPRenderer implements the generation.Renderer interface
var _ generation.Renderer = (*HTTPRenderer)(nil)

// Render implements generation.Renderer.Render
func (r *HTTPRenderer) Render(ctx context.Context, deck *generation.Deck) (*generation.Result, error) {
	body, err := json.Marshal(deck)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal deck: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build render request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	r.logger.InfoContext(ctx, "rendering deck",
		slog.String("service_name", deck.ServiceName),
		slog.Int("slide_count", len(deck.Slides)))

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: render call failed: %v", generation.ErrTransientFailure, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		// Read a bounded amount of the error body for the log line.
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("%w: composer returned HTTP %d: %s",
			generation.ErrGenerationFailed, resp.StatusCode, string(detail))
	}

	media, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read rendered media: %v",
			generation.ErrTransientFailure, err)
	}
	if len(media) == 0 {
		return nil, generation.ErrEmptyMedia
	}

	duration, _ := strconv.Atoi(resp.Header.Get(durationHeader))

	return &generation.Result{
		Media:           media,
		FileSizeMB:      float64(len(media)) / (1024 * 1024),
		DurationSeconds: duration,
		TotalSlides:     len(deck.Slides),
	}, nil
}
