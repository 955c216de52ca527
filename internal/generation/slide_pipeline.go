package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// SlideDeckPipeline is the production Pipeline: it plans a slide deck
// from the submitted content and hands the deck to a renderer.
type SlideDeckPipeline struct {
	planner  SlidePlanner
	renderer Renderer
	logger   *slog.Logger
}

// NewSlideDeckPipeline creates a pipeline from a planner and a renderer.
// Returns an error if either dependency is nil.
func NewSlideDeckPipeline(planner SlidePlanner, renderer Renderer, logger *slog.Logger) (*SlideDeckPipeline, error) {
	if planner == nil {
		return nil, errors.New("planner cannot be nil")
	}
	if renderer == nil {
		return nil, errors.New("renderer cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	return &SlideDeckPipeline{
		planner:  planner,
		renderer: renderer,
		logger:   logger.With(slog.String("component", "slide_pipeline")),
	}, nil
}

// Ensure SlideDeckPipeline implements the Pipeline interface
var _ Pipeline = (*SlideDeckPipeline)(nil)

// Generate implements Pipeline.Generate
func (p *SlideDeckPipeline) Generate(ctx context.Context, input Input) (*Result, error) {
	log := p.logger.With(slog.String("service_name", input.ServiceName))

	log.InfoContext(ctx, "planning slides", slog.String("source_kind", string(input.SourceKind)))

	deck, err := p.planner.PlanSlides(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("slide planning failed: %w", err)
	}
	if deck == nil || len(deck.Slides) == 0 {
		return nil, ErrEmptyDeck
	}

	log.InfoContext(ctx, "slides planned", slog.Int("slide_count", len(deck.Slides)))

	result, err := p.renderer.Render(ctx, deck)
	if err != nil {
		return nil, fmt.Errorf("rendering failed: %w", err)
	}
	if result == nil || len(result.Media) == 0 {
		return nil, ErrEmptyMedia
	}

	if result.TotalSlides == 0 {
		result.TotalSlides = len(deck.Slides)
	}
	if result.DurationSeconds == 0 {
		result.DurationSeconds = estimateDuration(deck)
	}

	log.InfoContext(ctx, "media generated",
		slog.Float64("file_size_mb", result.FileSizeMB),
		slog.Int("duration_seconds", result.DurationSeconds),
		slog.Int("total_slides", result.TotalSlides))

	return result, nil
}

// estimateDuration approximates narration length at three seconds per
// spoken bullet point.
func estimateDuration(deck *Deck) int {
	total := 0
	for _, slide := range deck.Slides {
		total += len(slide.Bullets) * 3
	}
	return total
}
