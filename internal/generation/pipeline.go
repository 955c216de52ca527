// Package generation defines the boundary between the queue core and the
// content pipeline that actually produces media. The core treats the
// pipeline as a single opaque operation: structured inputs go in, a byte
// stream plus metadata comes out, or it fails.
package generation

import (
	"context"

	"github.com/bskmedia/media-api/internal/domain"
)

// Slide is one planned training slide: a title, spoken bullet points,
// and a keyword used to find an illustrative image.
type Slide struct {
	Title        string   `json:"title"`
	Bullets      []string `json:"bullets"`
	ImageKeyword string   `json:"image_keyword"`
}

// Deck is the full planned slide sequence for one resource.
type Deck struct {
	ServiceName string  `json:"service_name"`
	Slides      []Slide `json:"slides"`
}

// Result is the outcome of a successful pipeline run.
type Result struct {
	// Media is the finished artifact as an in-memory byte stream.
	Media []byte

	FileSizeMB      float64
	DurationSeconds int
	TotalSlides     int
}

// Input carries the typed submission content into the pipeline. Exactly
// one of Form/PDF is non-nil, matching the request's source kind.
type Input struct {
	ServiceName string
	SourceKind  domain.SourceKind
	Form        *domain.FormContent
	PDF         *domain.PDFContent
}

// Pipeline is the opaque content-generation operation. Implementations
// are expected to block for the full duration of generation; callers
// bound the call with a context deadline.
type Pipeline interface {
	// Generate produces the media artifact for the given input.
	Generate(ctx context.Context, input Input) (*Result, error)
}

// SlidePlanner turns submission content into a structured slide deck.
// The production implementation calls an LLM.
type SlidePlanner interface {
	PlanSlides(ctx context.Context, input Input) (*Deck, error)
}

// Renderer turns a planned deck into finished media. Image search,
// text-to-speech, and video encoding all live behind this interface;
// they are external collaborators, not part of the queue core.
type Renderer interface {
	Render(ctx context.Context, deck *Deck) (*Result, error)
}
