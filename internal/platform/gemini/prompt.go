package gemini

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bskmedia/media-api/internal/generation"
)

// promptInstructions is shared by both submission kinds. It pins down
// the slide count and the exact JSON shape parseDeck expects.
const promptInstructions = `
TASK: Create 5 to 8 professional training slides from the input above.
Each slide teaches a Data Entry Operator how to help citizens access this
government service. Keep titles short, bullets spoken-word friendly, and
pick a single concrete image search keyword per slide.

Respond with ONLY a JSON object in exactly this shape:
{
  "slides": [
    {
      "title": "Slide title",
      "bullets": ["First spoken point", "Second spoken point"],
      "image_keyword": "search keyword"
    }
  ]
}`

// buildPrompt renders the planning prompt for the given input.
func buildPrompt(input generation.Input) (string, error) {
	var b strings.Builder

	b.WriteString("You are creating professional training slides for government service center operators.\n\n")

	switch {
	case input.Form != nil:
		form := input.Form
		b.WriteString("INPUT DATA (from service portal form):\n")
		fmt.Fprintf(&b, "Service Name: %s\n", form.ServiceName)
		fmt.Fprintf(&b, "Service Description: %s\n", form.ServiceDescription)
		fmt.Fprintf(&b, "How to Apply: %s\n", form.HowToApply)
		fmt.Fprintf(&b, "Eligibility Criteria: %s\n", form.EligibilityCriteria)
		fmt.Fprintf(&b, "Required Documents: %s\n", form.RequiredDocuments)
		fmt.Fprintf(&b, "Fees & Timeline: %s\n", orNotProvided(form.FeesAndTimeline))
		fmt.Fprintf(&b, "Operator Tips: %s\n", orNotProvided(form.OperatorTips))
		fmt.Fprintf(&b, "Troubleshooting: %s\n", orNotProvided(form.Troubleshooting))
		fmt.Fprintf(&b, "Service Link: %s\n", orNotProvided(form.ServiceLink))
	case input.PDF != nil:
		b.WriteString("INPUT DATA (raw text extracted from an uploaded document):\n")
		fmt.Fprintf(&b, "Service Name: %s\n\n", input.PDF.ServiceName)
		b.WriteString(input.PDF.ExtractedText)
		b.WriteString("\n")
	default:
		return "", errors.New("input carries neither form nor PDF content")
	}

	b.WriteString(promptInstructions)

	return b.String(), nil
}

func orNotProvided(s string) string {
	if strings.TrimSpace(s) == "" {
		return "Not provided"
	}
	return s
}
