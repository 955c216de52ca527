package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Validation errors for submitted content
var (
	ErrMissingFormField = errors.New("required form field is empty")
	ErrEmptyPDFText     = errors.New("extracted PDF text cannot be empty")
)

// FormContent is the typed payload for form_ai_enhanced submissions.
// The first five fields are mandatory; the rest are folded into the
// slide planning prompt when present.
type FormContent struct {
	ServiceName         string `json:"service_name"`
	ServiceDescription  string `json:"service_description"`
	HowToApply          string `json:"how_to_apply"`
	EligibilityCriteria string `json:"eligibility_criteria"`
	RequiredDocuments   string `json:"required_documents"`

	FeesAndTimeline string `json:"fees_and_timeline,omitempty"`
	OperatorTips    string `json:"operator_tips,omitempty"`
	Troubleshooting string `json:"troubleshooting,omitempty"`
	ServiceLink     string `json:"service_link,omitempty"`
}

// Trim removes surrounding whitespace from every field in place.
func (f *FormContent) Trim() {
	f.ServiceName = strings.TrimSpace(f.ServiceName)
	f.ServiceDescription = strings.TrimSpace(f.ServiceDescription)
	f.HowToApply = strings.TrimSpace(f.HowToApply)
	f.EligibilityCriteria = strings.TrimSpace(f.EligibilityCriteria)
	f.RequiredDocuments = strings.TrimSpace(f.RequiredDocuments)
	f.FeesAndTimeline = strings.TrimSpace(f.FeesAndTimeline)
	f.OperatorTips = strings.TrimSpace(f.OperatorTips)
	f.Troubleshooting = strings.TrimSpace(f.Troubleshooting)
	f.ServiceLink = strings.TrimSpace(f.ServiceLink)
}

// Validate checks that all mandatory fields are filled.
func (f *FormContent) Validate() error {
	mandatory := map[string]string{
		"service_name":         f.ServiceName,
		"service_description":  f.ServiceDescription,
		"how_to_apply":         f.HowToApply,
		"eligibility_criteria": f.EligibilityCriteria,
		"required_documents":   f.RequiredDocuments,
	}

	for name, value := range mandatory {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%w: %s", ErrMissingFormField, name)
		}
	}

	return nil
}

// PDFContent is the typed payload for pdf_ai_enhanced submissions:
// the raw text extracted from an uploaded document, handed to the slide
// planner as a single block.
type PDFContent struct {
	ServiceName   string `json:"service_name"`
	ExtractedText string `json:"extracted_text"`
}

// Validate checks that the extracted text is non-empty.
func (p *PDFContent) Validate() error {
	if strings.TrimSpace(p.ServiceName) == "" {
		return ErrEmptyServiceName
	}
	if strings.TrimSpace(p.ExtractedText) == "" {
		return ErrEmptyPDFText
	}
	return nil
}
