package api

import (
	"time"

	"github.com/bskmedia/media-api/internal/domain"
)

// SubmitMediaRequest represents the request body for submitting a new
// generation job. Exactly one of Form or PDF must be present.
type SubmitMediaRequest struct {
	Form *FormPayload `json:"form,omitempty"`
	PDF  *PDFPayload  `json:"pdf,omitempty"`
}

// FormPayload carries structured form content for form_ai_enhanced jobs.
type FormPayload struct {
	ServiceName         string `json:"service_name" validate:"required,min=1"`
	ServiceDescription  string `json:"service_description" validate:"required,min=1"`
	HowToApply          string `json:"how_to_apply" validate:"required,min=1"`
	EligibilityCriteria string `json:"eligibility_criteria" validate:"required,min=1"`
	RequiredDocuments   string `json:"required_documents" validate:"required,min=1"`

	FeesAndTimeline string `json:"fees_and_timeline,omitempty"`
	OperatorTips    string `json:"operator_tips,omitempty"`
	Troubleshooting string `json:"troubleshooting,omitempty"`
	ServiceLink     string `json:"service_link,omitempty"`
}

// PDFPayload carries extracted document text for pdf_ai_enhanced jobs.
type PDFPayload struct {
	ServiceName   string `json:"service_name" validate:"required,min=1"`
	ExtractedText string `json:"extracted_text" validate:"required,min=1"`
}

// SubmitMediaResponse is returned on successful submission.
type SubmitMediaResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

// ArtifactResponse describes a produced media artifact.
type ArtifactResponse struct {
	Version         int     `json:"version"`
	URL             string  `json:"url"`
	FileSizeMB      float64 `json:"file_size_mb"`
	DurationSeconds int     `json:"duration_seconds"`
	TotalSlides     int     `json:"total_slides"`
}

// MediaRequestResponse represents one generation request. The submitted
// content snapshot is deliberately omitted.
type MediaRequestResponse struct {
	JobID       string            `json:"job_id"`
	ServiceID   *int64            `json:"service_id,omitempty"`
	ServiceName string            `json:"service_name"`
	SourceKind  string            `json:"source_kind"`
	Status      string            `json:"status"`
	Artifact    *ArtifactResponse `json:"artifact,omitempty"`
	ErrorDetail string            `json:"error_detail,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	FailedAt    *time.Time `json:"failed_at,omitempty"`
	PushedAt    *time.Time `json:"pushed_at,omitempty"`

	ProcessingTimeSeconds *int `json:"processing_time_seconds,omitempty"`
}

// RequestListResponse wraps a list of requests with its size.
type RequestListResponse struct {
	Count    int                    `json:"count"`
	Requests []MediaRequestResponse `json:"requests"`
}

// PendingListResponse additionally reports a coarse queue load
// classification.
type PendingListResponse struct {
	QueueHealth string                 `json:"queue_health"`
	Count       int                    `json:"count"`
	Requests    []MediaRequestResponse `json:"requests"`
}

// AcknowledgeResponse confirms removal of an acknowledged request.
type AcknowledgeResponse struct {
	JobID        string `json:"job_id"`
	Acknowledged bool   `json:"acknowledged"`
}

// requestToDTOResponse converts a domain.GenerationRequest to a
// MediaRequestResponse.
func requestToDTOResponse(req *domain.GenerationRequest) MediaRequestResponse {
	resp := MediaRequestResponse{
		JobID:       req.ID.String(),
		ServiceID:   req.ServiceID,
		ServiceName: req.ServiceName,
		SourceKind:  string(req.SourceKind),
		Status:      string(req.Status),
		ErrorDetail: req.ErrorDetail,
		CreatedAt:   req.CreatedAt,
		StartedAt:   req.StartedAt,
		CompletedAt: req.CompletedAt,
		FailedAt:    req.FailedAt,
		PushedAt:    req.PushedAt,

		ProcessingTimeSeconds: req.ProcessingSeconds(),
	}
	if req.Result != nil {
		resp.Artifact = &ArtifactResponse{
			Version:         req.Result.Version,
			URL:             req.Result.URL,
			FileSizeMB:      req.Result.FileSizeMB,
			DurationSeconds: req.Result.DurationSeconds,
			TotalSlides:     req.Result.TotalSlides,
		}
	}
	return resp
}

// requestsToDTOResponses converts a slice of requests.
func requestsToDTOResponses(reqs []*domain.GenerationRequest) []MediaRequestResponse {
	out := make([]MediaRequestResponse, 0, len(reqs))
	for _, req := range reqs {
		out = append(out, requestToDTOResponse(req))
	}
	return out
}
