package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/bskmedia/media-api/internal/api/shared"
	"github.com/bskmedia/media-api/internal/domain"
	"github.com/bskmedia/media-api/internal/service"
)

// defaultPendingLimit caps the pending listing when the client does not
// specify one.
const defaultPendingLimit = 50

// QueueHandler handles media generation queue HTTP requests.
type QueueHandler struct {
	queue     *service.QueueService
	validator *validator.Validate
}

// NewQueueHandler creates a new QueueHandler.
func NewQueueHandler(queue *service.QueueService) *QueueHandler {
	return &QueueHandler{
		queue:     queue,
		validator: validator.New(),
	}
}

// Submit handles POST /api/media requests. The body carries either a
// form payload or a pdf payload; the job is persisted and queued, and
// generation happens asynchronously.
func (h *QueueHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req SubmitMediaRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if (req.Form == nil) == (req.PDF == nil) {
		shared.RespondWithError(w, r, http.StatusBadRequest,
			"Exactly one of 'form' or 'pdf' must be provided")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	var (
		created *domain.GenerationRequest
		err     error
	)
	if req.Form != nil {
		created, err = h.queue.SubmitForm(r.Context(), formPayloadToDomain(req.Form))
	} else {
		created, err = h.queue.SubmitPDF(r.Context(), &domain.PDFContent{
			ServiceName:   req.PDF.ServiceName,
			ExtractedText: req.PDF.ExtractedText,
		})
	}
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusAccepted, SubmitMediaResponse{
		JobID:  created.ID.String(),
		Status: string(created.Status),
	})
}

// GetStatus handles GET /api/media/status/{job_id} requests.
func (h *QueueHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	jobID, ok := parseJobID(w, r)
	if !ok {
		return
	}

	req, err := h.queue.GetStatus(r.Context(), jobID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, requestToDTOResponse(req))
}

// ListCompleted handles GET /api/media/completed requests. It returns
// completed, not-yet-acknowledged requests, most recent first.
func (h *QueueHandler) ListCompleted(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.queue.ListCompleted(r.Context())
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, RequestListResponse{
		Count:    len(reqs),
		Requests: requestsToDTOResponses(reqs),
	})
}

// ListPending handles GET /api/media/pending requests. An optional
// ?limit= query parameter caps the listing.
func (h *QueueHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	limit := defaultPendingLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			shared.RespondWithError(w, r, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	reqs, health, err := h.queue.ListInFlight(r.Context(), limit)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, PendingListResponse{
		QueueHealth: string(health),
		Count:       len(reqs),
		Requests:    requestsToDTOResponses(reqs),
	})
}

// Acknowledge handles DELETE /api/media/acknowledge/{job_id} requests.
// A successful acknowledgment removes the record entirely.
func (h *QueueHandler) Acknowledge(w http.ResponseWriter, r *http.Request) {
	jobID, ok := parseJobID(w, r)
	if !ok {
		return
	}

	if err := h.queue.Acknowledge(r.Context(), jobID); err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, AcknowledgeResponse{
		JobID:        jobID.String(),
		Acknowledged: true,
	})
}

// parseJobID extracts and validates the job_id URL parameter, writing a
// 400 response on failure.
func parseJobID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	jobID, err := uuid.Parse(chi.URLParam(r, "job_id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid job ID format")
		return uuid.Nil, false
	}
	return jobID, true
}

func formPayloadToDomain(p *FormPayload) *domain.FormContent {
	return &domain.FormContent{
		ServiceName:         p.ServiceName,
		ServiceDescription:  p.ServiceDescription,
		HowToApply:          p.HowToApply,
		EligibilityCriteria: p.EligibilityCriteria,
		RequiredDocuments:   p.RequiredDocuments,
		FeesAndTimeline:     p.FeesAndTimeline,
		OperatorTips:        p.OperatorTips,
		Troubleshooting:     p.Troubleshooting,
		ServiceLink:         p.ServiceLink,
	}
}
