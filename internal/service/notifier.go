package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/bskmedia/media-api/internal/config"
	"github.com/bskmedia/media-api/internal/domain"
	"github.com/bskmedia/media-api/internal/store"
)

const (
	tokenPath = "/generate_token"
	pushPath  = "/push_completed_videos"

	// tokenExpirySlack forces a refresh slightly before the token
	// actually expires so in-flight requests do not race the deadline.
	tokenExpirySlack = 30 * time.Second

	// fallbackTokenTTL is assumed when the token carries no readable
	// expiry claim.
	fallbackTokenTTL = 10 * time.Minute
)

// ErrPushNotConfigured indicates push delivery is disabled because no
// external endpoint was configured.
var ErrPushNotConfigured = errors.New("push endpoint not configured")

// tokenResponse tolerates the endpoint's historical key variations.
type tokenResponse struct {
	Token       string `json:"token"`
	AccessToken string `json:"access_token"`
	JWT         string `json:"jwt"`
}

func (r tokenResponse) value() string {
	switch {
	case r.Token != "":
		return r.Token
	case r.AccessToken != "":
		return r.AccessToken
	default:
		return r.JWT
	}
}

// completedPushPayload is delivered for successfully generated media.
type completedPushPayload struct {
	JobID                 string  `json:"job_id"`
	ServiceName           string  `json:"service_name"`
	ArtifactURL           string  `json:"artifact_url"`
	FileSizeMB            float64 `json:"file_size_mb"`
	DurationSeconds       int     `json:"duration_seconds"`
	TotalSlides           int     `json:"total_slides"`
	CompletedAt           string  `json:"completed_at"`
	ProcessingTimeSeconds int     `json:"processing_time_seconds"`
	Status                string  `json:"status"`
}

// failedPushPayload is delivered when generation failed, so the consumer
// learns about the failure without polling.
type failedPushPayload struct {
	JobID        string `json:"job_id"`
	ServiceName  string `json:"service_name"`
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	FailedAt     string `json:"failed_at"`
}

// NotifierService delivers request outcomes to the external consumer
// system. Delivery is best-effort: Push reports success or failure via
// its boolean and never alters the request's lifecycle state beyond
// stamping pushed_at on confirmed delivery.
type NotifierService struct {
	cfg      config.PushConfig
	requests store.RequestStore
	client   *http.Client
	logger   *slog.Logger

	mu       sync.Mutex
	token    string
	tokenExp time.Time
}

// NewNotifierService creates a NotifierService. An empty base URL is
// allowed; Push then logs and reports failure without attempting
// delivery.
func NewNotifierService(cfg config.PushConfig, requests store.RequestStore, logger *slog.Logger) (*NotifierService, error) {
	if requests == nil {
		return nil, errors.New("request store cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &NotifierService{
		cfg:      cfg,
		requests: requests,
		client:   &http.Client{Timeout: timeout},
		logger:   logger.With(slog.String("component", "notifier_service")),
	}, nil
}

// Push loads the request and delivers its outcome to the external
// system, retrying per configuration. Any accepted delivery stamps
// pushed_at so the same outcome is never delivered twice. It returns
// true only when the external system accepted the payload.
func (s *NotifierService) Push(ctx context.Context, jobID uuid.UUID) bool {
	logger := s.logger.With(slog.String("job_id", jobID.String()))

	if s.cfg.BaseURL == "" {
		logger.Debug("push skipped", slog.String("reason", ErrPushNotConfigured.Error()))
		return false
	}

	req, err := s.requests.GetByID(ctx, jobID)
	if err != nil {
		logger.Error("push aborted, failed to load request",
			slog.String("error", err.Error()))
		return false
	}

	payload, err := buildPushPayload(req)
	if err != nil {
		logger.Error("push aborted, cannot build payload",
			slog.String("status", string(req.Status)),
			slog.String("error", err.Error()))
		return false
	}

	attempts := s.cfg.PushRetries + 1
	for attempt := 1; attempt <= attempts; attempt++ {
		err := s.deliver(ctx, payload)
		if err == nil {
			if markErr := s.requests.MarkPushed(ctx, jobID); markErr != nil {
				logger.Warn("delivery accepted but pushed_at not recorded",
					slog.String("error", markErr.Error()))
			}
			logger.Info("outcome delivered",
				slog.String("status", string(req.Status)),
				slog.Int("attempt", attempt))
			return true
		}

		logger.Warn("push attempt failed",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", attempts),
			slog.String("error", err.Error()))

		if attempt < attempts {
			select {
			case <-ctx.Done():
				return false
			case <-time.After(time.Duration(attempt) * time.Second):
			}
		}
	}

	return false
}

func buildPushPayload(req *domain.GenerationRequest) (any, error) {
	switch req.Status {
	case domain.RequestStatusCompleted:
		if req.Result == nil {
			return nil, errors.New("completed request has no artifact descriptor")
		}
		completedAt := ""
		if req.CompletedAt != nil {
			completedAt = req.CompletedAt.UTC().Format(time.RFC3339)
		}
		processingSeconds := 0
		if secs := req.ProcessingSeconds(); secs != nil {
			processingSeconds = *secs
		}
		return completedPushPayload{
			JobID:                 req.ID.String(),
			ServiceName:           req.ServiceName,
			ArtifactURL:           req.Result.URL,
			FileSizeMB:            req.Result.FileSizeMB,
			DurationSeconds:       req.Result.DurationSeconds,
			TotalSlides:           req.Result.TotalSlides,
			CompletedAt:           completedAt,
			ProcessingTimeSeconds: processingSeconds,
			Status:                string(domain.RequestStatusCompleted),
		}, nil

	case domain.RequestStatusFailed:
		failedAt := ""
		if req.FailedAt != nil {
			failedAt = req.FailedAt.UTC().Format(time.RFC3339)
		}
		return failedPushPayload{
			JobID:        req.ID.String(),
			ServiceName:  req.ServiceName,
			Status:       string(domain.RequestStatusFailed),
			ErrorMessage: req.ErrorDetail,
			FailedAt:     failedAt,
		}, nil

	default:
		return nil, fmt.Errorf("request in state %s has no pushable outcome", req.Status)
	}
}

func (s *NotifierService) deliver(ctx context.Context, payload any) error {
	token, err := s.bearerToken(ctx)
	if err != nil {
		return fmt.Errorf("failed to obtain bearer token: %w", err)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal push payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.BaseURL+pushPath, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create push request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("push request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusAccepted:
		return nil
	case http.StatusUnauthorized:
		// Token may have been revoked server-side; drop the cache so
		// the next attempt re-authenticates.
		s.mu.Lock()
		s.token = ""
		s.mu.Unlock()
		return fmt.Errorf("push rejected with status %d", resp.StatusCode)
	default:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("push rejected with status %d: %s", resp.StatusCode, string(snippet))
	}
}

// bearerToken returns a cached token, refreshing it via the token
// endpoint when missing or near expiry.
func (s *NotifierService) bearerToken(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" && time.Now().Before(s.tokenExp.Add(-tokenExpirySlack)) {
		return s.token, nil
	}

	body, err := json.Marshal(map[string]string{
		"username": s.cfg.Username,
		"password": s.cfg.Password,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal credentials: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.BaseURL+tokenPath, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token endpoint returned status %d", resp.StatusCode)
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}

	token := tr.value()
	if token == "" {
		return "", errors.New("token response contained no recognized token field")
	}

	s.token = token
	s.tokenExp = tokenExpiry(token)
	s.logger.Debug("bearer token refreshed",
		slog.Time("expires_at", s.tokenExp))
	return s.token, nil
}

// tokenExpiry reads the exp claim without verifying the signature. The
// claim only schedules our refresh; the external system still verifies
// the token on every call.
func tokenExpiry(token string) time.Time {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return time.Now().Add(fallbackTokenTTL)
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Now().Add(fallbackTokenTTL)
	}
	return exp.Time
}
