package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bskmedia/media-api/internal/domain"
)

func validForm() *domain.FormContent {
	return &domain.FormContent{
		ServiceName:         "Birth Certificate",
		ServiceDescription:  "Issues certified copies.",
		HowToApply:          "Counter 4.",
		EligibilityCriteria: "Citizens.",
		RequiredDocuments:   "ID.",
	}
}

type queueFixture struct {
	requests  *fakeRequestStore
	submitter *stubSubmitter
	service   *QueueService
}

func newQueueFixture(t *testing.T) *queueFixture {
	t.Helper()

	requests := newFakeRequestStore()
	catalog := &fakeCatalogStore{entries: []*domain.CatalogService{
		{ServiceID: 42, ServiceName: "Birth Certificate"},
	}}
	resolver, err := NewResolverService(catalog, testLogger())
	require.NoError(t, err)

	submitter := &stubSubmitter{}
	svc, err := NewQueueService(requests, resolver, &stubFactory{}, submitter, testLogger())
	require.NoError(t, err)

	return &queueFixture{requests: requests, submitter: submitter, service: svc}
}

func TestQueueService_SubmitForm(t *testing.T) {
	t.Parallel()

	t.Run("persists pending request and enqueues task", func(t *testing.T) {
		t.Parallel()

		fx := newQueueFixture(t)
		req, err := fx.service.SubmitForm(context.Background(), validForm())

		require.NoError(t, err)
		assert.Equal(t, domain.RequestStatusPending, req.Status)
		assert.Equal(t, domain.SourceKindForm, req.SourceKind)
		require.NotNil(t, req.ServiceID)
		assert.Equal(t, int64(42), *req.ServiceID)
		assert.Equal(t, 1, fx.submitter.count())

		stored, err := fx.requests.GetByID(context.Background(), req.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.RequestStatusPending, stored.Status)
		assert.NotEmpty(t, stored.Input)
	})

	t.Run("missing mandatory field is rejected before persistence", func(t *testing.T) {
		t.Parallel()

		fx := newQueueFixture(t)
		form := validForm()
		form.RequiredDocuments = ""

		_, err := fx.service.SubmitForm(context.Background(), form)
		require.ErrorIs(t, err, domain.ErrMissingFormField)
		assert.Equal(t, 0, fx.submitter.count())
		assert.Empty(t, fx.requests.requests)
	})

	t.Run("uncataloged name is accepted without service ID", func(t *testing.T) {
		t.Parallel()

		fx := newQueueFixture(t)
		form := validForm()
		form.ServiceName = "Completely Novel Service"

		req, err := fx.service.SubmitForm(context.Background(), form)
		require.NoError(t, err)
		assert.Nil(t, req.ServiceID)
		assert.Equal(t, "Completely Novel Service", req.ServiceName)
	})

	t.Run("duplicate submissions are independent jobs", func(t *testing.T) {
		t.Parallel()

		fx := newQueueFixture(t)
		first, err := fx.service.SubmitForm(context.Background(), validForm())
		require.NoError(t, err)
		second, err := fx.service.SubmitForm(context.Background(), validForm())
		require.NoError(t, err)

		assert.NotEqual(t, first.ID, second.ID)
		assert.Equal(t, 2, fx.submitter.count())
	})

	t.Run("full queue reports ErrQueueFull and keeps the record", func(t *testing.T) {
		t.Parallel()

		fx := newQueueFixture(t)
		fx.submitter.err = ErrQueueFull

		_, err := fx.service.SubmitForm(context.Background(), validForm())
		require.ErrorIs(t, err, ErrQueueFull)

		// The record survives for startup recovery to requeue.
		assert.Len(t, fx.requests.requests, 1)
	})
}

func TestQueueService_SubmitPDF(t *testing.T) {
	t.Parallel()

	t.Run("persists pdf-sourced request", func(t *testing.T) {
		t.Parallel()

		fx := newQueueFixture(t)
		req, err := fx.service.SubmitPDF(context.Background(), &domain.PDFContent{
			ServiceName:   "Trade License",
			ExtractedText: "Extracted instructions.",
		})

		require.NoError(t, err)
		assert.Equal(t, domain.SourceKindPDF, req.SourceKind)
		assert.Equal(t, 1, fx.submitter.count())
	})

	t.Run("empty extracted text is rejected", func(t *testing.T) {
		t.Parallel()

		fx := newQueueFixture(t)
		_, err := fx.service.SubmitPDF(context.Background(), &domain.PDFContent{
			ServiceName: "Trade License",
		})
		assert.ErrorIs(t, err, domain.ErrEmptyPDFText)
	})
}

func TestQueueService_GetStatus(t *testing.T) {
	t.Parallel()

	fx := newQueueFixture(t)
	req, err := fx.service.SubmitForm(context.Background(), validForm())
	require.NoError(t, err)

	got, err := fx.service.GetStatus(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, req.ID, got.ID)

	_, err = fx.service.GetStatus(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrRequestNotFound)
}

func TestQueueService_ListCompleted(t *testing.T) {
	t.Parallel()

	fx := newQueueFixture(t)
	ctx := context.Background()

	complete := func(completedAt time.Time) uuid.UUID {
		req, err := fx.service.SubmitForm(ctx, validForm())
		require.NoError(t, err)
		require.NoError(t, fx.requests.UpdateStatus(ctx, req.ID, domain.RequestStatusProcessing, ""))
		require.NoError(t, fx.requests.LinkResult(ctx, req.ID, &domain.ArtifactDescriptor{
			Version: 1,
			Path:    "/data/Birth_Certificate/1.mp4",
			URL:     "/api/media/Birth_Certificate/1",
		}))
		fx.requests.setCompletedAt(req.ID, completedAt)
		return req.ID
	}

	older := complete(time.Now().UTC().Add(-time.Hour))
	newer := complete(time.Now().UTC())

	first, err := fx.service.ListCompleted(ctx)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, newer, first[0].ID)
	assert.Equal(t, older, first[1].ID)
	assert.True(t, first[0].CompletedAt.After(*first[1].CompletedAt))

	// Listing is observational: a second call without an intervening
	// acknowledgment returns the same records in the same order.
	second, err := fx.service.ListCompleted(ctx)
	require.NoError(t, err)
	require.Len(t, second, 2)
	assert.Equal(t, first[0].ID, second[0].ID)
	assert.Equal(t, first[1].ID, second[1].ID)
}

func TestQueueService_ListInFlight_HealthBuckets(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		inFlight int
		want     HealthBucket
	}{
		{"empty queue", 0, HealthEmpty},
		{"single job", 1, HealthNormal},
		{"five jobs", 5, HealthNormal},
		{"six jobs", 6, HealthBusy},
		{"fifteen jobs", 15, HealthBusy},
		{"sixteen jobs", 16, HealthVeryBusy},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			fx := newQueueFixture(t)
			for i := 0; i < tc.inFlight; i++ {
				_, err := fx.service.SubmitForm(context.Background(), validForm())
				require.NoError(t, err)
			}

			reqs, health, err := fx.service.ListInFlight(context.Background(), 0)
			require.NoError(t, err)
			assert.Len(t, reqs, tc.inFlight)
			assert.Equal(t, tc.want, health)
		})
	}
}

func TestQueueService_Acknowledge(t *testing.T) {
	t.Parallel()

	t.Run("removes the record", func(t *testing.T) {
		t.Parallel()

		fx := newQueueFixture(t)
		req, err := fx.service.SubmitForm(context.Background(), validForm())
		require.NoError(t, err)

		require.NoError(t, fx.service.Acknowledge(context.Background(), req.ID))

		_, err = fx.service.GetStatus(context.Background(), req.ID)
		assert.ErrorIs(t, err, ErrRequestNotFound)
	})

	t.Run("second acknowledgment reports not found", func(t *testing.T) {
		t.Parallel()

		fx := newQueueFixture(t)
		req, err := fx.service.SubmitForm(context.Background(), validForm())
		require.NoError(t, err)

		require.NoError(t, fx.service.Acknowledge(context.Background(), req.ID))
		err = fx.service.Acknowledge(context.Background(), req.ID)
		assert.ErrorIs(t, err, ErrRequestNotFound)
	})
}
