package workflow_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trustnet/internal/domain"
	"trustnet/internal/platform/metrics"
	"trustnet/internal/storage"
	"trustnet/internal/workflow"
	domainerrors "trustnet/pkg/domain-errors"
)

var (
	submitter = domain.Identity{ID: "user-101", Name: "John Smith", Email: "john.smith@email.com", Role: domain.RoleSubmitter}
	verifier  = domain.Identity{ID: "ver-1", Name: "Vera Chen", Role: domain.RoleVerifier}
	verifier2 = domain.Identity{ID: "ver-2", Name: "Victor Cruz", Role: domain.RoleVerifier}
	issuer    = domain.Identity{ID: "iss-1", Name: "Ivan Okafor", Role: domain.RoleIssuer}
)

// auditRecorder captures emitted events for assertions.
type auditRecorder struct {
	mu     sync.Mutex
	events []domain.AuditEvent
}

func (r *auditRecorder) Emit(_ context.Context, event domain.AuditEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *auditRecorder) actions() []domain.AuditAction {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.AuditAction, len(r.events))
	for i, e := range r.events {
		out[i] = e.Action
	}
	return out
}

func newService(t *testing.T) (*workflow.Service, *storage.InMemoryDocumentStore, *auditRecorder) {
	t.Helper()
	store := storage.NewInMemoryDocumentStore()
	recorder := &auditRecorder{}
	svc := workflow.NewService(store, recorder, metrics.NewForTest(), testLogger())
	return svc, store, recorder
}

func submitFields() domain.ExtractedFields {
	return domain.ExtractedFields{
		FullName:    "John Michael Smith",
		DateOfBirth: "1985-03-15",
		IDNumber:    "ID987654321",
	}
}

func enrichment() domain.EnrichmentResult {
	return domain.EnrichmentResult{
		Fields: domain.ExtractedFields{
			IssuedDate: "2020-01-15",
			ExpiryDate: "2030-01-15",
			Address:    "456 Oak Avenue, Springfield, IL 62701",
		},
		OCRConfidence:  94,
		Recommendation: domain.RecommendApprove,
		AIConfidence:   92,
	}
}

// submitReviewed drives a record to UnderReview claimed by verifier.
func submitReviewed(t *testing.T, svc *workflow.Service) domain.DocumentRecord {
	t.Helper()
	ctx := context.Background()
	record, err := svc.Submit(ctx, submitter, domain.DocumentNationalID, "national_id_scan.jpg", submitFields())
	require.NoError(t, err)
	record, err = svc.ApplyEnrichment(ctx, record.ID, enrichment())
	require.NoError(t, err)
	record, err = svc.OpenReview(ctx, record.ID, verifier)
	require.NoError(t, err)
	require.Equal(t, domain.StateUnderReview, record.State)
	return record
}

func TestSubmitCreatesSubmittedRecord(t *testing.T) {
	svc, _, recorder := newService(t)
	ctx := context.Background()

	record, err := svc.Submit(ctx, submitter, domain.DocumentNationalID, "national_id_scan.jpg", submitFields())
	require.NoError(t, err)

	assert.Equal(t, domain.StateSubmitted, record.State)
	assert.Equal(t, submitter.ID, record.OwnerID)
	assert.Equal(t, int64(1), record.Version)
	assert.Equal(t, domain.PriorityHigh, record.Priority())
	assert.Contains(t, recorder.actions(), domain.AuditDocumentSubmitted)
}

func TestSubmitValidation(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Submit(ctx, verifier, domain.DocumentNationalID, "scan.jpg", submitFields())
	assert.Equal(t, domainerrors.CodeUnauthorized, domainerrors.CodeOf(err))

	_, err = svc.Submit(ctx, submitter, domain.DocumentNationalID, "scan.exe", submitFields())
	assert.Equal(t, domainerrors.CodeInvalidInput, domainerrors.CodeOf(err))

	fields := submitFields()
	fields.IDNumber = ""
	_, err = svc.Submit(ctx, submitter, domain.DocumentNationalID, "scan.jpg", fields)
	assert.Equal(t, domainerrors.CodeInvalidInput, domainerrors.CodeOf(err))
}

func TestEnrichmentQueuesRecord(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	record, err := svc.Submit(ctx, submitter, domain.DocumentNationalID, "scan.jpg", submitFields())
	require.NoError(t, err)

	enriched, err := svc.ApplyEnrichment(ctx, record.ID, enrichment())
	require.NoError(t, err)

	assert.Equal(t, domain.StateQueuedForReview, enriched.State)
	assert.Equal(t, domain.RecommendApprove, enriched.Recommendation)
	assert.Equal(t, 92, enriched.AIConfidence)
	// Enrichment fills gaps without erasing submitter-keyed fields.
	assert.Equal(t, "John Michael Smith", enriched.Extracted.FullName)
	assert.Equal(t, "2030-01-15", enriched.Extracted.ExpiryDate)
}

func TestEnrichmentWithoutRecommendationStaysEnriched(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	record, err := svc.Submit(ctx, submitter, domain.DocumentPassport, "passport.pdf", submitFields())
	require.NoError(t, err)

	result := enrichment()
	result.Recommendation = ""
	enriched, err := svc.ApplyEnrichment(ctx, record.ID, result)
	require.NoError(t, err)
	assert.Equal(t, domain.StateEnriched, enriched.State)
}

func TestLateEnrichmentRejected(t *testing.T) {
	svc, _, recorder := newService(t)
	ctx := context.Background()

	record, err := svc.Submit(ctx, submitter, domain.DocumentNationalID, "scan.jpg", submitFields())
	require.NoError(t, err)
	_, err = svc.ApplyEnrichment(ctx, record.ID, enrichment())
	require.NoError(t, err)

	// Duplicate callback for a record already past submission.
	_, err = svc.ApplyEnrichment(ctx, record.ID, enrichment())
	assert.Equal(t, domainerrors.CodeInvalidStateTransition, domainerrors.CodeOf(err))
	assert.Contains(t, recorder.actions(), domain.AuditEnrichmentRejected)

	_, err = svc.ApplyEnrichment(ctx, "missing-id", enrichment())
	assert.Equal(t, domainerrors.CodeNotFound, domainerrors.CodeOf(err))
}

func TestEnrichmentConfidenceBounds(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	record, err := svc.Submit(ctx, submitter, domain.DocumentNationalID, "scan.jpg", submitFields())
	require.NoError(t, err)

	result := enrichment()
	result.AIConfidence = 140
	_, err = svc.ApplyEnrichment(ctx, record.ID, result)
	assert.Equal(t, domainerrors.CodeInvalidInput, domainerrors.CodeOf(err))
}

func TestOpenReviewClaims(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	record, err := svc.Submit(ctx, submitter, domain.DocumentNationalID, "scan.jpg", submitFields())
	require.NoError(t, err)
	record, err = svc.ApplyEnrichment(ctx, record.ID, enrichment())
	require.NoError(t, err)

	claimed, err := svc.OpenReview(ctx, record.ID, verifier)
	require.NoError(t, err)
	assert.Equal(t, domain.StateUnderReview, claimed.State)
	assert.Equal(t, verifier.ID, claimed.AssignedVerifierID)

	// Reopening by the same verifier is a no-op.
	again, err := svc.OpenReview(ctx, record.ID, verifier)
	require.NoError(t, err)
	assert.Equal(t, claimed.Version, again.Version)

	// A second verifier cannot take over a claimed record.
	_, err = svc.OpenReview(ctx, record.ID, verifier2)
	assert.Equal(t, domainerrors.CodeConflict, domainerrors.CodeOf(err))

	// Submitters never open reviews.
	_, err = svc.OpenReview(ctx, record.ID, submitter)
	assert.Equal(t, domainerrors.CodeUnauthorized, domainerrors.CodeOf(err))
}

func TestOpenReviewRequiresQueuedState(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	record, err := svc.Submit(ctx, submitter, domain.DocumentNationalID, "scan.jpg", submitFields())
	require.NoError(t, err)

	_, err = svc.OpenReview(ctx, record.ID, verifier)
	assert.Equal(t, domainerrors.CodeInvalidStateTransition, domainerrors.CodeOf(err))
}

func TestRejectionWithoutRemarks(t *testing.T) {
	svc, _, _ := newService(t)
	record := submitReviewed(t, svc)

	_, err := svc.SubmitDecision(context.Background(), record.ID, verifier, domain.DecisionRejected, "", record.Version)
	assert.Equal(t, domainerrors.CodeMissingRemarks, domainerrors.CodeOf(err))

	// No state change happened.
	current, err := svc.Find(context.Background(), record.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StateUnderReview, current.State)
	assert.Equal(t, record.Version, current.Version)
}

func TestApproveMovesRecordToTerminalState(t *testing.T) {
	svc, _, recorder := newService(t)
	record := submitReviewed(t, svc)

	updated, err := svc.SubmitDecision(context.Background(), record.ID, verifier, domain.DecisionApproved, "ok", record.Version)
	require.NoError(t, err)

	assert.Equal(t, domain.StateApproved, updated.State)
	assert.Equal(t, domain.DecisionApproved, updated.Decision)
	assert.Equal(t, "ok", updated.DecisionRemarks)
	require.NotNil(t, updated.DecidedAt)
	assert.True(t, updated.State.Terminal())
	assert.Contains(t, recorder.actions(), domain.AuditDecisionRecorded)
}

func TestPendingReturnsRecordToSubmitter(t *testing.T) {
	svc, _, _ := newService(t)
	record := submitReviewed(t, svc)

	updated, err := svc.SubmitDecision(context.Background(), record.ID, verifier, domain.DecisionPending, "need a clearer scan", record.Version)
	require.NoError(t, err)
	assert.Equal(t, domain.StateAwaitingSubmitterAction, updated.State)
	assert.False(t, updated.State.Terminal())
}

func TestDecisionGuards(t *testing.T) {
	svc, _, _ := newService(t)
	record := submitReviewed(t, svc)
	ctx := context.Background()

	_, err := svc.SubmitDecision(ctx, record.ID, submitter, domain.DecisionApproved, "", record.Version)
	assert.Equal(t, domainerrors.CodeUnauthorized, domainerrors.CodeOf(err))

	_, err = svc.SubmitDecision(ctx, record.ID, verifier2, domain.DecisionApproved, "", record.Version)
	assert.Equal(t, domainerrors.CodeUnauthorized, domainerrors.CodeOf(err))

	_, err = svc.SubmitDecision(ctx, record.ID, verifier, domain.Decision("Maybe"), "", record.Version)
	assert.Equal(t, domainerrors.CodeInvalidInput, domainerrors.CodeOf(err))

	_, err = svc.SubmitDecision(ctx, "missing", verifier, domain.DecisionApproved, "", record.Version)
	assert.Equal(t, domainerrors.CodeNotFound, domainerrors.CodeOf(err))
}

func TestIssuerDecidesThroughSameContract(t *testing.T) {
	svc, _, _ := newService(t)
	record := submitReviewed(t, svc)

	updated, err := svc.SubmitDecision(context.Background(), record.ID, issuer, domain.DecisionRejected, "document appears tampered with", record.Version)
	require.NoError(t, err)
	assert.Equal(t, domain.StateRejected, updated.State)
}

func TestDecisionOnNonReviewStateFails(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	record, err := svc.Submit(ctx, submitter, domain.DocumentNationalID, "scan.jpg", submitFields())
	require.NoError(t, err)

	_, err = svc.SubmitDecision(ctx, record.ID, verifier, domain.DecisionApproved, "", record.Version)
	assert.Equal(t, domainerrors.CodeInvalidStateTransition, domainerrors.CodeOf(err))
}

func TestRetriedDecisionConflicts(t *testing.T) {
	svc, _, _ := newService(t)
	record := submitReviewed(t, svc)
	ctx := context.Background()

	_, err := svc.SubmitDecision(ctx, record.ID, verifier, domain.DecisionApproved, "ok", record.Version)
	require.NoError(t, err)

	// Identical retry carries the stale version: Conflict, not a duplicate.
	_, err = svc.SubmitDecision(ctx, record.ID, verifier, domain.DecisionApproved, "ok", record.Version)
	assert.Equal(t, domainerrors.CodeConflict, domainerrors.CodeOf(err))
}

func TestConcurrentDecisionsExactlyOneWins(t *testing.T) {
	svc, _, _ := newService(t)
	record := submitReviewed(t, svc)
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = svc.SubmitDecision(ctx, record.ID, verifier, domain.DecisionApproved, "ok", record.Version)
		}(i)
	}
	wg.Wait()

	var successes, conflicts int
	for _, err := range results {
		switch {
		case err == nil:
			successes++
		case domainerrors.Is(err, domainerrors.CodeConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, conflicts)
}

func TestResubmitStartsNewCycle(t *testing.T) {
	svc, _, recorder := newService(t)
	record := submitReviewed(t, svc)
	ctx := context.Background()

	held, err := svc.SubmitDecision(ctx, record.ID, verifier, domain.DecisionPending, "blurry scan", record.Version)
	require.NoError(t, err)

	resubmitted, err := svc.Resubmit(ctx, held.ID, submitter, "national_id_rescan.jpg")
	require.NoError(t, err)

	assert.Equal(t, domain.StateSubmitted, resubmitted.State)
	assert.Empty(t, string(resubmitted.Decision))
	assert.Empty(t, resubmitted.DecisionRemarks)
	assert.Nil(t, resubmitted.DecidedAt)
	assert.Empty(t, resubmitted.AssignedVerifierID)
	assert.Contains(t, recorder.actions(), domain.AuditDocumentResubmitted)
}

func TestResubmitGuards(t *testing.T) {
	svc, _, _ := newService(t)
	record := submitReviewed(t, svc)
	ctx := context.Background()

	held, err := svc.SubmitDecision(ctx, record.ID, verifier, domain.DecisionPending, "blurry scan", record.Version)
	require.NoError(t, err)

	stranger := domain.Identity{ID: "user-999", Role: domain.RoleSubmitter}
	_, err = svc.Resubmit(ctx, held.ID, stranger, "rescan.jpg")
	assert.Equal(t, domainerrors.CodeUnauthorized, domainerrors.CodeOf(err))

	_, err = svc.Resubmit(ctx, held.ID, submitter, "rescan.exe")
	assert.Equal(t, domainerrors.CodeInvalidInput, domainerrors.CodeOf(err))
}

func TestResubmitOnlyFromAwaitingState(t *testing.T) {
	svc, _, _ := newService(t)
	record := submitReviewed(t, svc)

	_, err := svc.Resubmit(context.Background(), record.ID, submitter, "rescan.jpg")
	assert.Equal(t, domainerrors.CodeInvalidStateTransition, domainerrors.CodeOf(err))
}

func TestRiskFlagsSurviveDecisions(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	record, err := svc.Submit(ctx, submitter, domain.DocumentDriverLicense, "license.jpg", submitFields())
	require.NoError(t, err)

	result := enrichment()
	result.Recommendation = domain.RecommendReviewRequired
	result.RiskFlags = []string{"Low OCR Confidence", "Date Format Inconsistency"}
	record, err = svc.ApplyEnrichment(ctx, record.ID, result)
	require.NoError(t, err)

	record, err = svc.OpenReview(ctx, record.ID, verifier)
	require.NoError(t, err)

	updated, err := svc.SubmitDecision(ctx, record.ID, verifier, domain.DecisionPending, "resolve the flags", record.Version)
	require.NoError(t, err)
	assert.Equal(t, []string{"Low OCR Confidence", "Date Format Inconsistency"}, updated.RiskFlags)
}

func testClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestDecisionTimestampUsesServiceClock(t *testing.T) {
	svc, _, _ := newService(t)
	fixed := time.Date(2024, 9, 14, 10, 30, 0, 0, time.UTC)
	svc.WithClock(testClock(fixed))
	record := submitReviewed(t, svc)

	updated, err := svc.SubmitDecision(context.Background(), record.ID, verifier, domain.DecisionApproved, "ok", record.Version)
	require.NoError(t, err)
	require.NotNil(t, updated.DecidedAt)
	assert.Equal(t, fixed, *updated.DecidedAt)
}
