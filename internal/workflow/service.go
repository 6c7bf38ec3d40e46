// Package workflow owns the document lifecycle: submission, enrichment,
// review claims, decisions and resubmission. Every mutation goes through the
// transition table and a versioned compare-and-set, so no intermediate state
// is ever externally observable.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"trustnet/internal/domain"
	"trustnet/internal/platform/metrics"
	"trustnet/internal/storage"
	domainerrors "trustnet/pkg/domain-errors"
)

// AuditPublisher receives workflow audit events. The audit package provides
// the production implementation; tests swap in a recorder.
type AuditPublisher interface {
	Emit(ctx context.Context, event domain.AuditEvent) error
}

// Service applies decisions and lifecycle transitions to document records.
type Service struct {
	store   storage.DocumentStore
	audit   AuditPublisher
	metrics *metrics.Metrics
	log     *slog.Logger
	tracer  trace.Tracer
	now     func() time.Time
}

func NewService(store storage.DocumentStore, audit AuditPublisher, m *metrics.Metrics, log *slog.Logger) *Service {
	return &Service{
		store:   store,
		audit:   audit,
		metrics: m,
		log:     log,
		tracer:  otel.Tracer("trustnet/workflow"),
		now:     time.Now,
	}
}

// WithClock overrides the service clock. Test hook.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Submit creates a record in the Submitted state on behalf of its owner.
func (s *Service) Submit(ctx context.Context, caller domain.Identity, docType domain.DocumentType, fileName string, fields domain.ExtractedFields) (domain.DocumentRecord, error) {
	if caller.Role != domain.RoleSubmitter {
		return domain.DocumentRecord{}, domainerrors.New(domainerrors.CodeUnauthorized, "only submitters may submit documents")
	}
	if !domain.ValidFileName(fileName) {
		return domain.DocumentRecord{}, domainerrors.New(domainerrors.CodeInvalidInput, "file must be a JPEG, PNG or PDF scan")
	}
	if err := requireFields(fields); err != nil {
		return domain.DocumentRecord{}, err
	}

	record := domain.DocumentRecord{
		ID:          uuid.NewString(),
		OwnerID:     caller.ID,
		OwnerName:   caller.Name,
		OwnerEmail:  caller.Email,
		Type:        docType,
		FileName:    fileName,
		SubmittedAt: s.now().UTC(),
		Extracted:   fields,
		State:       domain.StateSubmitted,
		Version:     1,
	}
	if err := s.store.Save(ctx, record); err != nil {
		return domain.DocumentRecord{}, fmt.Errorf("save submission: %w", err)
	}

	s.metrics.DocumentsSubmitted.Inc()
	s.emitAudit(ctx, caller, domain.AuditDocumentSubmitted, record.ID, "", string(docType))
	s.log.InfoContext(ctx, "document submitted",
		"document_id", record.ID,
		"owner_id", caller.ID,
		"type", string(docType),
	)
	return record, nil
}

// ApplyEnrichment accepts the asynchronous OCR/AI completion for a record.
// The callback may arrive at any time; only records still in Submitted accept
// it. Late or duplicate callbacks are rejected and logged, never fatal. When
// the AI recommendation is present the record moves straight through Enriched
// into the review queue within a single atomic update.
func (s *Service) ApplyEnrichment(ctx context.Context, documentID string, result domain.EnrichmentResult) (domain.DocumentRecord, error) {
	record, err := s.find(ctx, documentID)
	if err != nil {
		return domain.DocumentRecord{}, err
	}

	if record.State != domain.StateSubmitted {
		s.metrics.EnrichmentsRejected.Inc()
		s.emitAudit(ctx, domain.Identity{}, domain.AuditEnrichmentRejected, record.ID, "",
			"enrichment arrived in state "+string(record.State))
		s.log.WarnContext(ctx, "enrichment rejected: record already past submission",
			"document_id", record.ID,
			"state", string(record.State),
		)
		return domain.DocumentRecord{}, domainerrors.New(domainerrors.CodeInvalidStateTransition,
			"enrichment accepted only while the document is awaiting analysis")
	}
	if result.OCRConfidence < 0 || result.OCRConfidence > 100 || result.AIConfidence < 0 || result.AIConfidence > 100 {
		return domain.DocumentRecord{}, domainerrors.New(domainerrors.CodeInvalidInput, "confidence scores must be between 0 and 100")
	}

	expected := record.Version
	record.Extracted = mergeFields(record.Extracted, result.Fields)
	record.OCRConfidence = result.OCRConfidence
	record.Recommendation = result.Recommendation
	record.AIConfidence = result.AIConfidence
	record.RiskFlags = append(record.RiskFlags, result.RiskFlags...)
	record.State = domain.StateEnriched
	// Queue placement is guarded on the recommendation being present; with it
	// the record lands directly in the review queue.
	if record.Recommendation != "" {
		record.State = domain.StateQueuedForReview
	}

	updated, err := s.update(ctx, record, expected)
	if err != nil {
		return domain.DocumentRecord{}, err
	}

	s.metrics.EnrichmentsApplied.Inc()
	s.emitAudit(ctx, domain.Identity{}, domain.AuditDocumentEnriched, record.ID, "", string(record.Recommendation))
	s.log.InfoContext(ctx, "document enriched",
		"document_id", record.ID,
		"recommendation", string(record.Recommendation),
		"ai_confidence", result.AIConfidence,
		"risk_flags", len(record.RiskFlags),
	)
	return updated, nil
}

// OpenReview claims a queued record for the calling verifier. Reopening a
// record the caller already holds is a no-op; a record held by someone else
// conflicts.
func (s *Service) OpenReview(ctx context.Context, documentID string, caller domain.Identity) (domain.DocumentRecord, error) {
	if caller.Role != domain.RoleVerifier {
		return domain.DocumentRecord{}, domainerrors.New(domainerrors.CodeUnauthorized, "only verifiers open reviews")
	}

	record, err := s.find(ctx, documentID)
	if err != nil {
		return domain.DocumentRecord{}, err
	}

	if record.State == domain.StateUnderReview {
		if record.AssignedVerifierID == caller.ID {
			return record, nil
		}
		return domain.DocumentRecord{}, domainerrors.New(domainerrors.CodeConflict, "record is claimed by another verifier")
	}
	if !canTransition(record.State, domain.StateUnderReview) {
		return domain.DocumentRecord{}, domainerrors.New(domainerrors.CodeInvalidStateTransition,
			"record is not queued for review")
	}
	if record.AssignedVerifierID != "" && record.AssignedVerifierID != caller.ID {
		return domain.DocumentRecord{}, domainerrors.New(domainerrors.CodeUnauthorized, "record is assigned to another verifier")
	}

	expected := record.Version
	record.State = domain.StateUnderReview
	record.AssignedVerifierID = caller.ID

	updated, err := s.update(ctx, record, expected)
	if err != nil {
		return domain.DocumentRecord{}, err
	}

	s.metrics.ReviewsOpened.Inc()
	s.emitAudit(ctx, caller, domain.AuditReviewOpened, record.ID, "", "")
	return updated, nil
}

// SubmitDecision records a verifier or issuer verdict. State, decision,
// remarks and the decision timestamp update together under a compare-and-set
// against expectedVersion; a stale version yields Conflict, so a retried
// identical request after success cannot double-apply.
func (s *Service) SubmitDecision(ctx context.Context, documentID string, caller domain.Identity, decision domain.Decision, remarks string, expectedVersion int64) (domain.DocumentRecord, error) {
	ctx, span := s.tracer.Start(ctx, "workflow.SubmitDecision",
		trace.WithAttributes(
			attribute.String("document.id", documentID),
			attribute.String("decision", string(decision)),
		))
	defer span.End()
	start := s.now()
	defer func() {
		s.metrics.DecisionDuration.Observe(time.Since(start).Seconds())
	}()

	if !mayDecide(caller.Role) {
		return domain.DocumentRecord{}, domainerrors.New(domainerrors.CodeUnauthorized, "only verifiers and issuers record decisions")
	}
	if _, err := domain.ParseDecision(string(decision)); err != nil {
		return domain.DocumentRecord{}, domainerrors.New(domainerrors.CodeInvalidInput, err.Error())
	}
	if (decision == domain.DecisionRejected || decision == domain.DecisionPending) && strings.TrimSpace(remarks) == "" {
		return domain.DocumentRecord{}, domainerrors.New(domainerrors.CodeMissingRemarks,
			"a rejection or hold requires remarks explaining the reason")
	}

	record, err := s.find(ctx, documentID)
	if err != nil {
		return domain.DocumentRecord{}, err
	}

	target := decisionState(decision)
	if !canTransition(record.State, target) {
		return domain.DocumentRecord{}, domainerrors.New(domainerrors.CodeInvalidStateTransition,
			"decisions apply only to records under review")
	}
	if caller.Role == domain.RoleVerifier && record.AssignedVerifierID != "" && record.AssignedVerifierID != caller.ID {
		return domain.DocumentRecord{}, domainerrors.New(domainerrors.CodeUnauthorized, "record is claimed by another verifier")
	}

	decidedAt := s.now().UTC()
	record.State = target
	record.Decision = decision
	record.DecisionRemarks = remarks
	record.DecidedAt = &decidedAt

	updated, err := s.update(ctx, record, expectedVersion)
	if err != nil {
		return domain.DocumentRecord{}, err
	}

	s.metrics.Decisions.WithLabelValues(string(decision)).Inc()
	s.emitAudit(ctx, caller, domain.AuditDecisionRecorded, record.ID, decision, remarks)
	s.log.InfoContext(ctx, "decision recorded",
		"document_id", record.ID,
		"decision", string(decision),
		"actor_id", caller.ID,
		"role", string(caller.Role),
	)
	return updated, nil
}

// Resubmit returns a record held for more information to the Submitted state.
// Only the owning submitter may do this; the decision fields reset for the new
// verifier cycle while accumulated risk flags stay.
func (s *Service) Resubmit(ctx context.Context, documentID string, caller domain.Identity, fileName string) (domain.DocumentRecord, error) {
	record, err := s.find(ctx, documentID)
	if err != nil {
		return domain.DocumentRecord{}, err
	}
	if !record.OwnedBy(caller) || caller.Role != domain.RoleSubmitter {
		return domain.DocumentRecord{}, domainerrors.New(domainerrors.CodeUnauthorized, "only the owning submitter may resubmit")
	}
	if !canTransition(record.State, domain.StateSubmitted) {
		return domain.DocumentRecord{}, domainerrors.New(domainerrors.CodeInvalidStateTransition,
			"record is not awaiting submitter action")
	}
	if !domain.ValidFileName(fileName) {
		return domain.DocumentRecord{}, domainerrors.New(domainerrors.CodeInvalidInput, "file must be a JPEG, PNG or PDF scan")
	}

	expected := record.Version
	record.State = domain.StateSubmitted
	record.FileName = fileName
	record.SubmittedAt = s.now().UTC()
	record.AssignedVerifierID = ""
	record.Decision = ""
	record.DecisionRemarks = ""
	record.DecidedAt = nil
	record.Recommendation = ""
	record.OCRConfidence = 0
	record.AIConfidence = 0

	updated, err := s.update(ctx, record, expected)
	if err != nil {
		return domain.DocumentRecord{}, err
	}

	s.emitAudit(ctx, caller, domain.AuditDocumentResubmitted, record.ID, "", "")
	s.log.InfoContext(ctx, "document resubmitted",
		"document_id", record.ID,
		"owner_id", caller.ID,
	)
	return updated, nil
}

// Find loads a record without mutating it. Read access control happens at the
// queue layer; this exists for the transport's detail views.
func (s *Service) Find(ctx context.Context, documentID string) (domain.DocumentRecord, error) {
	return s.find(ctx, documentID)
}

func (s *Service) find(ctx context.Context, documentID string) (domain.DocumentRecord, error) {
	record, err := s.store.FindByID(ctx, documentID)
	if errors.Is(err, storage.ErrNotFound) {
		return domain.DocumentRecord{}, domainerrors.New(domainerrors.CodeNotFound, "document not found")
	}
	if err != nil {
		return domain.DocumentRecord{}, fmt.Errorf("find document: %w", err)
	}
	return record, nil
}

func (s *Service) update(ctx context.Context, record domain.DocumentRecord, expectedVersion int64) (domain.DocumentRecord, error) {
	updated, err := s.store.Update(ctx, record, expectedVersion)
	if errors.Is(err, storage.ErrConflict) {
		return domain.DocumentRecord{}, domainerrors.New(domainerrors.CodeConflict, "record was modified concurrently")
	}
	if errors.Is(err, storage.ErrNotFound) {
		return domain.DocumentRecord{}, domainerrors.New(domainerrors.CodeNotFound, "document not found")
	}
	if err != nil {
		return domain.DocumentRecord{}, fmt.Errorf("update document: %w", err)
	}
	return updated, nil
}

func (s *Service) emitAudit(ctx context.Context, actor domain.Identity, action domain.AuditAction, documentID string, decision domain.Decision, reason string) {
	if s.audit == nil {
		return
	}
	event := domain.AuditEvent{
		Timestamp:  s.now().UTC(),
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     action,
		DocumentID: documentID,
		Decision:   decision,
		Reason:     reason,
	}
	if err := s.audit.Emit(ctx, event); err != nil {
		s.log.ErrorContext(ctx, "audit emit failed", "error", err, "action", string(action))
	}
}

func requireFields(fields domain.ExtractedFields) error {
	var missing []string
	if strings.TrimSpace(fields.FullName) == "" {
		missing = append(missing, "fullName")
	}
	if strings.TrimSpace(fields.DateOfBirth) == "" {
		missing = append(missing, "dateOfBirth")
	}
	if strings.TrimSpace(fields.IDNumber) == "" {
		missing = append(missing, "idNumber")
	}
	if len(missing) > 0 {
		return domainerrors.New(domainerrors.CodeInvalidInput, "missing required fields: "+strings.Join(missing, ", "))
	}
	return nil
}

// mergeFields lets enrichment fill gaps without erasing what the submitter
// keyed in by hand.
func mergeFields(current, incoming domain.ExtractedFields) domain.ExtractedFields {
	pick := func(cur, inc string) string {
		if strings.TrimSpace(inc) != "" {
			return inc
		}
		return cur
	}
	return domain.ExtractedFields{
		FullName:    pick(current.FullName, incoming.FullName),
		DateOfBirth: pick(current.DateOfBirth, incoming.DateOfBirth),
		IDNumber:    pick(current.IDNumber, incoming.IDNumber),
		IssuedDate:  pick(current.IssuedDate, incoming.IssuedDate),
		ExpiryDate:  pick(current.ExpiryDate, incoming.ExpiryDate),
		Address:     pick(current.Address, incoming.Address),
		Nationality: pick(current.Nationality, incoming.Nationality),
	}
}
