package domain

import "time"

// AuditAction labels the workflow operation an audit event records.
type AuditAction string

const (
	AuditDocumentSubmitted   AuditAction = "document_submitted"
	AuditDocumentEnriched    AuditAction = "document_enriched"
	AuditEnrichmentRejected  AuditAction = "enrichment_rejected"
	AuditReviewOpened        AuditAction = "review_opened"
	AuditDecisionRecorded    AuditAction = "decision_recorded"
	AuditDocumentResubmitted AuditAction = "document_resubmitted"
)

// AuditEvent is emitted from workflow logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type AuditEvent struct {
	Timestamp  time.Time
	ActorID    string
	ActorRole  Role
	Action     AuditAction
	DocumentID string
	Decision   Decision
	Reason     string
}
