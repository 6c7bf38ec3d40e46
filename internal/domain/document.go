package domain

import (
	"fmt"
	"strings"
	"time"
)

// State is the document lifecycle position. Transitions between states are
// owned by the workflow package; nothing else mutates it.
type State string

const (
	StateSubmitted               State = "submitted"
	StateEnriched                State = "enriched"
	StateQueuedForReview         State = "queued_for_review"
	StateUnderReview             State = "under_review"
	StateApproved                State = "approved"
	StateRejected                State = "rejected"
	StateAwaitingSubmitterAction State = "awaiting_submitter_action"
)

// Terminal reports whether the state ends this submission instance. Approved
// is the issued terminal state; a fresh submission creates a new record.
func (s State) Terminal() bool {
	return s == StateApproved || s == StateRejected
}

// DocumentType is the closed set of document kinds the portal accepts.
type DocumentType string

const (
	DocumentNationalID       DocumentType = "national-id"
	DocumentPassport         DocumentType = "passport"
	DocumentDriverLicense    DocumentType = "driver-license"
	DocumentBirthCertificate DocumentType = "birth-certificate"
	DocumentOther            DocumentType = "other"
)

// ParseDocumentType validates an externally supplied document type.
func ParseDocumentType(s string) (DocumentType, error) {
	switch DocumentType(s) {
	case DocumentNationalID, DocumentPassport, DocumentDriverLicense,
		DocumentBirthCertificate, DocumentOther:
		return DocumentType(s), nil
	}
	return "", fmt.Errorf("unknown document type: %q", s)
}

// Priority orders review queues. It is derived from the document type and
// never stored, so queue ordering can't drift from record contents.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityNormal
	PriorityHigh
)

func (p Priority) String() string {
	switch p {
	case PriorityHigh:
		return "High"
	case PriorityNormal:
		return "Normal"
	}
	return "Low"
}

// QueuePriority maps document types to review priority. National IDs jump the
// queue; unclassified documents wait.
func (t DocumentType) QueuePriority() Priority {
	switch t {
	case DocumentNationalID:
		return PriorityHigh
	case DocumentPassport, DocumentDriverLicense, DocumentBirthCertificate:
		return PriorityNormal
	}
	return PriorityLow
}

// Recommendation is the enrichment collaborator's verdict. The engine never
// generates these values itself.
type Recommendation string

const (
	RecommendApprove        Recommendation = "Approve"
	RecommendReject         Recommendation = "Reject"
	RecommendReviewRequired Recommendation = "Review Required"
)

// ParseRecommendation validates a recommendation delivered by the enrichment
// collaborator.
func ParseRecommendation(s string) (Recommendation, error) {
	switch Recommendation(s) {
	case RecommendApprove, RecommendReject, RecommendReviewRequired:
		return Recommendation(s), nil
	}
	return "", fmt.Errorf("unknown recommendation: %q", s)
}

// Decision is a verifier or issuer verdict on a record under review.
type Decision string

const (
	DecisionApproved Decision = "Approved"
	DecisionRejected Decision = "Rejected"
	// DecisionPending asks the submitter for more information; it returns the
	// record to the submitter rather than terminating it.
	DecisionPending Decision = "Pending"
)

// ParseDecision validates an externally supplied decision value.
func ParseDecision(s string) (Decision, error) {
	switch Decision(s) {
	case DecisionApproved, DecisionRejected, DecisionPending:
		return Decision(s), nil
	}
	return "", fmt.Errorf("unknown decision: %q", s)
}

// ExtractedFields holds the data the OCR collaborator pulled from the scan.
// FullName, DateOfBirth and IDNumber are required at submission; the rest
// depend on the document type.
type ExtractedFields struct {
	FullName    string
	DateOfBirth string
	IDNumber    string
	IssuedDate  string
	ExpiryDate  string
	Address     string
	Nationality string
}

// EnrichmentResult is the asynchronous payload delivered by the OCR/AI
// collaborator, keyed by document id.
type EnrichmentResult struct {
	Fields         ExtractedFields
	OCRConfidence  int
	Recommendation Recommendation
	AIConfidence   int
	RiskFlags      []string
}

// DocumentRecord is one submitted document and its evolving verification
// state. It is created on submission, mutated only by enrichment and the
// decision processor, and retained indefinitely once terminal for audit.
type DocumentRecord struct {
	ID          string
	OwnerID     string
	OwnerName   string
	OwnerEmail  string
	Type        DocumentType
	FileName    string
	SubmittedAt time.Time

	Extracted      ExtractedFields
	OCRConfidence  int
	Recommendation Recommendation
	AIConfidence   int
	// RiskFlags is append-only until the record leaves the review queue;
	// decisions never clear it.
	RiskFlags []string

	State              State
	AssignedVerifierID string

	Decision        Decision
	DecisionRemarks string
	DecidedAt       *time.Time

	// Version guards concurrent updates: every mutation bumps it and every
	// update compares against the expected value.
	Version int64
}

// Priority exposes the derived queue priority of this record.
func (d DocumentRecord) Priority() Priority {
	return d.Type.QueuePriority()
}

// OwnedBy reports whether the identity is the record's submitter.
func (d DocumentRecord) OwnedBy(id Identity) bool {
	return d.OwnerID == id.ID
}

// AllowedFileExtensions lists the scan formats the portal accepts.
var AllowedFileExtensions = []string{".jpg", ".jpeg", ".png", ".pdf"}

// ValidFileName reports whether the uploaded file carries an accepted
// extension.
func ValidFileName(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range AllowedFileExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
