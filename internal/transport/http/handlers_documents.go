package httptransport

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"trustnet/internal/domain"
	domainerrors "trustnet/pkg/domain-errors"
)

// WorkflowService is the slice of the verification engine the transport needs.
type WorkflowService interface {
	Submit(ctx context.Context, caller domain.Identity, docType domain.DocumentType, fileName string, fields domain.ExtractedFields) (domain.DocumentRecord, error)
	Resubmit(ctx context.Context, documentID string, caller domain.Identity, fileName string) (domain.DocumentRecord, error)
	OpenReview(ctx context.Context, documentID string, caller domain.Identity) (domain.DocumentRecord, error)
	SubmitDecision(ctx context.Context, documentID string, caller domain.Identity, decision domain.Decision, remarks string, expectedVersion int64) (domain.DocumentRecord, error)
	ApplyEnrichment(ctx context.Context, documentID string, result domain.EnrichmentResult) (domain.DocumentRecord, error)
}

// QueueService renders the role-partitioned work queues.
type QueueService interface {
	For(ctx context.Context, identity domain.Identity) ([]domain.DocumentRecord, error)
}

// AuditLog reads the per-document audit trail.
type AuditLog interface {
	ListByDocument(ctx context.Context, documentID string) ([]domain.AuditEvent, error)
}

type submitRequest struct {
	DocumentType string                 `json:"document_type"`
	FileName     string                 `json:"file_name"`
	Fields       extractedFieldsPayload `json:"fields"`
}

type resubmitRequest struct {
	FileName string `json:"file_name"`
}

type decisionRequest struct {
	Decision        string `json:"decision"`
	Remarks         string `json:"remarks"`
	ExpectedVersion int64  `json:"expected_version"`
}

type extractedFieldsPayload struct {
	FullName    string `json:"full_name"`
	DateOfBirth string `json:"date_of_birth"`
	IDNumber    string `json:"id_number"`
	IssuedDate  string `json:"issued_date,omitempty"`
	ExpiryDate  string `json:"expiry_date,omitempty"`
	Address     string `json:"address,omitempty"`
	Nationality string `json:"nationality,omitempty"`
}

func (p extractedFieldsPayload) toDomain() domain.ExtractedFields {
	return domain.ExtractedFields{
		FullName:    p.FullName,
		DateOfBirth: p.DateOfBirth,
		IDNumber:    p.IDNumber,
		IssuedDate:  p.IssuedDate,
		ExpiryDate:  p.ExpiryDate,
		Address:     p.Address,
		Nationality: p.Nationality,
	}
}

func extractedFieldsPayloadOf(f domain.ExtractedFields) extractedFieldsPayload {
	return extractedFieldsPayload{
		FullName:    f.FullName,
		DateOfBirth: f.DateOfBirth,
		IDNumber:    f.IDNumber,
		IssuedDate:  f.IssuedDate,
		ExpiryDate:  f.ExpiryDate,
		Address:     f.Address,
		Nationality: f.Nationality,
	}
}

type documentResponse struct {
	ID                 string                 `json:"id"`
	OwnerID            string                 `json:"owner_id"`
	OwnerName          string                 `json:"owner_name"`
	DocumentType       string                 `json:"document_type"`
	FileName           string                 `json:"file_name"`
	SubmittedAt        time.Time              `json:"submitted_at"`
	State              string                 `json:"state"`
	Priority           string                 `json:"priority"`
	Fields             extractedFieldsPayload `json:"fields"`
	OCRConfidence      int                    `json:"ocr_confidence,omitempty"`
	Recommendation     string                 `json:"recommendation,omitempty"`
	AIConfidence       int                    `json:"ai_confidence,omitempty"`
	RiskFlags          []string               `json:"risk_flags,omitempty"`
	AssignedVerifierID string                 `json:"assigned_verifier_id,omitempty"`
	Decision           string                 `json:"decision,omitempty"`
	DecisionRemarks    string                 `json:"decision_remarks,omitempty"`
	DecidedAt          *time.Time             `json:"decided_at,omitempty"`
	Version            int64                  `json:"version"`
}

func documentResponseOf(record domain.DocumentRecord) documentResponse {
	return documentResponse{
		ID:                 record.ID,
		OwnerID:            record.OwnerID,
		OwnerName:          record.OwnerName,
		DocumentType:       string(record.Type),
		FileName:           record.FileName,
		SubmittedAt:        record.SubmittedAt,
		State:              string(record.State),
		Priority:           record.Priority().String(),
		Fields:             extractedFieldsPayloadOf(record.Extracted),
		OCRConfidence:      record.OCRConfidence,
		Recommendation:     string(record.Recommendation),
		AIConfidence:       record.AIConfidence,
		RiskFlags:          record.RiskFlags,
		AssignedVerifierID: record.AssignedVerifierID,
		Decision:           string(record.Decision),
		DecisionRemarks:    record.DecisionRemarks,
		DecidedAt:          record.DecidedAt,
		Version:            record.Version,
	}
}

type auditEventResponse struct {
	Timestamp  time.Time `json:"timestamp"`
	ActorID    string    `json:"actor_id"`
	ActorRole  string    `json:"actor_role"`
	Action     string    `json:"action"`
	DocumentID string    `json:"document_id"`
	Decision   string    `json:"decision,omitempty"`
	Reason     string    `json:"reason,omitempty"`
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	caller, ok := IdentityFrom(r.Context())
	if !ok {
		writeError(w, domainerrors.New(domainerrors.CodeUnauthorized, "authentication required"))
		return
	}

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domainerrors.New(domainerrors.CodeInvalidInput, "invalid request body"))
		return
	}

	docType, err := domain.ParseDocumentType(req.DocumentType)
	if err != nil {
		writeError(w, domainerrors.New(domainerrors.CodeInvalidInput, err.Error()))
		return
	}

	record, err := h.workflow.Submit(r.Context(), caller, docType, req.FileName, req.Fields.toDomain())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, documentResponseOf(record))
}

func (h *Handler) handleResubmit(w http.ResponseWriter, r *http.Request) {
	caller, ok := IdentityFrom(r.Context())
	if !ok {
		writeError(w, domainerrors.New(domainerrors.CodeUnauthorized, "authentication required"))
		return
	}

	var req resubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domainerrors.New(domainerrors.CodeInvalidInput, "invalid request body"))
		return
	}

	record, err := h.workflow.Resubmit(r.Context(), chi.URLParam(r, "id"), caller, req.FileName)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, documentResponseOf(record))
}

func (h *Handler) handleQueue(w http.ResponseWriter, r *http.Request) {
	caller, ok := IdentityFrom(r.Context())
	if !ok {
		writeError(w, domainerrors.New(domainerrors.CodeUnauthorized, "authentication required"))
		return
	}

	records, err := h.queues.For(r.Context(), caller)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]documentResponse, 0, len(records))
	for _, record := range records {
		out = append(out, documentResponseOf(record))
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": out})
}

func (h *Handler) handleOpenReview(w http.ResponseWriter, r *http.Request) {
	caller, ok := IdentityFrom(r.Context())
	if !ok {
		writeError(w, domainerrors.New(domainerrors.CodeUnauthorized, "authentication required"))
		return
	}

	record, err := h.workflow.OpenReview(r.Context(), chi.URLParam(r, "id"), caller)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, documentResponseOf(record))
}

func (h *Handler) handleDecision(w http.ResponseWriter, r *http.Request) {
	caller, ok := IdentityFrom(r.Context())
	if !ok {
		writeError(w, domainerrors.New(domainerrors.CodeUnauthorized, "authentication required"))
		return
	}

	var req decisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domainerrors.New(domainerrors.CodeInvalidInput, "invalid request body"))
		return
	}

	decision, err := domain.ParseDecision(req.Decision)
	if err != nil {
		writeError(w, domainerrors.New(domainerrors.CodeInvalidInput, err.Error()))
		return
	}

	record, err := h.workflow.SubmitDecision(r.Context(), chi.URLParam(r, "id"), caller, decision, req.Remarks, req.ExpectedVersion)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, documentResponseOf(record))
}

func (h *Handler) handleAuditTrail(w http.ResponseWriter, r *http.Request) {
	events, err := h.auditLog.ListByDocument(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]auditEventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, auditEventResponse{
			Timestamp:  e.Timestamp,
			ActorID:    e.ActorID,
			ActorRole:  string(e.ActorRole),
			Action:     string(e.Action),
			DocumentID: e.DocumentID,
			Decision:   string(e.Decision),
			Reason:     e.Reason,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": out})
}
