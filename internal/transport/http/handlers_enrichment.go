package httptransport

import (
	"encoding/json"
	"net/http"

	"github.com/asaskevich/govalidator"
	"github.com/go-chi/chi/v5"

	"trustnet/internal/domain"
	domainerrors "trustnet/pkg/domain-errors"
)

type enrichmentCallbackRequest struct {
	DocumentID     string                 `json:"document_id"`
	Fields         extractedFieldsPayload `json:"fields"`
	OCRConfidence  int                    `json:"ocr_confidence"`
	Recommendation string                 `json:"recommendation"`
	AIConfidence   int                    `json:"ai_confidence"`
	RiskFlags      []string               `json:"risk_flags"`
}

func (h *Handler) registerEnrichmentRoutes(r chi.Router) {
	r.Post("/api/enrichment/callback", h.handleEnrichmentCallback)
}

// handleEnrichmentCallback receives the asynchronous OCR/AI result. The
// engine decides whether the record still accepts it; late or duplicate
// callbacks come back as conflicts.
func (h *Handler) handleEnrichmentCallback(w http.ResponseWriter, r *http.Request) {
	var req enrichmentCallbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domainerrors.New(domainerrors.CodeInvalidInput, "invalid request body"))
		return
	}

	if !govalidator.StringLength(req.DocumentID, "1", "100") {
		writeError(w, domainerrors.New(domainerrors.CodeInvalidInput, "document_id is required"))
		return
	}

	result := domain.EnrichmentResult{
		Fields:        req.Fields.toDomain(),
		OCRConfidence: req.OCRConfidence,
		AIConfidence:  req.AIConfidence,
		RiskFlags:     req.RiskFlags,
	}
	if req.Recommendation != "" {
		recommendation, err := domain.ParseRecommendation(req.Recommendation)
		if err != nil {
			writeError(w, domainerrors.New(domainerrors.CodeInvalidInput, err.Error()))
			return
		}
		result.Recommendation = recommendation
	}

	record, err := h.workflow.ApplyEnrichment(r.Context(), req.DocumentID, result)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, documentResponseOf(record))
}
