// Package httptransport is the thin HTTP layer. It delegates to domain
// services without embedding business logic so transport concerns stay
// isolated.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"trustnet/internal/access"
)

// Handler bundles the services the routes delegate to.
type Handler struct {
	auth     AuthService
	workflow WorkflowService
	queues   QueueService
	auditLog AuditLog
	guard    *access.Guard
	log      *slog.Logger
}

func NewHandler(auth AuthService, workflow WorkflowService, queues QueueService, auditLog AuditLog, guard *access.Guard, log *slog.Logger) *Handler {
	return &Handler{
		auth:     auth,
		workflow: workflow,
		queues:   queues,
		auditLog: auditLog,
		guard:    guard,
		log:      log,
	}
}

// NewRouter wires all public endpoints.
func NewRouter(h *Handler, authn Authenticator) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(RequestLogger(h.log))
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", h.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	h.registerAuthRoutes(r)
	h.registerEnrichmentRoutes(r)

	r.Group(func(r chi.Router) {
		r.Use(RequireAuth(authn, h.log))
		h.registerAuthenticatedAuthRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(RequireView(h.guard, access.ViewDocumentUpload))
			r.Post("/api/documents", h.handleSubmit)
			r.Post("/api/documents/{id}/resubmit", h.handleResubmit)
		})

		r.Group(func(r chi.Router) {
			r.Use(RequireView(h.guard, access.ViewDocumentReview))
			r.Post("/api/documents/{id}/review", h.handleOpenReview)
		})

		r.Group(func(r chi.Router) {
			r.Use(RequireView(h.guard, access.ViewFraudMonitoring))
			r.Get("/api/documents/{id}/audit", h.handleAuditTrail)
		})

		// Decisions come from verifiers or issuers; the engine itself
		// checks the caller's role. Queues are role scoped the same way.
		r.Get("/api/queue", h.handleQueue)
		r.Post("/api/documents/{id}/decision", h.handleDecision)
	})

	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
