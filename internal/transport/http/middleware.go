package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"trustnet/internal/access"
	"trustnet/internal/domain"
	domainerrors "trustnet/pkg/domain-errors"
)

// Authenticator validates a bearer token and resolves the caller.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (domain.Identity, string, error)
}

// RequestLogger logs one line per request with the chi request id.
func RequestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.InfoContext(r.Context(), "http request",
				"request_id", chimiddleware.GetReqID(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}

// RequireAuth resolves the Authorization bearer token to an Identity and puts
// it on the request context. Requests without a live, valid token never reach
// the handler.
func RequireAuth(auth Authenticator, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				writeJSON(w, http.StatusUnauthorized, map[string]string{
					"error":             "unauthorized",
					"error_description": "missing or invalid Authorization header",
				})
				return
			}

			identity, sessionID, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				log.WarnContext(r.Context(), "rejected bearer token",
					"request_id", chimiddleware.GetReqID(r.Context()),
					"error", err,
				)
				writeJSON(w, http.StatusUnauthorized, map[string]string{
					"error":             "unauthorized",
					"error_description": "invalid or expired token",
				})
				return
			}

			next.ServeHTTP(w, r.WithContext(withCaller(r.Context(), identity, sessionID)))
		})
	}
}

// RequireView gates a route behind the access policy for one view. Denials
// carry the caller's home view so clients know where to land.
func RequireView(guard *access.Guard, view access.View) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var identity *domain.Identity
			if caller, ok := IdentityFrom(r.Context()); ok {
				identity = &caller
			}
			decision := guard.Authorize(identity, view)
			if !decision.Allowed {
				writeJSON(w, http.StatusForbidden, map[string]string{
					"error":       string(domainerrors.CodeUnauthorized),
					"redirect_to": string(decision.RedirectTo),
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
