package httptransport

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"trustnet/internal/auth"
	"trustnet/internal/domain"
	domainerrors "trustnet/pkg/domain-errors"
)

// AuthService is the slice of the authentication collaborator the transport
// needs.
type AuthService interface {
	Register(ctx context.Context, name, email, password, role string) (domain.Identity, error)
	Login(ctx context.Context, email, password string) (auth.LoginResult, error)
	Logout(ctx context.Context, sessionID string) error
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type identityResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type loginResponse struct {
	Token string           `json:"token"`
	User  identityResponse `json:"user"`
}

func identityResponseOf(identity domain.Identity) identityResponse {
	return identityResponse{
		ID:    identity.ID,
		Name:  identity.Name,
		Email: identity.Email,
		Role:  string(identity.Role),
	}
}

func (h *Handler) registerAuthRoutes(r chi.Router) {
	r.Post("/api/user/register", h.handleRegister)
	r.Post("/api/user/login", h.handleLogin)
}

func (h *Handler) registerAuthenticatedAuthRoutes(r chi.Router) {
	r.Post("/api/user/logout", h.handleLogout)
	r.Get("/api/user/me", h.handleMe)
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domainerrors.New(domainerrors.CodeInvalidInput, "invalid request body"))
		return
	}

	identity, err := h.auth.Register(r.Context(), req.Name, req.Email, req.Password, req.Role)
	if err != nil {
		writeError(w, err)
		return
	}

	h.log.InfoContext(r.Context(), "user registered", "user_id", identity.ID, "role", identity.Role)
	writeJSON(w, http.StatusCreated, identityResponseOf(identity))
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domainerrors.New(domainerrors.CodeInvalidInput, "invalid request body"))
		return
	}

	result, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	h.log.InfoContext(r.Context(), "user logged in", "user_id", result.Identity.ID, "role", result.Identity.Role)
	writeJSON(w, http.StatusOK, loginResponse{
		Token: result.Token,
		User:  identityResponseOf(result.Identity),
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Logout(r.Context(), SessionIDFrom(r.Context())); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "signed_out"})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFrom(r.Context())
	if !ok {
		writeError(w, domainerrors.New(domainerrors.CodeUnauthorized, "authentication required"))
		return
	}
	writeJSON(w, http.StatusOK, identityResponseOf(identity))
}
