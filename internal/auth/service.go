// Package auth is the authentication collaborator: account registration,
// credential checks and token sessions. The workflow engine never looks inside
// it; it only consumes the Identity a successful login produces.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/asaskevich/govalidator"
	"github.com/google/uuid"

	"trustnet/internal/domain"
	"trustnet/internal/session"
	"trustnet/internal/storage"
	domainerrors "trustnet/pkg/domain-errors"
)

// Service implements login(email, password) -> Identity and
// register(fields) -> confirmation against the user store.
type Service struct {
	users    storage.UserStore
	tokens   *TokenService
	sessions session.ServerSessions
}

func NewService(users storage.UserStore, tokens *TokenService, sessions session.ServerSessions) *Service {
	return &Service{users: users, tokens: tokens, sessions: sessions}
}

// LoginResult bundles what a successful login hands back to the client.
type LoginResult struct {
	Identity  domain.Identity
	Token     string
	SessionID string
}

// Register creates an account. Email uniqueness is enforced by the store.
func (s *Service) Register(ctx context.Context, name, email, password, role string) (domain.Identity, error) {
	if strings.TrimSpace(name) == "" {
		return domain.Identity{}, domainerrors.New(domainerrors.CodeInvalidInput, "name is required")
	}
	if !govalidator.IsEmail(email) {
		return domain.Identity{}, domainerrors.New(domainerrors.CodeInvalidInput, "invalid email")
	}
	if len(password) < 8 {
		return domain.Identity{}, domainerrors.New(domainerrors.CodeInvalidInput, "password must be at least 8 characters")
	}
	parsedRole, err := domain.ParseRole(role)
	if err != nil {
		return domain.Identity{}, domainerrors.New(domainerrors.CodeInvalidInput, err.Error())
	}

	hash, err := HashPassword(password)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("hash password: %w", err)
	}

	user := storage.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         parsedRole,
	}
	if err := s.users.Save(ctx, user); err != nil {
		if errors.Is(err, storage.ErrExists) {
			return domain.Identity{}, domainerrors.New(domainerrors.CodeInvalidInput, "email already registered")
		}
		return domain.Identity{}, fmt.Errorf("save user: %w", err)
	}

	return identityOf(user), nil
}

// Login checks credentials and opens a token session.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, storage.ErrNotFound) {
		return LoginResult{}, domainerrors.New(domainerrors.CodeUnauthorized, "invalid credentials")
	}
	if err != nil {
		return LoginResult{}, fmt.Errorf("find user: %w", err)
	}
	if !CheckPassword(password, user.PasswordHash) {
		return LoginResult{}, domainerrors.New(domainerrors.CodeUnauthorized, "invalid credentials")
	}

	identity := identityOf(user)
	sessionID := uuid.NewString()
	token, err := s.tokens.Generate(identity, sessionID)
	if err != nil {
		return LoginResult{}, fmt.Errorf("generate token: %w", err)
	}
	if err := s.sessions.Open(ctx, sessionID, s.tokens.TTL()); err != nil {
		return LoginResult{}, fmt.Errorf("open session: %w", err)
	}

	return LoginResult{Identity: identity, Token: token, SessionID: sessionID}, nil
}

// Logout revokes the token session. Idempotent.
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	return s.sessions.Revoke(ctx, sessionID)
}

// Authenticate validates a bearer token against signature, expiry and session
// liveness.
func (s *Service) Authenticate(ctx context.Context, token string) (domain.Identity, string, error) {
	identity, sessionID, err := s.tokens.Validate(token)
	if err != nil {
		return domain.Identity{}, "", err
	}
	live, err := s.sessions.IsLive(ctx, sessionID)
	if err != nil {
		return domain.Identity{}, "", fmt.Errorf("check session: %w", err)
	}
	if !live {
		return domain.Identity{}, "", domainerrors.New(domainerrors.CodeUnauthorized, "session has been signed out")
	}
	return identity, sessionID, nil
}

func identityOf(user storage.User) domain.Identity {
	return domain.Identity{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Role:  user.Role,
	}
}
