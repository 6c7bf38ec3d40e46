package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"trustnet/internal/domain"
	domainerrors "trustnet/pkg/domain-errors"
)

// Claims carries the identity inside access tokens. The engine trusts the role
// claim; the session id lets logout revoke a token before expiry.
type Claims struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	SessionID string `json:"session_id"`
	jwt.RegisteredClaims
}

// TokenService mints and validates HS256 access tokens.
type TokenService struct {
	signingKey []byte
	issuer     string
	ttl        time.Duration
}

func NewTokenService(signingKey string, ttl time.Duration) *TokenService {
	return &TokenService{
		signingKey: []byte(signingKey),
		issuer:     "trustnet",
		ttl:        ttl,
	}
}

// TTL exposes the configured token lifetime so session records can match it.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Generate mints a token for the identity bound to the given session id.
func (s *TokenService) Generate(identity domain.Identity, sessionID string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Name:      identity.Name,
		Email:     identity.Email,
		Role:      string(identity.Role),
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			ID:        uuid.NewString(),
		},
	})
	return token.SignedString(s.signingKey)
}

// Validate parses the token and reconstructs the identity it carries.
func (s *TokenService) Validate(tokenString string) (domain.Identity, string, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.Identity{}, "", domainerrors.New(domainerrors.CodeUnauthorized, "token has expired")
		}
		return domain.Identity{}, "", domainerrors.New(domainerrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return domain.Identity{}, "", domainerrors.New(domainerrors.CodeUnauthorized, "invalid token claims")
	}

	role, err := domain.ParseRole(claims.Role)
	if err != nil {
		return domain.Identity{}, "", domainerrors.New(domainerrors.CodeUnauthorized, "invalid role claim")
	}

	return domain.Identity{
		ID:    claims.Subject,
		Name:  claims.Name,
		Email: claims.Email,
		Role:  role,
	}, claims.SessionID, nil
}
