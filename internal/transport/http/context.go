package httptransport

import (
	"context"

	"trustnet/internal/domain"
)

type contextKeyIdentity struct{}
type contextKeySessionID struct{}

// IdentityFrom returns the authenticated caller stored by RequireAuth.
func IdentityFrom(ctx context.Context) (domain.Identity, bool) {
	identity, ok := ctx.Value(contextKeyIdentity{}).(domain.Identity)
	return identity, ok
}

// SessionIDFrom returns the token session id stored by RequireAuth.
func SessionIDFrom(ctx context.Context) string {
	sessionID, _ := ctx.Value(contextKeySessionID{}).(string)
	return sessionID
}

func withCaller(ctx context.Context, identity domain.Identity, sessionID string) context.Context {
	ctx = context.WithValue(ctx, contextKeyIdentity{}, identity)
	return context.WithValue(ctx, contextKeySessionID{}, sessionID)
}
