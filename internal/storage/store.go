package storage

import (
	"context"

	"trustnet/internal/domain"
)

// Stores are interface-driven to keep the workflow logic testable and to allow
// swapping in-memory and Postgres persistence without rewiring business code.
//
// Update enforces optimistic concurrency: it compares expectedVersion against
// the stored record's version and assigns expectedVersion+1 on success, so a
// stale writer observes ErrConflict instead of silently overwriting.
type DocumentStore interface {
	Save(ctx context.Context, record domain.DocumentRecord) error
	FindByID(ctx context.Context, id string) (domain.DocumentRecord, error)
	Update(ctx context.Context, record domain.DocumentRecord, expectedVersion int64) (domain.DocumentRecord, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.DocumentRecord, error)
	ListByStates(ctx context.Context, states ...domain.State) ([]domain.DocumentRecord, error)
	ListAll(ctx context.Context) ([]domain.DocumentRecord, error)
}

// UserStore persists authentication collaborator accounts.
type UserStore interface {
	Save(ctx context.Context, user User) error
	FindByEmail(ctx context.Context, email string) (User, error)
	FindByID(ctx context.Context, id string) (User, error)
}

// User is an account row owned by the authentication collaborator. The engine
// itself only ever sees the Identity derived from it.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         domain.Role
}
