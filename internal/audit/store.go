package audit

import (
	"context"
	"sync"

	"trustnet/internal/domain"
)

// Store is an append-only audit log. Events are never updated or deleted;
// terminal records keep their trail indefinitely.
type Store interface {
	Append(ctx context.Context, event domain.AuditEvent) error
	ListByDocument(ctx context.Context, documentID string) ([]domain.AuditEvent, error)
}

type InMemoryStore struct {
	mu     sync.RWMutex
	events map[string][]domain.AuditEvent
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{events: make(map[string][]domain.AuditEvent)}
}

func (s *InMemoryStore) Append(_ context.Context, event domain.AuditEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.DocumentID] = append(s.events[event.DocumentID], event)
	return nil
}

func (s *InMemoryStore) ListByDocument(_ context.Context, documentID string) ([]domain.AuditEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.AuditEvent{}, s.events[documentID]...), nil
}
