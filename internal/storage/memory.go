package storage

import (
	"context"
	"sync"

	"trustnet/internal/domain"
)

// In-memory stores keep the initial implementation lightweight and testable.
// They intentionally favor clarity over performance.
type InMemoryDocumentStore struct {
	mu      sync.RWMutex
	records map[string]domain.DocumentRecord
}

func NewInMemoryDocumentStore() *InMemoryDocumentStore {
	return &InMemoryDocumentStore{records: make(map[string]domain.DocumentRecord)}
}

func (s *InMemoryDocumentStore) Save(_ context.Context, record domain.DocumentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[record.ID]; ok {
		return ErrExists
	}
	s.records[record.ID] = cloneRecord(record)
	return nil
}

func (s *InMemoryDocumentStore) FindByID(_ context.Context, id string) (domain.DocumentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if record, ok := s.records[id]; ok {
		return cloneRecord(record), nil
	}
	return domain.DocumentRecord{}, ErrNotFound
}

func (s *InMemoryDocumentStore) Update(_ context.Context, record domain.DocumentRecord, expectedVersion int64) (domain.DocumentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.records[record.ID]
	if !ok {
		return domain.DocumentRecord{}, ErrNotFound
	}
	if stored.Version != expectedVersion {
		return domain.DocumentRecord{}, ErrConflict
	}
	record.Version = expectedVersion + 1
	s.records[record.ID] = cloneRecord(record)
	return cloneRecord(record), nil
}

func (s *InMemoryDocumentStore) ListByOwner(_ context.Context, ownerID string) ([]domain.DocumentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.DocumentRecord
	for _, record := range s.records {
		if record.OwnerID == ownerID {
			out = append(out, cloneRecord(record))
		}
	}
	return out, nil
}

func (s *InMemoryDocumentStore) ListByStates(_ context.Context, states ...domain.State) ([]domain.DocumentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.DocumentRecord
	for _, record := range s.records {
		for _, state := range states {
			if record.State == state {
				out = append(out, cloneRecord(record))
				break
			}
		}
	}
	return out, nil
}

func (s *InMemoryDocumentStore) ListAll(_ context.Context) ([]domain.DocumentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.DocumentRecord, 0, len(s.records))
	for _, record := range s.records {
		out = append(out, cloneRecord(record))
	}
	return out, nil
}

// cloneRecord copies the record and its slice fields so callers can't alias
// store internals.
func cloneRecord(record domain.DocumentRecord) domain.DocumentRecord {
	record.RiskFlags = append([]string(nil), record.RiskFlags...)
	if record.DecidedAt != nil {
		decidedAt := *record.DecidedAt
		record.DecidedAt = &decidedAt
	}
	return record
}

type InMemoryUserStore struct {
	mu      sync.RWMutex
	byID    map[string]User
	byEmail map[string]string
}

func NewInMemoryUserStore() *InMemoryUserStore {
	return &InMemoryUserStore{
		byID:    make(map[string]User),
		byEmail: make(map[string]string),
	}
}

func (s *InMemoryUserStore) Save(_ context.Context, user User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existingID, ok := s.byEmail[user.Email]; ok && existingID != user.ID {
		return ErrExists
	}
	s.byID[user.ID] = user
	s.byEmail[user.Email] = user.ID
	return nil
}

func (s *InMemoryUserStore) FindByEmail(_ context.Context, email string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id, ok := s.byEmail[email]; ok {
		return s.byID[id], nil
	}
	return User{}, ErrNotFound
}

func (s *InMemoryUserStore) FindByID(_ context.Context, id string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if user, ok := s.byID[id]; ok {
		return user, nil
	}
	return User{}, ErrNotFound
}
