// Package session owns authenticated-identity state. The in-process Store is
// the single-client surface (login-to-logout lifecycle); ServerSessions tracks
// token sessions for the multi-user HTTP deployment.
package session

import (
	"sync"

	"trustnet/internal/domain"
)

// Store holds the currently authenticated identity for the life of the client
// process. The identity is replaced wholesale, never edited in place, so any
// number of readers can observe it concurrently.
type Store struct {
	mu       sync.RWMutex
	identity *domain.Identity
}

func NewStore() *Store {
	return &Store{}
}

// SignIn replaces any existing identity. The old identity is discarded first;
// no two identities ever coexist.
func (s *Store) SignIn(identity domain.Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = &identity
}

// CurrentIdentity returns the active identity, or false when signed out.
func (s *Store) CurrentIdentity() (domain.Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return domain.Identity{}, false
	}
	return *s.identity, true
}

// SignOut clears state unconditionally. Safe to call repeatedly.
func (s *Store) SignOut() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = nil
}
