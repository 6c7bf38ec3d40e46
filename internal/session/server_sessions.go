package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ServerSessions records which token session ids are live so logout actually
// revokes a JWT before it expires. Key existence is the only signal.
type ServerSessions interface {
	Open(ctx context.Context, sessionID string, ttl time.Duration) error
	IsLive(ctx context.Context, sessionID string) (bool, error)
	Revoke(ctx context.Context, sessionID string) error
}

const sessionKeyPrefix = "session:"

// RedisSessions is the distributed implementation backed by Redis TTL keys.
type RedisSessions struct {
	client *redis.Client
}

func NewRedisSessions(client *redis.Client) *RedisSessions {
	return &RedisSessions{client: client}
}

func (s *RedisSessions) Open(ctx context.Context, sessionID string, ttl time.Duration) error {
	// Store "1" as a simple marker; the key existence is what matters.
	return s.client.Set(ctx, sessionKeyPrefix+sessionID, "1", ttl).Err()
}

func (s *RedisSessions) IsLive(ctx context.Context, sessionID string) (bool, error) {
	_, err := s.client.Get(ctx, sessionKeyPrefix+sessionID).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *RedisSessions) Revoke(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, sessionKeyPrefix+sessionID).Err()
}

// MemorySessions keeps session liveness in-process for single-node and test
// deployments.
type MemorySessions struct {
	mu       sync.RWMutex
	deadline map[string]time.Time
}

func NewMemorySessions() *MemorySessions {
	return &MemorySessions{deadline: make(map[string]time.Time)}
}

func (s *MemorySessions) Open(_ context.Context, sessionID string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deadline[sessionID] = time.Now().Add(ttl)
	return nil
}

func (s *MemorySessions) IsLive(_ context.Context, sessionID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	deadline, ok := s.deadline[sessionID]
	return ok && time.Now().Before(deadline), nil
}

func (s *MemorySessions) Revoke(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.deadline, sessionID)
	return nil
}
