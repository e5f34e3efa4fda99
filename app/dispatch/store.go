package dispatch

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultResolvedTTL = 24 * time.Hour
	redisKeyPrefix     = "upi:resolved:"
)

// ResolutionStore remembers which correlation ids already produced a
// delivered result.
type ResolutionStore interface {
	// MarkResolved reports true only for the first caller for an id.
	MarkResolved(ctx context.Context, correlationID string) (bool, error)
	IsResolved(ctx context.Context, correlationID string) (bool, error)
	Reset(ctx context.Context, correlationID string) error
}

type MemoryStore struct {
	mu       sync.Mutex
	resolved map[string]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{resolved: map[string]struct{}{}}
}

func (s *MemoryStore) MarkResolved(_ context.Context, correlationID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.resolved[correlationID]; ok {
		return false, nil
	}
	s.resolved[correlationID] = struct{}{}
	return true, nil
}

func (s *MemoryStore) IsResolved(_ context.Context, correlationID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.resolved[correlationID]
	return ok, nil
}

func (s *MemoryStore) Reset(_ context.Context, correlationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.resolved, correlationID)
	return nil
}

// RedisStore shares resolution tokens between replicas. Consumers stay in
// each process, so the store only stops two processes that both hold a
// registration for an id (for example after both restored it at boot)
// from delivering twice. It does not route a signal to the replica that
// owns the attempt. Tokens expire after ttl so abandoned attempts do not
// accumulate.
type RedisStore struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewRedisStore(client redis.Cmdable, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = defaultResolvedTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) MarkResolved(ctx context.Context, correlationID string) (bool, error) {
	return s.client.SetNX(ctx, redisKeyPrefix+correlationID, time.Now().UTC().Format(time.RFC3339), s.ttl).Result()
}

func (s *RedisStore) IsResolved(ctx context.Context, correlationID string) (bool, error) {
	n, err := s.client.Exists(ctx, redisKeyPrefix+correlationID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *RedisStore) Reset(ctx context.Context, correlationID string) error {
	return s.client.Del(ctx, redisKeyPrefix+correlationID).Err()
}
