package dedup

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alttch/roboger/internal/constants"
)

// Repository stores the last delivered content hash per endpoint.
type Repository interface {
	// LastHash returns the stored hash for the endpoint, or "" when none
	// is stored or the entry expired.
	LastHash(ctx context.Context, endpointID string) (string, error)
	// SetLastHash stores hash for the endpoint with the given TTL.
	SetLastHash(ctx context.Context, endpointID, hash string, ttl time.Duration) error
}

type RedisRepository struct {
	client *redis.Client
}

func NewRedisRepository(client *redis.Client) Repository {
	return &RedisRepository{client: client}
}

func (r *RedisRepository) LastHash(ctx context.Context, endpointID string) (string, error) {
	val, err := r.client.Get(ctx, constants.CacheKeyPrefixDedup+endpointID).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

func (r *RedisRepository) SetLastHash(ctx context.Context, endpointID, hash string, ttl time.Duration) error {
	return r.client.Set(ctx, constants.CacheKeyPrefixDedup+endpointID, hash, ttl).Err()
}

type memoryEntry struct {
	hash    string
	expires time.Time
}

// MemoryRepository keeps dedup state in-process. Used when Redis is not
// configured and in tests.
type MemoryRepository struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (r *MemoryRepository) LastHash(_ context.Context, endpointID string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[endpointID]
	if !ok {
		return "", nil
	}
	if r.now().After(entry.expires) {
		delete(r.entries, endpointID)
		return "", nil
	}
	return entry.hash, nil
}

func (r *MemoryRepository) SetLastHash(_ context.Context, endpointID, hash string, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries[endpointID] = memoryEntry{hash: hash, expires: r.now().Add(ttl)}
	return nil
}
