package limits

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alttch/roboger/internal/constants"
)

// Repository tracks per-address usage counters for the current limit period.
type Repository interface {
	// Usage returns the accepted event count and byte size for the addr in
	// the current period.
	Usage(ctx context.Context, addrID string) (count, size int64, err error)
	// Record adds one accepted event of the given size. The counters expire
	// after period if they are fresh.
	Record(ctx context.Context, addrID string, size int64, period time.Duration) error
}

type RedisRepository struct {
	client *redis.Client
}

func NewRedisRepository(client *redis.Client) Repository {
	return &RedisRepository{client: client}
}

func (r *RedisRepository) Usage(ctx context.Context, addrID string) (int64, int64, error) {
	vals, err := r.client.MGet(ctx,
		constants.CacheKeyPrefixLimCount+addrID,
		constants.CacheKeyPrefixLimSize+addrID,
	).Result()
	if err != nil {
		return 0, 0, err
	}

	return parseCounter(vals[0]), parseCounter(vals[1]), nil
}

func (r *RedisRepository) Record(ctx context.Context, addrID string, size int64, period time.Duration) error {
	countKey := constants.CacheKeyPrefixLimCount + addrID
	sizeKey := constants.CacheKeyPrefixLimSize + addrID

	pipe := r.client.Pipeline()
	pipe.Incr(ctx, countKey)
	pipe.IncrBy(ctx, sizeKey, size)
	pipe.ExpireNX(ctx, countKey, period)
	pipe.ExpireNX(ctx, sizeKey, period)
	_, err := pipe.Exec(ctx)
	return err
}

func parseCounter(v interface{}) int64 {
	s, ok := v.(string)
	if !ok {
		return 0
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

type windowCounters struct {
	count   int64
	size    int64
	expires time.Time
}

// MemoryRepository keeps usage counters in-process. Used when Redis is not
// configured and in tests.
type MemoryRepository struct {
	mu      sync.Mutex
	windows map[string]*windowCounters
	now     func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		windows: make(map[string]*windowCounters),
		now:     time.Now,
	}
}

func (r *MemoryRepository) Usage(_ context.Context, addrID string) (int64, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	w, ok := r.windows[addrID]
	if !ok || r.now().After(w.expires) {
		return 0, 0, nil
	}
	return w.count, w.size, nil
}

func (r *MemoryRepository) Record(_ context.Context, addrID string, size int64, period time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	w, ok := r.windows[addrID]
	if !ok || r.now().After(w.expires) {
		w = &windowCounters{expires: r.now().Add(period)}
		r.windows[addrID] = w
	}
	w.count++
	w.size += size
	return nil
}
