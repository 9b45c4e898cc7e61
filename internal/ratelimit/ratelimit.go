// Package ratelimit provides the request rate limiter used by the
// HTTP layer, keyed by client IP plus route. Two implementations are
// selectable at startup: an in-process token-bucket map and a
// redis-backed fixed window shared across instances.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// Limiter decides whether a keyed request may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// Config holds limiter settings shared by both implementations.
type Config struct {
	// PerMinute is the sustained request budget per key.
	PerMinute int
	// Burst is the extra headroom for the in-memory token bucket.
	Burst int
}

func (c Config) withDefaults() Config {
	if c.PerMinute <= 0 {
		c.PerMinute = 60
	}
	if c.Burst <= 0 {
		c.Burst = c.PerMinute / 4
		if c.Burst < 1 {
			c.Burst = 1
		}
	}
	return c
}

// MemoryLimiter keeps a token bucket per key, guarded by a mutex.
// State lives in the process and resets on restart.
type MemoryLimiter struct {
	cfg     Config
	mu      sync.Mutex
	buckets map[string]*memoryBucket
}

type memoryBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// memoryGC drops buckets idle longer than this.
const memoryGC = 10 * time.Minute

func NewMemoryLimiter(cfg Config) *MemoryLimiter {
	return &MemoryLimiter{
		cfg:     cfg.withDefaults(),
		buckets: make(map[string]*memoryBucket),
	}
}

// Allow consumes one token for the key, creating its bucket on first
// sight. Never returns an error.
func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	b, ok := l.buckets[key]
	if !ok {
		b = &memoryBucket{
			limiter: rate.NewLimiter(rate.Limit(float64(l.cfg.PerMinute)/60.0), l.cfg.Burst),
		}
		l.buckets[key] = b
	}
	b.lastSeen = now

	if len(l.buckets) > 1024 {
		for k, v := range l.buckets {
			if now.Sub(v.lastSeen) > memoryGC {
				delete(l.buckets, k)
			}
		}
	}

	return b.limiter.Allow(), nil
}

// RedisLimiter counts requests per key in a fixed one-minute window
// shared across processes.
type RedisLimiter struct {
	client *redis.Client
	cfg    Config
}

func NewRedisLimiter(client *redis.Client, cfg Config) *RedisLimiter {
	return &RedisLimiter{client: client, cfg: cfg.withDefaults()}
}

// Allow increments the key's window counter and compares it against
// the budget. Redis errors propagate to the caller, which decides
// whether to fail open.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	window := time.Now().Unix() / 60
	redisKey := fmt.Sprintf("ratelimit:%s:%d", key, window)

	pipe := l.client.TxPipeline()
	count := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, 2*time.Minute)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("rate limit incr: %w", err)
	}

	return count.Val() <= int64(l.cfg.PerMinute), nil
}
