package middleware

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRateLimiter implements RateLimiter against a shared Redis instance
// using a fixed-window counter (INCR + EXPIRE), so rate limits hold across
// multiple server instances instead of each process tracking its own
// token buckets. Intended for the HTTP-layer request-rate limits, not the
// single-flight execution lock, which is scoped to one process by design.
type RedisRateLimiter struct {
	client *redis.Client
	prefix string
	limit  int64
	window time.Duration
}

// NewRedisRateLimiter creates a Redis-backed limiter allowing up to limit
// requests per window per key.
func NewRedisRateLimiter(client *redis.Client, prefix string, limit int64, window time.Duration) *RedisRateLimiter {
	return &RedisRateLimiter{client: client, prefix: prefix, limit: limit, window: window}
}

// Allow increments the counter for key's current window and reports
// whether it is still within limit. On Redis errors it fails open (the
// in-process token bucket remains the fallback at the call site), logging
// is left to the caller since this package has no logger dependency.
func (r *RedisRateLimiter) Allow(key string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	redisKey := r.prefix + ":" + key
	count, err := r.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return true
	}
	if count == 1 {
		r.client.Expire(ctx, redisKey, r.window)
	}
	return count <= r.limit
}

// Reset clears rate limit state for every key under this limiter's prefix.
// Used by tests; production callers rely on window expiry instead.
func (r *RedisRateLimiter) Reset() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	iter := r.client.Scan(ctx, 0, r.prefix+":*", 0).Iterator()
	for iter.Next(ctx) {
		r.client.Del(ctx, iter.Val())
	}
}
