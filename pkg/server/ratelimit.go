package server

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/openalgoflow/engine/pkg/middleware"
)

// tieredLimiter enforces a fixed requests-per-minute budget per source IP,
// one bucket per tier (auth, execution, mutation, read). With a Redis
// client configured, the limit is shared across every server instance via
// middleware.RedisRateLimiter; otherwise each process tracks its own
// in-memory token bucket per address, one instance's limit.
type tieredLimiter struct {
	perMinute float64
	name      string
	redis     middleware.RateLimiter

	mu      sync.Mutex
	buckets map[string]*middleware.TokenBucket
}

func newTieredLimiter(name string, perMinute float64, redisClient *redis.Client) *tieredLimiter {
	t := &tieredLimiter{
		perMinute: perMinute,
		name:      name,
		buckets:   make(map[string]*middleware.TokenBucket),
	}
	if redisClient != nil {
		t.redis = middleware.NewRedisRateLimiter(redisClient, "ratelimit:"+name, int64(perMinute), time.Minute)
	}
	return t
}

func (t *tieredLimiter) allow(key string) bool {
	if t.redis != nil {
		return t.redis.Allow(key)
	}

	t.mu.Lock()
	bucket, ok := t.buckets[key]
	if !ok {
		bucket = middleware.NewTokenBucket(t.perMinute/60, int64(t.perMinute))
		t.buckets[key] = bucket
	}
	t.mu.Unlock()
	return bucket.Allow(key)
}

// rateLimited wraps next with tiered per-source-IP rate limiting, replying
// 429 with a retry_after field (in seconds) when the caller's bucket is
// empty.
func (s *Server) rateLimited(limiter *tieredLimiter, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := clientIP(r)
		if !limiter.allow(key) {
			s.writeJSONResponse(w, http.StatusTooManyRequests, map[string]interface{}{
				"success":     false,
				"error":       "rate limit exceeded",
				"retry_after": 60,
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
