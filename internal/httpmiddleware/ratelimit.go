package httpmiddleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// NewLimiter picks the rate limiting backend: redis-backed when redis is
// reachable so the budget holds across replicas, the in-memory token bucket
// otherwise.
func NewLimiter(client *redis.Client, redisHealthy bool, perMinute int) gin.HandlerFunc {
	if redisHealthy && client != nil {
		return NewRedisRateLimiter(client, perMinute).GinMiddleware()
	}
	return NewTokenBucket(perMinute, perMinute).GinMiddleware()
}

// RedisRateLimiter enforces a fixed per-minute request budget per client IP
// using INCR + EXPIRE, so the limit holds across replicas. When redis is
// unreachable requests pass through.
type RedisRateLimiter struct {
	client *redis.Client
	perMin int
}

// NewRedisRateLimiter creates a limiter allowing perMinute requests per IP.
func NewRedisRateLimiter(client *redis.Client, perMinute int) *RedisRateLimiter {
	if perMinute <= 0 {
		perMinute = 120
	}
	return &RedisRateLimiter{client: client, perMin: perMinute}
}

// GinMiddleware returns a gin handler enforcing per-IP limits.
func (l *RedisRateLimiter) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if ip == "" {
			ip = "unknown"
		}
		allowed, err := l.allow(c.Request.Context(), ip)
		if err == nil && !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit"})
			return
		}
		c.Next()
	}
}

func (l *RedisRateLimiter) allow(ctx context.Context, key string) (bool, error) {
	window := time.Now().Unix() / 60
	bucket := "ratelimit:" + key + ":" + time.Unix(window*60, 0).UTC().Format("1504")

	n, err := l.client.Incr(ctx, bucket).Result()
	if err != nil {
		return true, err
	}
	if n == 1 {
		l.client.Expire(ctx, bucket, 2*time.Minute)
	}
	return n <= int64(l.perMin), nil
}

// TokenBucket is an in-memory fallback limiter for dev setups without redis.
type TokenBucket struct {
	capacity int
	rate     int
	mu       sync.Mutex
	state    map[string]*bucket
}

type bucket struct {
	tokens int
	last   time.Time
}

// NewTokenBucket creates a limiter with capacity tokens refilled at rate per
// minute.
func NewTokenBucket(capacity, perMinute int) *TokenBucket {
	if capacity <= 0 {
		capacity = perMinute
	}
	return &TokenBucket{
		capacity: capacity,
		rate:     perMinute,
		state:    make(map[string]*bucket),
	}
}

// GinMiddleware returns a gin handler enforcing per-IP limits.
func (l *TokenBucket) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if ip == "" {
			ip = "unknown"
		}
		if !l.allow(ip) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit"})
			return
		}
		c.Next()
	}
}

func (l *TokenBucket) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.state[key]
	now := time.Now()
	if !ok {
		b = &bucket{tokens: l.capacity - 1, last: now}
		l.state[key] = b
		return true
	}
	elapsed := now.Sub(b.last).Minutes()
	refill := int(elapsed * float64(l.rate))
	if refill > 0 {
		b.tokens += refill
		if b.tokens > l.capacity {
			b.tokens = l.capacity
		}
		b.last = now
	}
	if b.tokens <= 0 {
		return false
	}
	b.tokens--
	return true
}
