package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/juju/ratelimit"
	"github.com/labstack/echo/v4"
)

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstSize         int
}

const sweepInterval = 30 * time.Minute

// rateLimiterStore holds one token bucket per client IP.
type rateLimiterStore struct {
	buckets   map[string]*ratelimit.Bucket
	mu        sync.RWMutex
	config    RateLimitConfig
	lastSweep time.Time
}

func newRateLimiterStore(cfg RateLimitConfig) *rateLimiterStore {
	return &rateLimiterStore{
		buckets:   make(map[string]*ratelimit.Bucket),
		config:    cfg,
		lastSweep: time.Now(),
	}
}

func (s *rateLimiterStore) getBucket(key string) *ratelimit.Bucket {
	s.mu.RLock()
	bucket, ok := s.buckets[key]
	s.mu.RUnlock()
	if ok {
		return bucket
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// Double-check after acquiring write lock
	if bucket, ok := s.buckets[key]; ok {
		return bucket
	}
	if time.Since(s.lastSweep) > sweepInterval {
		s.sweepLocked()
	}
	bucket = ratelimit.NewBucketWithRate(s.config.RequestsPerSecond, int64(s.config.BurstSize))
	s.buckets[key] = bucket
	return bucket
}

// sweepLocked drops clients whose bucket has refilled completely.
func (s *rateLimiterStore) sweepLocked() {
	for key, bucket := range s.buckets {
		if bucket.Available() >= bucket.Capacity() {
			delete(s.buckets, key)
		}
	}
	s.lastSweep = time.Now()
}

func (s *rateLimiterStore) retryAfter() int {
	if s.config.RequestsPerSecond <= 0 {
		return 1
	}
	secs := int(math.Ceil(1 / s.config.RequestsPerSecond))
	if secs < 1 {
		secs = 1
	}
	return secs
}

// RateLimit returns a per-client-IP rate limiting middleware. A non-positive
// RequestsPerSecond disables it.
func RateLimit(cfg RateLimitConfig) echo.MiddlewareFunc {
	if cfg.RequestsPerSecond <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	if cfg.BurstSize < 1 {
		cfg.BurstSize = 1
	}
	store := newRateLimiterStore(cfg)
	limit := strconv.FormatFloat(cfg.RequestsPerSecond, 'f', -1, 64)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			bucket := store.getBucket(c.RealIP())
			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", limit)

			if bucket.TakeAvailable(1) == 0 {
				h.Set("Retry-After", strconv.Itoa(store.retryAfter()))
				h.Set("X-RateLimit-Remaining", "0")
				return echo.NewHTTPError(http.StatusTooManyRequests, "Rate limit exceeded")
			}

			h.Set("X-RateLimit-Remaining", strconv.FormatInt(bucket.Available(), 10))
			return next(c)
		}
	}
}
