package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
)

// RateLimitConfig bounds request throughput per client IP.
type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstSize         int
}

// DefaultRateLimitConfig is generous for a ward dashboard: a browser
// refreshing every panel stays far below it, a runaway script does not.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{RequestsPerSecond: 100, BurstSize: 200}
}

// bucket is a lazily-refilled token bucket. Tokens accrue on access as
// elapsed-time * rate instead of on a ticker, so idle clients cost nothing.
type bucket struct {
	mu     sync.Mutex
	tokens float64
	last   time.Time
}

// take refills from the elapsed time, then spends one token if available.
// It reports whether the request may proceed and, when it may not, the
// whole seconds until a token will exist.
func (b *bucket) take(cfg RateLimitConfig, now time.Time) (ok bool, retryAfter int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.tokens += now.Sub(b.last).Seconds() * cfg.RequestsPerSecond
	if max := float64(cfg.BurstSize); b.tokens > max {
		b.tokens = max
	}
	b.last = now

	if b.tokens >= 1 {
		b.tokens--
		return true, 0
	}
	if cfg.RequestsPerSecond <= 0 {
		return false, 1
	}
	return false, int((1-b.tokens)/cfg.RequestsPerSecond) + 1
}

// RateLimit rejects clients that exceed the configured rate with a 429 and
// a Retry-After hint. Buckets are keyed by client IP; a shared ward
// workstation shares a budget, which is the intent.
func RateLimit(cfg RateLimitConfig) echo.MiddlewareFunc {
	var (
		mu      sync.Mutex
		buckets = map[string]*bucket{}
	)
	limit := strconv.FormatFloat(cfg.RequestsPerSecond, 'f', 0, 64)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			mu.Lock()
			b, ok := buckets[c.RealIP()]
			if !ok {
				b = &bucket{tokens: float64(cfg.BurstSize), last: time.Now()}
				buckets[c.RealIP()] = b
			}
			mu.Unlock()

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", limit)
			if ok, retryAfter := b.take(cfg, time.Now()); !ok {
				h.Set("Retry-After", strconv.Itoa(retryAfter))
				h.Set("X-RateLimit-Remaining", "0")
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}
			return next(c)
		}
	}
}
