package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rahulhiremath15/serva-mvp/utils"
)

// RateLimiter decides whether a request identified by key may proceed.
// The in-memory implementation below is the default; a distributed counter
// store can be swapped in behind the same interface.
type RateLimiter interface {
	Allow(key string) bool
}

// MemoryRateLimiter is a sliding-window limiter backed by a per-key hit log
type MemoryRateLimiter struct {
	mu          sync.Mutex
	maxRequests int
	window      time.Duration
	hits        map[string][]time.Time
	now         func() time.Time // injectable for tests
}

// NewMemoryRateLimiter creates a limiter allowing maxRequests per window per key
func NewMemoryRateLimiter(maxRequests int, window time.Duration) *MemoryRateLimiter {
	return &MemoryRateLimiter{
		maxRequests: maxRequests,
		window:      window,
		hits:        make(map[string][]time.Time),
		now:         time.Now,
	}
}

// Allow records a hit for key and reports whether it is within the window limit
func (l *MemoryRateLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	windowStart := now.Add(-l.window)

	// Drop entries that have aged out of every window
	for k, times := range l.hits {
		recent := times[:0]
		for _, t := range times {
			if t.After(windowStart) {
				recent = append(recent, t)
			}
		}
		if len(recent) == 0 {
			delete(l.hits, k)
		} else {
			l.hits[k] = recent
		}
	}

	recent := l.hits[key]
	if len(recent) >= l.maxRequests {
		return false
	}

	l.hits[key] = append(recent, now)
	return true
}

// RateLimit rejects requests over the limiter's budget, keyed by client IP
// and route path.
func RateLimit(limiter RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP() + c.FullPath()
		if !limiter.Allow(key) {
			utils.AbortWithError(c, http.StatusTooManyRequests, "Too many requests. Please try again later.")
			return
		}
		c.Next()
	}
}
