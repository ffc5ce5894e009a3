// Package memory provides process-local stand-ins for the Redis-backed
// coordination primitives, used when no Redis is configured.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/alanyoungcy/perpfeed/internal/domain"
)

// RateLimiter implements domain.RateLimiter with one token bucket per key.
// A bucket refills limit tokens per window, so bursts up to limit are allowed
// and the sustained rate matches the sliding window. Idle buckets expire.
type RateLimiter struct {
	mu      sync.Mutex
	buckets *cache.Cache
}

// NewRateLimiter creates a RateLimiter whose idle buckets are dropped after
// idle.
func NewRateLimiter(idle time.Duration) *RateLimiter {
	return &RateLimiter{buckets: cache.New(idle, 2*idle)}
}

// Allow takes one token from key's bucket.
func (rl *RateLimiter) Allow(_ context.Context, key string, limit int, window time.Duration) (domain.RateDecision, error) {
	now := time.Now()
	every := window / time.Duration(max(limit, 1))

	rl.mu.Lock()
	lim, ok := rl.buckets.Get(key)
	if !ok {
		lim = rate.NewLimiter(rate.Every(every), limit)
	}
	// Refresh the expiry on every touch.
	rl.buckets.Set(key, lim, cache.DefaultExpiration)
	rl.mu.Unlock()

	l := lim.(*rate.Limiter)
	allowed := l.AllowN(now, 1)
	tokens := l.TokensAt(now)

	resetAt := now
	if tokens < 1 {
		resetAt = now.Add(time.Duration((1 - tokens) * float64(every)))
	}
	return domain.RateDecision{
		Allowed:   allowed,
		Remaining: max(int(tokens), 0),
		ResetAt:   resetAt,
	}, nil
}

var _ domain.RateLimiter = (*RateLimiter)(nil)
