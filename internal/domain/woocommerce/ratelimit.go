package woocommerce

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/time/rate"
)

// RateLimiter throttles requests to one store. Each REST path prefix gets its
// own bucket so a burst of report calls cannot starve order listing.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	config   RateLimitConfig
}

// RateLimitConfig holds rate limit configuration.
type RateLimitConfig struct {
	DefaultRPS   float64
	DefaultBurst int
	PathLimits   map[string]PathLimit
}

// PathLimit defines rate limit for a specific API path prefix.
type PathLimit struct {
	RPS   float64
	Burst int
}

// DefaultRateLimitConfig returns limits that stay well inside typical shared
// hosting capacity for a WordPress install.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		DefaultRPS:   5,
		DefaultBurst: 10,
		PathLimits: map[string]PathLimit{
			"/orders":        {RPS: 5, Burst: 10},
			"/reports":       {RPS: 2, Burst: 4},
			"/system_status": {RPS: 1, Burst: 2},
		},
	}
}

// NewRateLimiter creates a new rate limiter with the given configuration.
func NewRateLimiter(config RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		config:   config,
	}
}

// Wait blocks until a request can be made for the given path.
// Returns an error if the context is cancelled while waiting.
func (rl *RateLimiter) Wait(ctx context.Context, path string) error {
	return rl.limiterFor(path).Wait(ctx)
}

// TryAcquire attempts to acquire a token without waiting.
func (rl *RateLimiter) TryAcquire(path string) bool {
	return rl.limiterFor(path).Allow()
}

func (rl *RateLimiter) limiterFor(path string) *rate.Limiter {
	key, limit := rl.match(path)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	l, ok := rl.limiters[key]
	if !ok {
		l = rate.NewLimiter(rate.Limit(limit.RPS), limit.Burst)
		rl.limiters[key] = l
	}
	return l
}

// match returns the longest configured prefix of path and its limit.
func (rl *RateLimiter) match(path string) (string, PathLimit) {
	best := ""
	for prefix := range rl.config.PathLimits {
		if strings.HasPrefix(path, prefix) && len(prefix) > len(best) {
			best = prefix
		}
	}
	if best == "" {
		return "default", PathLimit{RPS: rl.config.DefaultRPS, Burst: rl.config.DefaultBurst}
	}
	return best, rl.config.PathLimits[best]
}
