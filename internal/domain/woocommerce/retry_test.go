package woocommerce

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPolicy(attempts int) *RetryPolicy {
	return &RetryPolicy{Attempts: attempts, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}

func TestRetryPolicy_ShouldRetry(t *testing.T) {
	p := fastPolicy(3)

	assert.True(t, p.ShouldRetry(NewAPIError(CodeHTTPError, "", http.StatusBadGateway), 1))
	assert.True(t, p.ShouldRetry(&NetworkError{URL: "x", Err: errors.New("reset")}, 2))
	assert.False(t, p.ShouldRetry(NewAPIError(CodeHTTPError, "", http.StatusBadGateway), 3))
	assert.False(t, p.ShouldRetry(NewAPIError(CodeAuthError, "", http.StatusUnauthorized), 1))
	assert.False(t, p.ShouldRetry(errors.New("decode"), 1))
	assert.False(t, p.ShouldRetry(context.Canceled, 1))
	assert.False(t, p.ShouldRetry(nil, 1))
}

func TestRetryPolicy_Backoff(t *testing.T) {
	p := &RetryPolicy{Attempts: 5, BaseDelay: 100 * time.Millisecond, MaxDelay: 300 * time.Millisecond}
	busy := NewAPIError(CodeHTTPError, "", http.StatusServiceUnavailable)

	assert.Equal(t, time.Duration(0), p.Backoff(0, busy))
	assert.Equal(t, 100*time.Millisecond, p.Backoff(1, busy))
	assert.Equal(t, 200*time.Millisecond, p.Backoff(2, busy))
	assert.Equal(t, 300*time.Millisecond, p.Backoff(3, busy))
}

func TestRetryPolicy_BackoffHonoursRetryAfter(t *testing.T) {
	p := &RetryPolicy{Attempts: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Second}

	limited := NewAPIError(CodeHTTPError, "slow down", http.StatusTooManyRequests)
	limited.RetryAfter = 2 * time.Second
	assert.Equal(t, 2*time.Second, p.Backoff(1, limited))

	limited.RetryAfter = time.Minute
	assert.Equal(t, 5*time.Second, p.Backoff(1, limited))
}

func TestRetry_RetriesRetryableErrors(t *testing.T) {
	var seen []int
	out, err := Retry(context.Background(), fastPolicy(3), func(attempt int) error {
		seen = append(seen, attempt)
		if attempt < 3 {
			return NewAPIError(CodeHTTPError, "busy", http.StatusServiceUnavailable)
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, out.Attempts)
	assert.Equal(t, []int{1, 2, 3}, seen)
}

func TestRetry_StopsOnPermanentError(t *testing.T) {
	calls := 0
	_, err := Retry(context.Background(), fastPolicy(5), func(int) error {
		calls++
		return NewAPIError(CodeAuthError, "bad key", http.StatusUnauthorized)
	})

	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, 1, calls)
}

func TestRetry_SingleAttemptPolicies(t *testing.T) {
	for name, p := range map[string]*RetryPolicy{"no retry": NoRetryPolicy(), "nil": nil} {
		t.Run(name, func(t *testing.T) {
			calls := 0
			out, err := Retry(context.Background(), p, func(int) error {
				calls++
				return NewAPIError(CodeHTTPError, "busy", http.StatusServiceUnavailable)
			})

			assert.Error(t, err)
			assert.Equal(t, 1, out.Attempts)
			assert.Equal(t, 1, calls)
		})
	}
}

func TestRetry_ContextCancelledDuringWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := &RetryPolicy{Attempts: 3, BaseDelay: time.Hour}

	out, err := Retry(ctx, p, func(int) error {
		cancel()
		return NewAPIError(CodeHTTPError, "busy", http.StatusServiceUnavailable)
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, out.Attempts)
}

func TestRateLimiter_PathBuckets(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{
		DefaultRPS:   1,
		DefaultBurst: 1,
		PathLimits: map[string]PathLimit{
			"/reports": {RPS: 1, Burst: 1},
		},
	})

	assert.True(t, rl.TryAcquire("/reports/sales"))
	assert.False(t, rl.TryAcquire("/reports/top_sellers"))
	assert.True(t, rl.TryAcquire("/orders"))
	assert.False(t, rl.TryAcquire("/orders/12"))
}

func TestRateLimiter_WaitHonoursContext(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{DefaultRPS: 0.001, DefaultBurst: 1})
	require.NoError(t, rl.Wait(context.Background(), "/orders"))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.Error(t, rl.Wait(ctx, "/orders"))
}
