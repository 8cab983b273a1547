package woocommerce

import (
	"context"
	"errors"
	"math/rand"
	"time"
)

// RetryPolicy is an exponential backoff for store calls. Each retry doubles
// the previous delay, starting at BaseDelay and never exceeding MaxDelay.
type RetryPolicy struct {
	Attempts  int
	BaseDelay time.Duration
	MaxDelay  time.Duration
	// Jitter spreads each delay by up to ±Jitter of its value.
	Jitter float64
}

// DefaultRetryPolicy returns the policy used for store requests.
func DefaultRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		Attempts:  3,
		BaseDelay: 500 * time.Millisecond,
		MaxDelay:  10 * time.Second,
		Jitter:    0.1,
	}
}

// NoRetryPolicy makes a single attempt.
func NoRetryPolicy() *RetryPolicy {
	return &RetryPolicy{Attempts: 1}
}

// retryable is implemented by errors that know whether a repeat can succeed.
type retryable interface {
	IsRetryable() bool
}

// ShouldRetry reports whether err, returned by the given attempt, warrants
// another try.
func (p *RetryPolicy) ShouldRetry(err error, attempt int) bool {
	if err == nil || attempt >= p.attempts() {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var r retryable
	return errors.As(err, &r) && r.IsRetryable()
}

// Backoff returns how long to sleep after the given failed attempt. A store
// that sent Retry-After is obeyed, still bounded by MaxDelay.
func (p *RetryPolicy) Backoff(attempt int, err error) time.Duration {
	if attempt <= 0 {
		return 0
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.RetryAfter > 0 {
		return p.clamp(apiErr.RetryAfter)
	}

	delay := p.BaseDelay << (attempt - 1)
	if delay < p.BaseDelay {
		// shift overflowed
		delay = p.MaxDelay
	}
	if p.Jitter > 0 {
		spread := float64(delay) * p.Jitter
		delay += time.Duration(spread * (rand.Float64()*2 - 1))
	}
	return p.clamp(delay)
}

func (p *RetryPolicy) clamp(d time.Duration) time.Duration {
	if p.MaxDelay > 0 && d > p.MaxDelay {
		return p.MaxDelay
	}
	if d < 0 {
		return 0
	}
	return d
}

func (p *RetryPolicy) attempts() int {
	if p == nil || p.Attempts < 1 {
		return 1
	}
	return p.Attempts
}

// Outcome summarises a Retry call.
type Outcome struct {
	Attempts int
	Elapsed  time.Duration
}

// Retry calls op until it succeeds, returns a permanent error, or the policy
// runs out of attempts. The returned error is op's last error, or ctx.Err()
// when the context ends while waiting between attempts.
func Retry(ctx context.Context, p *RetryPolicy, op func(attempt int) error) (Outcome, error) {
	if p == nil {
		p = NoRetryPolicy()
	}
	started := time.Now()
	var out Outcome

	for {
		out.Attempts++
		err := op(out.Attempts)
		if err == nil || !p.ShouldRetry(err, out.Attempts) {
			out.Elapsed = time.Since(started)
			return out, err
		}

		wait := time.NewTimer(p.Backoff(out.Attempts, err))
		select {
		case <-ctx.Done():
			wait.Stop()
			out.Elapsed = time.Since(started)
			return out, ctx.Err()
		case <-wait.C:
		}
	}
}
