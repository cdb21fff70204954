// Package retry implements the bounded retry strategy used for
// rate-limited upstream lookups.
//
// The policy is deliberately narrow: only errors the Retryable
// predicate accepts are retried (in practice, upstream 429s). Any other
// failure aborts immediately so genuine upstream errors are not masked
// as transient ones.
package retry

import (
	"context"
	"time"

	"github.com/minseo-lab/guildmain/pkg/metrics"
)

// Defaults per the upstream rate-limit contract: three total attempts
// with a fixed 3 s wait, since no retry-after value is documented.
const (
	defaultMaxAttempts = 3
	defaultBackoff     = 3 * time.Second
)

// Policy describes when and how often a failed call is reattempted.
type Policy struct {
	maxAttempts int
	backoff     time.Duration
	retryable   func(error) bool
}

// Option applies a configuration option to the Policy.
type Option func(*Policy)

// WithMaxAttempts sets the total attempt budget (first call included).
func WithMaxAttempts(n int) Option {
	return func(p *Policy) {
		if n > 0 {
			p.maxAttempts = n
		}
	}
}

// WithBackoff sets the fixed wait between attempts.
func WithBackoff(d time.Duration) Option {
	return func(p *Policy) {
		if d >= 0 {
			p.backoff = d
		}
	}
}

// WithRetryable sets the predicate deciding which errors are retried.
func WithRetryable(fn func(error) bool) Option {
	return func(p *Policy) {
		if fn != nil {
			p.retryable = fn
		}
	}
}

// NewPolicy constructs a Policy with defaults. Without a retryable
// predicate no error is ever retried.
func NewPolicy(opts ...Option) *Policy {
	p := &Policy{
		maxAttempts: defaultMaxAttempts,
		backoff:     defaultBackoff,
		retryable:   func(error) bool { return false },
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// MaxAttempts returns the total attempt budget.
func (p *Policy) MaxAttempts() int { return p.maxAttempts }

// Do runs fn under the policy. It returns fn's first success, or the
// last error once the budget is exhausted or a non-retryable error is
// seen. The backoff wait honors ctx.
func Do[T any](ctx context.Context, p *Policy, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err

		if !p.retryable(err) {
			return zero, err
		}
		if attempt == p.maxAttempts {
			break
		}

		metrics.RecordRateLimitRetry()
		select {
		case <-time.After(p.backoff):
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}

	return zero, lastErr
}
