package soto

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// IdempotentInput is implemented by generated input shapes carrying an
// explicit idempotency token member; such operations are retryable
// unconditionally.
type IdempotentInput interface {
	IdempotencyToken() string
}

// RetryPolicy wraps backoff.BackOff with an at-most-N-retries bound.
type RetryPolicy struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxRetries      int
}

// DefaultRetryPolicy returns sane defaults: a short initial backoff capped
// well below typical request timeouts, and a small retry budget.
func DefaultRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		InitialInterval: 200 * time.Millisecond,
		MaxInterval:     10 * time.Second,
		MaxRetries:      3,
	}
}

func (p *RetryPolicy) backOff(ctx context.Context) backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = p.InitialInterval
	eb.MaxInterval = p.MaxInterval
	return backoff.WithMaxRetries(backoff.WithContext(eb, ctx), uint64(p.MaxRetries))
}

// isRetryableHTTPStatus reports whether a response status alone (without
// consulting the decoded error code) warrants a retry: 5xx or 429.
func isRetryableHTTPStatus(status int) bool {
	return status == 429 || status >= 500
}

// isRetryableErrorCode reports whether a mapped service error code
// warrants a retry.
func isRetryableErrorCode(code string) bool {
	return code == "Throttling"
}

// retryableAttempt runs fn, retrying per policy whenever fn reports a
// retryable failure. unconditional forces every attempt to retry on any
// non-nil error up to MaxRetries, per idempotent/IdempotentInput
// operations. fn's bool return indicates whether its
// error (if any) is itself retryable; the final error returned is always
// the last attempt's.
func retryableAttempt(ctx context.Context, policy *RetryPolicy, unconditional bool, fn func() (retryable bool, err error)) error {
	b := policy.backOff(ctx)
	var lastErr error
	attempts := 0

	op := func() error {
		attempts++
		retryable, err := fn()
		lastErr = err
		if err == nil {
			return nil
		}
		if unconditional || retryable {
			return err
		}
		return backoff.Permanent(err)
	}

	if err := backoff.Retry(op, b); err != nil {
		var re *RetryableError
		if errors.As(lastErr, &re) {
			re.Attempts = attempts
		}
		return lastErr
	}
	return nil
}
