// Package retry provides the bounded-retry policy shared by the knowledge
// fetch and LLM completion paths.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Policy describes a bounded retry schedule: up to MaxAttempts total
// attempts with exponential backoff between them.
type Policy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultPolicy is a conservative schedule suitable for transient network
// errors: 3 attempts, starting at 500ms.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:     3,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     5 * time.Second,
	}
}

// Do runs op, retrying on error according to the policy. It stops early
// when ctx is cancelled or when op returns an error wrapped by Permanent.
// The returned error is the last error op produced.
func (p Policy) Do(ctx context.Context, op func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	b := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		b.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		b.MaxInterval = p.MaxInterval
	}

	return backoff.Retry(op, backoff.WithContext(
		backoff.WithMaxRetries(b, uint64(attempts-1)), ctx))
}

// Permanent marks err as non-retryable: Do returns it immediately without
// further attempts. Use it for errors where retrying cannot help, such as
// invalid credentials or exhausted quota.
func Permanent(err error) error {
	return backoff.Permanent(err)
}
