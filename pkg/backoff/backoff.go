package backoff

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"
)

// ErrMaxRetriesExceeded is returned by Do once every allowed attempt has
// failed with a retryable error. The last attempt's error is wrapped
// alongside it.
var ErrMaxRetriesExceeded = errors.New("max retries exceeded")

// Policy computes randomized exponential retry delays. The delay before the
// n-th retry (0-based) is drawn uniformly from [0, BaseDelay*2^n), so that
// concurrently retrying callers desynchronize.
type Policy struct {
	// BaseDelay is the upper bound of the first retry delay.
	BaseDelay time.Duration
	// MaxRetries is the number of retries after the initial attempt.
	MaxRetries int
}

// Delay returns the randomized delay to sleep before the given 0-based retry.
func (p Policy) Delay(attempt int) time.Duration {
	nominal := p.BaseDelay << uint(attempt)
	if nominal <= 0 {
		// shift overflow, cap at the widest representable window
		nominal = time.Duration(1<<63 - 1)
	}
	return time.Duration(rand.Int63n(int64(nominal)))
}

// Retrier runs operations under a Policy, retrying only the errors its
// classifier marks as retryable and honoring context cancellation between
// attempts.
type Retrier struct {
	policy Policy
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewRetrier returns a Retrier applying the given policy.
func NewRetrier(policy Policy) *Retrier {
	return &Retrier{policy: policy, sleep: sleepContext}
}

// Do runs op until it succeeds, fails with a non-retryable error, exhausts
// the policy's retries, or the context is done. Exhaustion is reported as
// ErrMaxRetriesExceeded wrapping the last error; a context expiry surfaces
// the context's own error so callers can tell the two apart.
func (r *Retrier) Do(
	ctx context.Context,
	op func() error,
	retryable func(error) bool,
) error {
	for attempt := 0; ; attempt++ {
		err := op()
		if err == nil || !retryable(err) {
			return err
		}
		if attempt >= r.policy.MaxRetries {
			return fmt.Errorf("%w: %v", ErrMaxRetriesExceeded, err)
		}
		if err := r.sleep(ctx, r.policy.Delay(attempt)); err != nil {
			return err
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
