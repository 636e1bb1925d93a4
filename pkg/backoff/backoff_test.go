package backoff

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errConn = errors.New("connection refused")
var errProto = errors.New("unknown transaction")

func isConn(err error) bool { return errors.Is(err, errConn) }

func newRecordingRetrier(policy Policy) (*Retrier, *[]time.Duration) {
	slept := []time.Duration{}
	r := NewRetrier(policy)
	r.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return r, &slept
}

func TestDelayRanges(t *testing.T) {
	policy := Policy{BaseDelay: 100 * time.Millisecond, MaxRetries: 5}

	for attempt := 0; attempt < 5; attempt++ {
		upper := policy.BaseDelay << uint(attempt)
		for i := 0; i < 100; i++ {
			d := policy.Delay(attempt)
			assert.GreaterOrEqual(t, d, time.Duration(0))
			assert.Less(t, d, upper)
		}
	}
}

func TestDelayShiftOverflow(t *testing.T) {
	policy := Policy{BaseDelay: 100 * time.Millisecond, MaxRetries: 5}
	assert.NotPanics(t, func() { policy.Delay(62) })
}

func TestRetriesThenSucceeds(t *testing.T) {
	r, slept := newRecordingRetrier(Policy{BaseDelay: 100 * time.Millisecond, MaxRetries: 5})

	calls := 0
	err := r.Do(context.Background(), func() error {
		calls++
		if calls <= 3 {
			return errConn
		}
		return nil
	}, isConn)

	require.NoError(t, err)
	assert.Equal(t, 4, calls)
	require.Len(t, *slept, 3)
	for i, d := range *slept {
		assert.Less(t, d, 100*time.Millisecond<<uint(i))
	}
}

func TestNonRetryableShortCircuits(t *testing.T) {
	r, slept := newRecordingRetrier(Policy{BaseDelay: 100 * time.Millisecond, MaxRetries: 5})

	calls := 0
	err := r.Do(context.Background(), func() error {
		calls++
		return errProto
	}, isConn)

	assert.ErrorIs(t, err, errProto)
	assert.Equal(t, 1, calls)
	assert.Empty(t, *slept)
}

func TestRetryExhaustion(t *testing.T) {
	r, _ := newRecordingRetrier(Policy{BaseDelay: time.Millisecond, MaxRetries: 5})

	calls := 0
	err := r.Do(context.Background(), func() error {
		calls++
		return errConn
	}, isConn)

	assert.ErrorIs(t, err, ErrMaxRetriesExceeded)
	assert.Equal(t, 6, calls)
}

func TestContextCancellationAbortsRetry(t *testing.T) {
	r := NewRetrier(Policy{BaseDelay: time.Hour, MaxRetries: 5})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	calls := 0
	err := r.Do(ctx, func() error {
		calls++
		return errConn
	}, isConn)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, ErrMaxRetriesExceeded)
	assert.Equal(t, 1, calls)
}
