package frame

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// timeouts returns a wait func which times out n times and then succeeds.
func timeouts(n int) (func() (bool, error), *int) {
	calls := 0
	return func() (bool, error) {
		calls++
		return calls > n, nil
	}, &calls
}

func TestRetryWaitSucceeds(t *testing.T) {
	wait, calls := timeouts(0)

	require.NoError(t, RetryPolicy{}.Wait(context.Background(), wait, nil))
	assert.Equal(t, 1, *calls)
}

func TestRetryWaitUnbounded(t *testing.T) {
	wait, calls := timeouts(25)

	var attempts []int
	err := RetryPolicy{}.Wait(context.Background(), wait, func(attempt int) {
		attempts = append(attempts, attempt)
	})

	require.NoError(t, err)
	assert.Equal(t, 26, *calls)
	assert.Len(t, attempts, 25)
	assert.Equal(t, 25, attempts[len(attempts)-1])
}

func TestRetryWaitBounded(t *testing.T) {
	wait, calls := timeouts(100)

	err := RetryPolicy{MaxRetries: 3, Interval: time.Millisecond}.Wait(context.Background(), wait, nil)

	assert.ErrorIs(t, err, ErrWaitTimeout)
	assert.Equal(t, 4, *calls)
}

func TestRetryWaitErrorIsNotRetried(t *testing.T) {
	lost := errors.New("device lost")
	calls := 0

	err := RetryPolicy{}.Wait(context.Background(), func() (bool, error) {
		calls++
		return false, lost
	}, nil)

	assert.ErrorIs(t, err, lost)
	assert.Equal(t, 1, calls)
}

func TestRetryWaitCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	err := RetryPolicy{}.Wait(ctx, func() (bool, error) {
		cancel()
		return false, nil
	}, nil)

	assert.ErrorIs(t, err, context.Canceled)
}
