package frame

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ErrWaitTimeout is returned when a wait kept timing out after every retry.
var ErrWaitTimeout = errors.New("wait timed out")

// RetryPolicy bounds the fence and timeline wait loops.
type RetryPolicy struct {
	// MaxRetries is the number of extra attempts after the first timeout.
	// Zero retries until the wait succeeds or the context is done.
	MaxRetries int

	// Interval is the pause between attempts. Each attempt already blocks for
	// its own timeout so it is usually zero.
	Interval time.Duration
}

// Wait calls wait until it reports success. A timeout reported by wait is
// retried, an error is returned at once. onTimeout, when not nil, is called
// after every timed out attempt.
func (p RetryPolicy) Wait(
	ctx context.Context,
	wait func() (bool, error),
	onTimeout func(attempt int),
) error {
	attempt := 0
	operation := func() error {
		done, err := wait()
		if err != nil {
			return backoff.Permanent(err)
		}
		if !done {
			attempt++
			if onTimeout != nil {
				onTimeout(attempt)
			}
			return ErrWaitTimeout
		}
		return nil
	}

	return backoff.Retry(operation, p.backOff(ctx))
}

func (p RetryPolicy) backOff(ctx context.Context) backoff.BackOff {
	var b backoff.BackOff = backoff.NewConstantBackOff(p.Interval)
	if p.MaxRetries > 0 {
		b = backoff.WithMaxRetries(b, uint64(p.MaxRetries))
	}
	return backoff.WithContext(b, ctx)
}
