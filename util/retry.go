package util

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

var ErrTimeout = errors.New("timed out")

var errNotDone = errors.New("task not done")

/*
SleepStrategy decides how long to sleep between the attempts of a task.
*/
type SleepStrategy = backoff.BackOff

// ConstantSleep sleeps "d" between every attempt.
func ConstantSleep(d time.Duration) SleepStrategy {
	return backoff.NewConstantBackOff(d)
}

// LinearBackoff increases the sleep by "delta" after every attempt.
func LinearBackoff(delta time.Duration) SleepStrategy {
	return &linearBackOff{delta: delta}
}

type linearBackOff struct {
	delta   time.Duration
	current time.Duration
}

func (b *linearBackOff) NextBackOff() time.Duration {
	b.current += b.delta
	return b.current
}

func (b *linearBackOff) Reset() {
	b.current = 0
}

/*
Retry calls task until it reports to be done or returns an error. Strategy
decides how long to sleep between the attempts. Retrying stops when ctx is
cancelled.
*/
func Retry(ctx context.Context, strategy SleepStrategy, task func(ctx context.Context) (done bool, err error)) error {
	op := func() error {
		done, err := task(ctx)
		if err != nil {
			return backoff.Permanent(err)
		}
		if !done {
			return errNotDone
		}
		return nil
	}
	return backoff.Retry(op, backoff.WithContext(strategy, ctx))
}

/*
RetryUntil is like Retry but gives up with ErrTimeout when the deadline passes.
*/
func RetryUntil(ctx context.Context, deadline time.Time, strategy SleepStrategy, task func(ctx context.Context) (done bool, err error)) error {
	ctx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	err := Retry(ctx, strategy, task)
	if errors.Is(err, context.DeadlineExceeded) || (errors.Is(err, errNotDone) && ctx.Err() != nil) {
		return ErrTimeout
	}
	return err
}
