package retry

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
)

var ErrTooManyAttempts = errors.New("too many retry attempts")

type Callable func(attempt int) error

// retryable marks an error the callable wants to be called again for
type retryable struct {
	error
	attempt int
}

func (r *retryable) Unwrap() error {
	return r.error
}

func Error(err error, attempt int) error {
	if err == nil {
		return nil
	}
	return &retryable{error: err, attempt: attempt}
}

type Attempts interface {
	Next() (time.Duration, bool)
	Current() int
}

// Start calls cb until it succeeds, returns an error not created with
// Error, runs out of attempts or ctx is done.
func Start(ctx context.Context, a Attempts, cb Callable) error {
	for {
		err := cb(a.Current())
		if err == nil {
			return nil
		}

		var r *retryable
		if !errors.As(err, &r) {
			return errors.Wrapf(err, "attempt %d failed", a.Current())
		}

		next, stop := a.Next()
		if stop {
			return errors.Wrapf(ErrTooManyAttempts, "attempt %d: %s", r.attempt, r.Error())
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(next):
		}
	}
}

// Incremental waits one more step after every failed attempt
func Incremental(ctx context.Context, step time.Duration, maxAttempts int, cb Callable) error {
	return Start(ctx, IncrementalAttempts(step, maxAttempts), cb)
}

type incrementalAttempts struct {
	sync.RWMutex
	prev time.Duration
	step time.Duration
	max  int
	curr int
}

func (a *incrementalAttempts) Next() (time.Duration, bool) {
	a.Lock()
	defer a.Unlock()

	a.curr++
	if a.curr > a.max {
		return 0, true
	}

	a.prev += a.step

	return a.prev, false
}

func (a *incrementalAttempts) Current() int {
	a.RLock()
	defer a.RUnlock()
	return a.curr
}

func IncrementalAttempts(step time.Duration, max int) Attempts {
	return &incrementalAttempts{
		step: step,
		max:  max,
		curr: 1,
	}
}
