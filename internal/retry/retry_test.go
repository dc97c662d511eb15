package retry

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestRetry(t *testing.T) {
	t.Run("single successful try", func(t *testing.T) {
		runs := 0

		err := Incremental(context.Background(), 2*time.Millisecond, 5, func(attempt int) error {
			runs++
			return nil
		})

		assert.NoError(t, err)
		assert.Equal(t, 1, runs)
	})

	t.Run("success from the third time", func(t *testing.T) {
		runs := 0

		err := Incremental(context.Background(), 2*time.Millisecond, 4, func(attempt int) error {
			runs++
			if attempt < 3 {
				return Error(errors.New("attempt failed"), attempt)
			}

			return nil
		})

		assert.NoError(t, err)
		assert.Equal(t, 3, runs)
	})

	t.Run("fails when attempt limit is exhausted", func(t *testing.T) {
		runs := 0

		err := Incremental(context.Background(), 2*time.Millisecond, 4, func(attempt int) error {
			runs++
			return Error(errors.New("attempt failed"), attempt)
		})

		assert.True(t, errors.Is(err, ErrTooManyAttempts))
		assert.EqualError(t, err, "attempt 4: attempt failed: too many retry attempts")
		assert.Equal(t, 4, runs)
	})

	t.Run("fails if not a retryable error is returned from callback", func(t *testing.T) {
		runs := 0

		err := Incremental(context.Background(), 2*time.Millisecond, 4, func(attempt int) error {
			runs++
			return errors.New("some error")
		})

		assert.Error(t, err)
		assert.False(t, errors.Is(err, ErrTooManyAttempts))
		assert.Equal(t, 1, runs)
	})

	t.Run("stops waiting when the context is cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := Incremental(ctx, time.Second, 10, func(attempt int) error {
			return Error(errors.New("attempt failed"), attempt)
		})

		assert.True(t, errors.Is(err, context.Canceled))
	})
}
