package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithRetry(t *testing.T) {
	ctx := context.Background()

	t.Run("returns first success", func(t *testing.T) {
		calls := 0
		out, err := withRetry(ctx, 3, func(context.Context) (int, error) {
			calls++
			return 42, nil
		})
		require.NoError(t, err)
		assert.Equal(t, 42, out)
		assert.Equal(t, 1, calls)
	})

	t.Run("retries transient errors until success", func(t *testing.T) {
		calls := 0
		out, err := withRetry(ctx, 3, func(context.Context) (int, error) {
			calls++
			if calls < 3 {
				return 0, markRetryable(errors.New("transient"))
			}
			return 7, nil
		})
		require.NoError(t, err)
		assert.Equal(t, 7, out)
		assert.Equal(t, 3, calls)
	})

	t.Run("non-retryable errors fail immediately", func(t *testing.T) {
		calls := 0
		permanent := errors.New("permanent")
		_, err := withRetry(ctx, 3, func(context.Context) (int, error) {
			calls++
			return 0, permanent
		})
		assert.ErrorIs(t, err, permanent)
		assert.Equal(t, 1, calls)
	})

	t.Run("attempt budget is bounded", func(t *testing.T) {
		calls := 0
		_, err := withRetry(ctx, 2, func(context.Context) (int, error) {
			calls++
			return 0, markRetryable(errors.New("still down"))
		})
		require.Error(t, err)
		assert.Equal(t, 2, calls)
	})

	t.Run("cancellation stops the backoff sleep", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		calls := 0
		go cancel()
		_, err := withRetry(ctx, 5, func(context.Context) (int, error) {
			calls++
			return 0, markRetryable(errors.New("transient"))
		})
		require.Error(t, err)
		assert.LessOrEqual(t, calls, 5)
	})
}

func TestBackoffDelay(t *testing.T) {
	for attempt := 1; attempt <= 10; attempt++ {
		delay := backoffDelay(attempt)
		assert.GreaterOrEqual(t, delay, backoffBase)
		assert.LessOrEqual(t, delay, backoffCap+backoffCap/4)
	}
}
