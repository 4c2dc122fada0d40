package registry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenBucket_Take(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	t.Run("starts full and drains one token per call", func(t *testing.T) {
		b := newTokenBucket(3, time.Second)
		b.now = clock
		b.last = now

		for i := 0; i < 3; i++ {
			wait, ok := b.take()
			require.True(t, ok, "token %d", i+1)
			assert.Zero(t, wait)
		}
		_, ok := b.take()
		assert.False(t, ok)
	})

	t.Run("empty bucket reports time until the next token", func(t *testing.T) {
		b := newTokenBucket(4, time.Second)
		b.now = clock
		b.last = now
		b.tokens = 0

		wait, ok := b.take()
		require.False(t, ok)
		assert.Equal(t, 250*time.Millisecond, wait)
	})

	t.Run("replenishes continuously with elapsed time", func(t *testing.T) {
		local := now
		b := newTokenBucket(10, time.Second)
		b.now = func() time.Time { return local }
		b.last = local
		b.tokens = 0

		local = local.Add(300 * time.Millisecond)
		// 3 tokens replenished; consume them all.
		for i := 0; i < 3; i++ {
			_, ok := b.take()
			require.True(t, ok, "token %d", i+1)
		}
		_, ok := b.take()
		assert.False(t, ok)
	})

	t.Run("never exceeds capacity", func(t *testing.T) {
		local := now
		b := newTokenBucket(2, time.Second)
		b.now = func() time.Time { return local }
		b.last = local

		local = local.Add(time.Hour)
		_, ok := b.take()
		require.True(t, ok)
		_, ok = b.take()
		require.True(t, ok)
		_, ok = b.take()
		assert.False(t, ok)
	})
}

func TestTokenBucket_Wait(t *testing.T) {
	t.Run("extra request is delayed by at least one replenish interval", func(t *testing.T) {
		const rate = 5
		period := 250 * time.Millisecond
		b := newTokenBucket(rate, period)

		ctx := context.Background()
		start := time.Now()
		for i := 0; i < rate+1; i++ {
			require.NoError(t, b.Wait(ctx))
		}
		elapsed := time.Since(start)
		assert.GreaterOrEqual(t, elapsed, period/rate)
	})

	t.Run("cancellation interrupts the wait", func(t *testing.T) {
		b := newTokenBucket(1, time.Hour)
		require.NoError(t, b.Wait(context.Background()))

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		err := b.Wait(ctx)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}
