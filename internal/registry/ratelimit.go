package registry

import (
	"context"
	"sync"
	"time"
)

// tokenBucket gates every outbound registry call. Tokens replenish
// continuously at rate/period; Wait suspends until a whole token is
// available. All calls on one client share a single bucket, so batch
// verification throughput stays bounded by the configured rate.
type tokenBucket struct {
	mu       sync.Mutex
	capacity float64
	tokens   float64
	rate     float64
	period   time.Duration
	last     time.Time
	now      func() time.Time
}

func newTokenBucket(rate int, period time.Duration) *tokenBucket {
	b := &tokenBucket{
		capacity: float64(rate),
		tokens:   float64(rate),
		rate:     float64(rate),
		period:   period,
		now:      time.Now,
	}
	b.last = b.now()
	return b
}

// Wait blocks until a token is consumed or ctx is done.
func (b *tokenBucket) Wait(ctx context.Context) error {
	for {
		wait, ok := b.take()
		if ok {
			return nil
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// take consumes one token if available; otherwise it returns the time to
// wait before one will have replenished.
func (b *tokenBucket) take() (time.Duration, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	elapsed := now.Sub(b.last)
	b.tokens = min(b.capacity, b.tokens+elapsed.Seconds()*b.rate/b.period.Seconds())
	b.last = now

	if b.tokens >= 1 {
		b.tokens--
		return 0, true
	}
	deficit := 1 - b.tokens
	wait := time.Duration(deficit / b.rate * b.period.Seconds() * float64(time.Second))
	return wait, false
}
