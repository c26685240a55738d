package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter defines the interface for client-side request pacing
type Limiter interface {
	// Allow reports whether a request may proceed now, consuming a token if so
	Allow() bool
	// Wait blocks until a request may proceed or ctx is done
	Wait(ctx context.Context) error
	// Reset restores the limiter to a full burst
	Reset()
}

// TokenBucket paces requests to a steady rate with a burst allowance.
type TokenBucket struct {
	limit rate.Limit
	burst int

	mu  sync.Mutex
	lim *rate.Limiter
}

// NewTokenBucket allows perMinute requests per minute with bursts of burst.
func NewTokenBucket(perMinute, burst int) *TokenBucket {
	if burst < 1 {
		burst = 1
	}
	limit := rate.Inf
	if perMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(perMinute))
	}
	return &TokenBucket{
		limit: limit,
		burst: burst,
		lim:   rate.NewLimiter(limit, burst),
	}
}

func (tb *TokenBucket) current() *rate.Limiter {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return tb.lim
}

func (tb *TokenBucket) Allow() bool {
	return tb.current().Allow()
}

func (tb *TokenBucket) Wait(ctx context.Context) error {
	return tb.current().Wait(ctx)
}

func (tb *TokenBucket) Reset() {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.lim = rate.NewLimiter(tb.limit, tb.burst)
}

// Unlimited never blocks.
type Unlimited struct{}

func (Unlimited) Allow() bool                    { return true }
func (Unlimited) Wait(ctx context.Context) error { return ctx.Err() }
func (Unlimited) Reset()                         {}

// Sleep waits for d or until ctx is done, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
