// Package ratelimit provides a small token-bucket limiter for pacing
// gateway requests. The bucket refills continuously at the configured
// rate; Wait blocks until a token is available or the context ends.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter is a token bucket. The zero value is not usable; construct
// with New.
type Limiter struct {
	mu     sync.Mutex
	rate   float64 // tokens per second
	burst  float64
	tokens float64
	last   time.Time

	now func() time.Time // test hook
}

// New creates a Limiter allowing perSecond requests per second with a
// burst of the same size. A non-positive rate disables limiting.
func New(perSecond float64) *Limiter {
	return &Limiter{
		rate:   perSecond,
		burst:  perSecond,
		tokens: perSecond,
		now:    time.Now,
	}
}

// Wait blocks until one token is available, returning early with the
// context's error if it is cancelled first.
func (l *Limiter) Wait(ctx context.Context) error {
	if l.rate <= 0 {
		return ctx.Err()
	}

	for {
		l.mu.Lock()
		l.refill()
		if l.tokens >= 1 {
			l.tokens--
			l.mu.Unlock()
			return nil
		}
		wait := time.Duration((1 - l.tokens) / l.rate * float64(time.Second))
		l.mu.Unlock()

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Allow reports whether a token is immediately available, consuming it
// when so. Non-blocking companion to Wait.
func (l *Limiter) Allow() bool {
	if l.rate <= 0 {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.refill()
	if l.tokens < 1 {
		return false
	}
	l.tokens--
	return true
}

// refill credits tokens for the time elapsed since the last update.
// Caller holds mu.
func (l *Limiter) refill() {
	now := l.now()
	if l.last.IsZero() {
		l.last = now
		return
	}
	elapsed := now.Sub(l.last).Seconds()
	if elapsed <= 0 {
		return
	}
	l.tokens += elapsed * l.rate
	if l.tokens > l.burst {
		l.tokens = l.burst
	}
	l.last = now
}
