package ratelimit

import (
	"context"
	"math/rand/v2"
	"time"
)

// Limiter paces outgoing competitor fetches so that a single research run
// does not burst against the same set of hosts. It is safe for concurrent use.
type Limiter struct {
	ticker   *time.Ticker
	interval time.Duration
	jitter   float64
}

// New returns a limiter allowing rps operations per second. Jitter in [0,1]
// adds up to jitter*interval of extra random delay after each tick.
// A non-positive rps yields a limiter that never blocks.
func New(rps, jitter float64) *Limiter {
	if rps <= 0 {
		return &Limiter{}
	}
	jitter = min(max(jitter, 0), 1)
	interval := time.Duration(float64(time.Second) / rps)
	return &Limiter{
		ticker:   time.NewTicker(interval),
		interval: interval,
		jitter:   jitter,
	}
}

// Wait blocks until the next slot is available or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil || l.ticker == nil {
		return ctx.Err()
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-l.ticker.C:
	}

	if l.jitter == 0 {
		return nil
	}
	extra := time.Duration(rand.Float64() * l.jitter * float64(l.interval))
	if extra <= 0 {
		return nil
	}
	timer := time.NewTimer(extra)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Stop releases the underlying ticker.
func (l *Limiter) Stop() {
	if l != nil && l.ticker != nil {
		l.ticker.Stop()
	}
}
