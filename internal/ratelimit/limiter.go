// Package ratelimit caps the request rate of stress phases.
package ratelimit

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter is a shared requests-per-second cap. A zero rate disables the cap
// entirely rather than blocking forever.
type Limiter struct {
	limiter *rate.Limiter
}

// New creates a Limiter allowing rps requests per second with a burst of rps.
func New(rps int) *Limiter {
	return &Limiter{limiter: rate.NewLimiter(rate.Limit(rps), rps)}
}

// Wait blocks until a request may proceed or ctx is cancelled.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil || l.limiter.Limit() == 0 {
		return nil
	}
	return l.limiter.Wait(ctx)
}

// SetRate adjusts the cap; safe for concurrent use with Wait.
func (l *Limiter) SetRate(rps int) {
	l.limiter.SetLimit(rate.Limit(rps))
	l.limiter.SetBurst(rps)
}
