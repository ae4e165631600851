package backend

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// DefaultPoliteness is the spacing between consecutive requests of one adapter.
const DefaultPoliteness = time.Second

// Pacer spaces an adapter's requests by a fixed delay. A zero delay disables it.
type Pacer struct {
	limiter *rate.Limiter
}

// NewPacer creates a Pacer allowing one request per delay.
func NewPacer(delay time.Duration) *Pacer {
	if delay <= 0 {
		return &Pacer{}
	}
	return &Pacer{limiter: rate.NewLimiter(rate.Every(delay), 1)}
}

// Wait blocks until the next request may be sent or ctx is done.
func (p *Pacer) Wait(ctx context.Context) error {
	if p == nil || p.limiter == nil {
		return ctx.Err()
	}
	return p.limiter.Wait(ctx)
}
