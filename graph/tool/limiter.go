package tool

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter rate-limits calls to one tool, wrapping golang.org/x/time/rate
// so the Executor's limiter stage is a thin, swappable wrapper rather
// than a hand-rolled token bucket.
type Limiter struct {
	limiter *rate.Limiter
	enabled bool
}

func NewLimiter(cfg RateLimitConfig) *Limiter {
	if !cfg.Enabled || cfg.RequestsPerSecond <= 0 {
		return &Limiter{enabled: false}
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst),
		enabled: true,
	}
}

// Wait blocks until a call is permitted or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	if !l.enabled {
		return nil
	}
	return l.limiter.Wait(ctx)
}
