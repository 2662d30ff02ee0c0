// Package ratelimit enforces minimum spacing between requests to a single
// rate-limited backend.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/mkedev/planning-sync/internal/telemetry"
)

// Gate spaces outbound requests so no two start within the configured
// interval. A zero interval gate admits everything immediately.
type Gate struct {
	limiter  *rate.Limiter
	interval time.Duration
}

// NewGate builds a gate with the given minimum inter-request interval.
func NewGate(minInterval time.Duration) *Gate {
	if minInterval <= 0 {
		return &Gate{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	return &Gate{
		limiter:  rate.NewLimiter(rate.Every(minInterval), 1),
		interval: minInterval,
	}
}

// Interval returns the configured spacing.
func (g *Gate) Interval() time.Duration {
	return g.interval
}

// Wait blocks until the next request may start, respecting the context.
// rawURL is only used to label the wait-time metric.
func (g *Gate) Wait(ctx context.Context, rawURL string) error {
	if g == nil {
		return nil
	}
	start := time.Now()
	if err := g.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	if waited := time.Since(start); waited > time.Millisecond {
		telemetry.ObserveRateLimitWait(rawURL, waited)
	}
	return nil
}
