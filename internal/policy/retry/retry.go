// Package retry classifies outbound HTTP failures and owns the backoff
// schedule for the resilient client.
package retry

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"
)

// Class describes how a single HTTP attempt ended.
type Class int

const (
	// ClassSuccess covers responses that need no retry handling.
	ClassSuccess Class = iota
	// ClassTerminal covers request defects: 4xx other than 429, and
	// cancelled contexts. Retrying cannot help.
	ClassTerminal
	// ClassTransient covers 5xx responses and connection-level failures
	// (timeouts, refused connections, DNS errors).
	ClassTransient
	// ClassRateLimited is HTTP 429, retried on the server's schedule.
	ClassRateLimited
)

// Classify buckets an attempt's result. err wins over status; a zero status
// with a nil error classifies as success so callers can special-case
// bodyless transports in tests.
func Classify(status int, err error) Class {
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return ClassTerminal
		}
		return ClassTransient
	}
	switch {
	case status == http.StatusTooManyRequests:
		return ClassRateLimited
	case status >= 500:
		return ClassTransient
	case status >= 400:
		return ClassTerminal
	default:
		return ClassSuccess
	}
}

// Policy bounds attempts and computes delays between them.
type Policy struct {
	maxAttempts       int
	baseDelay         time.Duration
	defaultRetryAfter time.Duration
}

// New builds the standard policy: three attempts total, delays doubling from
// one second, sixty seconds when a rate-limited response carries no hint.
func New() *Policy {
	return &Policy{
		maxAttempts:       3,
		baseDelay:         time.Second,
		defaultRetryAfter: 60 * time.Second,
	}
}

// NewWithLimits builds a policy with explicit bounds, mainly for tests and
// config overrides. Non-positive values fall back to the defaults.
func NewWithLimits(maxAttempts int, defaultRetryAfter time.Duration) *Policy {
	p := New()
	if maxAttempts > 0 {
		p.maxAttempts = maxAttempts
	}
	if defaultRetryAfter > 0 {
		p.defaultRetryAfter = defaultRetryAfter
	}
	return p
}

// MaxAttempts returns the total attempt bound.
func (p *Policy) MaxAttempts() int {
	return p.maxAttempts
}

// ShouldRetry reports whether another attempt is allowed after the given
// zero-based attempt ended with class c.
func (p *Policy) ShouldRetry(c Class, attempt int) bool {
	if attempt+1 >= p.maxAttempts {
		return false
	}
	return c == ClassTransient || c == ClassRateLimited
}

// Backoff returns the delay before the attempt following the given
// zero-based attempt: 2^attempt seconds.
func (p *Policy) Backoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	return time.Duration(math.Pow(2, float64(attempt))) * p.baseDelay
}

// RetryAfterDelay resolves the wait for a rate-limited response. Only the
// delta-seconds form of the header is honored; anything else falls back to
// the default.
func (p *Policy) RetryAfterDelay(header string) time.Duration {
	if header != "" {
		if secs, err := strconv.Atoi(header); err == nil && secs >= 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return p.defaultRetryAfter
}
