// Package ratelimit throttles HTTP traffic per caller.
//
// The server limits by role and client IP through the Limiter interface;
// MemoryLimiter is the single-process implementation. A deployment running
// several replicas behind one address would need a shared backend, which is
// why the interface exists at all.
package ratelimit

import "context"

// Limiter answers whether one more request for key may proceed now.
// Implementations must be safe for concurrent use. A non-nil error means the
// limiter itself failed; the middleware treats that as fail-open so a broken
// limiter degrades to no limiting rather than an outage.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Close() error
}

// NoopLimiter admits everything. Wired when KEIFU_RATE_LIMIT_RPM is 0.
type NoopLimiter struct{}

func (NoopLimiter) Allow(context.Context, string) (bool, error) { return true, nil }
func (NoopLimiter) Close() error                                { return nil }
