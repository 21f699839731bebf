package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Idle buckets are dropped during a sweep; sweeps are piggybacked on Allow
// so an idle process holds no timers.
const (
	idleEvictAfter = 15 * time.Minute
	sweepEvery     = time.Minute
)

// bucket tracks the remaining allowance for one key.
type bucket struct {
	tokens  float64
	touched time.Time
}

// MemoryLimiter is a per-key token bucket held in process memory. Keys are
// role:IP pairs, so the map stays small for a single-tenant deployment;
// multi-replica deployments need a shared Limiter instead.
type MemoryLimiter struct {
	perSec float64
	cap    float64

	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
}

// NewMemoryLimiter creates a limiter allowing rpm sustained requests per
// minute per key, with bursts up to burst requests.
func NewMemoryLimiter(rpm, burst int) *MemoryLimiter {
	return &MemoryLimiter{
		perSec:    float64(rpm) / 60.0,
		cap:       float64(burst),
		buckets:   make(map[string]*bucket),
		lastSweep: time.Now(),
	}
}

// Allow takes one token from key's bucket, refilling by elapsed time first.
// A key seen for the first time starts with a full bucket.
func (m *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	if now.Sub(m.lastSweep) >= sweepEvery {
		m.sweep(now)
	}

	b, ok := m.buckets[key]
	if !ok {
		b = &bucket{tokens: m.cap, touched: now}
		m.buckets[key] = b
	} else {
		b.tokens += now.Sub(b.touched).Seconds() * m.perSec
		if b.tokens > m.cap {
			b.tokens = m.cap
		}
		b.touched = now
	}

	if b.tokens < 1 {
		return false, nil
	}
	b.tokens--
	return true, nil
}

// Close is a no-op; the limiter owns no goroutines or connections.
func (m *MemoryLimiter) Close() error { return nil }

// sweep drops buckets idle past the eviction window. Caller holds mu.
func (m *MemoryLimiter) sweep(now time.Time) {
	m.lastSweep = now
	for key, b := range m.buckets {
		if now.Sub(b.touched) >= idleEvictAfter {
			delete(m.buckets, key)
		}
	}
}
