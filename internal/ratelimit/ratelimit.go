// Package ratelimit implements a fixed-window request limiter. Windows do
// not slide: a burst straddling the window seam can pass up to twice the
// nominal budget. That approximation is accepted; the limiter is soft
// protection for token issuance, not a security boundary on its own.
package ratelimit

import (
	"context"
	"strings"
	"time"
)

// Store atomically counts requests in fixed windows. Implementations must
// apply increment-and-read as one step so concurrent bursts never
// undercount.
type Store interface {
	// Increment records one request against key's current window,
	// starting a fresh window if none is active, and returns the
	// resulting count plus the time remaining until the window resets.
	Increment(ctx context.Context, key string, window time.Duration) (count int, resetIn time.Duration, err error)
}

type Result struct {
	Allowed    bool
	RetryAfter time.Duration
}

// Limiter applies per-key budgets on top of a Store. Namespaces partition
// the keyspace so the login and issuance budgets cannot interfere.
type Limiter struct {
	store Store
}

func New(store Store) *Limiter {
	return &Limiter{store: store}
}

// Check consumes one request unit for (namespace, key). On a store error
// it fails open: a broken counter backend must not lock staff out.
func (l *Limiter) Check(ctx context.Context, namespace, key string, window time.Duration, max int) Result {
	ns := strings.TrimSpace(namespace)
	if ns == "" {
		ns = "default"
	}
	k := strings.TrimSpace(key)
	if k == "" {
		k = "unknown"
	}

	count, resetIn, err := l.store.Increment(ctx, ns+":"+k, window)
	if err != nil {
		return Result{Allowed: true}
	}

	if count <= max {
		return Result{Allowed: true}
	}

	retry := resetIn.Truncate(time.Second)
	if retry < resetIn {
		retry += time.Second
	}
	if retry < time.Second {
		retry = time.Second
	}

	return Result{Allowed: false, RetryAfter: retry}
}
