package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/hoteleiro/breakfast-pass/internal/platform/clock"
)

// cleanupThreshold is the table size past which a sweep runs. Cleanup is
// opportunistic, on the request path, so no background timer is needed.
const cleanupThreshold = 500

type memoryEntry struct {
	count       int
	windowStart time.Time
	window      time.Duration
}

// MemoryStore keeps counters in a process-local map. State is lost on
// restart, which is acceptable for a soft limiter. Safe for concurrent use.
type MemoryStore struct {
	mu      sync.Mutex
	clock   clock.Clock
	entries map[string]memoryEntry
}

func NewMemoryStore(c clock.Clock) *MemoryStore {
	return &MemoryStore{
		clock:   c,
		entries: make(map[string]memoryEntry),
	}
}

func (s *MemoryStore) Increment(_ context.Context, key string, window time.Duration) (int, time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	s.sweep(now)

	e, ok := s.entries[key]
	if !ok || now.Sub(e.windowStart) >= window {
		s.entries[key] = memoryEntry{count: 1, windowStart: now, window: window}
		return 1, window, nil
	}

	e.count++
	s.entries[key] = e
	return e.count, e.windowStart.Add(e.window).Sub(now), nil
}

// sweep drops entries whose window ended more than 2x the window ago.
// Caller holds the lock.
func (s *MemoryStore) sweep(now time.Time) {
	if len(s.entries) < cleanupThreshold {
		return
	}
	for key, e := range s.entries {
		if now.Sub(e.windowStart) > 2*e.window {
			delete(s.entries, key)
		}
	}
}

// Len reports the current table size.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Reset clears all counters.
func (s *MemoryStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]memoryEntry)
}

var _ Store = (*MemoryStore)(nil)
