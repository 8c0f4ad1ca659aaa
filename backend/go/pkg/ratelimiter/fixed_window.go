package ratelimiter

import (
	"sync"
	"time"
)

// FixedWindowCounter admits up to limit requests per window, resetting the
// count when a new window starts. Cheap, but bursty around window edges.
type FixedWindowCounter struct {
	limit   int
	window  time.Duration
	count   int
	started time.Time
	mu      sync.Mutex
}

// NewFixedWindowCounter returns a counter whose first window starts now.
func NewFixedWindowCounter(limit int, window time.Duration) *FixedWindowCounter {
	return &FixedWindowCounter{
		limit:   limit,
		window:  window,
		started: time.Now(),
	}
}

// Allow rolls the window forward if it has elapsed, then admits the request
// while the count stays under the limit.
func (fw *FixedWindowCounter) Allow() bool {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	now := time.Now()
	if now.After(fw.started.Add(fw.window)) {
		fw.started = now
		fw.count = 0
	}

	if fw.count < fw.limit {
		fw.count++
		return true
	}
	return false
}
