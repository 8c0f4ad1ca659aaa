package ratelimiter

import (
	"sync"
	"time"
)

// LeakyBucket smooths bursts into a steady outflow: each admitted request
// adds one unit of water, which drains at the configured rate. When the
// bucket is full further requests are rejected.
type LeakyBucket struct {
	rate      float64 // units drained per second
	capacity  float64
	level     float64
	lastDrain time.Time
	mu        sync.Mutex
}

// NewLeakyBucket returns an empty bucket draining rate units per second with
// room for capacity queued requests.
func NewLeakyBucket(rate float64, capacity int) *LeakyBucket {
	return &LeakyBucket{
		rate:      rate,
		capacity:  float64(capacity),
		lastDrain: time.Now(),
	}
}

// Allow drains the bucket for the elapsed time and admits the request if a
// unit of room remains.
func (lb *LeakyBucket) Allow() bool {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	now := time.Now()
	if drained := now.Sub(lb.lastDrain).Seconds() * lb.rate; drained > 0 {
		lb.level -= drained
		if lb.level < 0 {
			lb.level = 0
		}
		lb.lastDrain = now
	}

	if lb.level < lb.capacity {
		lb.level++
		return true
	}
	return false
}
