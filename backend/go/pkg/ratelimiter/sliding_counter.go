package ratelimiter

import (
	"sync"
	"time"
)

// SlidingWindowCounter approximates a sliding window by splitting it into
// numBuckets sub-counters. It costs O(numBuckets) memory instead of the
// per-request log kept by SlidingWindowLog, at the price of bucket-granular
// accuracy at the window edges.
type SlidingWindowCounter struct {
	limit      int
	window     time.Duration
	numBuckets int
	bucketSize time.Duration

	buckets    []int
	current    int       // index of the bucket receiving new requests
	lastUpdate time.Time // when the window last slid forward
	mutex      sync.Mutex
}

// NewSlidingWindowCounter creates a counter allowing limit requests per
// window, tracked across numBuckets buckets. A non-positive numBuckets
// falls back to 10.
func NewSlidingWindowCounter(limit int, window time.Duration, numBuckets int) *SlidingWindowCounter {
	if numBuckets <= 0 {
		numBuckets = 10
	}
	return &SlidingWindowCounter{
		limit:      limit,
		window:     window,
		numBuckets: numBuckets,
		bucketSize: window / time.Duration(numBuckets),
		buckets:    make([]int, numBuckets),
		lastUpdate: time.Now(),
	}
}

// slide advances the window, zeroing every bucket that fell out of it.
// Caller must hold the mutex.
func (swc *SlidingWindowCounter) slide() {
	now := time.Now()
	steps := int(now.Sub(swc.lastUpdate) / swc.bucketSize)
	if steps <= 0 {
		return
	}
	if steps >= swc.numBuckets {
		for i := range swc.buckets {
			swc.buckets[i] = 0
		}
	} else {
		for i := 1; i <= steps; i++ {
			swc.buckets[(swc.current+i)%swc.numBuckets] = 0
		}
	}
	swc.current = (swc.current + steps) % swc.numBuckets
	swc.lastUpdate = now
}

// Allow reports whether one more request fits in the current window.
func (swc *SlidingWindowCounter) Allow() bool {
	swc.mutex.Lock()
	defer swc.mutex.Unlock()

	swc.slide()

	total := 0
	for _, count := range swc.buckets {
		total += count
	}
	if total >= swc.limit {
		return false
	}
	swc.buckets[swc.current]++
	return true
}
