package ratelimiter

import (
	"container/list"
	"sync"
	"time"
)

// SlidingWindowLog keeps the timestamp of every admitted request and counts
// how many fall inside the trailing window. Exact, at the cost of one list
// entry per admitted request.
type SlidingWindowLog struct {
	limit  int
	window time.Duration
	log    *list.List // time.Time values in arrival order
	mu     sync.Mutex
}

// NewSlidingWindowLog returns an empty log limiter.
func NewSlidingWindowLog(limit int, window time.Duration) *SlidingWindowLog {
	return &SlidingWindowLog{
		limit:  limit,
		window: window,
		log:    list.New(),
	}
}

// Allow evicts timestamps that fell out of the window, then admits and
// records the request if the remaining count is under the limit.
func (sl *SlidingWindowLog) Allow() bool {
	sl.mu.Lock()
	defer sl.mu.Unlock()

	now := time.Now()
	boundary := now.Add(-sl.window)

	// Entries are in arrival order, so eviction stops at the first
	// timestamp still inside the window.
	for e := sl.log.Front(); e != nil; {
		if !e.Value.(time.Time).Before(boundary) {
			break
		}
		next := e.Next()
		sl.log.Remove(e)
		e = next
	}

	if sl.log.Len() < sl.limit {
		sl.log.PushBack(now)
		return true
	}
	return false
}
