package ratelimit

import (
	"sync"
	"time"
)

// Limiter is an in-memory sliding-window rate limiter keyed by an
// arbitrary string, the validator keys it by entitlement id.
//
// The window is recomputed on every check: it permits up to maxRequests
// requests inside any trailing window, not inside a fixed calendar
// bucket. A full window is a normal deny, never an error.
type Limiter struct {
	mu          sync.Mutex
	windows     map[string][]int64
	windowSize  time.Duration
	maxRequests int
	now         func() time.Time
}

func New(windowSize time.Duration, maxRequests int) *Limiter {
	return &Limiter{
		windows:     make(map[string][]int64),
		windowSize:  windowSize,
		maxRequests: maxRequests,
		now:         time.Now,
	}
}

// Check prunes timestamps that fell out of the trailing window and, if
// capacity remains, records the current request and allows it. Denied
// requests are not recorded. Prune and append happen under one lock so
// two concurrent callers cannot both observe the last slot.
func (l *Limiter) Check(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	nowMs := l.now().UnixMilli()
	window := l.pruneLocked(key, nowMs)

	if len(window) >= l.maxRequests {
		return false
	}

	l.windows[key] = append(window, nowMs)
	return true
}

// Reset clears all recorded timestamps for the key.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.windows, key)
}

// Sweep prunes every window and drops keys that went idle, so the map
// does not grow with the set of entitlement ids ever seen. The assembly
// runs it periodically.
func (l *Limiter) Sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()

	nowMs := l.now().UnixMilli()
	for key := range l.windows {
		l.pruneLocked(key, nowMs)
	}
}

func (l *Limiter) pruneLocked(key string, nowMs int64) []int64 {
	windowStart := nowMs - l.windowSize.Milliseconds()

	window := l.windows[key]
	pruneIdx := 0
	for pruneIdx < len(window) && window[pruneIdx] <= windowStart {
		pruneIdx++
	}
	if pruneIdx > 0 {
		window = window[pruneIdx:]
	}

	if len(window) == 0 {
		delete(l.windows, key)
		return nil
	}

	l.windows[key] = window
	return window
}
