package http

import (
	"sync"
	"time"
)

// rateLimiter gives every client a budget of limit requests per fixed
// window. It implements cache.Cleaner so idle clients are swept with the
// other in-process caches.
type rateLimiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu      sync.Mutex
	windows map[string]clientWindow
}

type clientWindow struct {
	start time.Time
	used  int
}

func newRateLimiter(limit int, window time.Duration) *rateLimiter {
	return &rateLimiter{
		limit:   limit,
		window:  window,
		now:     time.Now,
		windows: make(map[string]clientWindow),
	}
}

// allow spends one request of clientIP's budget. When the budget is gone it
// returns false and how long until the window resets.
func (rl *rateLimiter) allow(clientIP string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	w, ok := rl.windows[clientIP]
	if !ok || now.Sub(w.start) >= rl.window {
		w = clientWindow{start: now}
	}
	if w.used >= rl.limit {
		return false, w.start.Add(rl.window).Sub(now)
	}
	w.used++
	rl.windows[clientIP] = w
	return true, 0
}

// CleanExpired forgets clients whose window ended. It returns how many were
// dropped.
func (rl *rateLimiter) CleanExpired() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	removed := 0
	for ip, w := range rl.windows {
		if now.Sub(w.start) >= rl.window {
			delete(rl.windows, ip)
			removed++
		}
	}
	return removed
}

func (rl *rateLimiter) clients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.windows)
}
