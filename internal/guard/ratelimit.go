package guard

import (
	"sync"
	"time"
)

// RateLimiter implements a sliding window rate limiter. The MFA endpoint uses
// it to damp brute-force bursts per scan; it is not a lockout, since a key
// becomes usable again as soon as the window slides.
type RateLimiter struct {
	mu        sync.Mutex
	windows   map[string][]time.Time
	limit     int
	window    time.Duration
	lastSweep time.Time
}

// NewRateLimiter creates a rate limiter with the given limit per window.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		windows:   make(map[string][]time.Time),
		limit:     limit,
		window:    window,
		lastSweep: time.Now(),
	}
}

// Allow reports whether the key is within rate limits and records the hit.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-rl.window)

	if now.Sub(rl.lastSweep) > rl.window {
		rl.sweep(cutoff)
		rl.lastSweep = now
	}

	entries := rl.windows[key]
	valid := entries[:0]
	for _, t := range entries {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}

	if len(valid) >= rl.limit {
		rl.windows[key] = valid
		return false
	}

	rl.windows[key] = append(valid, now)
	return true
}

// sweep drops keys whose entries have all expired, so completed scans do not
// accumulate in the map over process lifetime. Called with rl.mu held, at
// most once per window.
func (rl *RateLimiter) sweep(cutoff time.Time) {
	for key, entries := range rl.windows {
		live := false
		for _, t := range entries {
			if t.After(cutoff) {
				live = true
				break
			}
		}
		if !live {
			delete(rl.windows, key)
		}
	}
}
