// Package channels holds transport helpers shared by chat channel adapters.
package channels

import (
	"sync"
	"time"
)

const (
	// maxTrackedKeys caps the number of tracked rate-limit keys so rotating
	// source IPs cannot grow the map without bound.
	maxTrackedKeys = 4096

	rateLimitWindow = 60 * time.Second
)

type rateLimitEntry struct {
	windowStart time.Time
	count       int
}

// RateLimiter is a fixed-window per-key request limiter for public HTTP
// endpoints. Safe for concurrent use.
type RateLimiter struct {
	maxHits int
	now     func() time.Time

	mu      sync.Mutex
	entries map[string]*rateLimitEntry
}

// NewRateLimiter allows perMinute requests per key per minute.
// perMinute <= 0 disables limiting.
func NewRateLimiter(perMinute int) *RateLimiter {
	return &RateLimiter{
		maxHits: perMinute,
		now:     time.Now,
		entries: make(map[string]*rateLimitEntry),
	}
}

// Enabled reports whether the limiter rejects anything at all.
func (r *RateLimiter) Enabled() bool { return r != nil && r.maxHits > 0 }

// Allow returns true if key is within its budget for the current window.
func (r *RateLimiter) Allow(key string) bool {
	if !r.Enabled() {
		return true
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()

	if len(r.entries) >= maxTrackedKeys {
		r.pruneLocked(now)
	}

	e, ok := r.entries[key]
	if !ok || now.Sub(e.windowStart) >= rateLimitWindow {
		r.entries[key] = &rateLimitEntry{windowStart: now, count: 1}
		return true
	}

	e.count++
	return e.count <= r.maxHits
}

// pruneLocked drops expired windows, then evicts arbitrary keys if the map is
// still full.
func (r *RateLimiter) pruneLocked(now time.Time) {
	for k, e := range r.entries {
		if now.Sub(e.windowStart) >= rateLimitWindow {
			delete(r.entries, k)
		}
	}
	for k := range r.entries {
		if len(r.entries) < maxTrackedKeys {
			break
		}
		delete(r.entries, k)
	}
}
