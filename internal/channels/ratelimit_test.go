package channels

import (
	"fmt"
	"testing"
	"time"
)

func TestRateLimiter_Window(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(3)
	rl.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		if !rl.Allow("1.2.3.4") {
			t.Fatalf("request %d rejected inside budget", i+1)
		}
	}
	if rl.Allow("1.2.3.4") {
		t.Fatal("4th request in the window was allowed")
	}
	if !rl.Allow("5.6.7.8") {
		t.Fatal("other key shares the budget")
	}

	now = now.Add(rateLimitWindow)
	if !rl.Allow("1.2.3.4") {
		t.Fatal("new window should reset the budget")
	}
}

func TestRateLimiter_Disabled(t *testing.T) {
	for _, rpm := range []int{0, -1} {
		rl := NewRateLimiter(rpm)
		if rl.Enabled() {
			t.Errorf("rpm %d: Enabled() = true", rpm)
		}
		for i := 0; i < 100; i++ {
			if !rl.Allow("k") {
				t.Fatalf("rpm %d: disabled limiter rejected", rpm)
			}
		}
	}
	var nilLimiter *RateLimiter
	if !nilLimiter.Allow("k") {
		t.Error("nil limiter rejected")
	}
}

func TestRateLimiter_BoundedKeys(t *testing.T) {
	rl := NewRateLimiter(10)
	for i := 0; i < maxTrackedKeys+100; i++ {
		rl.Allow(fmt.Sprintf("10.0.%d.%d", i/256, i%256))
	}
	rl.mu.Lock()
	n := len(rl.entries)
	rl.mu.Unlock()
	if n > maxTrackedKeys {
		t.Errorf("tracked %d keys, cap is %d", n, maxTrackedKeys)
	}
}
