package http

import (
	"testing"
	"time"
)

func TestRateLimiterWindow(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := newRateLimiter(2, time.Minute, func() time.Time { return now })

	if !rl.allow() || !rl.allow() {
		t.Fatal("first two events should pass")
	}
	if rl.allow() {
		t.Fatal("third event in the window should be limited")
	}

	now = now.Add(time.Minute)
	if !rl.allow() {
		t.Fatal("new window should reset the counter")
	}
}

func TestRateLimiterDisabled(t *testing.T) {
	rl := newRateLimiter(0, time.Minute, nil)
	for range 1000 {
		if !rl.allow() {
			t.Fatal("zero limit must not limit")
		}
	}
	var nilLimiter *rateLimiter
	if !nilLimiter.allow() {
		t.Fatal("nil limiter must allow")
	}
}
