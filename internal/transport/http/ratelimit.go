package http

import "time"

// rateLimiter counts inbound events of one connection in fixed windows.
// It is used from the connection's read loop only.
type rateLimiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	start time.Time
	count int
}

func newRateLimiter(limit int, window time.Duration, now func() time.Time) *rateLimiter {
	if now == nil {
		now = time.Now
	}
	return &rateLimiter{limit: limit, window: window, now: now}
}

func (r *rateLimiter) allow() bool {
	if r == nil || r.limit <= 0 {
		return true
	}
	t := r.now()
	if r.start.IsZero() || t.Sub(r.start) >= r.window {
		r.start = t
		r.count = 0
	}
	r.count++
	return r.count <= r.limit
}
