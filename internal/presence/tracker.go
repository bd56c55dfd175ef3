// Package presence tracks who is typing in which room.
//
// Entries are refreshed by every typing signal and expire after a quiet
// period. The same Tracker backs the server-side expiry sweep and the
// terminal client's local indicator.
package presence

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Default timings of the typing indicator.
const (
	DefaultTTL           = 3 * time.Second
	DefaultSweepInterval = time.Second
)

// Entry is one active typing indicator.
type Entry struct {
	Room         string
	Nickname     string
	ConnID       string
	LastTypingAt time.Time
}

type entryKey struct {
	room     string
	nickname string
}

// Tracker is safe for concurrent use.
type Tracker struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[entryKey]Entry
}

// NewTracker builds a tracker expiring entries older than ttl.
// A nil now uses time.Now.
func NewTracker(ttl time.Duration, now func() time.Time) *Tracker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if now == nil {
		now = time.Now
	}
	return &Tracker{
		ttl:     ttl,
		now:     now,
		entries: make(map[entryKey]Entry),
	}
}

// TTL returns the expiry threshold.
func (t *Tracker) TTL() time.Duration {
	return t.ttl
}

// Touch records or refreshes a typing signal. Reports whether the entry is new.
func (t *Tracker) Touch(room, nickname, connID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	k := entryKey{room: room, nickname: nickname}
	_, existed := t.entries[k]
	t.entries[k] = Entry{Room: room, Nickname: nickname, ConnID: connID, LastTypingAt: t.now()}
	return !existed
}

// Stop removes an entry. Reports whether it was present.
func (t *Tracker) Stop(room, nickname string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	k := entryKey{room: room, nickname: nickname}
	if _, ok := t.entries[k]; !ok {
		return false
	}
	delete(t.entries, k)
	return true
}

// Active lists the non-expired entries of a room, oldest signal first.
func (t *Tracker) Active(room string) []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	out := []Entry{}
	for _, e := range t.entries {
		if e.Room == room && now.Sub(e.LastTypingAt) < t.ttl {
			out = append(out, e)
		}
	}
	sortEntries(out)
	return out
}

// Sweep removes and returns every entry whose last signal is at least TTL old.
func (t *Tracker) Sweep() []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	var expired []Entry
	for k, e := range t.entries {
		if now.Sub(e.LastTypingAt) >= t.ttl {
			expired = append(expired, e)
			delete(t.entries, k)
		}
	}
	sortEntries(expired)
	return expired
}

// ForgetConn removes and returns all entries recorded from a connection.
func (t *Tracker) ForgetConn(connID string) []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()

	var removed []Entry
	for k, e := range t.entries {
		if e.ConnID == connID {
			removed = append(removed, e)
			delete(t.entries, k)
		}
	}
	sortEntries(removed)
	return removed
}

// Run sweeps every interval until ctx is done, passing non-empty
// expirations to onExpire.
func (t *Tracker) Run(ctx context.Context, interval time.Duration, onExpire func([]Entry)) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if expired := t.Sweep(); len(expired) > 0 && onExpire != nil {
				onExpire(expired)
			}
		}
	}
}

func sortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].LastTypingAt.Equal(entries[j].LastTypingAt) {
			return entries[i].LastTypingAt.Before(entries[j].LastTypingAt)
		}
		if entries[i].Room != entries[j].Room {
			return entries[i].Room < entries[j].Room
		}
		return entries[i].Nickname < entries[j].Nickname
	})
}
