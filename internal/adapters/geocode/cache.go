// Package geocode resolves coordinates to place names off the request path.
// Results, including failures, are cached per rounded coordinate for a TTL.
package geocode

import (
	"fmt"
	"sync"
	"time"
)

// DefaultTTL is how long a resolved place, or a failure, stays cached.
const DefaultTTL = 24 * time.Hour

// Key fingerprints a coordinate rounded to three decimals (about 100 m).
func Key(lat, lng float64) string {
	return fmt.Sprintf("%.3f,%.3f", lat, lng)
}

// Clock returns the current time. Tests inject a fake one.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the wall clock.
var SystemClock Clock = ClockFunc(time.Now)

// State is the per-key lifecycle of a cache entry.
type State int

// Key states.
const (
	Absent State = iota
	InFlight
	Resolved
)

func (s State) String() string {
	switch s {
	case InFlight:
		return "inflight"
	case Resolved:
		return "resolved"
	}
	return "absent"
}

// Entry is a resolved cache value. Found is false for a negative entry.
type Entry struct {
	Place   string
	Found   bool
	Expires time.Time
}

type slot struct {
	state State
	entry Entry
}

// Cache maps coordinate keys to absent, in-flight or resolved state under a
// single lock, so check-and-mark is atomic per key.
type Cache struct {
	mu    sync.Mutex
	slots map[string]*slot
	ttl   time.Duration
	clock Clock
}

// NewCache creates a cache whose entries live for ttl as read from clock.
func NewCache(ttl time.Duration, clock Clock) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if clock == nil {
		clock = SystemClock
	}
	return &Cache{slots: make(map[string]*slot), ttl: ttl, clock: clock}
}

// Acquire returns the resolved entry for key, or reports that another caller
// is resolving it. When the key is absent or expired it is marked in flight
// and Absent is returned: the caller now owns the lookup and must finish it
// with Resolve or Release.
func (c *Cache) Acquire(key string) (Entry, State) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if s, ok := c.slots[key]; ok {
		switch s.state {
		case InFlight:
			return Entry{}, InFlight
		case Resolved:
			if c.clock.Now().Before(s.entry.Expires) {
				return s.entry, Resolved
			}
		}
	}
	c.slots[key] = &slot{state: InFlight}
	return Entry{}, Absent
}

// Peek returns a live resolved entry without marking anything.
func (c *Cache) Peek(key string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.slots[key]
	if !ok || s.state != Resolved || !c.clock.Now().Before(s.entry.Expires) {
		return Entry{}, false
	}
	return s.entry, true
}

// Resolve stores the outcome for key. An empty place records a negative entry.
func (c *Cache) Resolve(key, place string) Entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := Entry{Place: place, Found: place != "", Expires: c.clock.Now().Add(c.ttl)}
	c.slots[key] = &slot{state: Resolved, entry: e}
	return e
}

// Release drops an in-flight mark so a later caller may retry. Resolved
// entries are left alone.
func (c *Cache) Release(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if s, ok := c.slots[key]; ok && s.state == InFlight {
		delete(c.slots, key)
	}
}

// Sweep removes expired entries and returns how many remain.
func (c *Cache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	for k, s := range c.slots {
		if s.state == Resolved && !now.Before(s.entry.Expires) {
			delete(c.slots, k)
		}
	}
	return len(c.slots)
}

// Len returns the number of keys held in any state.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.slots)
}

// TTL returns the entry lifetime.
func (c *Cache) TTL() time.Duration { return c.ttl }
