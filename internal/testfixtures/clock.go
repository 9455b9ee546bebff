package testfixtures

import (
	"sync"
	"time"
)

// Clock is a manually driven time source. Services take a `func() time.Time`
// dependency; tests hand them NowFunc and move time with Set or Advance.
type Clock struct {
	mu      sync.Mutex
	current time.Time
}

// NewClock starts a clock at the given instant; the zero value starts it at
// ReferenceTime.
func NewClock(start time.Time) *Clock {
	if start.IsZero() {
		start = ReferenceTime()
	}
	return &Clock{current: start}
}

// Now reports the instant the clock currently stands at.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// NowFunc adapts the clock to the injection shape services expect. A nil
// clock falls back to the real time.
func (c *Clock) NowFunc() func() time.Time {
	if c == nil {
		return time.Now
	}
	return c.Now
}

// Set jumps the clock to t.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	c.current = t
	c.mu.Unlock()
}

// Advance moves the clock forward by d and reports the new instant.
func (c *Clock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	c.current = c.current.Add(d)
	updated := c.current
	c.mu.Unlock()
	return updated
}

// Current is an alias of Now for call sites that read the clock without
// implying time passed.
func (c *Clock) Current() time.Time {
	return c.Now()
}
