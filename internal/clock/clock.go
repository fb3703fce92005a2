// Package clock provides an abstraction for time operations to improve testability.
// Review descriptions and the DEPLOYED_AT label embed the invocation time, so
// components take a Clock instead of calling time.Now() directly.
package clock

import (
	"sync"
	"time"
)

// Clock is an interface for time operations.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// RealClock implements Clock using the actual system time.
type RealClock struct{}

// Now returns the current time from the system clock.
func (RealClock) Now() time.Time {
	return time.Now()
}

// FixedClock returns the same instant until it is advanced.
// It is safe for concurrent use.
type FixedClock struct {
	mu sync.Mutex
	t  time.Time
}

// NewFixedClock creates a FixedClock pinned at t.
func NewFixedClock(t time.Time) *FixedClock {
	return &FixedClock{t: t}
}

// Now returns the pinned time.
func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

// Advance moves the pinned time forward by d.
func (c *FixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

var (
	_ Clock = RealClock{}
	_ Clock = (*FixedClock)(nil)
)
