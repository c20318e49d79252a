// Package testutil holds shared test fixtures.
package testutil

import (
	"sync"
	"time"
)

// FixedClock is a thread-safe settable wall clock for tests.
//
// Stores take a clock via store.WithClock; injecting a FixedClock makes
// write timestamps deterministic, which is what lets tests assert that
// a no-op update leaves the stored timestamp untouched.
type FixedClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFixedClock creates a clock pinned to the given instant.
func NewFixedClock(now time.Time) *FixedClock {
	return &FixedClock{now: now}
}

// Now returns the pinned instant. Pass the method value as the store's
// clock function.
func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *FixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Set pins the clock to a new instant.
func (c *FixedClock) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}
