// Package trigger implements the hidden activation mechanisms: a click
// counter with a rolling window, a keyboard chord and a typed digit
// sequence.
package trigger

import (
	"sync"
	"time"
)

// Default click counter settings
const (
	DefaultClickThreshold = 5
	DefaultClickWindow    = 4 * time.Second
)

// ClickCounter counts clicks on the hidden target. Every click restarts
// the window; if the window expires before the next click the count starts
// over. Reaching the threshold fires and resets the count.
type ClickCounter struct {
	threshold int
	window    time.Duration

	mu    sync.Mutex
	count int
	last  time.Time
}

// NewClickCounter creates a ClickCounter; non-positive values select the
// defaults.
func NewClickCounter(threshold int, window time.Duration) *ClickCounter {
	if threshold <= 0 {
		threshold = DefaultClickThreshold
	}
	if window <= 0 {
		window = DefaultClickWindow
	}
	return &ClickCounter{
		threshold: threshold,
		window:    window,
	}
}

// RegisterClick registers a click at now and tells if it fired the trigger
func (c *ClickCounter) RegisterClick(now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.count > 0 && now.Sub(c.last) > c.window {
		c.count = 0
	}
	c.count++
	c.last = now
	if c.count >= c.threshold {
		c.count = 0
		return true
	}
	return false
}
