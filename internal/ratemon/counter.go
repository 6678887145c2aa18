package ratemon

import (
	"sync"
	"time"
)

// FpsCounter counts frames over a window. The vision loop increments it, the
// monitor closes windows; all access is serialized.
type FpsCounter struct {
	mu      sync.Mutex
	count   int
	started time.Time
	rate    float64
}

func NewFpsCounter(now time.Time) *FpsCounter {
	return &FpsCounter{started: now}
}

func (c *FpsCounter) Increment() {
	c.mu.Lock()
	c.count++
	c.mu.Unlock()
}

// Snapshot returns the frames counted in the open window.
func (c *FpsCounter) Snapshot() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.count
}

// Close ends the current window at now. It returns the frame count and
// count/elapsed of that window, resets the count and starts a new window.
// A window of zero length reports a rate of 0.
func (c *FpsCounter) Close(now time.Time) (int, float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := c.count
	rate := 0.0
	if elapsed := now.Sub(c.started).Seconds(); elapsed > 0 {
		rate = float64(count) / elapsed
	}

	c.count = 0
	c.started = now
	c.rate = rate

	return count, rate
}

// Rate returns the rate of the most recently closed window.
func (c *FpsCounter) Rate() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.rate
}
