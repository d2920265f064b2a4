package testutil

import "sync"

// TickClock is a manually advanced tick counter for tests.
//
// Unlike engine.TickClock it can be reset, so one scenario can run many
// times with identical tick numbers.
//
// Thread-safety: all methods are safe for concurrent use.
type TickClock struct {
	mu   sync.Mutex
	tick int64
}

// NewTickClock creates a clock at tick 0. The first Next returns 1.
func NewTickClock() *TickClock {
	return &TickClock{}
}

// Next advances one tick and returns it.
func (c *TickClock) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tick++
	return c.tick
}

// Advance moves the clock forward n ticks and returns the new tick.
func (c *TickClock) Advance(n int64) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n > 0 {
		c.tick += n
	}
	return c.tick
}

// Current returns the current tick.
func (c *TickClock) Current() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tick
}

// Reset returns the clock to tick 0.
func (c *TickClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tick = 0
}
