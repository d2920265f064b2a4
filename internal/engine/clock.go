package engine

import "sync/atomic"

// TickClock is the monotonic tick counter of a network.
//
// Ticks are logical: tick N is the N-th completed maintenance pass, not a
// point in time. Replays with the same commands see the same numbers.
//
// Thread-safety: safe for concurrent use. Only the Run goroutine calls
// Next; any goroutine may read Current.
type TickClock struct {
	tick atomic.Int64
}

// NewTickClock creates a clock at tick 0.
func NewTickClock() *TickClock {
	return &TickClock{}
}

// NewTickClockAt creates a clock resuming at start.
func NewTickClockAt(start int64) *TickClock {
	c := &TickClock{}
	c.tick.Store(start)
	return c
}

// Next advances the clock and returns the new tick.
func (c *TickClock) Next() int64 {
	return c.tick.Add(1)
}

// Current returns the tick without advancing.
func (c *TickClock) Current() int64 {
	return c.tick.Load()
}
