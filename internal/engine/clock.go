package engine

import "sync/atomic"

// Clock is a monotonic logical clock. Every call to Next returns a value
// strictly greater than any value returned before it.
//
// Thread-safety: Clock is safe for concurrent use, although in practice only
// the loop goroutine ticks it.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock whose first Next returns 1.
func NewClock() *Clock {
	return &Clock{}
}

// Next ticks the clock and returns the new value.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last value handed out without ticking.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
