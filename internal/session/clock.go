package session

import "sync/atomic"

// Clock is a monotonic logical clock for command ordering.
//
// Every executed command is stamped with a strictly increasing seq. Wall
// clock time is never used for ordering, so replays stamp identically.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock whose first Next returns 1.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock positioned at start.
// Used to resume numbering after the last recorded step.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next advances the clock and returns the new seq.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last issued seq without advancing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
