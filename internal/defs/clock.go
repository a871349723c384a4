package defs

import "sync/atomic"

// Clock is the monotonic logical clock that stamps definition changes.
//
// Every mutation of the store takes the next tick, and every evaluated
// expression caches the tick it was brought to fixpoint at. Comparing the
// two answers "could this result be stale" without wall-clock races and
// with replay-identical ordering.
//
// Thread-safety: safe for concurrent use (atomic operations), although the
// engine's single-evaluator design means one goroutine typically drives it.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// Next returns the next tick and advances the clock. Each call returns a
// unique, increasing value.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the clock's position without advancing it.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
