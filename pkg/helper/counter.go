package helper

import "sync/atomic"

// Sequence hands out consecutive values. Implementations must be safe for
// concurrent use: no value may be returned twice or skipped.
type Sequence interface {
	Next() uint64
}

// Counter is a session-scoped Sequence starting at zero.
type Counter struct {
	value atomic.Uint64
}

// NewCounter returns a Counter whose first Next call yields 0.
func NewCounter() *Counter {
	return &Counter{}
}

// Next returns the current value and advances the counter in one atomic step.
func (c *Counter) Next() uint64 {
	return c.value.Add(1) - 1
}

// Peek returns the value the next call to Next will yield.
func (c *Counter) Peek() uint64 {
	return c.value.Load()
}
