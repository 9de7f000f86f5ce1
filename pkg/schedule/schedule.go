// Package schedule distributes a document count across workers and enforces
// an optional session-wide emission limit.
package schedule

import "sync/atomic"

// Split divides total into workers shares. The first total%workers shares
// receive one extra unit so the shares always sum to total; with more workers
// than documents the trailing shares are zero. Workers below one are treated
// as a single worker and a negative total as zero.
func Split(total, workers int) []int {
	if workers < 1 {
		workers = 1
	}
	if total < 0 {
		total = 0
	}
	base, extra := total/workers, total%workers
	shares := make([]int, workers)
	for i := range shares {
		shares[i] = base
		if i < extra {
			shares[i]++
		}
	}
	return shares
}

// Limit caps how many documents a session may emit across all workers.
// A nil *Limit is unlimited.
type Limit struct {
	max  uint64
	used atomic.Uint64
}

// NewLimit returns a Limit allowing at most n acquisitions.
func NewLimit(n uint64) *Limit {
	return &Limit{max: n}
}

// Acquire reserves one emission slot. The check against the cap and the
// increment happen in a single compare-and-swap, so concurrent callers can
// never take more than max slots between them.
func (l *Limit) Acquire() bool {
	if l == nil {
		return true
	}
	for {
		cur := l.used.Load()
		if cur >= l.max {
			return false
		}
		if l.used.CompareAndSwap(cur, cur+1) {
			return true
		}
	}
}

// Used reports how many slots have been acquired.
func (l *Limit) Used() uint64 {
	if l == nil {
		return 0
	}
	return l.used.Load()
}

// Max reports the configured cap.
func (l *Limit) Max() uint64 {
	if l == nil {
		return 0
	}
	return l.max
}

// Remaining reports how many slots can still be acquired.
func (l *Limit) Remaining() uint64 {
	if l == nil {
		return 0
	}
	used := l.used.Load()
	if used >= l.max {
		return 0
	}
	return l.max - used
}
