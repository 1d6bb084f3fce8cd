// Package streaming provides chunked, memory-bounded page traversal that
// yields the same logical output as whole-document processing.
package streaming

import "sync/atomic"

// Budget is the shared memory accounting for chunk allocations. It is the
// only state shared between concurrent document workers, so all updates
// are atomic. The limit is soft: one chunk may be in flight past it, and
// the caller aborts before acquiring the next.
type Budget struct {
	limit int64
	used  atomic.Int64
	peak  atomic.Int64
}

// NewBudget creates a budget with the given byte limit. A non-positive
// limit disables the cap.
func NewBudget(limit int64) *Budget {
	return &Budget{limit: limit}
}

// Acquire records an allocation and reports whether usage is still within
// the limit. The allocation is counted either way; callers release it
// when the chunk is done.
func (b *Budget) Acquire(n int64) bool {
	used := b.used.Add(n)
	for {
		peak := b.peak.Load()
		if used <= peak || b.peak.CompareAndSwap(peak, used) {
			break
		}
	}
	return b.limit <= 0 || used <= b.limit
}

// Release returns bytes to the budget.
func (b *Budget) Release(n int64) {
	b.used.Add(-n)
}

// Used returns the current outstanding bytes.
func (b *Budget) Used() int64 {
	return b.used.Load()
}

// Peak returns the high-water mark.
func (b *Budget) Peak() int64 {
	return b.peak.Load()
}

// Limit returns the configured cap, 0 when uncapped.
func (b *Budget) Limit() int64 {
	if b.limit < 0 {
		return 0
	}
	return b.limit
}
