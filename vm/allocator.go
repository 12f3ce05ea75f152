package vm

import "fmt"

// Allocator is the boundary to the memory manager backing operand storage.
// The stack calls Allocate before a value takes a slot and Release once it
// leaves. Collection strategy is entirely up to the implementation.
type Allocator interface {
	Allocate(v Value) error
	Release(v Value)
}

// Budget is an Allocator that accounts an approximate byte footprint per
// value against a fixed limit. A limit of 0 means unlimited.
//
// Budget is not safe for concurrent use; give each engine its own.
type Budget struct {
	limit int64
	used  int64
	peak  int64
}

// NewBudget creates a Budget with the given limit in bytes.
func NewBudget(limit int64) *Budget {
	return &Budget{limit: limit}
}

// Allocate reserves room for v or fails with OutOfMemory.
func (b *Budget) Allocate(v Value) error {
	size := v.footprint()
	if b.limit > 0 && b.used+size > b.limit {
		return &Error{
			Kind:   OutOfMemory,
			Detail: fmt.Sprintf("%d bytes requested, %d of %d in use", size, b.used, b.limit),
		}
	}
	b.used += size
	if b.used > b.peak {
		b.peak = b.used
	}
	return nil
}

// Release returns the room held by v.
func (b *Budget) Release(v Value) {
	b.used -= v.footprint()
	if b.used < 0 {
		b.used = 0
	}
}

// Used returns the bytes currently accounted.
func (b *Budget) Used() int64 { return b.used }

// Peak returns the high-water mark of accounted bytes.
func (b *Budget) Peak() int64 { return b.peak }

// Limit returns the configured limit (0 = unlimited).
func (b *Budget) Limit() int64 { return b.limit }
