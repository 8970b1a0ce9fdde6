package atomicpool

import "sync/atomic"

// DroppableBit is a scoped handle over a single index reserved from a
// Bitset. Exactly one DroppableBit should exist per reserved index at a
// time; Go has no destructors, so callers are expected to `defer
// bit.Release()` immediately after a successful allocation.
//
// Its purpose is to make waiter-slot reservation cancellation-safe: if the
// goroutine holding it returns early (e.g. a context is canceled while
// parked), the deferred Release still runs and the waiter slot goes back to
// the pool.
type DroppableBit struct {
	bitset   *Bitset
	index    int
	released atomic.Bool
}

// newDroppableBit wraps an already-reserved index. Only AllocateDroppable
// constructs one.
func newDroppableBit(b *Bitset, idx int) *DroppableBit {
	return &DroppableBit{bitset: b, index: idx}
}

// Index returns the reserved bitset index.
func (d *DroppableBit) Index() int {
	return d.index
}

// Release returns the index to the bitset. It is idempotent: only the
// first call has an effect, so it is safe to call from both a defer and an
// explicit success path.
func (d *DroppableBit) Release() {
	if d.released.CompareAndSwap(false, true) {
		d.bitset.Release(d.index)
	}
}
