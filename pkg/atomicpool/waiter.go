package atomicpool

import "sync/atomic"

// waitCell is a single-writer, atomic waker slot: at most one goroutine
// registers on it at a time, and free() (the only reader) only ever wakes
// it, never registers on it. register installs a fresh wake channel,
// discarding any previous one; wake takes the current channel, if any, and
// closes it, leaving the cell empty.
type waitCell struct {
	ch atomic.Pointer[chan struct{}]
}

// register installs a new wake channel and returns it for the caller to
// select on.
//
// The channel-swap idiom lets wake be a no-op when nobody is registered: a
// closed channel is a broadcast signal, so closing it (rather than sending
// on it) wakes every select blocked on a receive from it at once.
func (c *waitCell) register() <-chan struct{} {
	ch := make(chan struct{})
	c.ch.Store(&ch)

	return ch
}

// wake closes the currently registered channel, if any, notifying its
// waiter exactly once. Calling wake when nothing is registered, or calling
// it twice in a row, is harmless.
func (c *waitCell) wake() {
	p := c.ch.Swap(nil)
	if p != nil {
		close(*p)
	}
}

// waiterRegistry is a bounded set of M waiter slots, each backed by its own
// bitset-reserved index and waitCell. It exists so Storage.AllocateContext
// can suspend a caller until a data slot frees up, without an unbounded
// number of parked goroutines.
type waiterRegistry struct {
	used  *Bitset
	cells []waitCell
}

// newWaiterRegistry creates a registry with m waiter slots. m may be zero,
// in which case reserve always fails.
func newWaiterRegistry(m int) *waiterRegistry {
	return &waiterRegistry{used: newBitset(m), cells: make([]waitCell, m)}
}

// len returns M, the registry's total waiter capacity.
func (r *waiterRegistry) len() int {
	return r.used.Len()
}

// reserve reserves one waiter slot, returning the DroppableBit that frees
// it and the waitCell to register/poll on. It fails if the registry has no
// free slot, including when it was declared with zero capacity.
func (r *waiterRegistry) reserve() (*DroppableBit, *waitCell, bool) {
	if r.used.Len() == 0 {
		return nil, nil, false
	}

	bit, ok := r.used.AllocateDroppable()
	if !ok {
		return nil, nil, false
	}

	return bit, &r.cells[bit.Index()], true
}

// wakeAll wakes every waiter slot, registered or not: a "wake all, losers
// re-race" policy, O(M) per call to Free, but trivially correct even when a
// waiter canceled its registration concurrently.
func (r *waiterRegistry) wakeAll() {
	for i := range r.cells {
		r.cells[i].wake()
	}
}
