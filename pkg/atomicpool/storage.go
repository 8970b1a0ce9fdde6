package atomicpool

import "context"

// slot holds one element of a Storage's backing array. Its value is
// logically uninitialized until the corresponding bitset bit is reserved
// and a caller writes through it (via New, NewContext, or a reconstructed
// raw Handle).
type slot[T any] struct {
	value T
}

// Storage holds a fixed-capacity array of T slots plus the bitset that
// tracks which are occupied, and — when constructed with a non-zero waiter
// capacity — a bounded registry of parked callers waiting for a slot to
// free up. Its slot array and waiter cells are sized once at construction
// and never grown; AllocateContext does allocate a fresh wake channel each
// time it parks.
//
// Storage is safe for concurrent use from multiple goroutines when T is.
// There is no internal lock; all synchronization goes through the bitset's
// atomic words and the waiter registry's atomic wake cells.
type Storage[T any] struct {
	used    *Bitset
	data    []slot[T]
	waiters *waiterRegistry
}

// NewStorage creates storage for `capacity` slots of T, with `waiterCapacity`
// concurrently-parked AllocateContext callers. waiterCapacity may be zero,
// in which case AllocateContext never blocks: on a full pool it fails fast
// with ErrWaiterFull instead of parking.
//
// capacity must be positive and waiterCapacity must be non-negative;
// violating either, or exceeding the implementation limits in limits.go, is
// a programmer error and panics.
func NewStorage[T any](capacity, waiterCapacity int) *Storage[T] {
	if capacity <= 0 {
		panic("atomicpool: capacity must be positive")
	}

	if capacity > maxCapacity {
		panic("atomicpool: capacity exceeds the implementation limit")
	}

	if waiterCapacity < 0 {
		panic("atomicpool: waiterCapacity must not be negative")
	}

	if waiterCapacity > maxWaiterCapacity {
		panic("atomicpool: waiterCapacity exceeds the implementation limit")
	}

	return &Storage[T]{
		used:    newBitset(capacity),
		data:    make([]slot[T], capacity),
		waiters: newWaiterRegistry(waiterCapacity),
	}
}

// Cap returns N, the slot capacity.
func (s *Storage[T]) Cap() int {
	return s.used.Len()
}

// InUse returns the number of currently occupied slots.
func (s *Storage[T]) InUse() int {
	return s.used.Count()
}

// Available returns the number of currently free slots. It is a point-in-
// time snapshot: concurrent allocation or release may invalidate it
// immediately.
func (s *Storage[T]) Available() int {
	return s.Cap() - s.InUse()
}

// Allocate reserves a free slot and returns its index. The caller must
// write a value into the slot (Handle's constructors do this) before any
// reader dereferences it. It returns ErrFull if no slot is free.
func (s *Storage[T]) Allocate() (int, error) {
	idx, ok := s.used.AllocateOne()
	if !ok {
		return 0, ErrFull
	}

	return idx, nil
}

// AllocateContext behaves like Allocate, but when the pool is momentarily
// full it parks the calling goroutine on the waiter registry until a slot
// is released or ctx is done, instead of failing immediately.
//
// If the waiter registry has no free waiter slot (including when it was
// declared with zero capacity), AllocateContext returns ErrWaiterFull
// immediately rather than blocking — this is the translation of spec's
// Start/Parked/Done future state machine into a single blocking call:
// Start is the first Allocate attempt below, Parked is the select loop,
// and Done is any return.
//
// Canceling ctx while parked makes the call return ctx.Err() and releases
// the waiter-slot reservation through the deferred DroppableBit.Release, so
// no waiter slot leaks. The reservation is held for as long as the call is
// blocked; it is released only when the call returns.
func (s *Storage[T]) AllocateContext(ctx context.Context) (int, error) {
	if idx, ok := s.used.AllocateOne(); ok {
		return idx, nil
	}

	bit, cell, ok := s.waiters.reserve()
	if !ok {
		return 0, ErrWaiterFull
	}
	defer bit.Release()

	for {
		ch := cell.register()

		// A slot may have freed (and woken a not-yet-registered cell)
		// between the failed Allocate above and this registration; check
		// again before parking.
		if idx, ok := s.used.AllocateOne(); ok {
			return idx, nil
		}

		select {
		case <-ch:
			if idx, ok := s.used.AllocateOne(); ok {
				return idx, nil
			}
			// Lost the race to another woken waiter; re-register and park
			// again. Spurious wakes take the same path and are harmless.
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
}

// Free releases slot i, then — if the storage has any waiter capacity at
// all — wakes every registered waiter so they can re-race for the freed
// slot. When the storage was declared with zero waiter capacity the wake
// loop is skipped entirely rather than iterating zero cells.
//
// i must have been returned by a prior successful Allocate/AllocateContext
// on this Storage and not yet freed; violating that is a programmer error
// and panics (via Bitset.Release).
func (s *Storage[T]) Free(i int) {
	s.used.Release(i)

	if s.waiters.len() > 0 {
		s.waiters.wakeAll()
	}
}

// at returns a pointer to slot i's value. Handle's constructors and methods
// use it; i must be a currently-reserved index.
func (s *Storage[T]) at(i int) *T {
	return &s.data[i].value
}
