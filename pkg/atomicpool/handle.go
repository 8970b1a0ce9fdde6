package atomicpool

import (
	"context"
	"fmt"
)

// Handle is an owning reference to one slot of a Storage[T]. It holds the
// only live reference to its slot: no two Handles ever refer to the same
// index at once. Closing it drops the contained value (by resetting it to
// T's zero value) and releases the slot back to the pool.
//
// A Handle holds a direct pointer to its Storage rather than a separate
// pool identifier; this keeps lookup a single indirection with no registry
// to consult.
//
// Go has no destructors, so Close must be called explicitly — typically
// via `defer h.Close()` right after construction succeeds. Calling Close
// twice, or using a Handle afterward, is a contract violation.
type Handle[T any] struct {
	storage *Storage[T]
	index   int
}

// New reserves a slot in storage, writes value into it, and returns an
// owning Handle. It returns ErrFull if the pool has no free slot.
func New[T any](storage *Storage[T], value T) (*Handle[T], error) {
	idx, err := storage.Allocate()
	if err != nil {
		return nil, err
	}

	*storage.at(idx) = value

	return &Handle[T]{storage: storage, index: idx}, nil
}

// NewContext is like New, but waits for a slot to free up (bounded by the
// storage's waiter capacity) instead of failing immediately when the pool
// is full. See Storage.AllocateContext for the waiting discipline.
func NewContext[T any](ctx context.Context, storage *Storage[T], value T) (*Handle[T], error) {
	idx, err := storage.AllocateContext(ctx)
	if err != nil {
		return nil, err
	}

	*storage.at(idx) = value

	return &Handle[T]{storage: storage, index: idx}, nil
}

// Get returns a pointer to the contained value, for reading or mutating in
// place. The pointer is only valid until Close.
func (h *Handle[T]) Get() *T {
	return h.storage.at(h.index)
}

// Close drops the contained value in place (resetting it to T's zero
// value) and releases the slot. Close must be called exactly once per
// Handle; a second call, or any use of the Handle afterward, is a contract
// violation. A second Close panics inside Storage.Free's underlying
// Bitset.Release only while the slot is still free; once the slot has been
// reallocated, a second Close is not detected and zeroes and frees the new
// occupant's slot. Get after Close does not panic.
func (h *Handle[T]) Close() error {
	var zero T

	*h.storage.at(h.index) = zero
	h.storage.Free(h.index)

	return nil
}

// String forwards to the contained value's fmt.Stringer implementation
// when it has one, and falls back to the default verb otherwise. Go has no
// trait-based specialization, so capability forwarding (equality, ordering,
// Stringer) is done per-capability like this rather than automatically.
func (h *Handle[T]) String() string {
	if s, ok := any(h.Get()).(fmt.Stringer); ok {
		return s.String()
	}

	return fmt.Sprintf("%v", *h.Get())
}

// Equal reports whether a and b's contained values are equal. It is a free
// function, not a method, because it needs the comparable constraint that
// Handle[T]'s own type parameter does not carry.
func Equal[T comparable](a, b *Handle[T]) bool {
	return *a.Get() == *b.Get()
}

// Ref is an erased slot reference produced by IntoRaw. It carries no
// ownership obligation of its own; FromRaw must be called exactly once to
// restore a Handle and its obligation to drop and free the slot.
type Ref[T any] struct {
	storage *Storage[T]
	index   int
}

// IntoRaw erases ownership of h without running its destructor: the slot's
// value is not dropped and its bit is not released. The caller now owns
// the obligation to call FromRaw, restoring the normal drop-on-Close
// contract. Ref does not expose its slot index, so Close on the restored
// Handle is the way to free the slot.
func IntoRaw[T any](h *Handle[T]) Ref[T] {
	return Ref[T]{storage: h.storage, index: h.index}
}

// FromRaw restores ownership from a Ref produced by IntoRaw or
// AllocateRaw. It must be called exactly once per such Ref; calling it
// twice produces two Handles over the same slot, violating the "exactly
// one live Handle per reserved slot" invariant.
func FromRaw[T any](r Ref[T]) *Handle[T] {
	return &Handle[T]{storage: r.storage, index: r.index}
}

// AllocateRaw reserves a slot without writing a value into it, returning a
// Ref the caller must restore via FromRaw before reading or writing
// through it. This is the uninitialized-allocation path: the slot's
// contents are whatever they were left as by the last occupant (or T's
// zero value, for a slot that has never been used), and reading them
// before writing is the caller's responsibility to avoid.
func AllocateRaw[T any](storage *Storage[T]) (Ref[T], error) {
	idx, err := storage.Allocate()
	if err != nil {
		return Ref[T]{}, err
	}

	return Ref[T]{storage: storage, index: idx}, nil
}
