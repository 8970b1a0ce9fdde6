// Package atomicpool provides a statically-sized, lock-free object pool.
//
// A Storage[T] owns a fixed-capacity backing array of T and a concurrent
// bitset that tracks which slots are occupied. Callers obtain exclusive
// ownership of a slot through a Handle[T], use it, and release it by
// calling Close. Optionally, callers may block (via context.Context)
// waiting for a slot to free up when the pool is full.
//
// # Basic Usage
//
//	storage := atomicpool.NewStorage[Packet](4, 0)
//
//	h, err := atomicpool.New(storage, Packet{ID: 1})
//	if err != nil {
//	    // pool is full
//	}
//	defer h.Close()
//
//	h.Get().ID = 2
//
// # Concurrency
//
// Storage[T] is safe for concurrent use from multiple goroutines. Allocation
// and release are lock-free: every call completes in a bounded number of
// its own steps per contended word, backed by sync/atomic compare-and-swap
// and atomic-AND on the bitset's words. No internal mutex exists.
//
// # Error Handling
//
// Pool-full and waiter-registry-full conditions are reported as errors
// (ErrFull, ErrWaiterFull), never as panics. Contract violations — freeing
// an index that was never reserved, double-closing a Handle while its slot
// is still free, reserving a negative capacity — are programming bugs and
// panic immediately.
package atomicpool
