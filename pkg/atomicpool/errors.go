package atomicpool

import "errors"

// Error classification.
//
// Both are operational (not programming) errors: retry or give up. Contract
// violations (double free, release out of range, double Close) are
// programming bugs and panic instead of returning an error — see limits.go.
var (
	// ErrFull indicates a Storage has no free slot.
	ErrFull = errors.New("atomicpool: pool is full")

	// ErrWaiterFull indicates the waiter registry has no free waiter slot,
	// or the storage was declared with zero waiter capacity.
	ErrWaiterFull = errors.New("atomicpool: waiter registry is full")
)
