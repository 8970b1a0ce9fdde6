package atomicpool

import "sync"

// Declare returns an accessor bound to a single, lazily-constructed,
// process-wide Storage[T] instance of the given capacity and waiter
// capacity. A generic closure over sync.Once gives the pool a single,
// static-lifetime instance without requiring any package-level
// initialization order: the storage is built exactly once, on first use,
// and lives for the remainder of the process.
//
// The storage returned by the accessor is never torn down. Any slots still
// occupied when the program exits are leaked by design.
//
// Typical use is a single package-level var naming the pool:
//
//	var packetPool = atomicpool.Declare[Packet](4, 1)
//
// and then Handle construction through the accessor:
//
//	h, err := atomicpool.New(packetPool(), Packet{ID: 1})
func Declare[T any](capacity, waiterCapacity int) func() *Storage[T] {
	var (
		once    sync.Once
		storage *Storage[T]
	)

	return func() *Storage[T] {
		once.Do(func() {
			storage = NewStorage[T](capacity, waiterCapacity)
		})

		return storage
	}
}
