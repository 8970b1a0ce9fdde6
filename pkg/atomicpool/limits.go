package atomicpool

// Hardcoded implementation limits.
//
// These exist primarily to keep index arithmetic safely away from overflow
// and to bound resource usage for configurations nobody exercises in tests.
// Violating them is a programmer error and panics at construction time,
// rather than surfacing as an operational error later.
const (
	// maxCapacity is the largest slot capacity a Storage accepts.
	maxCapacity = 1 << 28

	// maxWaiterCapacity is the largest waiter-registry capacity a Storage
	// accepts.
	maxWaiterCapacity = 1 << 20
)
