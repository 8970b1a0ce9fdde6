package atomicpool_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/atomicpool/pkg/atomicpool"
)

func Test_Storage_Pool_Of_4_Sequential(t *testing.T) {
	t.Parallel()

	storage := atomicpool.NewStorage[uint32](4, 0)

	h1, err := atomicpool.New(storage, uint32(111))
	require.NoError(t, err)

	h2, err := atomicpool.New(storage, uint32(222))
	require.NoError(t, err)

	h3, err := atomicpool.New(storage, uint32(333))
	require.NoError(t, err)

	h4, err := atomicpool.New(storage, uint32(444))
	require.NoError(t, err)

	_, err = atomicpool.New(storage, uint32(555))
	require.ErrorIs(t, err, atomicpool.ErrFull)

	require.NoError(t, h3.Close())

	h5, err := atomicpool.New(storage, uint32(555))
	require.NoError(t, err)

	_, err = atomicpool.New(storage, uint32(666))
	require.ErrorIs(t, err, atomicpool.ErrFull)

	require.Equal(t, uint32(111), *h1.Get())
	require.Equal(t, uint32(222), *h2.Get())
	require.Equal(t, uint32(444), *h4.Get())
	require.Equal(t, uint32(555), *h5.Get())

	require.NoError(t, h1.Close())
	require.NoError(t, h2.Close())
	require.NoError(t, h4.Close())
	require.NoError(t, h5.Close())
}

func Test_Storage_Allocate_To_Capacity_Free_All_Reallocate_To_Capacity(t *testing.T) {
	t.Parallel()

	const n = 64

	storage := atomicpool.NewStorage[int](n, 0)

	var handles []*atomicpool.Handle[int]

	for i := range n {
		h, err := atomicpool.New(storage, i)
		require.NoError(t, err)

		handles = append(handles, h)
	}

	_, err := atomicpool.New(storage, -1)
	require.ErrorIs(t, err, atomicpool.ErrFull)

	for _, h := range handles {
		require.NoError(t, h.Close())
	}

	require.Equal(t, 0, storage.InUse())

	handles = handles[:0]

	for i := range n {
		h, err := atomicpool.New(storage, i)
		require.NoError(t, err)

		handles = append(handles, h)
	}

	require.Equal(t, n, storage.InUse())
}

func Test_Storage_AllocateContext_With_Zero_Waiter_Capacity_Fails_Fast(t *testing.T) {
	t.Parallel()

	storage := atomicpool.NewStorage[int](1, 0)

	h, err := atomicpool.New(storage, 1)
	require.NoError(t, err)

	start := time.Now()

	_, err = atomicpool.NewContext(context.Background(), storage, 2)
	require.ErrorIs(t, err, atomicpool.ErrWaiterFull)
	require.Less(t, time.Since(start), 200*time.Millisecond, "must fail fast, not hang")

	require.NoError(t, h.Close())
}

func Test_Storage_AllocateContext_Blocks_Until_A_Slot_Frees(t *testing.T) {
	t.Parallel()

	storage := atomicpool.NewStorage[int](1, 1)

	h, err := atomicpool.New(storage, 1)
	require.NoError(t, err)

	done := make(chan *atomicpool.Handle[int], 1)

	go func() {
		h2, err := atomicpool.NewContext(context.Background(), storage, 2)
		require.NoError(t, err)
		done <- h2
	}()

	// Give the goroutine time to park before freeing.
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, h.Close())

	select {
	case h2 := <-done:
		require.Equal(t, 2, *h2.Get())
		require.NoError(t, h2.Close())
	case <-time.After(2 * time.Second):
		t.Fatal("AllocateContext never woke up after a slot freed")
	}
}

func Test_Storage_AllocateContext_Honors_Context_Cancellation(t *testing.T) {
	t.Parallel()

	storage := atomicpool.NewStorage[int](1, 1)

	h, err := atomicpool.New(storage, 1)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = atomicpool.NewContext(ctx, storage, 2)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	// Cancellation must not leak the waiter-slot reservation.
	ctx2, cancel2 := context.WithTimeout(context.Background(), time.Second)
	defer cancel2()

	done := make(chan struct{})

	go func() {
		defer close(done)

		h2, err := atomicpool.NewContext(ctx2, storage, 3)
		require.NoError(t, err)
		require.NoError(t, h2.Close())
	}()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, h.Close())

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("waiter slot leaked after cancellation")
	}
}

func Test_Storage_Five_Concurrent_Tasks_Data_Pool_2_Waiter_Pool_1(t *testing.T) {
	t.Parallel()

	// Data pool of 2, waiter pool of 1, five concurrent callers: two
	// succeed immediately, one fails fast on a full pool, one parks on the
	// single waiter slot and is later woken, and one fails fast because the
	// waiter slot is already taken.
	storage := atomicpool.NewStorage[int](2, 1)

	h1, err := atomicpool.New(storage, 1)
	require.NoError(t, err)

	h2, err := atomicpool.New(storage, 2)
	require.NoError(t, err)

	// Task 3: sync allocate on a full pool fails immediately.
	_, err = atomicpool.New(storage, 3)
	require.ErrorIs(t, err, atomicpool.ErrFull)

	var wg sync.WaitGroup

	task4 := make(chan *atomicpool.Handle[int], 1)

	wg.Add(1)

	go func() {
		defer wg.Done()

		h4, err := atomicpool.NewContext(context.Background(), storage, 4)
		require.NoError(t, err)
		task4 <- h4
	}()

	// Give task 4 time to reserve the single waiter slot before task 5
	// tries for it.
	time.Sleep(50 * time.Millisecond)

	// Task 5: the single waiter slot is taken, so parking fails fast.
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	_, err = atomicpool.NewContext(ctx, storage, 5)
	require.ErrorIs(t, err, atomicpool.ErrWaiterFull)

	require.NoError(t, h1.Close())

	wg.Wait()

	h4 := <-task4
	require.Equal(t, 4, *h4.Get())
	require.Equal(t, 2, *h2.Get())

	require.NoError(t, h2.Close())
	require.NoError(t, h4.Close())
}

func Test_Storage_Cancellation_M_Plus_One_Times_Then_Successful_Allocate(t *testing.T) {
	t.Parallel()

	const m = 3

	storage := atomicpool.NewStorage[int](1, m)

	h, err := atomicpool.New(storage, 0)
	require.NoError(t, err)

	for range m + 1 {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		_, err := atomicpool.NewContext(ctx, storage, 1)
		require.ErrorIs(t, err, context.DeadlineExceeded)
		cancel()
	}

	require.NoError(t, h.Close())

	h2, err := atomicpool.NewContext(context.Background(), storage, 2)
	require.NoError(t, err)
	require.Equal(t, 2, *h2.Get())
	require.NoError(t, h2.Close())
}
