// Package main provides atomicpool-demo, a small CLI that exercises a
// fixed-capacity pool the way an embedded or real-time Go program would:
// allocate up to capacity, show what's full, release one, and optionally
// block a goroutine on a free slot.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/atomicpool/pkg/atomicpool"
)

type config struct {
	capacity int
	waiters  int
	block    bool
	timeout  time.Duration
}

func main() {
	cfg := parseFlags(os.Args[1:])

	err := run(cfg, os.Stdout, os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func parseFlags(args []string) config {
	var cfg config

	flags := flag.NewFlagSet("atomicpool-demo", flag.ExitOnError)
	flags.IntVarP(&cfg.capacity, "capacity", "c", 4, "number of slots in the pool")
	flags.IntVarP(&cfg.waiters, "waiters", "w", 1, "waiter registry capacity (0 disables blocking)")
	flags.BoolVarP(&cfg.block, "block", "b", false, "park a goroutine on the full pool instead of failing fast")
	flags.DurationVarP(&cfg.timeout, "timeout", "t", 2*time.Second, "how long a blocked allocation waits before giving up")

	flags.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: atomicpool-demo [flags]")
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "Allocates up to --capacity values from a lock-free pool, frees one, and")
		fmt.Fprintln(os.Stderr, "reallocates it. With --block, a goroutine also parks on the full pool and")
		fmt.Fprintln(os.Stderr, "is woken once a slot is freed.")
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "Flags:")
		flags.PrintDefaults()
	}

	_ = flags.Parse(args)

	return cfg
}

func run(cfg config, stdout, stderr *os.File) error {
	storage := atomicpool.NewStorage[int](cfg.capacity, cfg.waiters)

	var handles []*atomicpool.Handle[int]

	for i := range cfg.capacity {
		h, err := atomicpool.New(storage, i)
		if err != nil {
			return fmt.Errorf("allocating slot %d: %w", i, err)
		}

		handles = append(handles, h)
	}

	fmt.Fprintf(stdout, "pool: %d/%d slots in use\n", storage.InUse(), storage.Cap())

	_, err := atomicpool.New(storage, -1)
	if errors.Is(err, atomicpool.ErrFull) {
		fmt.Fprintln(stdout, "pool is full, as expected")
	} else if err != nil {
		return fmt.Errorf("unexpected error allocating on a full pool: %w", err)
	}

	var blocked chan error

	if cfg.block {
		blocked = make(chan error, 1)

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), cfg.timeout)
			defer cancel()

			h, err := atomicpool.NewContext(ctx, storage, 1000)
			if err != nil {
				blocked <- err

				return
			}

			fmt.Fprintf(stdout, "blocked allocation woke up with value %d\n", *h.Get())
			blocked <- h.Close()
		}()

		// Give the goroutine a moment to park before freeing a slot.
		time.Sleep(50 * time.Millisecond)
	}

	freed := handles[0]
	handles = handles[1:]

	fmt.Fprintf(stdout, "releasing slot holding value %d\n", *freed.Get())

	if err := freed.Close(); err != nil {
		return fmt.Errorf("closing handle: %w", err)
	}

	if cfg.block {
		if err := <-blocked; err != nil {
			return fmt.Errorf("blocked allocation: %w", err)
		}
	} else {
		h, err := atomicpool.New(storage, 999)
		if err != nil {
			return fmt.Errorf("reallocating freed slot: %w", err)
		}

		fmt.Fprintf(stdout, "reallocated freed slot with value %d\n", *h.Get())
		handles = append(handles, h)
	}

	for _, h := range handles {
		if err := h.Close(); err != nil {
			return fmt.Errorf("closing handle: %w", err)
		}
	}

	fmt.Fprintf(stdout, "final state: %d/%d slots in use\n", storage.InUse(), storage.Cap())

	return nil
}
