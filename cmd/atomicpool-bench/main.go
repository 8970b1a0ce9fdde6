// Package main provides atomicpool-bench, an in-process throughput
// benchmark for a lock-free pool under concurrent allocate/free churn.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/calvinalkan/atomicpool/pkg/atomicpool"
)

// Config holds all benchmark configuration.
type Config struct {
	Capacities []int
	Goroutines int
	Duration   time.Duration
	Waiters    int
}

// Result holds a single benchmark result.
type Result struct {
	Capacity    int
	Goroutines  int
	AllocFrees  int64
	Elapsed     time.Duration
	OpsPerSecUS float64
}

func main() {
	cfg := Config{}

	capsStr := flag.String("capacities", "1,8,64,1024", "comma-separated list of pool capacities to benchmark")
	flag.IntVar(&cfg.Goroutines, "goroutines", runtime.GOMAXPROCS(0), "number of concurrent goroutines churning the pool")
	flag.DurationVar(&cfg.Duration, "duration", time.Second, "how long to run each capacity")
	flag.IntVar(&cfg.Waiters, "waiters", 0, "waiter registry capacity (0 means allocate fails fast when full)")

	flag.Usage = func() {
		fmt.Fprint(os.Stderr, "Usage: atomicpool-bench [flags]\n\n")
		fmt.Fprint(os.Stderr, "Benchmarks allocate/free throughput of a lock-free pool under concurrent churn.\n\n")
		fmt.Fprint(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	for capStr := range strings.SplitSeq(*capsStr, ",") {
		capStr = strings.TrimSpace(capStr)
		if capStr == "" {
			continue
		}

		capacity, err := strconv.Atoi(capStr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid capacity %q: %v\n", capStr, err)
			os.Exit(1)
		}

		cfg.Capacities = append(cfg.Capacities, capacity)
	}

	if len(cfg.Capacities) == 0 {
		fmt.Fprint(os.Stderr, "no capacities specified\n")
		os.Exit(1)
	}

	fmt.Printf("## atomicpool-bench\n\n")
	fmt.Printf("- goroutines: %d\n", cfg.Goroutines)
	fmt.Printf("- duration per capacity: %s\n", cfg.Duration)
	fmt.Printf("- waiter capacity: %d\n\n", cfg.Waiters)
	fmt.Printf("| Capacity | Goroutines | Alloc/Free Ops | Ops/sec |\n")
	fmt.Printf("|---:|---:|---:|---:|\n")

	for _, capacity := range cfg.Capacities {
		result := benchCapacity(cfg, capacity)
		fmt.Printf("| %d | %d | %d | %.0f |\n", result.Capacity, result.Goroutines, result.AllocFrees, result.OpsPerSecUS)
	}
}

func benchCapacity(cfg Config, capacity int) Result {
	storage := atomicpool.NewStorage[int](capacity, cfg.Waiters)

	var ops atomic.Int64

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Duration)
	defer cancel()

	var wg sync.WaitGroup

	start := time.Now()

	for g := range cfg.Goroutines {
		wg.Add(1)

		go func(g int) {
			defer wg.Done()

			for ctx.Err() == nil {
				h, err := atomicpool.NewContext(ctx, storage, g)
				if err != nil {
					continue
				}

				_ = h.Close()
				ops.Add(1)
			}
		}(g)
	}

	wg.Wait()

	elapsed := time.Since(start)

	return Result{
		Capacity:    capacity,
		Goroutines:  cfg.Goroutines,
		AllocFrees:  ops.Load(),
		Elapsed:     elapsed,
		OpsPerSecUS: float64(ops.Load()) / elapsed.Seconds(),
	}
}
