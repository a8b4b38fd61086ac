// Package parallel provides the fan-out helpers used for pairwise subproblems,
// cross-validation folds and batch prediction.
package parallel

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/YuminosukeSato/gosvm/pkg/errors"
)

// Workers resolves a requested worker count: 0 or negative means runtime.NumCPU,
// and the result never exceeds n.
func Workers(requested, n int) int {
	w := requested
	if w <= 0 {
		w = runtime.NumCPU()
	}
	if w > n {
		w = n
	}
	if w < 1 {
		w = 1
	}
	return w
}

// Parallelize divides items into contiguous ranges, one per CPU core,
// and executes fn in parallel for each range [start, end).
func Parallelize(items int, fn func(start, end int)) {
	if items == 0 {
		return
	}

	numWorkers := Workers(0, items)
	chunkSize := (items + numWorkers - 1) / numWorkers

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		start := i * chunkSize
		end := start + chunkSize
		if end > items {
			end = items
		}
		if start >= end {
			continue
		}

		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
}

// ParallelizeWithThreshold runs fn sequentially over [0, items) when items does
// not exceed threshold, and through Parallelize otherwise.
func ParallelizeWithThreshold(items int, threshold int, fn func(start, end int)) {
	if items <= threshold {
		fn(0, items)
		return
	}
	Parallelize(items, fn)
}

// ForEach calls fn(i) for every i in [0, n) using at most workers goroutines
// (0 means runtime.NumCPU, 1 runs inline on the caller's goroutine).
//
// A panic inside fn is recovered into *errors.PanicError. All tasks run to
// completion; the returned error is the one from the lowest failing index so
// the result does not depend on scheduling.
func ForEach(n, workers int, fn func(i int) error) error {
	if n <= 0 {
		return nil
	}
	workers = Workers(workers, n)

	errs := make([]error, n)
	run := func(i int) {
		errs[i] = errors.SafeExecute(fmt.Sprintf("task %d", i), func() error {
			return fn(i)
		})
	}

	if workers == 1 {
		for i := 0; i < n; i++ {
			run(i)
		}
	} else {
		jobs := make(chan int)
		var wg sync.WaitGroup
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := range jobs {
					run(i)
				}
			}()
		}
		for i := 0; i < n; i++ {
			jobs <- i
		}
		close(jobs)
		wg.Wait()
	}

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
