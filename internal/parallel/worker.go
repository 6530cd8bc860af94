// Package parallel provides the worker pool used to scan files concurrently.
//
// Work items are fanned out to a fixed number of goroutines and the results
// fanned back in, either in completion order (Process) or in input order
// (ProcessIndexed). A pool is bound to a context: once it is cancelled no
// further items are dispatched and the result slots of undispatched items
// keep their zero value.
package parallel

import (
	"context"
	"runtime"
	"sync"
)

// WorkerPool manages a pool of goroutines for parallel processing
type WorkerPool struct {
	numWorkers int
	ctx        context.Context
	cancel     context.CancelFunc
}

// NewWorkerPool creates a new worker pool
func NewWorkerPool(numWorkers int) *WorkerPool {
	return NewWorkerPoolContext(context.Background(), numWorkers)
}

// NewWorkerPoolContext creates a worker pool that stops dispatching work
// when ctx is done. A non-positive numWorkers uses runtime.NumCPU().
func NewWorkerPoolContext(ctx context.Context, numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	ctx, cancel := context.WithCancel(ctx)

	return &WorkerPool{
		numWorkers: numWorkers,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// NumWorkers returns the number of goroutines the pool runs
func (wp *WorkerPool) NumWorkers() int {
	return wp.numWorkers
}

// Context returns the context bounding the pool
func (wp *WorkerPool) Context() context.Context {
	return wp.ctx
}

// Process executes work items in parallel using fan-out/fan-in pattern
func Process[T, R any](
	wp *WorkerPool,
	items []T,
	worker func(T) R,
) []R {
	if len(items) == 0 {
		return nil
	}

	results := make([]R, 0, len(items))
	for result := range run(wp, items, func(_ int, item T) R { return worker(item) }) {
		results = append(results, result.result)
	}

	return results
}

// ProcessIndexed executes work items in parallel while preserving order
func ProcessIndexed[T, R any](
	wp *WorkerPool,
	items []T,
	worker func(int, T) R,
) []R {
	if len(items) == 0 {
		return nil
	}

	// Collect results and maintain order
	results := make([]R, len(items))
	for result := range run(wp, items, worker) {
		results[result.index] = result.result
	}

	return results
}

// run fans items out to the workers and returns the channel of their results
func run[T, R any](wp *WorkerPool, items []T, worker func(int, T) R) <-chan indexedResult[R] {
	// Channel for input items with index
	itemCh := make(chan indexedItem[T])

	// Channel for results with index
	resultCh := make(chan indexedResult[R], len(items))

	workers := wp.numWorkers
	if workers > len(items) {
		workers = len(items)
	}

	// Start workers
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range itemCh {
				resultCh <- indexedResult[R]{
					index:  item.index,
					result: worker(item.index, item.value),
				}
			}
		}()
	}

	// Send items to workers
	go func() {
		defer close(itemCh)
		for i, item := range items {
			if wp.ctx.Err() != nil {
				return
			}
			select {
			case <-wp.ctx.Done():
				return
			case itemCh <- indexedItem[T]{index: i, value: item}:
			}
		}
	}()

	// Close result channel when all workers are done
	go func() {
		wg.Wait()
		close(resultCh)
	}()

	return resultCh
}

// Close shuts down the worker pool
func (wp *WorkerPool) Close() {
	wp.cancel()
}

// indexedItem holds an item with its index
type indexedItem[T any] struct {
	index int
	value T
}

// indexedResult holds a result with its index
type indexedResult[R any] struct {
	index  int
	result R
}
