package engine

import (
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
)

// A partitionRunner splits an index range into one contiguous chunk per
// worker and processes the chunks on a set of reusable goroutines.
//
// Each chunk slot owns a single-worker pool. The pool's Stop broadcasts
// worker ids over a shared channel and a worker discards ids that are not
// its own, so a multi-worker pool cannot be reliably shut down.
type partitionRunner struct {
	pools []worker.DynamicWorkerPool

	// Serializes run calls; each call is a barrier for its own tasks only.
	mu     sync.Mutex
	taskID int

	closeOnce sync.Once
}

func newPartitionRunner(workers int) *partitionRunner {
	workers = max(workers, 1)
	r := &partitionRunner{
		pools: make([]worker.DynamicWorkerPool, workers),
	}
	for i := range r.pools {
		r.pools[i] = worker.NewDynamicWorkerPool(1, 1, 1*time.Second)
	}
	return r
}

// Invoke fn for each chunk of [0, count) and block until all chunks have
// been processed. A WaitGroup provides the barrier since waiting on the pool
// itself blocks until the workers idle-exit.
func (r *partitionRunner) run(count int, fn func(start, end int)) {
	if count <= 0 {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	workers := len(r.pools)
	batchSize := (count + workers - 1) / workers
	var wg sync.WaitGroup
	for slot, start := 0, 0; start < count; slot, start = slot+1, start+batchSize {
		chunkStart, chunkEnd := start, min(start+batchSize, count)

		wg.Add(1)
		id := r.taskID
		r.taskID++
		r.pools[slot].SubmitTask(worker.Task{
			ID: id,
			Do: func() (any, error) {
				defer wg.Done()
				fn(chunkStart, chunkEnd)
				return nil, nil
			},
		})
	}
	wg.Wait()
}

// Run fn serially when count does not exceed threshold and on the pool
// otherwise.
func (r *partitionRunner) runAbove(threshold, count int, fn func(start, end int)) {
	if count <= threshold {
		fn(0, count)
		return
	}
	r.run(count, fn)
}

// Close stops the worker goroutines. It is safe to call more than once; run
// must not be invoked after Close.
func (r *partitionRunner) Close() {
	r.closeOnce.Do(func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		for _, pool := range r.pools {
			pool.Stop()
		}
	})
}
