package engine

import (
	"runtime"
	"sync/atomic"
	"testing"
	"time"

	"github.com/achilleasa/lumen/tracer/memory"
)

func waitForGoroutines(t *testing.T, baseline int) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for {
		n := runtime.NumGoroutine()
		if n <= baseline {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected goroutine count to return to %d; got %d", baseline, n)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestPartitionRunnerCoversRange(t *testing.T) {
	specs := []struct {
		workers int
		count   int
	}{
		{1, 10},
		{4, 3},
		{4, 100},
		{3, 10},
		{0, 5},
	}

	for index, spec := range specs {
		r := newPartitionRunner(spec.workers)
		hits := make([]int32, spec.count)
		r.run(spec.count, func(start, end int) {
			for i := start; i < end; i++ {
				atomic.AddInt32(&hits[i], 1)
			}
		})
		r.Close()

		for i, h := range hits {
			if h != 1 {
				t.Fatalf("[spec %d] expected index %d to be processed once; got %d", index, i, h)
			}
		}
	}
}

func TestPartitionRunnerClose(t *testing.T) {
	baseline := runtime.NumGoroutine()

	for i := 0; i < 10; i++ {
		opts := DefaultOptions()
		opts.Workers = 4
		opts.ParallelThreshold = 1

		im := NewInstanceManager(testModels(), opts)
		objects := []*Object{NewObject("a", "cube"), NewObject("b", "bunny"), NewObject("c", "cube")}
		if err := im.Sync(objects); err != nil {
			t.Fatal(err)
		}
		if err := im.Sync(objects); err != nil {
			t.Fatal(err)
		}
		im.Close()

		c := NewCuller(testModels(), opts)
		c.Cull(objects, ExtractFrustum(testCamera().ViewProjMat()))
		c.Close()
	}
	waitForGoroutines(t, baseline)
}

func TestFrameSyncClose(t *testing.T) {
	sc := compileTestScene(t)
	baseline := runtime.NumGoroutine()

	opts := DefaultOptions()
	opts.Workers = 4
	fs := NewFrameSync(sc, memory.NewTracer("mem-0", 0), opts)
	if _, err := fs.Sync([]*Object{NewObject("a", "cube")}, testCamera().ViewProjMat()); err != nil {
		t.Fatal(err)
	}

	// The culler and the instance manager share a runner; closing it twice
	// must not block or panic.
	fs.Close()
	fs.Close()
	waitForGoroutines(t, baseline)
}
