package engine

import "runtime"

// The default number of objects above which per-object work is split
// across the worker pool.
const DefaultParallelThreshold = 64

type Options struct {
	// Number of pool workers used for culling and transform refresh.
	Workers int

	// Object count above which culling and transform refresh run on the
	// worker pool. Smaller object lists are processed serially.
	ParallelThreshold int

	// Maximum number of instance and light records. A value of 0
	// disables the limit.
	InstanceCapacity int
	LightCapacity    int
}

// Get the default engine options.
func DefaultOptions() Options {
	return Options{
		Workers:           max(runtime.NumCPU()-1, 1),
		ParallelThreshold: DefaultParallelThreshold,
	}
}

func (opts Options) withDefaults() Options {
	if opts.Workers <= 0 {
		opts.Workers = max(runtime.NumCPU()-1, 1)
	}
	if opts.ParallelThreshold <= 0 {
		opts.ParallelThreshold = DefaultParallelThreshold
	}
	return opts
}
