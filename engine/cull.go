package engine

// The Culler updates the visibility of scene objects against a view
// frustum. Object lists are split into contiguous chunks that are tested
// in parallel when the list is larger than the configured threshold.
type Culler struct {
	opts   Options
	models ModelLookup
	runner *partitionRunner
}

// Create a new culler.
func NewCuller(models ModelLookup, opts Options) *Culler {
	opts = opts.withDefaults()
	return newCuller(models, opts, newPartitionRunner(opts.Workers))
}

func newCuller(models ModelLookup, opts Options, runner *partitionRunner) *Culler {
	return &Culler{
		opts:   opts,
		models: models,
		runner: runner,
	}
}

// Stop the worker goroutines owned by the culler.
func (c *Culler) Close() {
	c.runner.Close()
}

// Update the world bounds and visibility flag of each object and return
// the number of visible objects. Objects without a model or with an unknown
// model are treated as visible; unknown models are reported by the
// instance manager.
func (c *Culler) Cull(objects []*Object, frustum Frustum) int {
	c.runner.runAbove(c.opts.ParallelThreshold, len(objects), func(start, end int) {
		for _, obj := range objects[start:end] {
			c.cullObject(obj, &frustum)
		}
	})

	visible := 0
	for _, obj := range objects {
		if obj.Visible {
			visible++
		}
	}
	return visible
}

func (c *Culler) cullObject(obj *Object, frustum *Frustum) {
	if obj.Model == "" {
		obj.Visible = true
		return
	}

	model, found := c.models.LookupModel(obj.Model)
	if !found {
		obj.Visible = true
		return
	}

	obj.WorldBounds = TransformBBox(model.BBox, obj.ModelMatrix())
	obj.Visible = frustum.IntersectsAABB(obj.WorldBounds)
}
