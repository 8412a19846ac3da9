package engine

import (
	"errors"
	"fmt"

	"github.com/achilleasa/lumen/asset/scene"
	"github.com/achilleasa/lumen/log"
)

var (
	ErrUnknownModel     = errors.New("engine: unknown model")
	ErrCapacityExceeded = errors.New("engine: capacity exceeded")
	ErrForeignObject    = errors.New("engine: object registered with another instance manager")
)

// ModelLookup resolves a model name to its location in the global buffers.
// It is implemented by *scene.Scene and *compiler.Compiler.
type ModelLookup interface {
	LookupModel(name string) (scene.ModelInfo, bool)
}

// The InstanceManager maintains one instance record per registered scene
// object. Records are created the first time an object is synced and only
// their transforms are refreshed afterwards. Records are never removed.
type InstanceManager struct {
	logger log.Logger
	opts   Options
	models ModelLookup
	runner *partitionRunner

	instances []scene.BvhInstance

	// The object that owns each instance slot.
	owners []*Object
}

// Create a new instance manager.
func NewInstanceManager(models ModelLookup, opts Options) *InstanceManager {
	opts = opts.withDefaults()
	return newInstanceManager(models, opts, newPartitionRunner(opts.Workers))
}

func newInstanceManager(models ModelLookup, opts Options, runner *partitionRunner) *InstanceManager {
	return &InstanceManager{
		logger: log.New("instance manager"),
		opts:   opts,
		models: models,
		runner: runner,
	}
}

// Create or refresh the instance record of each object. Objects without a
// model are ignored. Unregistered objects are registered serially in list
// order so slot assignment is deterministic; registered objects only get
// their model matrix and its inverse refreshed in place, in parallel when
// the list is larger than the configured threshold.
//
// Objects that cannot be registered stay unregistered; their errors are
// joined and returned after all other objects have been synced.
func (im *InstanceManager) Sync(objects []*Object) error {
	var errs []error
	refresh := make([]*Object, 0, len(objects))
	for _, obj := range objects {
		if obj.Model == "" {
			continue
		}

		if !obj.Registered() {
			if err := im.register(obj); err != nil {
				errs = append(errs, err)
			}
			continue
		}

		if obj.BvhInstanceIndex >= len(im.owners) || im.owners[obj.BvhInstanceIndex] != obj {
			errs = append(errs, fmt.Errorf("%w: %q claims slot %d", ErrForeignObject, obj.Name, obj.BvhInstanceIndex))
			continue
		}
		refresh = append(refresh, obj)
	}

	im.runner.runAbove(im.opts.ParallelThreshold, len(refresh), func(start, end int) {
		for _, obj := range refresh[start:end] {
			im.refresh(obj)
		}
	})

	return errors.Join(errs...)
}

func (im *InstanceManager) register(obj *Object) error {
	model, found := im.models.LookupModel(obj.Model)
	if !found {
		return fmt.Errorf("%w: object %q references model %q", ErrUnknownModel, obj.Name, obj.Model)
	}
	if im.opts.InstanceCapacity > 0 && len(im.instances) >= im.opts.InstanceCapacity {
		return fmt.Errorf("%w: no instance slot left for %q (capacity %d)", ErrCapacityExceeded, obj.Name, im.opts.InstanceCapacity)
	}

	modelMat := obj.ModelMatrix()
	obj.BvhInstanceIndex = len(im.instances)
	im.instances = append(im.instances, scene.BvhInstance{
		ModelMatrix:        modelMat,
		InverseModelMatrix: modelMat.Inv(),
		BvhRootNodeIndex:   model.BvhRootNodeIndex,
		TriangleOffset:     model.BvhTriangleIndex,
		TriangleCount:      model.TriangleCount,
	})
	im.owners = append(im.owners, obj)

	im.logger.Debugf("registered %q (model %q) at instance slot %d", obj.Name, obj.Model, obj.BvhInstanceIndex)
	return nil
}

func (im *InstanceManager) refresh(obj *Object) {
	instance := &im.instances[obj.BvhInstanceIndex]
	instance.ModelMatrix = obj.ModelMatrix()
	instance.InverseModelMatrix = instance.ModelMatrix.Inv()
}

// Get the instance records indexed by slot.
func (im *InstanceManager) Instances() []scene.BvhInstance {
	return im.instances
}

// Get the number of registered instances.
func (im *InstanceManager) Len() int {
	return len(im.instances)
}

// Stop the worker goroutines owned by the manager.
func (im *InstanceManager) Close() {
	im.runner.Close()
}
