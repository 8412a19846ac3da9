package engine

import (
	"fmt"
	"time"

	"github.com/achilleasa/lumen/asset/scene"
	"github.com/achilleasa/lumen/log"
	"github.com/achilleasa/lumen/tracer"
	"github.com/achilleasa/lumen/types"
)

// Per-frame statistics.
type FrameStats struct {
	// Frame number, starting at 0.
	Frame int

	Objects   int
	Visible   int
	Instances int
	Lights    int

	CullTime   time.Duration
	SyncTime   time.Duration
	UploadTime time.Duration
	FrameTime  time.Duration

	// Bytes pushed to the tracer for this frame.
	UploadedBytes int64
}

// A name to model map built once from the scene model table.
type modelIndex map[string]scene.ModelInfo

func newModelIndex(sc *scene.Scene) modelIndex {
	index := make(modelIndex, len(sc.Models))
	for _, m := range sc.Models {
		index[m.Name] = m
	}
	return index
}

func (mi modelIndex) LookupModel(name string) (scene.ModelInfo, bool) {
	m, found := mi[name]
	return m, found
}

// FrameSync drives the per-frame pipeline that keeps a tracer in sync with
// the scene objects: cull, sync instances, collect lights and upload.
type FrameSync struct {
	logger log.Logger
	opts   Options

	scene  *scene.Scene
	tracer tracer.Tracer

	runner    *partitionRunner
	culler    *Culler
	instances *InstanceManager

	lights []scene.LightInstance
	frame  int
}

// Create a frame sync for a compiled scene. All helpers share a single
// worker pool.
func NewFrameSync(sc *scene.Scene, tr tracer.Tracer, opts Options) *FrameSync {
	opts = opts.withDefaults()
	runner := newPartitionRunner(opts.Workers)
	models := newModelIndex(sc)

	return &FrameSync{
		logger:    log.New("frame sync"),
		opts:      opts,
		scene:     sc,
		tracer:    tr,
		runner:    runner,
		culler:    newCuller(models, opts, runner),
		instances: newInstanceManager(models, opts, runner),
	}
}

// Stop the worker goroutines shared by the culler and the instance manager.
// The tracer is owned by the caller and is left open.
func (fs *FrameSync) Close() {
	fs.runner.Close()
}

// Get the instance manager.
func (fs *FrameSync) Instances() *InstanceManager {
	return fs.instances
}

// Process a frame. The static node and triangle buffers are uploaded with
// the first frame; instances, lights and buffer sizes are uploaded with
// every frame. On error nothing is uploaded for the frame.
func (fs *FrameSync) Sync(objects []*Object, viewProj types.Mat4) (FrameStats, error) {
	stats := FrameStats{Frame: fs.frame, Objects: len(objects)}
	frameStart := time.Now()

	start := time.Now()
	stats.Visible = fs.culler.Cull(objects, ExtractFrustum(viewProj))
	stats.CullTime = time.Since(start)

	start = time.Now()
	active := make([]*Object, 0, stats.Visible)
	for _, obj := range objects {
		if obj.Model != "" && (obj.Visible || obj.AlwaysVisible) {
			active = append(active, obj)
		}
	}
	if err := fs.instances.Sync(active); err != nil {
		return stats, fmt.Errorf("frame %d: %w", fs.frame, err)
	}

	fs.lights = CollectLights(objects, fs.lights[:0])
	if fs.opts.LightCapacity > 0 && len(fs.lights) > fs.opts.LightCapacity {
		return stats, fmt.Errorf("frame %d: %w: %d lights; capacity is %d", fs.frame, ErrCapacityExceeded, len(fs.lights), fs.opts.LightCapacity)
	}
	stats.SyncTime = time.Since(start)
	stats.Instances = fs.instances.Len()
	stats.Lights = len(fs.lights)

	if fs.frame == 0 {
		fs.tracer.AppendChange(tracer.SetBvhNodes, fs.scene.BvhNodeList)
		fs.tracer.AppendChange(tracer.SetTriangles, fs.scene.TriangleList)
	}
	sizes := fs.scene.BufferSizes()
	sizes.Instances = int32(stats.Instances)
	sizes.Lights = int32(stats.Lights)
	fs.tracer.AppendChange(tracer.SetInstances, fs.instances.Instances())
	fs.tracer.AppendChange(tracer.SetLights, fs.lights)
	fs.tracer.AppendChange(tracer.SetBufferSizes, sizes)

	start = time.Now()
	if err := fs.tracer.ApplyPendingChanges(); err != nil {
		return stats, fmt.Errorf("frame %d: %w", fs.frame, err)
	}
	stats.UploadTime = time.Since(start)
	stats.UploadedBytes = fs.tracer.Stats().UploadedBytes
	stats.FrameTime = time.Since(frameStart)

	fs.logger.Debugf("frame %d: %d/%d objects visible, %d instances, %d lights", stats.Frame, stats.Visible, stats.Objects, stats.Instances, stats.Lights)
	fs.frame++
	return stats, nil
}
