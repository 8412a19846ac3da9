package memory

import (
	"fmt"
	"sync"
	"time"

	"github.com/achilleasa/lumen/asset/scene"
	"github.com/achilleasa/lumen/log"
	"github.com/achilleasa/lumen/tracer"
)

// Default capacity (in bytes) of each device buffer.
const DefaultBufferCapacity = 25 * 1024 * 1024

// A tracer that stores the std430 encoded buffers in host memory. Each
// buffer has a fixed capacity; uploads that do not fit are rejected.
type Tracer struct {
	logger log.Logger

	sync.Mutex

	id       string
	capacity int

	// A buffer for queuing updates. Updates are grouped by type and
	// latest updates always overwrite the previous ones.
	updateBuffer map[tracer.ChangeType]interface{}

	buffers map[tracer.ChangeType][]byte
	stats   *tracer.Stats
}

var _ tracer.Tracer = (*Tracer)(nil)

// Create a new memory tracer. A capacity <= 0 selects DefaultBufferCapacity.
func NewTracer(id string, capacity int) *Tracer {
	if capacity <= 0 {
		capacity = DefaultBufferCapacity
	}

	return &Tracer{
		logger:       log.New(fmt.Sprintf("memory tracer (%s)", id)),
		id:           id,
		capacity:     capacity,
		updateBuffer: make(map[tracer.ChangeType]interface{}),
		buffers:      make(map[tracer.ChangeType][]byte),
		stats:        &tracer.Stats{},
	}
}

// Get tracer id.
func (tr *Tracer) Id() string {
	return tr.id
}

// Shutdown and cleanup tracer.
func (tr *Tracer) Close() {
	tr.Lock()
	defer tr.Unlock()

	tr.updateBuffer = make(map[tracer.ChangeType]interface{})
	tr.buffers = make(map[tracer.ChangeType][]byte)
}

// Append a change to the tracer's update buffer.
func (tr *Tracer) AppendChange(changeType tracer.ChangeType, data interface{}) {
	tr.Lock()
	defer tr.Unlock()

	tr.updateBuffer[changeType] = data
}

// Apply all pending changes from the update buffer. All changes are encoded
// and checked against the buffer capacity before any buffer is replaced; on
// error the buffers keep their previous contents and the pending changes
// are discarded.
func (tr *Tracer) ApplyPendingChanges() error {
	tr.Lock()
	defer tr.Unlock()

	start := time.Now()
	pending := tr.updateBuffer
	tr.updateBuffer = make(map[tracer.ChangeType]interface{})

	encoded := make(map[tracer.ChangeType][]byte, len(pending))
	var total int64
	for changeType, data := range pending {
		buf, err := encode(changeType, data)
		if err != nil {
			return err
		}
		if len(buf) > tr.capacity {
			return fmt.Errorf("%w: %s needs %d bytes; capacity is %d", tracer.ErrCapacityExceeded, changeType, len(buf), tr.capacity)
		}
		encoded[changeType] = buf
		total += int64(len(buf))
	}

	for changeType, buf := range encoded {
		tr.buffers[changeType] = buf
		tr.stats.Uploads++
		tr.logger.Debugf("uploaded %s (%d bytes)", changeType, len(buf))
	}
	tr.stats.UploadedBytes = total
	tr.stats.UploadTime = time.Since(start)
	return nil
}

// Get the current contents of a device buffer.
func (tr *Tracer) Buffer(changeType tracer.ChangeType) []byte {
	tr.Lock()
	defer tr.Unlock()

	return tr.buffers[changeType]
}

// Retrieve a snapshot of the tracer statistics.
func (tr *Tracer) Stats() *tracer.Stats {
	tr.Lock()
	defer tr.Unlock()

	stats := *tr.stats
	return &stats
}

func encode(changeType tracer.ChangeType, data interface{}) ([]byte, error) {
	var buf []byte
	ok := false
	switch changeType {
	case tracer.SetBvhNodes:
		var nodes []scene.BvhNode
		if nodes, ok = data.([]scene.BvhNode); ok {
			buf = scene.EncodeBvhNodes(nodes)
		}
	case tracer.SetTriangles:
		var tris []scene.Triangle
		if tris, ok = data.([]scene.Triangle); ok {
			buf = scene.EncodeTriangles(tris)
		}
	case tracer.SetInstances:
		var instances []scene.BvhInstance
		if instances, ok = data.([]scene.BvhInstance); ok {
			buf = scene.EncodeBvhInstances(instances)
		}
	case tracer.SetLights:
		var lights []scene.LightInstance
		if lights, ok = data.([]scene.LightInstance); ok {
			buf = scene.EncodeLights(lights)
		}
	case tracer.SetBufferSizes:
		var sizes scene.BufferSizes
		if sizes, ok = data.(scene.BufferSizes); ok {
			buf = sizes.Encode()
		}
	}

	if !ok {
		return nil, fmt.Errorf("%w: %s with payload %T", tracer.ErrUnsupportedChange, changeType, data)
	}
	return buf, nil
}
