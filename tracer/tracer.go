package tracer

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrCapacityExceeded  = errors.New("tracer: buffer capacity exceeded")
	ErrUnsupportedChange = errors.New("tracer: unsupported change")
)

type ChangeType uint8

const (
	SetBvhNodes ChangeType = iota
	SetTriangles
	SetInstances
	SetLights
	SetBufferSizes
)

// All change types in upload order.
var ChangeTypes = []ChangeType{SetBvhNodes, SetTriangles, SetInstances, SetLights, SetBufferSizes}

func (ct ChangeType) String() string {
	switch ct {
	case SetBvhNodes:
		return "bvh nodes"
	case SetTriangles:
		return "triangles"
	case SetInstances:
		return "bvh instances"
	case SetLights:
		return "lights"
	case SetBufferSizes:
		return "buffer sizes"
	}
	return fmt.Sprintf("change(%d)", uint8(ct))
}

// Tracer statistics.
type Stats struct {
	// Number of buffer uploads since the tracer was created.
	Uploads int

	// Bytes uploaded by the last ApplyPendingChanges call.
	UploadedBytes int64

	// Time spent in the last ApplyPendingChanges call.
	UploadTime time.Duration
}

// A Tracer receives the acceleration buffers that the traversal kernels
// consume. Changes are queued with AppendChange and committed together by
// ApplyPendingChanges; a queued change for a buffer replaces any earlier
// queued change for the same buffer.
//
// The payload for each change type is:
//   - SetBvhNodes: []scene.BvhNode
//   - SetTriangles: []scene.Triangle
//   - SetInstances: []scene.BvhInstance
//   - SetLights: []scene.LightInstance
//   - SetBufferSizes: scene.BufferSizes
type Tracer interface {
	// Get tracer id.
	Id() string

	// Shutdown and cleanup tracer.
	Close()

	// Append a change to the tracer's update buffer.
	AppendChange(ChangeType, interface{})

	// Apply all pending changes from the update buffer.
	ApplyPendingChanges() error

	// Retrieve tracer statistics.
	Stats() *Stats
}
