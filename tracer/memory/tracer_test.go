package memory

import (
	"encoding/binary"
	"errors"
	"sync"
	"testing"

	"github.com/achilleasa/lumen/asset/scene"
	"github.com/achilleasa/lumen/tracer"
	"github.com/achilleasa/lumen/types"
)

func TestApplyPendingChanges(t *testing.T) {
	tr := NewTracer("mem-0", 0)
	defer tr.Close()

	if tr.Id() != "mem-0" {
		t.Fatalf("expected tracer id to be mem-0; got %s", tr.Id())
	}

	node := scene.NewBvhNode()
	node.SetTriangles(0, 1)
	tr.AppendChange(tracer.SetBvhNodes, []scene.BvhNode{node})
	tr.AppendChange(tracer.SetTriangles, []scene.Triangle{scene.NewTriangle(types.Vec3{}, types.Vec3{1, 0, 0}, types.Vec3{0, 1, 0})})
	tr.AppendChange(tracer.SetBufferSizes, scene.BufferSizes{BvhNodes: 1, Triangles: 1})

	if err := tr.ApplyPendingChanges(); err != nil {
		t.Fatal(err)
	}

	specs := []struct {
		changeType tracer.ChangeType
		expLen     int
	}{
		{tracer.SetBvhNodes, scene.BvhNodeSize},
		{tracer.SetTriangles, scene.TriangleSize},
		{tracer.SetInstances, 0},
		{tracer.SetBufferSizes, scene.BufferSizesSize},
	}
	for _, spec := range specs {
		if got := len(tr.Buffer(spec.changeType)); got != spec.expLen {
			t.Errorf("expected %s buffer to be %d bytes; got %d", spec.changeType, spec.expLen, got)
		}
	}

	sizes := tr.Buffer(tracer.SetBufferSizes)
	if nodes := int32(binary.LittleEndian.Uint32(sizes[0:4])); nodes != 1 {
		t.Fatalf("expected encoded node count to be 1; got %d", nodes)
	}

	stats := tr.Stats()
	if stats.Uploads != 3 || stats.UploadedBytes != int64(scene.BvhNodeSize+scene.TriangleSize+scene.BufferSizesSize) {
		t.Fatalf("expected 3 uploads; got %+v", stats)
	}
}

func TestStatsSnapshot(t *testing.T) {
	tr := NewTracer("mem-0", 0)
	defer tr.Close()

	upload := func() {
		tr.AppendChange(tracer.SetLights, make([]scene.LightInstance, 2))
		if err := tr.ApplyPendingChanges(); err != nil {
			t.Fatal(err)
		}
	}

	upload()
	before := tr.Stats()

	// Readers poll the stats while uploads are in flight.
	done := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
					_ = tr.Stats().Uploads
				}
			}
		}()
	}
	for i := 0; i < 4; i++ {
		upload()
	}
	close(done)
	wg.Wait()

	if before.Uploads != 1 {
		t.Fatalf("expected earlier stats snapshot to report 1 upload; got %d", before.Uploads)
	}
	if after := tr.Stats(); after.Uploads != 5 {
		t.Fatalf("expected 5 uploads; got %d", after.Uploads)
	}
}

func TestLatestChangeWins(t *testing.T) {
	tr := NewTracer("mem-0", 0)

	tr.AppendChange(tracer.SetLights, make([]scene.LightInstance, 3))
	tr.AppendChange(tracer.SetLights, make([]scene.LightInstance, 1))
	if err := tr.ApplyPendingChanges(); err != nil {
		t.Fatal(err)
	}

	if got := len(tr.Buffer(tracer.SetLights)); got != scene.LightInstanceSize {
		t.Fatalf("expected light buffer to hold a single light; got %d bytes", got)
	}
}

func TestCapacityExceeded(t *testing.T) {
	tr := NewTracer("mem-0", 2*scene.BvhInstanceSize)

	tr.AppendChange(tracer.SetInstances, make([]scene.BvhInstance, 2))
	if err := tr.ApplyPendingChanges(); err != nil {
		t.Fatal(err)
	}

	tr.AppendChange(tracer.SetLights, make([]scene.LightInstance, 1))
	tr.AppendChange(tracer.SetInstances, make([]scene.BvhInstance, 3))
	err := tr.ApplyPendingChanges()
	if !errors.Is(err, tracer.ErrCapacityExceeded) {
		t.Fatalf("expected ErrCapacityExceeded; got %v", err)
	}

	// No buffer may change when a change is rejected.
	if got := len(tr.Buffer(tracer.SetInstances)); got != 2*scene.BvhInstanceSize {
		t.Fatalf("expected instance buffer to keep its previous contents; got %d bytes", got)
	}
	if got := tr.Buffer(tracer.SetLights); got != nil {
		t.Fatalf("expected light buffer not to be uploaded; got %d bytes", len(got))
	}
}

func TestUnsupportedChange(t *testing.T) {
	tr := NewTracer("mem-0", 0)

	tr.AppendChange(tracer.SetBvhNodes, []scene.Triangle{})
	if err := tr.ApplyPendingChanges(); !errors.Is(err, tracer.ErrUnsupportedChange) {
		t.Fatalf("expected ErrUnsupportedChange; got %v", err)
	}

	tr.AppendChange(tracer.ChangeType(42), nil)
	if err := tr.ApplyPendingChanges(); !errors.Is(err, tracer.ErrUnsupportedChange) {
		t.Fatalf("expected ErrUnsupportedChange for unknown change type; got %v", err)
	}
}
