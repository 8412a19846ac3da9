package engine

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/achilleasa/lumen/asset/scene"
	"github.com/achilleasa/lumen/types"
)

type mockLookup map[string]scene.ModelInfo

func (ml mockLookup) LookupModel(name string) (scene.ModelInfo, bool) {
	m, found := ml[name]
	return m, found
}

func testModels() mockLookup {
	return mockLookup{
		"cube": {
			Name:             "cube",
			BvhRootNodeIndex: 0,
			BvhTriangleIndex: 0,
			TriangleCount:    12,
			NodeCount:        11,
			BBox:             [2]types.Vec3{{-0.5, -0.5, -0.5}, {0.5, 0.5, 0.5}},
		},
		"bunny": {
			Name:             "bunny",
			BvhRootNodeIndex: 11,
			BvhTriangleIndex: 12,
			TriangleCount:    100,
			NodeCount:        99,
			BBox:             [2]types.Vec3{{-0.5, 0, -0.5}, {0.5, 1, 0.5}},
		},
	}
}

func TestInstanceRegistration(t *testing.T) {
	im := NewInstanceManager(testModels(), DefaultOptions())
	defer im.Close()

	a := NewObject("a", "cube")
	b := NewObject("b", "bunny")
	b.Position = types.Vec3{0, 0, -3}
	ghost := NewObject("ghost", "teapot")
	light := NewLight("light", types.Vec3{}, types.Vec3{1, 1, 1}, 1, 1)

	err := im.Sync([]*Object{a, ghost, light, b})
	if !errors.Is(err, ErrUnknownModel) {
		t.Fatalf("expected ErrUnknownModel; got %v", err)
	}

	if a.BvhInstanceIndex != 0 || b.BvhInstanceIndex != 1 {
		t.Fatalf("expected slots to be assigned in list order; got %d and %d", a.BvhInstanceIndex, b.BvhInstanceIndex)
	}
	if ghost.Registered() || light.Registered() {
		t.Fatal("expected objects without a valid model to stay unregistered")
	}

	instances := im.Instances()
	if len(instances) != 2 {
		t.Fatalf("expected 2 instances; got %d", len(instances))
	}
	in := instances[1]
	if in.BvhRootNodeIndex != 11 || in.TriangleOffset != 12 || in.TriangleCount != 100 {
		t.Fatalf("expected instance to reference the bunny model buffers; got %+v", in)
	}
	if in.ModelMatrix != b.ModelMatrix() || in.ModelMatrix.Translation() != (types.Vec3{0, 0, -3}) {
		t.Fatalf("expected instance model matrix to match the object transform; got %v", in.ModelMatrix)
	}
	if !in.ModelMatrix.Mul4(in.InverseModelMatrix).ApproxEqual(types.Ident4(), 1e-5) {
		t.Fatal("expected inverse model matrix to invert the model matrix")
	}
}

func TestInstanceRefresh(t *testing.T) {
	for _, threshold := range []int{1000, 8} {
		opts := DefaultOptions()
		opts.Workers = 4
		opts.ParallelThreshold = threshold
		im := NewInstanceManager(testModels(), opts)
		defer im.Close()

		rng := rand.New(rand.NewSource(42))
		objects := make([]*Object, 100)
		for i := range objects {
			objects[i] = NewObject("obj", []string{"cube", "bunny"}[i%2])
			objects[i].Position = types.Vec3{rng.Float32() * 10, rng.Float32() * 10, rng.Float32() * 10}
			objects[i].SetRotationEuler(types.Vec3{rng.Float32() * 360, rng.Float32() * 360, rng.Float32() * 360})
			objects[i].Scale = types.Vec3{0.5 + rng.Float32(), 0.5 + rng.Float32(), 0.5 + rng.Float32()}
		}

		if err := im.Sync(objects); err != nil {
			t.Fatal(err)
		}
		first := append([]scene.BvhInstance(nil), im.Instances()...)

		// A refresh without any change must not introduce drift.
		for pass := 0; pass < 3; pass++ {
			if err := im.Sync(objects); err != nil {
				t.Fatal(err)
			}
			for i, in := range im.Instances() {
				if in != first[i] {
					t.Fatalf("[threshold %d] expected refresh of slot %d to be bit-identical", threshold, i)
				}
			}
		}

		// Moving an object only updates its own slot.
		objects[7].Position = objects[7].Position.Add(types.Vec3{0, 1, 0})
		if err := im.Sync(objects); err != nil {
			t.Fatal(err)
		}
		instances := im.Instances()
		if len(instances) != len(objects) {
			t.Fatalf("expected refresh not to allocate new slots; got %d instances", len(instances))
		}
		for i, in := range instances {
			changed := in != first[i]
			if changed != (i == 7) {
				t.Fatalf("[threshold %d] unexpected change state %t for slot %d", threshold, changed, i)
			}
		}
		if instances[7].ModelMatrix != objects[7].ModelMatrix() {
			t.Fatal("expected refreshed slot to hold the new model matrix")
		}
		if instances[7].BvhRootNodeIndex != first[7].BvhRootNodeIndex || instances[7].TriangleCount != first[7].TriangleCount {
			t.Fatal("expected refresh to keep the model buffer references")
		}
	}
}

func TestInstanceCapacity(t *testing.T) {
	opts := DefaultOptions()
	opts.InstanceCapacity = 2
	im := NewInstanceManager(testModels(), opts)
	defer im.Close()

	objects := []*Object{NewObject("a", "cube"), NewObject("b", "cube"), NewObject("c", "cube")}
	if err := im.Sync(objects); !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("expected ErrCapacityExceeded; got %v", err)
	}
	if im.Len() != 2 || objects[2].Registered() {
		t.Fatalf("expected only the first 2 objects to be registered; got %d instances", im.Len())
	}
}

func TestInstanceForeignObject(t *testing.T) {
	im1 := NewInstanceManager(testModels(), DefaultOptions())
	im2 := NewInstanceManager(testModels(), DefaultOptions())
	defer im1.Close()
	defer im2.Close()

	obj := NewObject("a", "cube")
	if err := im1.Sync([]*Object{obj}); err != nil {
		t.Fatal(err)
	}
	if err := im2.Sync([]*Object{obj}); !errors.Is(err, ErrForeignObject) {
		t.Fatalf("expected ErrForeignObject; got %v", err)
	}
}
