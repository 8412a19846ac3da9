package scene

import (
	"encoding/binary"
	"math"
	"strings"
	"testing"

	"github.com/achilleasa/lumen/types"
)

func TestNewTriangle(t *testing.T) {
	tri := NewTriangle(types.Vec3{0, 0, 0}, types.Vec3{3, 0, 0}, types.Vec3{0, 3, 3})

	if tri.V1 != (types.Vec4{3, 0, 0, 1}) {
		t.Fatalf("expected homogeneous vertex with w=1; got %v", tri.V1)
	}
	if tri.Centroid != (types.Vec4{1, 1, 1, 0}) {
		t.Fatalf("expected centroid {1 1 1 0}; got %v", tri.Centroid)
	}

	bbox := tri.BBox()
	if bbox[0] != (types.Vec3{0, 0, 0}) || bbox[1] != (types.Vec3{3, 3, 3}) {
		t.Fatalf("expected bbox [{0 0 0} {3 3 3}]; got %v", bbox)
	}
}

func TestBvhNodeForms(t *testing.T) {
	n := NewBvhNode()
	n.SetTriangles(4, 2)
	if !n.IsLeaf() || n.Left != InvalidIndex || n.Right != InvalidIndex {
		t.Fatalf("expected a leaf with sentinel children; got %+v", n)
	}

	n.OffsetChildNodes(10)
	if n.Left != InvalidIndex || n.Right != InvalidIndex {
		t.Fatalf("expected sentinel children to survive offsetting; got %+v", n)
	}

	n.SetChildNodes(1, 2)
	if n.IsLeaf() || n.FirstTriangle != InvalidIndex || n.TriangleCount != 0 {
		t.Fatalf("expected an internal node; got %+v", n)
	}

	n.OffsetChildNodes(10)
	if n.Left != 11 || n.Right != 12 {
		t.Fatalf("expected children to be offset to 11/12; got %d/%d", n.Left, n.Right)
	}
}

func TestBvhNodeLayout(t *testing.T) {
	n := BvhNode{
		Min:           types.Vec3{-1, -2, -3},
		Max:           types.Vec3{1, 2, 3},
		Left:          InvalidIndex,
		Right:         InvalidIndex,
		FirstTriangle: 7,
		TriangleCount: 2,
	}
	buf := EncodeBvhNodes([]BvhNode{n, n})
	if len(buf) != 2*BvhNodeSize {
		t.Fatalf("expected %d bytes; got %d", 2*BvhNodeSize, len(buf))
	}

	expFloats := map[int]float32{0: -1, 4: -2, 8: -3, 12: 0, 16: 1, 20: 2, 24: 3, 28: 0}
	for offset, exp := range expFloats {
		if got := math.Float32frombits(binary.LittleEndian.Uint32(buf[offset:])); got != exp {
			t.Errorf("expected float %f at offset %d; got %f", exp, offset, got)
		}
	}
	expInts := map[int]int32{32: -1, 36: -1, 40: 7, 44: 2}
	for offset, exp := range expInts {
		if got := int32(binary.LittleEndian.Uint32(buf[offset:])); got != exp {
			t.Errorf("expected int %d at offset %d; got %d", exp, offset, got)
		}
	}
}

func TestBvhInstanceLayout(t *testing.T) {
	in := BvhInstance{
		ModelMatrix:        types.Translate4(types.Vec3{5, 6, 7}),
		InverseModelMatrix: types.Translate4(types.Vec3{-5, -6, -7}),
		BvhRootNodeIndex:   3,
		TriangleOffset:     10,
		TriangleCount:      4,
	}
	buf := EncodeBvhInstances([]BvhInstance{in})
	if len(buf) != BvhInstanceSize {
		t.Fatalf("expected %d bytes; got %d", BvhInstanceSize, len(buf))
	}

	// Column-major: translation lives in elements 12-14
	if got := math.Float32frombits(binary.LittleEndian.Uint32(buf[12*4:])); got != 5 {
		t.Fatalf("expected model matrix tx to be 5; got %f", got)
	}
	if got := math.Float32frombits(binary.LittleEndian.Uint32(buf[64+13*4:])); got != -6 {
		t.Fatalf("expected inverse model matrix ty to be -6; got %f", got)
	}
	for offset, exp := range map[int]uint32{128: 3, 132: 10, 136: 4, 140: 0} {
		if got := binary.LittleEndian.Uint32(buf[offset:]); got != exp {
			t.Errorf("expected %d at offset %d; got %d", exp, offset, got)
		}
	}
}

func TestSmallLayouts(t *testing.T) {
	tris := EncodeTriangles([]Triangle{NewTriangle(types.Vec3{}, types.Vec3{1, 0, 0}, types.Vec3{0, 1, 0})})
	if len(tris) != TriangleSize {
		t.Fatalf("expected %d bytes; got %d", TriangleSize, len(tris))
	}
	if got := math.Float32frombits(binary.LittleEndian.Uint32(tris[12:])); got != 1 {
		t.Fatalf("expected v0.w to be 1; got %f", got)
	}

	lights := EncodeLights([]LightInstance{{Position: types.Vec3{1, 2, 3}, Color: types.Vec3{1, 1, 1}, Intensity: 4, Radius: 5}})
	if len(lights) != LightInstanceSize {
		t.Fatalf("expected %d bytes; got %d", LightInstanceSize, len(lights))
	}
	if got := math.Float32frombits(binary.LittleEndian.Uint32(lights[36:])); got != 5 {
		t.Fatalf("expected light radius at offset 36 to be 5; got %f", got)
	}

	sizes := BufferSizes{BvhNodes: 1, Triangles: 2, Instances: 3, Lights: 4}.Encode()
	for i := 0; i < 4; i++ {
		if got := binary.LittleEndian.Uint32(sizes[i*4:]); got != uint32(i+1) {
			t.Fatalf("expected buffer size %d at slot %d; got %d", i+1, i, got)
		}
	}
}

func TestSceneLookupAndStats(t *testing.T) {
	sc := &Scene{
		BvhNodeList:  make([]BvhNode, 3),
		TriangleList: make([]Triangle, 2),
		Models: []ModelInfo{
			{Name: "cube", BvhRootNodeIndex: 0, NodeCount: 3, TriangleCount: 2},
		},
	}

	if _, found := sc.LookupModel("sphere"); found {
		t.Fatal("expected lookup for unknown model to fail")
	}
	m, found := sc.LookupModel("cube")
	if !found || m.NodeCount != 3 {
		t.Fatalf("expected to find model cube; got %+v", m)
	}

	sizes := sc.BufferSizes()
	if sizes.BvhNodes != 3 || sizes.Triangles != 2 {
		t.Fatalf("expected buffer sizes 3/2; got %+v", sizes)
	}

	stats := sc.Stats()
	for _, exp := range []string{"BVH nodes", "cube", "272 bytes"} {
		if !strings.Contains(stats, exp) {
			t.Fatalf("expected stats table to contain %q; got\n%s", exp, stats)
		}
	}
}

func TestFmtSize(t *testing.T) {
	specs := []struct {
		in  int
		exp string
	}{
		{12, " 12 bytes"},
		{4800, "4.8 kb"},
		{25000000, " 25.0 mb"},
	}
	for _, spec := range specs {
		if got := fmtSize(spec.in); got != spec.exp {
			t.Errorf("expected fmtSize(%d) to be %q; got %q", spec.in, spec.exp, got)
		}
	}
}
