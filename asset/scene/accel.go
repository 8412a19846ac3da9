package scene

import "github.com/achilleasa/lumen/types"

// InvalidIndex is used as the "no child"/"no triangle" sentinel in BvhNode
// fields and as the root index of a tree that could not be built.
const InvalidIndex int32 = -1

// Bvh nodes store an AABB and four int32 fields whose meaning depends on the
// node type:
//
// - For internal nodes Left/Right point to the child nodes, FirstTriangle
//   is -1 and TriangleCount is 0.
// - For leaf nodes Left/Right are -1, FirstTriangle points to the first leaf
//   triangle and TriangleCount is > 0.
//
// FirstTriangle is relative to the triangle list of the model that owns the
// node. Readers of the merged global buffers must add the model triangle
// offset to obtain a global triangle index.
type BvhNode struct {
	Min types.Vec3
	Max types.Vec3

	Left  int32
	Right int32

	FirstTriangle int32
	TriangleCount int32
}

// Create a node with no children and no triangles.
func NewBvhNode() BvhNode {
	return BvhNode{
		Left:          InvalidIndex,
		Right:         InvalidIndex,
		FirstTriangle: InvalidIndex,
	}
}

// Set bounding box.
func (n *BvhNode) SetBBox(bbox [2]types.Vec3) {
	n.Min = bbox[0]
	n.Max = bbox[1]
}

// Get bounding box.
func (n *BvhNode) BBox() [2]types.Vec3 {
	return [2]types.Vec3{n.Min, n.Max}
}

// Turn node into an internal node with the given children.
func (n *BvhNode) SetChildNodes(left, right int32) {
	n.Left = left
	n.Right = right
	n.FirstTriangle = InvalidIndex
	n.TriangleCount = 0
}

// Turn node into a leaf referencing count triangles starting at first.
func (n *BvhNode) SetTriangles(first, count int32) {
	n.Left = InvalidIndex
	n.Right = InvalidIndex
	n.FirstTriangle = first
	n.TriangleCount = count
}

// Returns true if this is a leaf node.
func (n *BvhNode) IsLeaf() bool {
	return n.TriangleCount > 0
}

// Add offset to indices of child nodes. Sentinel indices are left untouched.
func (n *BvhNode) OffsetChildNodes(offset int32) {
	if n.Left != InvalidIndex {
		n.Left += offset
	}
	if n.Right != InvalidIndex {
		n.Right += offset
	}
}

// A triangle with homogeneous vertex positions (w = 1) and a precomputed
// centroid (w = 0).
type Triangle struct {
	V0       types.Vec4
	V1       types.Vec4
	V2       types.Vec4
	Centroid types.Vec4
}

// Create a triangle from three vertex positions.
func NewTriangle(v0, v1, v2 types.Vec3) Triangle {
	return Triangle{
		V0:       v0.Vec4(1),
		V1:       v1.Vec4(1),
		V2:       v2.Vec4(1),
		Centroid: v0.Add(v1).Add(v2).Mul(1.0 / 3.0).Vec4(0),
	}
}

// Get the triangle vertices as Vec3.
func (t *Triangle) Vertices() [3]types.Vec3 {
	return [3]types.Vec3{t.V0.Vec3(), t.V1.Vec3(), t.V2.Vec3()}
}

// Get the triangle AABB.
func (t *Triangle) BBox() [2]types.Vec3 {
	v0, v1, v2 := t.V0.Vec3(), t.V1.Vec3(), t.V2.Vec3()
	return [2]types.Vec3{
		types.MinVec3(v0, types.MinVec3(v1, v2)),
		types.MaxVec3(v0, types.MaxVec3(v1, v2)),
	}
}

// The BvhInstance structure positions a model BVH inside the scene. Rays are
// transformed into the model space using the inverse matrix before traversing
// the BVH subtree rooted at BvhRootNodeIndex.
type BvhInstance struct {
	ModelMatrix        types.Mat4
	InverseModelMatrix types.Mat4

	// Global index of the model BVH root. Shared by all instances of the
	// same model.
	BvhRootNodeIndex int32

	// Global offset and count of the model triangles.
	TriangleOffset int32
	TriangleCount  int32
}

// A point light.
type LightInstance struct {
	Position  types.Vec3
	Color     types.Vec3
	Intensity float32
	Radius    float32
}

// Element counts of the buffers bound to the traversal kernel. These are
// pushed as constants with every frame.
type BufferSizes struct {
	BvhNodes  int32
	Triangles int32
	Instances int32
	Lights    int32
}
