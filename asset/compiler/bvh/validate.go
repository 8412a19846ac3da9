package bvh

import (
	"github.com/achilleasa/lumen/asset/scene"
	"github.com/achilleasa/lumen/types"
)

// A Span selects the window of the node and triangle arrays that belongs to
// a single tree. Trees merged into shared buffers occupy disjoint spans.
type Span struct {
	NodeOffset int32
	NodeCount  int32

	// Leaf FirstTriangle values are relative to TriangleOffset.
	TriangleOffset int32
	TriangleCount  int32
}

type validator struct {
	nodes []scene.BvhNode
	tris  []scene.Triangle
	span  Span

	visited []bool

	// Number of leaf references per span triangle.
	refs []int
}

// Validate a standalone tree whose nodes and triangles occupy the full
// arrays.
func Validate(nodes []scene.BvhNode, tris []scene.Triangle, root int32) error {
	return ValidateSpan(nodes, tris, root, Span{
		NodeCount:     int32(len(nodes)),
		TriangleCount: int32(len(tris)),
	})
}

// Validate the tree rooted at root. The following properties are checked:
//   - every node has min <= max along each axis
//   - every node is either a leaf (count > 0, no children) or an internal
//     node (count == 0, no triangles, two children inside the span)
//   - every node is reachable exactly once from the root
//   - child boxes are contained in their parent box
//   - leaf triangle ranges lie inside the span and their vertices are
//     contained in the leaf box (inclusive)
//   - leaf ranges reference each span triangle exactly once
func ValidateSpan(nodes []scene.BvhNode, tris []scene.Triangle, root int32, span Span) error {
	if span.NodeOffset < 0 || span.NodeCount < 0 || int(span.NodeOffset)+int(span.NodeCount) > len(nodes) {
		return invalidf(root, "node span [%d, +%d) exceeds node count %d", span.NodeOffset, span.NodeCount, len(nodes))
	}
	if span.TriangleOffset < 0 || span.TriangleCount < 0 || int(span.TriangleOffset)+int(span.TriangleCount) > len(tris) {
		return invalidf(root, "triangle span [%d, +%d) exceeds triangle count %d", span.TriangleOffset, span.TriangleCount, len(tris))
	}

	v := &validator{
		nodes:   nodes,
		tris:    tris,
		span:    span,
		visited: make([]bool, span.NodeCount),
		refs:    make([]int, span.TriangleCount),
	}

	if !v.inSpan(root) {
		return invalidf(root, "root outside node span [%d, %d)", span.NodeOffset, span.NodeOffset+span.NodeCount)
	}
	if err := v.checkNode(root); err != nil {
		return err
	}

	for triIndex, refCount := range v.refs {
		if refCount == 0 {
			return invalidf(root, "triangle %d is not referenced by any leaf", int(span.TriangleOffset)+triIndex)
		}
	}
	return nil
}

func (v *validator) inSpan(nodeIndex int32) bool {
	return nodeIndex >= v.span.NodeOffset && nodeIndex < v.span.NodeOffset+v.span.NodeCount
}

func (v *validator) checkNode(nodeIndex int32) error {
	if v.visited[nodeIndex-v.span.NodeOffset] {
		return invalidf(nodeIndex, "node reachable via more than one path")
	}
	v.visited[nodeIndex-v.span.NodeOffset] = true

	node := &v.nodes[nodeIndex]
	for axis := 0; axis < 3; axis++ {
		if !(node.Min[axis] <= node.Max[axis]) {
			return invalidf(nodeIndex, "min %v exceeds max %v along axis %d", node.Min, node.Max, axis)
		}
	}

	if node.TriangleCount > 0 {
		return v.checkLeaf(nodeIndex, node)
	}

	switch {
	case node.TriangleCount < 0:
		return invalidf(nodeIndex, "negative triangle count %d", node.TriangleCount)
	case node.FirstTriangle != scene.InvalidIndex:
		return invalidf(nodeIndex, "internal node references triangle %d", node.FirstTriangle)
	case !v.inSpan(node.Left) || !v.inSpan(node.Right):
		return invalidf(nodeIndex, "child indices %d/%d outside node span [%d, %d)", node.Left, node.Right, v.span.NodeOffset, v.span.NodeOffset+v.span.NodeCount)
	}

	for _, child := range []int32{node.Left, node.Right} {
		childNode := &v.nodes[child]
		if !contains(node.BBox(), childNode.Min) || !contains(node.BBox(), childNode.Max) {
			return invalidf(child, "box [%v %v] escapes parent %d box [%v %v]", childNode.Min, childNode.Max, nodeIndex, node.Min, node.Max)
		}
		if err := v.checkNode(child); err != nil {
			return err
		}
	}
	return nil
}

func (v *validator) checkLeaf(nodeIndex int32, node *scene.BvhNode) error {
	if node.Left != scene.InvalidIndex || node.Right != scene.InvalidIndex {
		return invalidf(nodeIndex, "leaf has children %d/%d", node.Left, node.Right)
	}
	if node.FirstTriangle < 0 || node.FirstTriangle+node.TriangleCount > v.span.TriangleCount {
		return invalidf(nodeIndex, "leaf triangle range [%d, +%d) outside triangle span of %d triangles", node.FirstTriangle, node.TriangleCount, v.span.TriangleCount)
	}

	bbox := node.BBox()
	for i := node.FirstTriangle; i < node.FirstTriangle+node.TriangleCount; i++ {
		if v.refs[i] > 0 {
			return invalidf(nodeIndex, "triangle %d referenced by more than one leaf", v.span.TriangleOffset+i)
		}
		v.refs[i]++

		for _, vertex := range v.tris[v.span.TriangleOffset+i].Vertices() {
			if !contains(bbox, vertex) {
				return invalidf(nodeIndex, "triangle %d vertex %v outside leaf box [%v %v]", v.span.TriangleOffset+i, vertex, node.Min, node.Max)
			}
		}
	}
	return nil
}

// Inclusive point in box test.
func contains(bbox [2]types.Vec3, p types.Vec3) bool {
	for axis := 0; axis < 3; axis++ {
		if p[axis] < bbox[0][axis] || p[axis] > bbox[1][axis] {
			return false
		}
	}
	return true
}
