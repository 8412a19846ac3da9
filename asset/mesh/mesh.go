package mesh

import "github.com/achilleasa/lumen/types"

// A Mesh holds the position-only vertex list and the triangle index list of
// a loaded model. Every 3 consecutive indices define a triangle.
type Mesh struct {
	Name     string
	Vertices []types.Vec3
	Indices  []uint32
}

// Get the number of triangles defined by the index list.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// Calculate the mesh bounding box. Empty meshes return an inverted box.
func (m *Mesh) BBox() [2]types.Vec3 {
	bbox := types.EmptyBBox()
	for _, v := range m.Vertices {
		bbox[0] = types.MinVec3(bbox[0], v)
		bbox[1] = types.MaxVec3(bbox[1], v)
	}
	return bbox
}

// Center the mesh at the origin and scale it uniformly so that its largest
// extent becomes 0.5. Meshes without any extent are only centered.
func (m *Mesh) Normalize() {
	if len(m.Vertices) == 0 {
		return
	}

	bbox := m.BBox()
	center := bbox[0].Add(bbox[1]).Mul(0.5)
	maxExtent := bbox[1].Sub(bbox[0]).MaxComponent()

	var scale float32 = 1.0
	if maxExtent > 0 {
		scale = 0.5 / maxExtent
	}

	for i, v := range m.Vertices {
		m.Vertices[i] = v.Sub(center).Mul(scale)
	}
}
