package bvh

import (
	"fmt"

	"github.com/achilleasa/lumen/asset/scene"
	"github.com/achilleasa/lumen/types"
)

// Convert a vertex list and a triangle-list index buffer into a flat
// triangle list. Every 3 consecutive indices produce one triangle whose
// centroid is the mean of its vertices. Degenerate triangles are kept.
func ExtractTriangles(vertices []types.Vec3, indices []uint32) ([]scene.Triangle, error) {
	if len(indices)%3 != 0 {
		return nil, fmt.Errorf("%w: got %d indices", ErrIndexCount, len(indices))
	}

	tris := make([]scene.Triangle, len(indices)/3)
	for triIndex := range tris {
		var v [3]types.Vec3
		for i := 0; i < 3; i++ {
			vIndex := indices[triIndex*3+i]
			if int(vIndex) >= len(vertices) {
				return nil, fmt.Errorf("%w: triangle %d references vertex %d; vertex count %d", ErrIndexOutOfRange, triIndex, vIndex, len(vertices))
			}
			v[i] = vertices[vIndex]
		}
		tris[triIndex] = scene.NewTriangle(v[0], v[1], v[2])
	}
	return tris, nil
}
