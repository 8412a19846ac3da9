package engine

import (
	"math"

	"github.com/achilleasa/lumen/types"
)

// Plane indices.
const (
	FrustumLeft = iota
	FrustumRight
	FrustumBottom
	FrustumTop
	FrustumNear
	FrustumFar
)

// A plane n.p + d = 0. Points with a positive distance lie on the side the
// normal points to.
type Plane struct {
	Normal   types.Vec3
	Distance float32
}

// Get the signed distance from a point to the plane.
func (p Plane) DistanceTo(pt types.Vec3) float32 {
	return p.Normal.Dot(pt) + p.Distance
}

// The six planes of a view frustum, oriented so that the inside of the
// frustum is the positive half-space of every plane.
type Frustum struct {
	Planes [6]Plane
}

// Extract the frustum planes from a column-major view-projection matrix
// using the Gribb/Hartmann method. Planes are normalized.
func ExtractFrustum(viewProj types.Mat4) Frustum {
	m := viewProj

	// row i of the matrix is (m[i], m[4+i], m[8+i], m[12+i])
	row := func(i int) [4]float32 {
		return [4]float32{m[i], m[4+i], m[8+i], m[12+i]}
	}
	r0, r1, r2, r3 := row(0), row(1), row(2), row(3)

	var f Frustum
	f.Planes[FrustumLeft] = makePlane(r3, r0, 1)
	f.Planes[FrustumRight] = makePlane(r3, r0, -1)
	f.Planes[FrustumBottom] = makePlane(r3, r1, 1)
	f.Planes[FrustumTop] = makePlane(r3, r1, -1)
	f.Planes[FrustumNear] = makePlane(r3, r2, 1)
	f.Planes[FrustumFar] = makePlane(r3, r2, -1)
	return f
}

// Build the plane r3 + sign*r and normalize it.
func makePlane(r3, r [4]float32, sign float32) Plane {
	p := Plane{
		Normal:   types.Vec3{r3[0] + sign*r[0], r3[1] + sign*r[1], r3[2] + sign*r[2]},
		Distance: r3[3] + sign*r[3],
	}

	length := float32(math.Sqrt(float64(p.Normal.Dot(p.Normal))))
	if length > 0 {
		invLen := 1.0 / length
		p.Normal = p.Normal.Mul(invLen)
		p.Distance *= invLen
	}
	return p
}

// Returns false if the box lies completely outside one of the planes. For
// each plane only the box corner furthest along the plane normal is tested.
func (f *Frustum) IntersectsAABB(bbox [2]types.Vec3) bool {
	for i := range f.Planes {
		p := &f.Planes[i]

		var corner types.Vec3
		for axis := 0; axis < 3; axis++ {
			if p.Normal[axis] < 0 {
				corner[axis] = bbox[0][axis]
			} else {
				corner[axis] = bbox[1][axis]
			}
		}
		if p.DistanceTo(corner) < 0 {
			return false
		}
	}
	return true
}
