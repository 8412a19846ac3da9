package types

import "github.com/go-gl/mathgl/mgl32"

// A rotation quaternion. Conversions go through mgl32 which also defines the
// multiplication order (q1.Mul(q2) applies q2 first).
type Quat struct {
	V Vec3
	W float32
}

// Create identity quaternion.
func QuatIdent() Quat {
	return Quat{W: 1.0}
}

// Create a quaternion from an axis vector and an angle (radians).
func QuatFromAxisAngle(axis Vec3, angle float32) Quat {
	return fromMgl(mgl32.QuatRotate(angle, mgl32.Vec3(axis)))
}

// Create a quaternion from euler angles (degrees) applied in X, Y, Z order.
// This matches the rotation order used by scene objects whose transforms are
// authored as pitch/yaw/roll triplets.
func QuatFromEuler(degrees Vec3) Quat {
	rx := QuatFromAxisAngle(Vec3{1, 0, 0}, mgl32.DegToRad(degrees[0]))
	ry := QuatFromAxisAngle(Vec3{0, 1, 0}, mgl32.DegToRad(degrees[1]))
	rz := QuatFromAxisAngle(Vec3{0, 0, 1}, mgl32.DegToRad(degrees[2]))
	return rx.Mul(ry).Mul(rz)
}

// Rotates a vector by the rotation this quaternion represents.
func (q1 Quat) Rotate(v Vec3) Vec3 {
	return Vec3(q1.mgl().Rotate(mgl32.Vec3(v)))
}

// Multiplies two quaternions. Multiplication is NOT commutative.
func (q1 Quat) Mul(q2 Quat) Quat {
	return fromMgl(q1.mgl().Mul(q2.mgl()))
}

// Normalizes the quaternion, returning its versor (unit quaternion).
func (q1 Quat) Normalize() Quat {
	if q1.W == 0 && q1.V == (Vec3{}) {
		return QuatIdent()
	}
	return fromMgl(q1.mgl().Normalize())
}

// Returns the homogeneous 3D rotation matrix corresponding to the quaternion.
func (q1 Quat) Mat4() Mat4 {
	return Mat4(q1.mgl().Mat4())
}

func (q1 Quat) mgl() mgl32.Quat {
	return mgl32.Quat{W: q1.W, V: mgl32.Vec3(q1.V)}
}

func fromMgl(q mgl32.Quat) Quat {
	return Quat{V: Vec3(q.V), W: q.W}
}
