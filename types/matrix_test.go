package types

import (
	"math"
	"testing"
)

func TestMatrixInverse(t *testing.T) {
	m := Translate4(Vec3{1, -2, 3}).Mul4(QuatFromEuler(Vec3{30, 45, 10}).Mat4()).Mul4(Scale4(Vec3{2, 2, 0.5}))

	res := m.Mul4(m.Inv())
	if !res.ApproxEqual(Ident4(), 1e-5) {
		t.Fatalf("expected m * m^-1 to be the identity; got %v", res)
	}
}

func TestMatrixApproxEqual(t *testing.T) {
	specs := []struct {
		idx   int
		delta float32
		exp   bool
	}{
		// Entries that should be zero must be compared by absolute difference
		{1, 1.5e-8, true},
		{4, -5.9604645e-08, true},
		{0, -6e-8, true},
		{15, 2e-5, false},
		{14, -2e-5, false},
	}

	for index, spec := range specs {
		m := Ident4()
		m[spec.idx] += spec.delta
		if got := m.ApproxEqual(Ident4(), 1e-5); got != spec.exp {
			t.Errorf("[spec %d] expected ApproxEqual to return %t; got %t", index, spec.exp, got)
		}
	}
}

func TestMatrixTransformPoint(t *testing.T) {
	m := Translate4(Vec3{1, 2, 3}).Mul4(Scale4(Vec3{2, 2, 2}))
	got := m.TransformPoint(Vec3{1, 1, 1})
	exp := Vec3{3, 4, 5}
	if got != exp {
		t.Fatalf("expected transformed point to be %v; got %v", exp, got)
	}

	if tr := m.Translation(); tr != (Vec3{1, 2, 3}) {
		t.Fatalf("expected translation {1 2 3}; got %v", tr)
	}
}

func TestQuaternionRotate(t *testing.T) {
	q := QuatFromAxisAngle(Vec3{0, 1, 0}, math.Pi/2)
	got := q.Rotate(Vec3{1, 0, 0})
	exp := Vec3{0, 0, -1}
	for i := 0; i < 3; i++ {
		if math.Abs(float64(got[i]-exp[i])) > 1e-5 {
			t.Fatalf("expected rotated vector to be %v; got %v", exp, got)
		}
	}

	// The matrix form must agree with the quaternion form
	got = q.Mat4().TransformPoint(Vec3{1, 0, 0})
	for i := 0; i < 3; i++ {
		if math.Abs(float64(got[i]-exp[i])) > 1e-5 {
			t.Fatalf("expected matrix rotated vector to be %v; got %v", exp, got)
		}
	}
}

func TestQuaternionNormalizeZero(t *testing.T) {
	if q := (Quat{}).Normalize(); q != QuatIdent() {
		t.Fatalf("expected zero quaternion to normalize to identity; got %v", q)
	}
}
