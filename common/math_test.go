package common

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
)

const epsilon = 1e-5

func matNear(t *testing.T, want, got Mat4) {
	t.Helper()
	for i := range want {
		assert.InDelta(t, want[i], got[i], epsilon, "element %d", i)
	}
}

func TestIdentityMul(t *testing.T) {
	m := Translation(1, 2, 3).Mul(RotationY(0.7))
	matNear(t, m, Identity().Mul(m))
	matNear(t, m, m.Mul(Identity()))
}

func TestTranslationTransformsPoint(t *testing.T) {
	m := Translation(1, -2, 3)
	p := m.TransformPoint(Vec3{10, 10, 10})
	assert.InDelta(t, 11.0, p[0], epsilon)
	assert.InDelta(t, 8.0, p[1], epsilon)
	assert.InDelta(t, 13.0, p[2], epsilon)
}

func TestRotationYQuarterTurn(t *testing.T) {
	m := RotationY(math32.Pi / 2)
	p := m.TransformPoint(Vec3{1, 0, 0})
	assert.InDelta(t, 0.0, p[0], epsilon)
	assert.InDelta(t, 0.0, p[1], epsilon)
	assert.InDelta(t, -1.0, p[2], epsilon)
}

func TestPerspectiveFlipsHandedness(t *testing.T) {
	m := Perspective(math32.Pi/4, 1.0, 0.1, 1000.0)
	// A point in front of a left-handed camera sits at +Z in world space.
	// After projection its clip-space w must be positive.
	w := m[3]*0 + m[7]*0 + m[11]*10 + m[15]
	assert.Greater(t, w, float32(0))
}

func TestLookAtCenterProjectsToOrigin(t *testing.T) {
	eye := Vec3{0, 0, -5}
	center := Vec3{0, 0, 0}
	view := LookAt(eye, center, Vec3{0, 1, 0})
	p := view.TransformPoint(center)
	assert.InDelta(t, 0.0, p[0], epsilon)
	assert.InDelta(t, 0.0, p[1], epsilon)
	assert.InDelta(t, 5.0, math32.Abs(p[2]), epsilon)
}

func TestVecOps(t *testing.T) {
	v := Vec3{3, 0, 4}
	n := v.Normalize()
	assert.InDelta(t, 1.0, math32.Sqrt(n.Dot(n)), epsilon)

	x := Vec3{1, 0, 0}
	y := Vec3{0, 1, 0}
	assert.Equal(t, Vec3{0, 0, 1}, x.Cross(y))

	assert.Equal(t, Vec3{0, 0, 0}, Vec3{}.Normalize())
}

func TestClamp(t *testing.T) {
	assert.Equal(t, float32(1), Clamp(5, -1, 1))
	assert.Equal(t, float32(-1), Clamp(-5, -1, 1))
	assert.Equal(t, float32(0.5), Clamp(0.5, -1, 1))
}

func TestNextPow2(t *testing.T) {
	cases := map[uint64]uint64{0: 1, 1: 1, 2: 2, 3: 4, 255: 256, 256: 256, 257: 512}
	for in, want := range cases {
		assert.Equal(t, want, NextPow2(in), "NextPow2(%d)", in)
	}
}
