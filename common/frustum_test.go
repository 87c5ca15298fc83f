package common

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
)

// testFrustum is a 90 degree square frustum at the origin looking down +Z,
// near 0.1, far 100. At depth z the visible half-width is exactly z.
func testFrustum() Frustum {
	return ExtractFrustum(Perspective(math32.Pi/2, 1, 0.1, 100))
}

func TestFrustumContainsPointsInView(t *testing.T) {
	f := testFrustum()

	assert.True(t, f.ContainsSphere(Vec3{0, 0, 10}, 0))
	assert.True(t, f.ContainsSphere(Vec3{5, 5, 10}, 0), "inside the corner at depth 10")
	assert.True(t, f.ContainsSphere(Vec3{0, 0, 0.2}, 0), "just past the near plane")
}

func TestFrustumRejectsPointsOutsideView(t *testing.T) {
	f := testFrustum()

	assert.False(t, f.ContainsSphere(Vec3{0, 0, -10}, 1), "behind the camera")
	assert.False(t, f.ContainsSphere(Vec3{0, 0, 200}, 1), "beyond the far plane")
	assert.False(t, f.ContainsSphere(Vec3{50, 0, 10}, 1), "outside the right plane")
	assert.False(t, f.ContainsSphere(Vec3{0, -50, 10}, 1), "outside the bottom plane")
}

func TestFrustumSphereRadiusExtendsReach(t *testing.T) {
	f := testFrustum()

	// Center is outside the right plane at depth 10 but the sphere overlaps.
	assert.False(t, f.ContainsSphere(Vec3{14, 0, 10}, 1))
	assert.True(t, f.ContainsSphere(Vec3{14, 0, 10}, 10))

	// Center behind the near plane, sphere pokes through.
	assert.True(t, f.ContainsSphere(Vec3{0, 0, -1}, 2))
}

func TestFrustumFollowsView(t *testing.T) {
	// Camera at z=20 looking back toward the origin.
	view := LookAt(Vec3{0, 0, 20}, Vec3{0, 0, 0}, Vec3{0, 1, 0})
	proj := Perspective(math32.Pi/2, 1, 0.1, 100)
	f := ExtractFrustum(proj.Mul(view))

	assert.True(t, f.ContainsSphere(Vec3{0, 0, 0}, 1), "origin is in front of this camera")
	assert.False(t, f.ContainsSphere(Vec3{0, 0, 40}, 1), "behind this camera")
}

func TestExtractFrustumNormalizesPlanes(t *testing.T) {
	f := testFrustum()
	for i, p := range f.Planes {
		assert.InDelta(t, 1.0, p.Normal.Length(), 1e-5, "plane %d normal not unit length", i)
	}
}
