package common

// Plane is a 3D plane in the form Normal . p + Distance = 0. The positive
// half-space is the inside for frustum planes.
type Plane struct {
	Normal   Vec3
	Distance float32
}

// SignedDistance returns the signed distance from a point to the plane.
// Positive means the point lies on the plane's inside.
func (p Plane) SignedDistance(point Vec3) float32 {
	return p.Normal.Dot(point) + p.Distance
}

// Frustum holds the six clipping planes of a view volume, oriented so the
// positive half-space of each plane is inside.
type Frustum struct {
	Planes [6]Plane
}

// Frustum plane indices.
const (
	FrustumLeft = iota
	FrustumRight
	FrustumBottom
	FrustumTop
	FrustumNear
	FrustumFar
)

// ExtractFrustum extracts frustum planes from a combined projection * view
// matrix using the Gribb/Hartmann method. The depth range is assumed to be
// [0, 1] as produced by Perspective.
//
// Parameters:
//   - viewProj: the combined projection * view matrix
//
// Returns:
//   - Frustum: the frustum with normalized planes
func ExtractFrustum(viewProj Mat4) Frustum {
	// Row i of the column-major matrix is {m[i], m[4+i], m[8+i], m[12+i]}.
	row := func(i int) [4]float32 {
		return [4]float32{viewProj[i], viewProj[4+i], viewProj[8+i], viewProj[12+i]}
	}
	r0, r1, r2, r3 := row(0), row(1), row(2), row(3)

	plane := func(a, b [4]float32, sub bool) Plane {
		var p Plane
		if sub {
			p = Plane{Normal: Vec3{a[0] - b[0], a[1] - b[1], a[2] - b[2]}, Distance: a[3] - b[3]}
		} else {
			p = Plane{Normal: Vec3{a[0] + b[0], a[1] + b[1], a[2] + b[2]}, Distance: a[3] + b[3]}
		}
		if length := p.Normal.Length(); length > 0 {
			p.Normal = p.Normal.Scale(1 / length)
			p.Distance /= length
		}
		return p
	}

	var f Frustum
	f.Planes[FrustumLeft] = plane(r3, r0, false)
	f.Planes[FrustumRight] = plane(r3, r0, true)
	f.Planes[FrustumBottom] = plane(r3, r1, false)
	f.Planes[FrustumTop] = plane(r3, r1, true)
	// Near clips at z' = 0 in WebGPU's [0, 1] depth range, so the near plane
	// is row 2 alone rather than the GL-style row3 + row2.
	f.Planes[FrustumNear] = plane(r2, [4]float32{}, false)
	f.Planes[FrustumFar] = plane(r3, r2, true)
	return f
}

// ContainsSphere reports whether a bounding sphere intersects the frustum.
// Spheres touching any plane count as inside.
//
// Parameters:
//   - center: the sphere center in world space
//   - radius: the sphere radius
//
// Returns:
//   - bool: false only when the sphere is fully outside some plane
func (f Frustum) ContainsSphere(center Vec3, radius float32) bool {
	for _, p := range f.Planes {
		if p.SignedDistance(center) < -radius {
			return false
		}
	}
	return true
}
