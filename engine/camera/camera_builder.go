package camera

import (
	"github.com/ryanw/byd-go/common"
)

// CameraBuilderOption configures a camera during construction.
type CameraBuilderOption func(*freeCamera)

// WithPosition sets the initial world-space position.
//
// Parameters:
//   - p: the starting position
//
// Returns:
//   - CameraBuilderOption: the option to apply
func WithPosition(p common.Vec3) CameraBuilderOption {
	return func(c *freeCamera) {
		c.position = p
	}
}

// WithFov sets the vertical field of view in radians.
//
// Parameters:
//   - fov: field of view (must be > 0)
//
// Returns:
//   - CameraBuilderOption: the option to apply
func WithFov(fov float32) CameraBuilderOption {
	return func(c *freeCamera) {
		if fov > 0 {
			c.fov = fov
		}
	}
}

// WithAspect sets the initial aspect ratio.
//
// Parameters:
//   - aspect: viewport width divided by height (must be > 0)
//
// Returns:
//   - CameraBuilderOption: the option to apply
func WithAspect(aspect float32) CameraBuilderOption {
	return func(c *freeCamera) {
		if aspect > 0 {
			c.aspect = aspect
		}
	}
}

// WithClipPlanes sets the near and far clipping plane distances.
//
// Parameters:
//   - near: near plane distance (must be > 0)
//   - far: far plane distance (must be > near)
//
// Returns:
//   - CameraBuilderOption: the option to apply
func WithClipPlanes(near, far float32) CameraBuilderOption {
	return func(c *freeCamera) {
		if near > 0 && far > near {
			c.near = near
			c.far = far
		}
	}
}
