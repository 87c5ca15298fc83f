// Package camera provides the view/projection source consumed by the
// renderer. The engine core only depends on the Camera interface; the free
// camera here is the default implementation.
package camera

import (
	"sync"

	"github.com/chewxy/math32"

	"github.com/ryanw/byd-go/common"
)

type freeCamera struct {
	mu *sync.Mutex

	position common.Vec3
	yaw      float32
	pitch    float32

	fov    float32
	aspect float32
	near   float32
	far    float32
}

// Camera exposes the matrices the renderer reads once per frame. View
// transforms world space to camera space; Projection transforms camera
// space to WebGPU clip space.
type Camera interface {
	// View returns the current view matrix.
	//
	// Returns:
	//   - common.Mat4: the view matrix (column-major)
	View() common.Mat4

	// Projection returns the current projection matrix.
	//
	// Returns:
	//   - common.Mat4: the projection matrix (column-major)
	Projection() common.Mat4

	// Position returns the camera's world-space position.
	//
	// Returns:
	//   - common.Vec3: the camera position
	Position() common.Vec3

	// SetPosition moves the camera to a world-space position.
	//
	// Parameters:
	//   - p: the new camera position
	SetPosition(p common.Vec3)

	// Translate moves the camera relative to its current orientation:
	// +z is forward, +x is right, +y is up.
	//
	// Parameters:
	//   - x, y, z: movement along the camera's local axes
	Translate(x, y, z float32)

	// Rotate adjusts the camera's yaw and pitch by the given deltas in
	// radians. Pitch is clamped short of the poles.
	//
	// Parameters:
	//   - yaw: rotation around the world Y axis
	//   - pitch: rotation around the camera's local X axis
	Rotate(yaw, pitch float32)

	// SetAspect updates the aspect ratio after a surface resize.
	//
	// Parameters:
	//   - aspect: viewport width divided by height
	SetAspect(aspect float32)
}

var _ Camera = &freeCamera{}

// NewFreeCamera creates a free-fly camera configured with the provided
// options. Defaults: origin position, 45 degree fov, aspect 1, near 0.1,
// far 1000.
//
// Parameters:
//   - options: functional options for camera configuration
//
// Returns:
//   - Camera: the new camera
func NewFreeCamera(options ...CameraBuilderOption) Camera {
	c := &freeCamera{
		mu:     &sync.Mutex{},
		fov:    math32.Pi / 4,
		aspect: 1.0,
		near:   0.1,
		far:    1000.0,
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

func (c *freeCamera) View() common.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()

	forward := c.forwardLocked()
	center := c.position.Add(forward)
	return common.LookAt(c.position, center, common.Vec3{0, 1, 0})
}

func (c *freeCamera) Projection() common.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return common.Perspective(c.fov, c.aspect, c.near, c.far)
}

func (c *freeCamera) Position() common.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.position
}

func (c *freeCamera) SetPosition(p common.Vec3) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.position = p
}

func (c *freeCamera) Translate(x, y, z float32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	forward := c.forwardLocked()
	right := common.Vec3{0, 1, 0}.Cross(forward).Normalize()
	up := forward.Cross(right)

	c.position = c.position.
		Add(right.Scale(x)).
		Add(up.Scale(y)).
		Add(forward.Scale(z))
}

func (c *freeCamera) Rotate(yaw, pitch float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.yaw += yaw
	limit := math32.Pi/2 - 0.01
	c.pitch = common.Clamp(c.pitch+pitch, -limit, limit)
}

func (c *freeCamera) SetAspect(aspect float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if aspect > 0 {
		c.aspect = aspect
	}
}

// forwardLocked returns the unit forward vector for the current yaw/pitch.
// Yaw 0, pitch 0 looks down +Z. Callers must hold mu.
func (c *freeCamera) forwardLocked() common.Vec3 {
	cp := math32.Cos(c.pitch)
	return common.Vec3{
		math32.Sin(c.yaw) * cp,
		math32.Sin(c.pitch),
		math32.Cos(c.yaw) * cp,
	}
}
