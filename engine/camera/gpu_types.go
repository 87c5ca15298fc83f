package camera

import (
	"encoding/binary"
	"math"

	"github.com/ryanw/byd-go/common"
)

// GPUCameraUniform is the GPU-aligned representation of the camera uniform.
// Matches the WGSL CameraUniform struct layout exactly.
// Size: 80 bytes (std140 aligned).
type GPUCameraUniform struct {
	ViewProj       common.Mat4 // offset  0: combined view-projection matrix (mat4x4<f32>)
	CameraPosition common.Vec3 // offset 64: world-space camera position (vec3<f32>)
	_pad           float32     // offset 76: padding to 80 bytes
}

// GPUCameraUniformSize is the serialized size of GPUCameraUniform in bytes.
const GPUCameraUniformSize = 80

// Size returns the serialized size of the struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (80)
func (g *GPUCameraUniform) Size() int {
	return GPUCameraUniformSize
}

// Marshal serializes the uniform into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPUCameraUniform) Marshal() []byte {
	buf := make([]byte, g.Size())
	for i := range 16 {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(g.ViewProj[i]))
	}
	for i := range 3 {
		binary.LittleEndian.PutUint32(buf[64+i*4:], math.Float32bits(g.CameraPosition[i]))
	}
	binary.LittleEndian.PutUint32(buf[76:], 0) // _pad
	return buf
}

// NewGPUCameraUniform builds the uniform record from a camera's current
// state: projection * view plus the world-space position.
//
// Parameters:
//   - c: the camera to sample
//
// Returns:
//   - GPUCameraUniform: the upload-ready uniform record
func NewGPUCameraUniform(c Camera) GPUCameraUniform {
	return GPUCameraUniform{
		ViewProj:       c.Projection().Mul(c.View()),
		CameraPosition: c.Position(),
	}
}
