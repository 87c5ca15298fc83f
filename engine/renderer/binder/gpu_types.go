package binder

import (
	"encoding/binary"
	"math"

	"github.com/ryanw/byd-go/common"
)

// GPUObjectUniform is the GPU-aligned per-object uniform record. Matches the
// WGSL ObjectUniform struct layout exactly.
// Size: 80 bytes (std140 aligned).
type GPUObjectUniform struct {
	Model common.Mat4  // offset  0: model matrix (mat4x4<f32>)
	Color common.Color // offset 64: material color (vec4<f32>)
}

// GPUObjectUniformSize is the serialized size of GPUObjectUniform in bytes.
const GPUObjectUniformSize = 80

// Size returns the serialized size of the struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (80)
func (g *GPUObjectUniform) Size() int {
	return GPUObjectUniformSize
}

// Marshal serializes the uniform into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPUObjectUniform) Marshal() []byte {
	buf := make([]byte, g.Size())
	for i := range 16 {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(g.Model[i]))
	}
	for i := range 4 {
		binary.LittleEndian.PutUint32(buf[64+i*4:], math.Float32bits(g.Color[i]))
	}
	return buf
}
