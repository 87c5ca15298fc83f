package geometry

import (
	"encoding/binary"
	"math"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/ryanw/byd-go/common"
)

// Vertex is implemented by every vertex format the engine can upload.
// Stride and Attributes describe the GPU-side layout; AppendTo serializes
// one vertex into the staging byte slice. Field order and padding are
// declared once here and reused for every upload, so the layout stays
// auditable in a single place.
type Vertex interface {
	// Stride returns the byte size of one serialized vertex.
	Stride() uint64

	// Attributes returns the vertex attribute layout matching AppendTo's
	// serialization order.
	Attributes() []wgpu.VertexAttribute

	// AppendTo appends the serialized vertex to dst and returns the
	// extended slice.
	AppendTo(dst []byte) []byte
}

func appendFloat32(dst []byte, v float32) []byte {
	return binary.LittleEndian.AppendUint32(dst, math.Float32bits(v))
}

// SimpleVertex carries a position and an RGBA color. Used by flat-color and
// line geometry.
type SimpleVertex struct {
	Position common.Vec3
	Color    common.Color
}

func (v SimpleVertex) position() common.Vec3 {
	return v.Position
}

func (v SimpleVertex) Stride() uint64 {
	return 7 * 4
}

func (v SimpleVertex) Attributes() []wgpu.VertexAttribute {
	return []wgpu.VertexAttribute{
		{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
		{Format: wgpu.VertexFormatFloat32x4, Offset: 12, ShaderLocation: 1},
	}
}

func (v SimpleVertex) AppendTo(dst []byte) []byte {
	dst = appendFloat32(dst, v.Position[0])
	dst = appendFloat32(dst, v.Position[1])
	dst = appendFloat32(dst, v.Position[2])
	dst = appendFloat32(dst, v.Color[0])
	dst = appendFloat32(dst, v.Color[1])
	dst = appendFloat32(dst, v.Color[2])
	dst = appendFloat32(dst, v.Color[3])
	return dst
}

// PrimitiveVertex carries position, normal, and texture coordinates. Used by
// textured and lit geometry.
type PrimitiveVertex struct {
	Position common.Vec3
	Normal   common.Vec3
	UV       [2]float32
}

func (v PrimitiveVertex) position() common.Vec3 {
	return v.Position
}

func (v PrimitiveVertex) Stride() uint64 {
	return 8 * 4
}

func (v PrimitiveVertex) Attributes() []wgpu.VertexAttribute {
	return []wgpu.VertexAttribute{
		{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
		{Format: wgpu.VertexFormatFloat32x3, Offset: 12, ShaderLocation: 1},
		{Format: wgpu.VertexFormatFloat32x2, Offset: 24, ShaderLocation: 2},
	}
}

func (v PrimitiveVertex) AppendTo(dst []byte) []byte {
	dst = appendFloat32(dst, v.Position[0])
	dst = appendFloat32(dst, v.Position[1])
	dst = appendFloat32(dst, v.Position[2])
	dst = appendFloat32(dst, v.Normal[0])
	dst = appendFloat32(dst, v.Normal[1])
	dst = appendFloat32(dst, v.Normal[2])
	dst = appendFloat32(dst, v.UV[0])
	dst = appendFloat32(dst, v.UV[1])
	return dst
}

// QuadVertex carries a clip-space position and texture coordinates. Used by
// the full-screen composite pass.
type QuadVertex struct {
	Position [2]float32
	UV       [2]float32
}

func (v QuadVertex) Stride() uint64 {
	return 4 * 4
}

func (v QuadVertex) Attributes() []wgpu.VertexAttribute {
	return []wgpu.VertexAttribute{
		{Format: wgpu.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
		{Format: wgpu.VertexFormatFloat32x2, Offset: 8, ShaderLocation: 1},
	}
}

func (v QuadVertex) AppendTo(dst []byte) []byte {
	dst = appendFloat32(dst, v.Position[0])
	dst = appendFloat32(dst, v.Position[1])
	dst = appendFloat32(dst, v.UV[0])
	dst = appendFloat32(dst, v.UV[1])
	return dst
}
