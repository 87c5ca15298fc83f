// Package geometry manages CPU-side vertex arrays and their GPU buffer
// twins. Buffers are allocated lazily at mount time and always reflect the
// current vertex array: changing vertices frees the stale buffer so the next
// allocation uploads fresh data. Partial patching of a live buffer is never
// performed.
package geometry

import (
	"errors"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/ryanw/byd-go/common"
	"github.com/ryanw/byd-go/engine/logger"
)

// ErrNoVertices indicates an allocation attempt on empty geometry.
var ErrNoVertices = errors.New("geometry has no vertices")

// BufferAllocator is the slice of the renderer geometry needs for GPU
// buffer lifecycle. The renderer satisfies it.
type BufferAllocator interface {
	// InitVertexBuffer creates a GPU vertex buffer initialized with data.
	InitVertexBuffer(label string, data []byte) (*wgpu.Buffer, error)

	// ReleaseBuffer destroys a buffer previously created by
	// InitVertexBuffer. Passing nil is a no-op.
	ReleaseBuffer(buf *wgpu.Buffer)
}

// Geometry is an ordered vertex sequence with a lazily allocated GPU vertex
// buffer. Implementations are created by New and are not safe for concurrent
// use.
type Geometry interface {
	// VertexCount returns the number of vertices.
	VertexCount() uint32

	// Layout returns the vertex buffer layout for pipeline creation.
	Layout() wgpu.VertexBufferLayout

	// Marshal serializes all vertices into upload-ready bytes.
	Marshal() []byte

	// BoundingRadius returns the radius of the smallest origin-centered
	// sphere enclosing every vertex position, in model space. Used for
	// frustum culling.
	BoundingRadius() float32

	// Buffer returns the GPU buffer, or nil when not allocated.
	Buffer() *wgpu.Buffer

	// Allocated reports whether a GPU buffer currently backs the vertices.
	Allocated() bool

	// Allocate uploads the vertex array into a fresh GPU buffer. Any
	// existing buffer is freed first so the GPU copy always matches the
	// CPU array.
	Allocate(alloc BufferAllocator) error

	// Free releases the GPU buffer if present. Safe to call repeatedly.
	Free(alloc BufferAllocator)
}

// positioned is implemented by vertex formats that carry a model-space
// position, which is what bounding computation needs.
type positioned interface {
	position() common.Vec3
}

type geometry[V Vertex] struct {
	label    string
	vertices []V
	buffer   *wgpu.Buffer
	radius   float32
}

var _ Geometry = &geometry[SimpleVertex]{}

// New creates geometry over the given vertex slice. The slice is owned by
// the geometry after the call.
//
// Parameters:
//   - label: debug label applied to the GPU buffer
//   - vertices: the vertex array to manage
//
// Returns:
//   - Geometry: the new geometry, GPU buffer unallocated
func New[V Vertex](label string, vertices []V) Geometry {
	return &geometry[V]{label: label, vertices: vertices, radius: -1}
}

func (g *geometry[V]) VertexCount() uint32 {
	return uint32(len(g.vertices))
}

func (g *geometry[V]) Layout() wgpu.VertexBufferLayout {
	var zero V
	return wgpu.VertexBufferLayout{
		ArrayStride: zero.Stride(),
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes:  zero.Attributes(),
	}
}

func (g *geometry[V]) Marshal() []byte {
	if len(g.vertices) == 0 {
		return nil
	}
	dst := make([]byte, 0, uint64(len(g.vertices))*g.vertices[0].Stride())
	for _, v := range g.vertices {
		dst = v.AppendTo(dst)
	}
	return dst
}

func (g *geometry[V]) BoundingRadius() float32 {
	if g.radius >= 0 {
		return g.radius
	}
	var r float32
	for _, v := range g.vertices {
		if p, ok := any(v).(positioned); ok {
			if l := p.position().Length(); l > r {
				r = l
			}
		}
	}
	g.radius = r
	return r
}

func (g *geometry[V]) Buffer() *wgpu.Buffer {
	return g.buffer
}

func (g *geometry[V]) Allocated() bool {
	return g.buffer != nil
}

func (g *geometry[V]) Allocate(alloc BufferAllocator) error {
	if len(g.vertices) == 0 {
		return ErrNoVertices
	}
	g.Free(alloc)

	buf, err := alloc.InitVertexBuffer(g.label, g.Marshal())
	if err != nil {
		return err
	}
	g.buffer = buf
	logger.Debug("geometry allocated", "label", g.label, "vertices", len(g.vertices))
	return nil
}

func (g *geometry[V]) Free(alloc BufferAllocator) {
	if g.buffer == nil {
		return
	}
	alloc.ReleaseBuffer(g.buffer)
	g.buffer = nil
	logger.Debug("geometry freed", "label", g.label)
}
