package geometry

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAllocator counts buffer lifecycle calls without touching a GPU.
type fakeAllocator struct {
	allocs   int
	releases int
	failNext bool
}

func (f *fakeAllocator) InitVertexBuffer(label string, data []byte) (*wgpu.Buffer, error) {
	if f.failNext {
		f.failNext = false
		return nil, assert.AnError
	}
	f.allocs++
	return &wgpu.Buffer{}, nil
}

func (f *fakeAllocator) ReleaseBuffer(buf *wgpu.Buffer) {
	if buf != nil {
		f.releases++
	}
}

func TestAllocateFreesBeforeReallocating(t *testing.T) {
	alloc := &fakeAllocator{}
	g := New("test", Cube())

	require.NoError(t, g.Allocate(alloc))
	assert.True(t, g.Allocated())
	assert.Equal(t, 1, alloc.allocs)
	assert.Equal(t, 0, alloc.releases)

	// Second allocation must free the stale buffer first.
	require.NoError(t, g.Allocate(alloc))
	assert.Equal(t, 2, alloc.allocs)
	assert.Equal(t, 1, alloc.releases)
}

func TestFreeIsIdempotent(t *testing.T) {
	alloc := &fakeAllocator{}
	g := New("test", Axes(1))
	require.NoError(t, g.Allocate(alloc))

	g.Free(alloc)
	g.Free(alloc)
	assert.False(t, g.Allocated())
	assert.Nil(t, g.Buffer())
	assert.Equal(t, 1, alloc.releases)
}

func TestAllocateEmptyGeometry(t *testing.T) {
	alloc := &fakeAllocator{}
	g := New("empty", []SimpleVertex{})
	assert.ErrorIs(t, g.Allocate(alloc), ErrNoVertices)
	assert.Equal(t, 0, alloc.allocs)
}

func TestAllocateFailureLeavesUnallocated(t *testing.T) {
	alloc := &fakeAllocator{failNext: true}
	g := New("test", Cube())
	assert.Error(t, g.Allocate(alloc))
	assert.False(t, g.Allocated())
}

func TestMarshalSize(t *testing.T) {
	tests := []struct {
		name  string
		g     Geometry
		verts int
	}{
		{"cube", New("c", Cube()), 36},
		{"axes", New("a", Axes(2)), 6},
		{"quad", New("q", FullScreenQuad()), 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, uint32(tt.verts), tt.g.VertexCount())
			layout := tt.g.Layout()
			data := tt.g.Marshal()
			assert.Equal(t, uint64(tt.verts)*layout.ArrayStride, uint64(len(data)))
		})
	}
}

func TestCubeVertices(t *testing.T) {
	verts := Cube()
	require.Len(t, verts, 36)
	for i, v := range verts {
		lenSq := v.Normal[0]*v.Normal[0] + v.Normal[1]*v.Normal[1] + v.Normal[2]*v.Normal[2]
		assert.InDelta(t, 1.0, lenSq, 1e-6, "vertex %d normal not unit", i)
		for _, uv := range v.UV {
			assert.GreaterOrEqual(t, uv, float32(0), "vertex %d", i)
			assert.LessOrEqual(t, uv, float32(1), "vertex %d", i)
		}
	}
}

func TestBoundingRadius(t *testing.T) {
	cube := New("cube", Cube())
	assert.InDelta(t, math32.Sqrt(3), cube.BoundingRadius(), 1e-5, "unit cube corner distance")

	axes := New("axes", Axes(2))
	assert.InDelta(t, 2.0, axes.BoundingRadius(), 1e-5)

	empty := New("empty", []SimpleVertex{})
	assert.Zero(t, empty.BoundingRadius())
}

func TestVertexLayouts(t *testing.T) {
	simple := SimpleVertex{}
	assert.Equal(t, uint64(28), simple.Stride())
	attrs := simple.Attributes()
	require.Len(t, attrs, 2)
	assert.Equal(t, wgpu.VertexFormatFloat32x3, attrs[0].Format)
	assert.Equal(t, wgpu.VertexFormatFloat32x4, attrs[1].Format)
	assert.Equal(t, uint64(12), attrs[1].Offset)

	prim := PrimitiveVertex{}
	assert.Equal(t, uint64(32), prim.Stride())
	require.Len(t, prim.Attributes(), 3)

	quad := QuadVertex{}
	assert.Equal(t, uint64(16), quad.Stride())
}
