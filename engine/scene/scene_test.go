package scene

import (
	"sync"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryanw/byd-go/common"
	"github.com/ryanw/byd-go/engine/camera"
	"github.com/ryanw/byd-go/engine/geometry"
	"github.com/ryanw/byd-go/engine/material"
	"github.com/ryanw/byd-go/engine/renderer"
	"github.com/ryanw/byd-go/engine/renderer/binder"
	"github.com/ryanw/byd-go/engine/renderer/pipeline"
)

// fakeRenderer records buffer lifecycle, uniform writes, and draws so scene
// behavior can be verified without a GPU.
type fakeRenderer struct {
	mu         sync.Mutex
	allocs     int
	allocCalls int
	failAllocAt int // 1-based call index that fails once; 0 never fails
	releases   int
	writes     []binder.BufferWrite
	draws      []renderer.DrawCall
}

func (f *fakeRenderer) Pipeline(key string) pipeline.Pipeline      { return nil }
func (f *fakeRenderer) RegisterPipelines(ps ...pipeline.Pipeline)  {}
func (f *fakeRenderer) Alignment() uint64                          { return 256 }
func (f *fakeRenderer) ReleaseBuffer(buf *wgpu.Buffer)             { f.mu.Lock(); f.releases++; f.mu.Unlock() }
func (f *fakeRenderer) BeginFrame() error                          { return nil }
func (f *fakeRenderer) EndFrame() error                            { return nil }
func (f *fakeRenderer) Present()                                   {}
func (f *fakeRenderer) Resize(width, height int)                   {}
func (f *fakeRenderer) SetPresentMode(mode renderer.PresentMode)   {}
func (f *fakeRenderer) ReadPixels() ([]byte, int, int, error)      { return nil, 0, 0, nil }
func (f *fakeRenderer) Release()                                   {}

func (f *fakeRenderer) InitVertexBuffer(label string, data []byte) (*wgpu.Buffer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.allocCalls++
	if f.allocCalls == f.failAllocAt {
		return nil, assert.AnError
	}
	f.allocs++
	return &wgpu.Buffer{}, nil
}

func (f *fakeRenderer) RegisterTexture(id uint64, width, height uint32, pixels []byte) error {
	return nil
}

func (f *fakeRenderer) WriteBuffers(writes []binder.BufferWrite) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes = append(f.writes, writes...)
}

func (f *fakeRenderer) Draw(call renderer.DrawCall) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.draws = append(f.draws, call)
	return nil
}

var _ renderer.Renderer = &fakeRenderer{}

func newTestScene(t *testing.T, opts ...SceneBuilderOption) (Scene, *fakeRenderer) {
	t.Helper()
	r := &fakeRenderer{}
	cam := camera.NewFreeCamera()
	return NewScene("test", cam, r, opts...), r
}

func cubeMesh(opts ...MeshBuilderOption) Mesh {
	return NewMesh(geometry.New("cube", geometry.Cube()), material.NewBasic(common.Color{1, 1, 1, 1}), opts...)
}

func TestAddAssignsMonotonicIDs(t *testing.T) {
	s, _ := newTestScene(t)

	var prev uint64
	for i := 0; i < 5; i++ {
		m := cubeMesh()
		id, err := s.Add(m)
		require.NoError(t, err)
		assert.NotZero(t, id)
		assert.Greater(t, id, prev)
		assert.Equal(t, id, m.ID())
		prev = id
	}
	assert.Equal(t, 5, s.Count())
}

func TestIDsNeverReusedAfterRemove(t *testing.T) {
	s, _ := newTestScene(t)

	first, err := s.Add(cubeMesh())
	require.NoError(t, err)
	require.NoError(t, s.Resolve())
	s.Remove(first)
	require.NoError(t, s.Resolve())

	second, err := s.Add(cubeMesh())
	require.NoError(t, err)
	assert.Greater(t, second, first)
}

func TestResolveMountsAndUnmounts(t *testing.T) {
	s, r := newTestScene(t)

	id, err := s.Add(cubeMesh())
	require.NoError(t, err)
	assert.Zero(t, r.allocs, "nothing mounts before Resolve")

	require.NoError(t, s.Resolve())
	assert.Equal(t, 1, r.allocs)
	assert.Zero(t, r.releases)

	s.Remove(id)
	assert.Equal(t, 0, r.releases, "nothing unmounts before Resolve")

	require.NoError(t, s.Resolve())
	assert.Equal(t, 1, r.releases, "every mount is paired with one unmount")
}

func TestRemoveIsIdempotent(t *testing.T) {
	s, r := newTestScene(t)

	id, err := s.Add(cubeMesh())
	require.NoError(t, err)
	require.NoError(t, s.Resolve())

	s.Remove(id)
	s.Remove(id)
	s.Remove(9999)
	require.NoError(t, s.Resolve())

	assert.Equal(t, 1, r.releases)
	assert.Zero(t, s.Count())
}

func TestResolveRetriesFailedMountWithoutRemounting(t *testing.T) {
	s, r := newTestScene(t, WithCapacity(2))
	r.failAllocAt = 2

	first, err := s.Add(cubeMesh())
	require.NoError(t, err)
	second, err := s.Add(cubeMesh())
	require.NoError(t, err)

	require.Error(t, s.Resolve(), "second mount fails")
	assert.Equal(t, 1, r.allocs, "first object mounted, second did not")

	// The failed id stays queued; the mounted one must not mount again.
	require.NoError(t, s.Resolve())
	assert.Equal(t, 2, r.allocs)

	s.PrepareFrame()
	offsets := make(map[uint64]bool)
	for _, w := range r.writes {
		if w.Target == binder.TargetObjectArray {
			offsets[w.Offset] = true
		}
	}
	assert.True(t, offsets[0], "first object keeps its original slot")
	assert.True(t, offsets[256], "recovered object mounts into the freed slot")

	s.Remove(first)
	s.Remove(second)
	require.NoError(t, s.Resolve())
	assert.Equal(t, 2, r.releases, "exactly one unmount per mounted object")
}

func TestAddThenRemoveBeforeResolveNeverMounts(t *testing.T) {
	s, r := newTestScene(t)

	id, err := s.Add(cubeMesh())
	require.NoError(t, err)
	s.Remove(id)

	require.NoError(t, s.Resolve())
	assert.Zero(t, r.allocs, "cancelled add must not allocate")
	assert.Zero(t, r.releases, "cancelled add must not free")
	assert.Nil(t, s.Get(id))
}

func TestGetAfterRemoveReturnsNil(t *testing.T) {
	s, _ := newTestScene(t)

	id, err := s.Add(cubeMesh())
	require.NoError(t, err)
	require.NoError(t, s.Resolve())
	require.NotNil(t, s.Get(id))

	s.Remove(id)
	assert.Nil(t, s.Get(id), "removed objects are gone before the unmount resolves")
}

func TestCapacityFailsFast(t *testing.T) {
	s, _ := newTestScene(t, WithCapacity(2))

	_, err := s.Add(cubeMesh())
	require.NoError(t, err)
	_, err = s.Add(cubeMesh())
	require.NoError(t, err)

	_, err = s.Add(cubeMesh())
	assert.ErrorIs(t, err, ErrSceneFull)

	// Removing frees capacity even before the unmount resolves.
	s.Remove(1)
	_, err = s.Add(cubeMesh())
	assert.NoError(t, err)
}

func TestPrepareFrameWritesDistinctAlignedOffsets(t *testing.T) {
	s, r := newTestScene(t)

	for i := 0; i < 3; i++ {
		_, err := s.Add(cubeMesh(WithPosition(float32(i), 0, 0)))
		require.NoError(t, err)
	}
	require.NoError(t, s.Resolve())

	s.PrepareFrame()

	var cameraWrites, objectWrites int
	offsets := make(map[uint64]bool)
	for _, w := range r.writes {
		switch w.Target {
		case binder.TargetCamera:
			cameraWrites++
			assert.Zero(t, w.Offset)
			assert.Len(t, w.Data, 80)
		case binder.TargetObjectArray:
			objectWrites++
			assert.Zero(t, w.Offset%256, "object offset %d not aligned", w.Offset)
			assert.False(t, offsets[w.Offset], "offset %d written twice", w.Offset)
			offsets[w.Offset] = true
			assert.Len(t, w.Data, binder.GPUObjectUniformSize)
		}
	}
	assert.Equal(t, 1, cameraWrites, "camera uniform written exactly once per frame")
	assert.Equal(t, 3, objectWrites)

	// Three dense slots at alignment 256.
	for _, want := range []uint64{0, 256, 512} {
		assert.True(t, offsets[want], "missing offset %d", want)
	}
}

func TestDrawCallsCoverMountedObjects(t *testing.T) {
	s, r := newTestScene(t)

	lineGeom := geometry.New("axes", geometry.Axes(1))
	_, err := s.Add(NewMesh(lineGeom, material.NewLine()))
	require.NoError(t, err)
	_, err = s.Add(cubeMesh())
	require.NoError(t, err)
	require.NoError(t, s.Resolve())

	require.NoError(t, s.DrawCalls())
	require.Len(t, r.draws, 2)

	keys := make(map[string]bool)
	for _, d := range r.draws {
		keys[d.PipelineKey] = true
		assert.NotNil(t, d.VertexBuffer)
		assert.NotZero(t, d.VertexCount)
	}
	assert.True(t, keys[material.PipelineLine])
	assert.True(t, keys[material.PipelinePrimitive])
}

func TestDrawCallsCullObjectsOutsideFrustum(t *testing.T) {
	s, r := newTestScene(t)

	// Default camera sits at the origin looking down +Z. One cube in view,
	// one far behind the camera.
	_, err := s.Add(cubeMesh(WithPosition(0, 0, 5)))
	require.NoError(t, err)
	_, err = s.Add(cubeMesh(WithPosition(0, 0, -50)))
	require.NoError(t, err)
	require.NoError(t, s.Resolve())

	require.NoError(t, s.DrawCalls())
	assert.Len(t, r.draws, 1, "object behind the camera must be culled")
}

func TestSlotReuseAfterUnmount(t *testing.T) {
	s, r := newTestScene(t)

	first, err := s.Add(cubeMesh())
	require.NoError(t, err)
	require.NoError(t, s.Resolve())

	s.Remove(first)
	_, err = s.Add(cubeMesh())
	require.NoError(t, err)
	require.NoError(t, s.Resolve())

	s.PrepareFrame()

	// The replacement object reuses the freed dense slot, so its record
	// lands at offset 0 again.
	var sawZero bool
	for _, w := range r.writes {
		if w.Target == binder.TargetObjectArray && w.Offset == 0 {
			sawZero = true
		}
	}
	assert.True(t, sawZero)
}

func TestUpdateTicksLiveObjects(t *testing.T) {
	s, _ := newTestScene(t)

	var ticked float32
	m := cubeMesh(WithUpdate(func(m Mesh, deltaTime float32) {
		ticked += deltaTime
		m.Rotate(0, deltaTime, 0)
	}))
	_, err := s.Add(m)
	require.NoError(t, err)

	s.Update(0.5)
	assert.InDelta(t, 0.5, ticked, 1e-6)
	assert.InDelta(t, 0.5, m.Rotation()[1], 1e-6)
}

func TestTypedObjectAccess(t *testing.T) {
	s, _ := newTestScene(t)

	id, err := s.Add(cubeMesh())
	require.NoError(t, err)

	m, ok := Object[Mesh](s, id)
	require.True(t, ok)
	assert.Equal(t, id, m.ID())

	_, ok = Object[Mesh](s, 9999)
	assert.False(t, ok)

	called := false
	WithObject(s, id, func(m Mesh) {
		called = true
		m.SetPosition(1, 2, 3)
	})
	assert.True(t, called)

	WithObject(s, 9999, func(m Mesh) {
		t.Fatal("callback must not run for unknown ids")
	})
}

// pointMarker is a second SceneObject implementation so typed access can be
// exercised against a stored object of a different concrete type.
type pointMarker struct {
	id uint64
	g  geometry.Geometry
}

func (p *pointMarker) ID() uint64                      { return p.id }
func (p *pointMarker) SetID(id uint64)                 { p.id = id }
func (p *pointMarker) Geometry() geometry.Geometry     { return p.g }
func (p *pointMarker) Material() material.Material     { return material.NewLine() }
func (p *pointMarker) SetMaterial(m material.Material) {}
func (p *pointMarker) ModelMatrix() common.Mat4        { return common.Identity() }
func (p *pointMarker) Update(deltaTime float32)        {}

var _ SceneObject = &pointMarker{}

func TestTypedAccessMismatchedType(t *testing.T) {
	s, _ := newTestScene(t)

	marker := &pointMarker{g: geometry.New("marker", geometry.Axes(1))}
	id, err := s.Add(marker)
	require.NoError(t, err)

	_, ok := Object[Mesh](s, id)
	assert.False(t, ok, "stored object is not a Mesh")

	WithObject(s, id, func(m Mesh) {
		t.Fatal("callback must not run for a mismatched type")
	})

	// The miss works in the other direction too.
	meshID, err := s.Add(cubeMesh())
	require.NoError(t, err)
	_, ok = Object[*pointMarker](s, meshID)
	assert.False(t, ok)
}

func TestClearQueuesAllUnmounts(t *testing.T) {
	s, r := newTestScene(t)

	for i := 0; i < 4; i++ {
		_, err := s.Add(cubeMesh())
		require.NoError(t, err)
	}
	require.NoError(t, s.Resolve())

	s.Clear()
	assert.Zero(t, s.Count())

	require.NoError(t, s.Resolve())
	assert.Equal(t, 4, r.releases)
}
