package renderer

import (
	"errors"
	"testing"
	"time"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryanw/byd-go/engine/geometry"
	"github.com/ryanw/byd-go/engine/material"
)

func TestClassifySurfaceError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"nil", nil, nil},
		{"lost", errors.New("Surface was Lost"), ErrSurfaceLost},
		{"outdated", errors.New("surface is outdated"), ErrSurfaceLost},
		{"timed out", errors.New("Surface timed out"), ErrSurfaceLost},
		{"oom", errors.New("Out of Memory on device"), ErrOutOfMemory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifySurfaceError(tt.err))
		})
	}
}

func TestClassifySurfaceErrorPassesThroughUnknown(t *testing.T) {
	err := errors.New("validation error")
	assert.Equal(t, err, classifySurfaceError(err))
}

func TestDefaultPipelineConfigs(t *testing.T) {
	byKey := make(map[string]bool)
	for _, p := range defaultPipelines() {
		byKey[p.Key()] = true
	}
	require.True(t, byKey[material.PipelinePrimitive])
	require.True(t, byKey[material.PipelineLine])

	for _, p := range defaultPipelines() {
		switch p.Key() {
		case material.PipelinePrimitive:
			assert.True(t, p.UsesTexture(), "primitive pipeline must bind the texture group")
			assert.Equal(t, wgpu.PrimitiveTopologyTriangleList, p.Topology())
		case material.PipelineLine:
			assert.False(t, p.UsesTexture())
			assert.Equal(t, wgpu.PrimitiveTopologyLineList, p.Topology())
		}
		assert.True(t, p.DepthTestEnabled())
		assert.Nil(t, p.RenderPipeline(), "pipelines compile lazily on the first frame")
	}
}

func TestVertexLayoutMatchesVertexType(t *testing.T) {
	v := geometry.PrimitiveVertex{}
	layout := vertexLayout(v)

	assert.Equal(t, v.Stride(), layout.ArrayStride)
	assert.Equal(t, wgpu.VertexStepModeVertex, layout.StepMode)
	assert.Len(t, layout.Attributes, 3)
}

// fakeMappable stands in for the readback buffer. A nil status means the map
// callback never fires.
type fakeMappable struct {
	status *wgpu.BufferMapAsyncStatus
	data   []byte
	unmaps int
}

func (f *fakeMappable) MapAsync(size uint64, callback func(wgpu.BufferMapAsyncStatus)) error {
	if f.status != nil {
		callback(*f.status)
	}
	return nil
}

func (f *fakeMappable) GetMappedRange(size uint) []byte { return f.data }
func (f *fakeMappable) Unmap()                          { f.unmaps++ }

func statusPtr(s wgpu.BufferMapAsyncStatus) *wgpu.BufferMapAsyncStatus { return &s }

func TestReadMappedRowsStripsRowPadding(t *testing.T) {
	// Two 2-pixel rows padded to a 16-byte stride.
	buf := &fakeMappable{
		status: statusPtr(wgpu.BufferMapAsyncStatusSuccess),
		data: []byte{
			1, 1, 1, 1, 2, 2, 2, 2, 0, 0, 0, 0, 0, 0, 0, 0,
			3, 3, 3, 3, 4, 4, 4, 4, 0, 0, 0, 0, 0, 0, 0, 0,
		},
	}

	pixels, err := readMappedRows(buf, func() {}, 16, 2, 2, time.Second)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 1, 1, 1, 2, 2, 2, 2, 3, 3, 3, 3, 4, 4, 4, 4}, pixels)
	assert.Equal(t, 1, buf.unmaps)
}

func TestReadMappedRowsTimeoutUnmaps(t *testing.T) {
	buf := &fakeMappable{}

	_, err := readMappedRows(buf, func() {}, 16, 2, 2, 10*time.Millisecond)
	assert.ErrorIs(t, err, ErrReadbackTimeout)
	assert.Equal(t, 1, buf.unmaps, "a timed-out map must be cancelled so the next frame can retry")
}

func TestReadMappedRowsFailedStatusUnmaps(t *testing.T) {
	buf := &fakeMappable{status: statusPtr(wgpu.BufferMapAsyncStatusValidationError)}

	_, err := readMappedRows(buf, func() {}, 16, 2, 2, time.Second)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrReadbackTimeout)
	assert.Equal(t, 1, buf.unmaps)
}
