package renderer

import (
	"errors"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

// RendererBackendType identifies the GPU backend implementation used by the Renderer.
type RendererBackendType int

const (
	// BackendTypeWGPU selects the WebGPU-based rendering backend.
	BackendTypeWGPU RendererBackendType = iota
)

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeUncapped
)

// MSAASampleCount controls the number of samples used for multisample anti-aliasing (MSAA).
// WebGPU guarantees support for 1 (off) and 4.
type MSAASampleCount uint32

const (
	// MSAAOff disables multisample anti-aliasing (sample count 1).
	MSAAOff MSAASampleCount = 1

	// MSAA4x enables 4x multisample anti-aliasing.
	MSAA4x MSAASampleCount = 4
)

var (
	// ErrSurfaceLost reports that the surface texture could not be acquired because the
	// swapchain is lost or outdated. The caller should reconfigure the surface and retry
	// on the next frame.
	ErrSurfaceLost = errors.New("surface lost or outdated")

	// ErrOutOfMemory reports that the GPU ran out of memory. Not recoverable; the caller
	// should shut down.
	ErrOutOfMemory = errors.New("gpu out of memory")

	// ErrReadbackTimeout reports that a pixel readback did not complete within the wait
	// budget. The frame should be skipped.
	ErrReadbackTimeout = errors.New("pixel readback timed out")

	// ErrFrameInProgress reports that BeginFrame was called while a previous frame was
	// still open.
	ErrFrameInProgress = errors.New("frame already in progress")
)

// DrawCall describes one draw encoded within the current frame. The slot selects the
// object's uniform record via dynamic offset; the texture id selects the texture bind
// group for pipelines that sample.
type DrawCall struct {
	PipelineKey  string
	Slot         int
	TextureID    uint64
	VertexBuffer *wgpu.Buffer
	VertexCount  uint32
}

// classifySurfaceError maps a surface acquisition failure onto the renderer's sentinel
// errors so callers can pick a recovery policy without string matching.
//
// Parameters:
//   - err: the error returned by the surface
//
// Returns:
//   - error: ErrSurfaceLost, ErrOutOfMemory, or the original error
func classifySurfaceError(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "lost"), strings.Contains(msg, "outdated"), strings.Contains(msg, "timed out"), strings.Contains(msg, "timeout"):
		return ErrSurfaceLost
	case strings.Contains(msg, "out of memory"), strings.Contains(msg, "outofmemory"):
		return ErrOutOfMemory
	default:
		return err
	}
}

// RendererBackend is the top-level backend interface for the Renderer.
// It embeds the concrete backend interface for the selected GPU API.
type RendererBackend interface {
	wgpuRendererBackend
}
