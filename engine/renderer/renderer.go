// Package renderer drives the per-frame GPU work: the offscreen scene pass, the
// composite pass onto the window surface, pipeline compilation, and pixel readback
// for headless presentation. Draw state lives in the shared binder; the renderer
// only routes draws through cached pipelines.
package renderer

import (
	"fmt"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/ryanw/byd-go/engine/geometry"
	"github.com/ryanw/byd-go/engine/material"
	"github.com/ryanw/byd-go/engine/renderer/binder"
	"github.com/ryanw/byd-go/engine/renderer/pipeline"
	"github.com/ryanw/byd-go/engine/renderer/shaders"
)

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	pipelineCache map[string]pipeline.Pipeline

	backendType RendererBackendType
	backend     RendererBackend

	// Pre-creation config collected from builder options
	forceFallbackAdapter bool
	pendingPresentMode   *PresentMode
	pendingMSAA          *MSAASampleCount
}

// Renderer manages pipelines and frame encoding. Pipelines registered before the
// first frame are compiled lazily when that frame begins; pipelines registered
// later are compiled on the next frame.
type Renderer interface {
	// Pipeline retrieves the cached Pipeline associated with the given key.
	// If the Pipeline does not exist, this will return nil.
	//
	// Parameters:
	//   - key: the unique identifier for the Pipeline to retrieve
	//
	// Returns:
	//   - pipeline.Pipeline: the Pipeline associated with the key, or nil if not found
	Pipeline(key string) pipeline.Pipeline

	// RegisterPipelines adds pipeline configurations to the cache. Compilation is
	// deferred to the next BeginFrame. Pipelines whose keys are already registered
	// are skipped.
	//
	// Parameters:
	//   - pipelines: the Pipelines to register
	RegisterPipelines(pipelines ...pipeline.Pipeline)

	// Alignment returns the uniform buffer offset alignment used for per-object
	// slot addressing.
	//
	// Returns:
	//   - uint64: the alignment in bytes
	Alignment() uint64

	// InitVertexBuffer creates a GPU vertex buffer and uploads the given data.
	//
	// Parameters:
	//   - label: a debug label for the buffer
	//   - data: the raw vertex bytes to upload
	//
	// Returns:
	//   - *wgpu.Buffer: the created buffer
	//   - error: buffer creation failure
	InitVertexBuffer(label string, data []byte) (*wgpu.Buffer, error)

	// ReleaseBuffer releases a GPU buffer previously created by InitVertexBuffer.
	//
	// Parameters:
	//   - buf: the buffer to release (nil safe)
	ReleaseBuffer(buf *wgpu.Buffer)

	// RegisterTexture uploads RGBA8 pixels as a sampleable texture under the given id.
	//
	// Parameters:
	//   - id: the texture id
	//   - width, height: dimensions in pixels
	//   - pixels: RGBA8 data, 4*width*height bytes
	//
	// Returns:
	//   - error: creation or upload failure
	RegisterTexture(id uint64, width, height uint32, pixels []byte) error

	// WriteBuffers flushes staged uniform writes to the GPU queue in one batch.
	// Call before BeginFrame so the writes land ahead of the frame's draws.
	//
	// Parameters:
	//   - writes: the staged writes
	WriteBuffers(writes []binder.BufferWrite)

	// BeginFrame compiles any pending pipelines and begins the offscreen scene
	// pass. Must be paired with EndFrame after all Draw invocations.
	//
	// Returns:
	//   - error: pipeline compilation or encoder creation failure
	BeginFrame() error

	// Draw encodes a single draw within the current scene pass.
	//
	// Parameters:
	//   - call: the draw parameters
	//
	// Returns:
	//   - error: an error if the pipeline is not found
	Draw(call DrawCall) error

	// EndFrame ends the scene pass, encodes the composite pass onto the surface
	// when one exists, and submits the frame. Call Present after EndFrame.
	//
	// Returns:
	//   - error: ErrSurfaceLost, ErrOutOfMemory, or submission failure
	EndFrame() error

	// Present presents the surface to the display and releases the swapchain
	// texture. Must be called once per frame after EndFrame. No-op when headless.
	Present()

	// Resize reconfigures the backend for a new surface size.
	//
	// Parameters:
	//   - width: the new width in pixels
	//   - height: the new height in pixels
	Resize(width, height int)

	// SetPresentMode sets the surface present mode. A call to Resize is required
	// after changing this for the new mode to take effect.
	//
	// Parameters:
	//   - mode: the PresentMode to use (VSync or Uncapped)
	SetPresentMode(mode PresentMode)

	// ReadPixels copies the offscreen scene target into CPU memory as tightly
	// packed RGBA8 rows.
	//
	// Returns:
	//   - []byte: the pixel data, 4*width*height bytes
	//   - int: the width in pixels
	//   - int: the height in pixels
	//   - error: ErrReadbackTimeout or copy failure
	ReadPixels() ([]byte, int, int, error)

	// Release frees every GPU resource owned by the renderer.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates a new Renderer with the specified backend type. The surface
// descriptor is platform-specific and typically obtained from Window.SurfaceDescriptor;
// passing nil selects headless mode, where frames render offscreen only and are read
// back with ReadPixels.
//
// The built-in primitive and line pipelines are pre-registered; additional pipelines
// can be supplied with WithPipeline or registered later.
//
// Parameters:
//   - backendType: the type of rendering backend to use (e.g., WGPU)
//   - surfaceDescriptor: the surface descriptor, or nil for headless rendering
//   - width: the initial render target width in pixels
//   - height: the initial render target height in pixels
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: a new instance of Renderer configured with the specified backend and options
func NewRenderer(backendType RendererBackendType, surfaceDescriptor *wgpu.SurfaceDescriptor, width, height int, options ...RendererBuilderOption) Renderer {
	r := &renderer{
		mu:            &sync.Mutex{},
		pipelineCache: make(map[string]pipeline.Pipeline),
		backendType:   backendType,
	}

	for _, p := range defaultPipelines() {
		r.pipelineCache[p.Key()] = p
	}

	// Apply options first so config flags (e.g. forceFallbackAdapter) are
	// available before the backend requests a GPU adapter.
	for _, opt := range options {
		opt(r)
	}

	msaa := MSAAOff
	if r.pendingMSAA != nil {
		msaa = *r.pendingMSAA
	}

	switch backendType {
	case BackendTypeWGPU:
		fallthrough
	default:
		r.backend = newWGPURendererBackend(surfaceDescriptor, r.forceFallbackAdapter, msaa)
	}

	if r.pendingPresentMode != nil {
		r.backend.SetPresentMode(*r.pendingPresentMode)
	}

	r.backend.ConfigureSurface(width, height)
	return r
}

// defaultPipelines builds the built-in pipeline configurations: the primitive
// pipeline shared by untextured and textured meshes, and the line pipeline.
func defaultPipelines() []pipeline.Pipeline {
	return []pipeline.Pipeline{
		pipeline.NewPipeline(
			material.PipelinePrimitive,
			shaders.Primitive,
			vertexLayout(geometry.PrimitiveVertex{}),
			pipeline.WithTextureBinding(),
		),
		pipeline.NewPipeline(
			material.PipelineLine,
			shaders.Line,
			vertexLayout(geometry.SimpleVertex{}),
			pipeline.WithTopology(wgpu.PrimitiveTopologyLineList),
		),
	}
}

// vertexLayout derives a wgpu vertex buffer layout from a vertex type.
func vertexLayout(v geometry.Vertex) wgpu.VertexBufferLayout {
	return wgpu.VertexBufferLayout{
		ArrayStride: v.Stride(),
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes:  v.Attributes(),
	}
}

func (r *renderer) Pipeline(key string) pipeline.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pipelineCache[key]
}

func (r *renderer) RegisterPipelines(pipelines ...pipeline.Pipeline) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range pipelines {
		if _, exists := r.pipelineCache[p.Key()]; exists {
			continue
		}
		r.pipelineCache[p.Key()] = p
	}
}

func (r *renderer) Alignment() uint64 {
	return r.backend.Alignment()
}

func (r *renderer) InitVertexBuffer(label string, data []byte) (*wgpu.Buffer, error) {
	return r.backend.InitVertexBuffer(label, data)
}

func (r *renderer) ReleaseBuffer(buf *wgpu.Buffer) {
	r.backend.ReleaseBuffer(buf)
}

func (r *renderer) RegisterTexture(id uint64, width, height uint32, pixels []byte) error {
	return r.backend.RegisterTexture(id, width, height, pixels)
}

func (r *renderer) WriteBuffers(writes []binder.BufferWrite) {
	r.backend.WriteBuffers(writes)
}

func (r *renderer) BeginFrame() error {
	if err := r.compilePending(); err != nil {
		return err
	}
	return r.backend.BeginFrame()
}

// compilePending compiles every cached pipeline that does not yet hold a GPU
// handle. On the first frame this covers the built-ins; afterwards it covers
// pipelines registered at runtime.
func (r *renderer) compilePending() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.pipelineCache {
		if p.RenderPipeline() != nil {
			continue
		}
		if err := r.backend.RegisterRenderPipeline(p); err != nil {
			return err
		}
	}
	return nil
}

func (r *renderer) Draw(call DrawCall) error {
	r.mu.Lock()
	p, exists := r.pipelineCache[call.PipelineKey]
	r.mu.Unlock()

	if !exists {
		return fmt.Errorf("render pipeline %q not found in cache", call.PipelineKey)
	}

	r.backend.DrawCall(p, call)
	return nil
}

func (r *renderer) EndFrame() error {
	return r.backend.EndFrame()
}

func (r *renderer) Present() {
	r.backend.Present()
}

func (r *renderer) Resize(width, height int) {
	r.backend.ConfigureSurface(width, height)
}

func (r *renderer) SetPresentMode(mode PresentMode) {
	r.backend.SetPresentMode(mode)
}

func (r *renderer) ReadPixels() ([]byte, int, int, error) {
	return r.backend.ReadPixels()
}

func (r *renderer) Release() {
	r.backend.Release()
}
