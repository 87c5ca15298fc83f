// Package pipeline describes render pipeline configurations. A Pipeline is
// pure configuration until the renderer compiles it against a live device on
// the first frame; the compiled handle is then cached on the instance.
package pipeline

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// pipeline is the implementation of the Pipeline interface.
type pipeline struct {
	key string

	source        string
	vertexEntry   string
	fragmentEntry string
	vertexLayout  wgpu.VertexBufferLayout

	depthTestEnabled  bool
	depthWriteEnabled bool
	cullMode          wgpu.CullMode
	topology          wgpu.PrimitiveTopology
	frontFace         wgpu.FrontFace
	blendEnabled      bool
	blendState        *wgpu.BlendState
	usesTexture       bool

	renderPipeline *wgpu.RenderPipeline
}

// Pipeline holds the configuration and compiled handle for one render
// pipeline family. Configuration is immutable after construction; only the
// compiled handle is set later by the renderer.
type Pipeline interface {
	// Key returns the unique key for this pipeline, used for caching and
	// material dispatch.
	//
	// Returns:
	//   - string: the pipeline key
	Key() string

	// Source returns the WGSL shader source for this pipeline.
	//
	// Returns:
	//   - string: the WGSL module source
	Source() string

	// VertexEntry returns the vertex shader entry point name.
	VertexEntry() string

	// FragmentEntry returns the fragment shader entry point name.
	FragmentEntry() string

	// VertexLayout returns the vertex buffer layout the pipeline consumes.
	//
	// Returns:
	//   - wgpu.VertexBufferLayout: the vertex layout
	VertexLayout() wgpu.VertexBufferLayout

	// DepthTestEnabled reports whether depth testing is enabled.
	DepthTestEnabled() bool

	// DepthWriteEnabled reports whether depth writes are enabled.
	DepthWriteEnabled() bool

	// CullMode returns the configured cull mode.
	CullMode() wgpu.CullMode

	// Topology returns the configured primitive topology.
	Topology() wgpu.PrimitiveTopology

	// FrontFace returns the configured front face winding order.
	FrontFace() wgpu.FrontFace

	// BlendState returns the blend state, or nil when blending is disabled.
	BlendState() *wgpu.BlendState

	// UsesTexture reports whether draws with this pipeline bind the texture
	// bind group in addition to the uniform bind group.
	UsesTexture() bool

	// RenderPipeline returns the compiled handle, or nil before compilation.
	//
	// Returns:
	//   - *wgpu.RenderPipeline: the compiled pipeline or nil
	RenderPipeline() *wgpu.RenderPipeline

	// SetRenderPipeline stores the compiled handle.
	//
	// Parameters:
	//   - p: the compiled WebGPU render pipeline
	SetRenderPipeline(p *wgpu.RenderPipeline)
}

var _ Pipeline = &pipeline{}

// NewPipeline creates a render pipeline configuration.
//
// Parameters:
//   - key: the unique pipeline key
//   - source: the WGSL shader source
//   - layout: the vertex buffer layout the pipeline consumes
//   - opts: a variadic list of PipelineBuilderOption functions
//
// Returns:
//   - Pipeline: the new pipeline configuration
func NewPipeline(key, source string, layout wgpu.VertexBufferLayout, opts ...PipelineBuilderOption) Pipeline {
	p := &pipeline{
		key:               key,
		source:            source,
		vertexEntry:       "vs_main",
		fragmentEntry:     "fs_main",
		vertexLayout:      layout,
		depthTestEnabled:  true,
		depthWriteEnabled: true,
		cullMode:          wgpu.CullModeNone,
		topology:          wgpu.PrimitiveTopologyTriangleList,
		frontFace:         wgpu.FrontFaceCCW,
		blendEnabled:      false,
		blendState: &wgpu.BlendState{
			Color: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorSrcAlpha,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
			Alpha: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorOne,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *pipeline) Key() string {
	return p.key
}

func (p *pipeline) Source() string {
	return p.source
}

func (p *pipeline) VertexEntry() string {
	return p.vertexEntry
}

func (p *pipeline) FragmentEntry() string {
	return p.fragmentEntry
}

func (p *pipeline) VertexLayout() wgpu.VertexBufferLayout {
	return p.vertexLayout
}

func (p *pipeline) DepthTestEnabled() bool {
	return p.depthTestEnabled
}

func (p *pipeline) DepthWriteEnabled() bool {
	return p.depthWriteEnabled
}

func (p *pipeline) CullMode() wgpu.CullMode {
	return p.cullMode
}

func (p *pipeline) Topology() wgpu.PrimitiveTopology {
	return p.topology
}

func (p *pipeline) FrontFace() wgpu.FrontFace {
	return p.frontFace
}

func (p *pipeline) BlendState() *wgpu.BlendState {
	if !p.blendEnabled {
		return nil
	}
	return p.blendState
}

func (p *pipeline) UsesTexture() bool {
	return p.usesTexture
}

func (p *pipeline) RenderPipeline() *wgpu.RenderPipeline {
	return p.renderPipeline
}

func (p *pipeline) SetRenderPipeline(rp *wgpu.RenderPipeline) {
	p.renderPipeline = rp
}
