package renderer

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/ryanw/byd-go/engine/geometry"
	"github.com/ryanw/byd-go/engine/logger"
	"github.com/ryanw/byd-go/engine/renderer/binder"
	"github.com/ryanw/byd-go/engine/renderer/pipeline"
	"github.com/ryanw/byd-go/engine/renderer/shader"
	"github.com/ryanw/byd-go/engine/renderer/shaders"
)

// sceneTargetFormat is the fixed format of the offscreen scene target. Scene pipelines
// always compile against this format; only the composite pipeline targets the
// surface's native format.
const sceneTargetFormat = wgpu.TextureFormatRGBA8UnormSrgb

// readbackWait bounds how long ReadPixels blocks on the GPU before giving up.
const readbackWait = time.Second

type wgpuRendererBackendImpl struct {
	mu     *sync.Mutex
	device *wgpu.Device
	queue  *wgpu.Queue

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	surface  *wgpu.Surface // nil when headless

	binder binder.Binder

	surfaceFormat *wgpu.TextureFormat
	presentMode   wgpu.PresentMode
	sampleCount   MSAASampleCount

	width  int
	height int

	// Offscreen scene target. Every scene pass renders here; the composite pass
	// samples it onto the surface, and ReadPixels copies it out.
	sceneTexture *wgpu.Texture
	sceneView    *wgpu.TextureView
	msaaTexture  *wgpu.Texture
	msaaView     *wgpu.TextureView
	depthTexture *wgpu.Texture
	depthView    *wgpu.TextureView

	scenePassDescriptor *wgpu.RenderPassDescriptor

	// Composite resources, built on first ConfigureSurface when a surface exists.
	compositeLayout    *wgpu.BindGroupLayout
	compositeSampler   *wgpu.Sampler
	compositeBindGroup *wgpu.BindGroup
	compositePipeline  *wgpu.RenderPipeline
	compositeQuad      *wgpu.Buffer
	compositeQuadCount uint32

	readbackBuffer *wgpu.Buffer
	readbackStride uint64

	// Frame state for batched rendering across multiple draw calls
	frameEncoder *wgpu.CommandEncoder
	framePass    *wgpu.RenderPassEncoder
	frameSurface *wgpu.Texture
	frameView    *wgpu.TextureView
}

type wgpuRendererBackend interface {
	Device() *wgpu.Device
	Queue() *wgpu.Queue

	// Alignment returns the uniform buffer offset alignment used for per-object
	// slot addressing.
	//
	// Returns:
	//   - uint64: the alignment in bytes
	Alignment() uint64

	// ConfigureSurface reconfigures the surface (when present) and recreates the
	// offscreen scene target, depth buffer, readback buffer, and composite bind
	// group for a new size. Must be called before the first frame and again on
	// every resize.
	//
	// Parameters:
	//   - width: the new width in pixels
	//   - height: the new height in pixels
	ConfigureSurface(width, height int)

	// SetPresentMode sets the surface present mode which controls how frames are
	// delivered to the display. Takes effect on the next ConfigureSurface.
	//
	// Parameters:
	//   - mode: the PresentMode to use (VSync or Uncapped)
	SetPresentMode(mode PresentMode)

	// RegisterRenderPipeline compiles a pipeline configuration into a GPU render
	// pipeline targeting the offscreen scene format, using the shared uniform and
	// texture bind group layouts. The compiled handle is stored on the Pipeline.
	//
	// Parameters:
	//   - p: the pipeline configuration to compile
	//
	// Returns:
	//   - error: shader or pipeline creation failure
	RegisterRenderPipeline(p pipeline.Pipeline) error

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
	//
	// Parameters:
	//   - writes: the staged writes
	WriteBuffers(writes []binder.BufferWrite)

	// BeginFrame creates a command encoder and begins the offscreen scene pass.
	// Must be paired with EndFrame after all DrawCall invocations.
	//
	// Returns:
	//   - error: ErrFrameInProgress or encoder creation failure
	BeginFrame() error

	// DrawCall encodes a single draw within the current scene pass. The object's
	// uniform record is selected by dynamic offset from the call's slot.
	//
	// Parameters:
	//   - p: the compiled Pipeline to draw with
	//   - call: the draw parameters
	DrawCall(p pipeline.Pipeline, call DrawCall)

	// EndFrame ends the scene pass, encodes the composite pass onto the surface
	// when one exists, and submits the command buffer. Does not present; call
	// Present after EndFrame.
	//
	// Returns:
	//   - error: ErrSurfaceLost, ErrOutOfMemory, or submission failure
	EndFrame() error

	// Present presents the surface and releases the swapchain texture. No-op when
	// headless or when no frame is held.
	Present()

	// ReadPixels copies the offscreen scene target into CPU memory as tightly
	// packed RGBA8 rows. Blocks until the GPU copy completes or the wait budget
	// expires.
	//
	// Returns:
	//   - []byte: the pixel data, 4*width*height bytes
	//   - int: the width in pixels
	//   - int: the height in pixels
	//   - error: ErrReadbackTimeout or copy failure
	ReadPixels() ([]byte, int, int, error)

	// Release frees every GPU resource owned by the backend.
	Release()
}

var _ RendererBackend = &wgpuRendererBackendImpl{}

// newWGPURendererBackend creates the instance, adapter, device, queue, and shared
// binder. A nil surface descriptor selects headless mode: no surface is created and
// EndFrame skips the composite pass.
func newWGPURendererBackend(surfaceDescriptor *wgpu.SurfaceDescriptor, forceFallbackAdapter bool, sampleCount MSAASampleCount) wgpuRendererBackend {
	runtime.LockOSThread()
	w := &wgpuRendererBackendImpl{
		mu:          &sync.Mutex{},
		instance:    wgpu.CreateInstance(nil),
		presentMode: wgpu.PresentModeImmediate,
		sampleCount: sampleCount,
	}

	if surfaceDescriptor != nil {
		w.surface = w.instance.CreateSurface(surfaceDescriptor)
	}

	a, err := w.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: forceFallbackAdapter,
		CompatibleSurface:    w.surface,
	})
	if err != nil {
		panic(err)
	}
	w.adapter = a

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Main Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: wgpu.DefaultLimits(),
		},
	})
	if err != nil {
		panic(err)
	}
	w.device = d
	w.queue = d.GetQueue()

	alignment := uint64(a.GetLimits().Limits.MinUniformBufferOffsetAlignment)
	w.binder, err = binder.NewBinder(d, w.queue, alignment)
	if err != nil {
		panic(err)
	}

	return w
}

func (b *wgpuRendererBackendImpl) Device() *wgpu.Device {
	return b.device
}

func (b *wgpuRendererBackendImpl) Queue() *wgpu.Queue {
	return b.queue
}

func (b *wgpuRendererBackendImpl) Alignment() uint64 {
	return b.binder.Alignment()
}

func (b *wgpuRendererBackendImpl) SetPresentMode(mode PresentMode) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch mode {
	case PresentModeVSync:
		b.presentMode = wgpu.PresentModeFifo
	case PresentModeUncapped:
		fallthrough
	default:
		b.presentMode = wgpu.PresentModeImmediate
	}
}

func (b *wgpuRendererBackendImpl) ConfigureSurface(width, height int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.width = width
	b.height = height

	if b.surface != nil {
		capabilities := b.surface.GetCapabilities(b.adapter)
		b.surfaceFormat = &capabilities.Formats[0]

		b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
			Usage:       wgpu.TextureUsageRenderAttachment,
			Format:      *b.surfaceFormat,
			Width:       uint32(width),
			Height:      uint32(height),
			PresentMode: b.presentMode,
			AlphaMode:   capabilities.AlphaModes[0],
		})
	}

	b.releaseSceneTargets()
	b.createSceneTargets(width, height)
	b.createReadbackBuffer(width, height)

	if b.surface != nil {
		b.ensureCompositeResources()
	}
}

// createSceneTargets builds the offscreen color target, the optional MSAA target,
// and the depth buffer, then caches the scene pass descriptor.
func (b *wgpuRendererBackendImpl) createSceneTargets(width, height int) {
	size := wgpu.Extent3D{
		Width:              uint32(width),
		Height:             uint32(height),
		DepthOrArrayLayers: 1,
	}

	sceneTexture, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "Scene Color Texture",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        sceneTargetFormat,
		Usage:         wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopySrc,
	})
	if err != nil {
		panic(err)
	}
	b.sceneTexture = sceneTexture
	b.sceneView, err = sceneTexture.CreateView(nil)
	if err != nil {
		panic(err)
	}

	count := uint32(b.sampleCount)
	msaaEnabled := count > 1

	if msaaEnabled {
		// The scene pass draws into the MSAA texture and resolves into the
		// single-sample scene texture.
		msaaTexture, msaaErr := b.device.CreateTexture(&wgpu.TextureDescriptor{
			Label:         "Scene MSAA Texture",
			Size:          size,
			MipLevelCount: 1,
			SampleCount:   count,
			Dimension:     wgpu.TextureDimension2D,
			Format:        sceneTargetFormat,
			Usage:         wgpu.TextureUsageRenderAttachment,
		})
		if msaaErr != nil {
			panic(msaaErr)
		}
		b.msaaTexture = msaaTexture
		b.msaaView, err = msaaTexture.CreateView(nil)
		if err != nil {
			panic(err)
		}
	}

	depthTexture, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "Scene Depth Texture",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   count,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatDepth24Plus,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		panic(err)
	}
	b.depthTexture = depthTexture
	b.depthView, err = depthTexture.CreateView(nil)
	if err != nil {
		panic(err)
	}

	colorView := b.sceneView
	var resolveTarget *wgpu.TextureView
	storeOp := wgpu.StoreOpStore
	if msaaEnabled {
		colorView = b.msaaView
		resolveTarget = b.sceneView
		storeOp = wgpu.StoreOpDiscard
	}
	b.scenePassDescriptor = &wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:          colorView,
				ResolveTarget: resolveTarget,
				LoadOp:        wgpu.LoadOpClear,
				StoreOp:       storeOp,
				ClearValue: wgpu.Color{
					R: 0.05, G: 0.05, B: 0.05, A: 1.0,
				},
			},
		},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            b.depthView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpDiscard,
			DepthClearValue: 1.0,
		},
	}
}

func (b *wgpuRendererBackendImpl) createReadbackBuffer(width, height int) {
	if b.readbackBuffer != nil {
		b.readbackBuffer.Release()
		b.readbackBuffer = nil
	}

	// Buffer-to-texture copies require rows padded to 256 bytes.
	b.readbackStride = (uint64(width)*4 + 255) &^ 255

	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Scene Readback Buffer",
		Size:  b.readbackStride * uint64(height),
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		panic(err)
	}
	b.readbackBuffer = buf
}

// ensureCompositeResources builds the blit pipeline that copies the offscreen scene
// target onto the surface. The pipeline and sampler are built once; the bind group
// is rebuilt on every resize because the scene view changes.
func (b *wgpuRendererBackendImpl) ensureCompositeResources() {
	var err error
	if b.compositeLayout == nil {
		b.compositeLayout, err = b.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
			Label: "Composite Bind Group Layout",
			Entries: []wgpu.BindGroupLayoutEntry{
				{
					Binding:    0,
					Visibility: wgpu.ShaderStageFragment,
					Texture: wgpu.TextureBindingLayout{
						SampleType:    wgpu.TextureSampleTypeFloat,
						ViewDimension: wgpu.TextureViewDimension2D,
					},
				},
				{
					Binding:    1,
					Visibility: wgpu.ShaderStageFragment,
					Sampler: wgpu.SamplerBindingLayout{
						Type: wgpu.SamplerBindingTypeFiltering,
					},
				},
			},
		})
		if err != nil {
			panic(err)
		}
	}

	if b.compositeSampler == nil {
		b.compositeSampler, err = b.device.CreateSampler(&wgpu.SamplerDescriptor{
			Label:         "Composite Sampler",
			AddressModeU:  wgpu.AddressModeClampToEdge,
			AddressModeV:  wgpu.AddressModeClampToEdge,
			AddressModeW:  wgpu.AddressModeClampToEdge,
			MagFilter:     wgpu.FilterModeLinear,
			MinFilter:     wgpu.FilterModeLinear,
			MipmapFilter:  wgpu.MipmapFilterModeNearest,
			LodMaxClamp:   32,
			MaxAnisotropy: 1,
		})
		if err != nil {
			panic(err)
		}
	}

	if b.compositeQuad == nil {
		quad := geometry.FullScreenQuad()
		data := make([]byte, 0, len(quad)*int(quad[0].Stride()))
		for _, v := range quad {
			data = v.AppendTo(data)
		}
		b.compositeQuad, err = b.InitVertexBuffer("Composite Quad", data)
		if err != nil {
			panic(err)
		}
		b.compositeQuadCount = uint32(len(quad))
	}

	if b.compositePipeline == nil {
		module, moduleErr := b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
			Label: "Composite Shader",
			WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
				Code: shaders.Quad,
			},
		})
		if moduleErr != nil {
			panic(moduleErr)
		}

		layout, layoutErr := b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
			Label:            "Composite Pipeline Layout",
			BindGroupLayouts: []*wgpu.BindGroupLayout{b.compositeLayout},
		})
		if layoutErr != nil {
			panic(layoutErr)
		}

		quadVertex := geometry.QuadVertex{}
		b.compositePipeline, err = b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
			Label:  "Composite Pipeline",
			Layout: layout,
			Vertex: wgpu.VertexState{
				Module:     module,
				EntryPoint: "vs_main",
				Buffers: []wgpu.VertexBufferLayout{
					{
						ArrayStride: quadVertex.Stride(),
						StepMode:    wgpu.VertexStepModeVertex,
						Attributes:  quadVertex.Attributes(),
					},
				},
			},
			Fragment: &wgpu.FragmentState{
				Module:     module,
				EntryPoint: "fs_main",
				Targets: []wgpu.ColorTargetState{
					{
						Format:    *b.surfaceFormat,
						WriteMask: wgpu.ColorWriteMaskAll,
					},
				},
			},
			Primitive: wgpu.PrimitiveState{
				Topology:  wgpu.PrimitiveTopologyTriangleList,
				FrontFace: wgpu.FrontFaceCCW,
				CullMode:  wgpu.CullModeNone,
			},
			Multisample: wgpu.MultisampleState{
				Count: 1,
				Mask:  0xFFFFFFFF,
			},
		})
		if err != nil {
			panic(err)
		}
	}

	if b.compositeBindGroup != nil {
		b.compositeBindGroup.Release()
	}
	b.compositeBindGroup, err = b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "Composite Bind Group",
		Layout: b.compositeLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, TextureView: b.sceneView},
			{Binding: 1, Sampler: b.compositeSampler},
		},
	})
	if err != nil {
		panic(err)
	}
}

func (b *wgpuRendererBackendImpl) RegisterRenderPipeline(p pipeline.Pipeline) error {
	if err := shader.ValidateEntryPoints(p.Source(), p.VertexEntry(), p.FragmentEntry()); err != nil {
		return fmt.Errorf("pipeline %q: %w", p.Key(), err)
	}

	module, err := b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: p.Key() + " Shader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: p.Source(),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create shader module for %q: %w", p.Key(), err)
	}

	bindGroupLayouts := []*wgpu.BindGroupLayout{b.binder.UniformLayout()}
	if p.UsesTexture() {
		bindGroupLayouts = append(bindGroupLayouts, b.binder.TextureLayout())
	}

	pipelineLayout, err := b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            p.Key(),
		BindGroupLayouts: bindGroupLayouts,
	})
	if err != nil {
		return fmt.Errorf("failed to create pipeline layout for %q: %w", p.Key(), err)
	}

	depthCompare := wgpu.CompareFunctionLess
	if !p.DepthTestEnabled() {
		depthCompare = wgpu.CompareFunctionAlways
	}

	created, err := b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  p.Key() + " Render Pipeline",
		Layout: pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: p.VertexEntry(),
			Buffers:    []wgpu.VertexBufferLayout{p.VertexLayout()},
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: p.FragmentEntry(),
			Targets: []wgpu.ColorTargetState{
				{
					Format:    sceneTargetFormat,
					Blend:     p.BlendState(),
					WriteMask: wgpu.ColorWriteMaskAll,
				},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  p.Topology(),
			FrontFace: p.FrontFace(),
			CullMode:  p.CullMode(),
		},
		Multisample: wgpu.MultisampleState{
			Count: uint32(b.sampleCount),
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            wgpu.TextureFormatDepth24Plus,
			DepthWriteEnabled: p.DepthWriteEnabled(),
			DepthCompare:      depthCompare,
			StencilFront: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create render pipeline %q: %w", p.Key(), err)
	}

	p.SetRenderPipeline(created)
	logger.Debug("pipeline compiled", "key", p.Key())
	return nil
}

func (b *wgpuRendererBackendImpl) InitVertexBuffer(label string, data []byte) (*wgpu.Buffer, error) {
	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label + " Vertex Buffer",
		Size:  uint64(len(data)),
		Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create vertex buffer %q: %w", label, err)
	}
	b.queue.WriteBuffer(buf, 0, data)
	return buf, nil
}

func (b *wgpuRendererBackendImpl) ReleaseBuffer(buf *wgpu.Buffer) {
	if buf != nil {
		buf.Release()
	}
}

func (b *wgpuRendererBackendImpl) RegisterTexture(id uint64, width, height uint32, pixels []byte) error {
	return b.binder.RegisterTexture(id, width, height, pixels)
}

func (b *wgpuRendererBackendImpl) WriteBuffers(writes []binder.BufferWrite) {
	b.binder.Write(writes)
}

func (b *wgpuRendererBackendImpl) BeginFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.framePass != nil {
		return ErrFrameInProgress
	}

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		return err
	}

	b.frameEncoder = encoder
	b.framePass = encoder.BeginRenderPass(b.scenePassDescriptor)
	return nil
}

func (b *wgpuRendererBackendImpl) DrawCall(p pipeline.Pipeline, call DrawCall) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.framePass == nil {
		return
	}
	renderPipeline := p.RenderPipeline()
	if renderPipeline == nil {
		return
	}

	b.framePass.SetPipeline(renderPipeline)
	b.framePass.SetBindGroup(0, b.binder.UniformBindGroup(), []uint32{uint32(b.binder.ObjectOffset(call.Slot))})

	if p.UsesTexture() {
		textureID := call.TextureID
		bg, ok := b.binder.TextureBindGroup(textureID)
		if !ok {
			// Not yet uploaded; fall back to the placeholder with sampling disabled.
			textureID = 0
			bg, ok = b.binder.TextureBindGroup(0)
		}
		if !ok {
			return
		}
		b.framePass.SetBindGroup(1, bg, []uint32{uint32(b.binder.EnabledOffset(textureID))})
	}

	b.framePass.SetVertexBuffer(0, call.VertexBuffer, 0, wgpu.WholeSize)
	b.framePass.Draw(call.VertexCount, 1, 0, 0)
}

func (b *wgpuRendererBackendImpl) EndFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.framePass == nil {
		return nil
	}

	b.framePass.End()
	b.framePass = nil

	var surfaceErr error
	if b.surface != nil {
		surfaceErr = b.encodeComposite()
	}

	commandBuffer, err := b.frameEncoder.Finish(nil)
	if err != nil {
		b.frameEncoder.Release()
		b.frameEncoder = nil
		b.releaseFrameSurface()
		return classifySurfaceError(err)
	}

	b.queue.Submit(commandBuffer)
	commandBuffer.Release()
	b.frameEncoder.Release()
	b.frameEncoder = nil

	return surfaceErr
}

// encodeComposite acquires the swapchain texture and encodes the blit of the scene
// target onto it. The acquired texture is held until Present.
func (b *wgpuRendererBackendImpl) encodeComposite() error {
	surfaceTexture, err := b.surface.GetCurrentTexture()
	if err != nil {
		return classifySurfaceError(err)
	}

	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return classifySurfaceError(err)
	}

	pass := b.frameEncoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:    view,
				LoadOp:  wgpu.LoadOpClear,
				StoreOp: wgpu.StoreOpStore,
				ClearValue: wgpu.Color{
					R: 0.1, G: 0.1, B: 0.3, A: 1.0,
				},
			},
		},
	})
	pass.SetPipeline(b.compositePipeline)
	pass.SetBindGroup(0, b.compositeBindGroup, nil)
	pass.SetVertexBuffer(0, b.compositeQuad, 0, wgpu.WholeSize)
	pass.Draw(b.compositeQuadCount, 1, 0, 0)
	pass.End()

	b.frameSurface = surfaceTexture
	b.frameView = view
	return nil
}

func (b *wgpuRendererBackendImpl) Present() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameSurface == nil {
		return
	}

	b.surface.Present()
	b.releaseFrameSurface()
}

func (b *wgpuRendererBackendImpl) ReadPixels() ([]byte, int, int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.framePass != nil {
		return nil, 0, 0, ErrFrameInProgress
	}

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		return nil, 0, 0, err
	}

	err = encoder.CopyTextureToBuffer(
		&wgpu.ImageCopyTexture{
			Texture:  b.sceneTexture,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		&wgpu.ImageCopyBuffer{
			Buffer: b.readbackBuffer,
			Layout: wgpu.TextureDataLayout{
				Offset:       0,
				BytesPerRow:  uint32(b.readbackStride),
				RowsPerImage: uint32(b.height),
			},
		},
		&wgpu.Extent3D{
			Width:              uint32(b.width),
			Height:             uint32(b.height),
			DepthOrArrayLayers: 1,
		},
	)
	if err != nil {
		encoder.Release()
		return nil, 0, 0, fmt.Errorf("failed to encode readback copy: %w", err)
	}

	commandBuffer, err := encoder.Finish(nil)
	if err != nil {
		encoder.Release()
		return nil, 0, 0, err
	}
	b.queue.Submit(commandBuffer)
	commandBuffer.Release()
	encoder.Release()

	pixels, err := readMappedRows(
		gpuReadbackBuffer{buf: b.readbackBuffer},
		func() { b.device.Poll(true, nil) },
		b.readbackStride, b.width, b.height,
		readbackWait,
	)
	if err != nil {
		return nil, 0, 0, err
	}
	return pixels, b.width, b.height, nil
}

// mappableBuffer is the slice of the readback buffer the map wait needs.
type mappableBuffer interface {
	MapAsync(size uint64, callback func(wgpu.BufferMapAsyncStatus)) error
	GetMappedRange(size uint) []byte
	Unmap()
}

// gpuReadbackBuffer adapts a wgpu.Buffer to mappableBuffer for read mapping
// from offset 0.
type gpuReadbackBuffer struct {
	buf *wgpu.Buffer
}

func (g gpuReadbackBuffer) MapAsync(size uint64, callback func(wgpu.BufferMapAsyncStatus)) error {
	return g.buf.MapAsync(wgpu.MapModeRead, 0, size, callback)
}

func (g gpuReadbackBuffer) GetMappedRange(size uint) []byte {
	return g.buf.GetMappedRange(0, size)
}

func (g gpuReadbackBuffer) Unmap() {
	g.buf.Unmap()
}

// readMappedRows maps buf for reading, blocks until the map completes or the
// wait expires, and strips the 256-byte row padding into a tight RGBA buffer.
// The buffer is always left unmapped on return: a timed-out or failed map is
// cancelled with Unmap so the next frame's MapAsync starts clean.
func readMappedRows(buf mappableBuffer, poll func(), stride uint64, width, height int, wait time.Duration) ([]byte, error) {
	size := stride * uint64(height)

	var done bool
	var status wgpu.BufferMapAsyncStatus
	err := buf.MapAsync(size, func(s wgpu.BufferMapAsyncStatus) {
		done = true
		status = s
	})
	if err != nil {
		return nil, fmt.Errorf("failed to map readback buffer: %w", err)
	}

	deadline := time.Now().Add(wait)
	for !done {
		if time.Now().After(deadline) {
			buf.Unmap()
			return nil, ErrReadbackTimeout
		}
		poll()
	}
	if status != wgpu.BufferMapAsyncStatusSuccess {
		buf.Unmap()
		return nil, fmt.Errorf("readback map failed with status %d", status)
	}

	mapped := buf.GetMappedRange(uint(size))
	rowBytes := width * 4
	pixels := make([]byte, rowBytes*height)
	for row := 0; row < height; row++ {
		src := mapped[uint64(row)*stride:]
		copy(pixels[row*rowBytes:(row+1)*rowBytes], src[:rowBytes])
	}
	buf.Unmap()

	return pixels, nil
}

func (b *wgpuRendererBackendImpl) releaseFrameSurface() {
	if b.frameView != nil {
		b.frameView.Release()
		b.frameView = nil
	}
	if b.frameSurface != nil {
		b.frameSurface.Release()
		b.frameSurface = nil
	}
}

func (b *wgpuRendererBackendImpl) releaseSceneTargets() {
	if b.sceneView != nil {
		b.sceneView.Release()
		b.sceneView = nil
	}
	if b.sceneTexture != nil {
		b.sceneTexture.Release()
		b.sceneTexture = nil
	}
	if b.msaaView != nil {
		b.msaaView.Release()
		b.msaaView = nil
	}
	if b.msaaTexture != nil {
		b.msaaTexture.Release()
		b.msaaTexture = nil
	}
	if b.depthView != nil {
		b.depthView.Release()
		b.depthView = nil
	}
	if b.depthTexture != nil {
		b.depthTexture.Release()
		b.depthTexture = nil
	}
}

func (b *wgpuRendererBackendImpl) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.releaseFrameSurface()
	b.releaseSceneTargets()

	if b.compositeBindGroup != nil {
		b.compositeBindGroup.Release()
		b.compositeBindGroup = nil
	}
	if b.compositePipeline != nil {
		b.compositePipeline.Release()
		b.compositePipeline = nil
	}
	if b.compositeSampler != nil {
		b.compositeSampler.Release()
		b.compositeSampler = nil
	}
	if b.compositeLayout != nil {
		b.compositeLayout.Release()
		b.compositeLayout = nil
	}
	if b.compositeQuad != nil {
		b.compositeQuad.Release()
		b.compositeQuad = nil
	}
	if b.readbackBuffer != nil {
		b.readbackBuffer.Release()
		b.readbackBuffer = nil
	}

	if b.binder != nil {
		b.binder.Release()
		b.binder = nil
	}
}
