// Package binder owns the shared GPU uniform buffers (camera, per-object
// array, texture-enabled flags) and the bind groups built against the
// built-in pipeline layouts. Per-object addressing uses dynamic offsets:
// each mounted object holds a dense slot and its uniform record lives at
// slot * alignment, where alignment is queried from the device at
// construction, never hard-coded.
package binder

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/ryanw/byd-go/engine/logger"
)

// uniformRecordSize is the bound size of both the camera and per-object
// uniform bindings (mat4x4 + vec4).
const uniformRecordSize = 80

// binderImpl is the implementation of the Binder interface.
type binderImpl struct {
	mu *sync.RWMutex

	device    *wgpu.Device
	queue     *wgpu.Queue
	alignment uint64

	cameraBuffer  *wgpu.Buffer
	objectBuffer  *wgpu.Buffer
	enabledBuffer *wgpu.Buffer

	uniformLayout *wgpu.BindGroupLayout
	textureLayout *wgpu.BindGroupLayout

	uniformBindGroup *wgpu.BindGroup

	textures map[uint64]*textureBinding
}

// textureBinding bundles the GPU resources behind one registered texture.
type textureBinding struct {
	texture   *wgpu.Texture
	view      *wgpu.TextureView
	sampler   *wgpu.Sampler
	bindGroup *wgpu.BindGroup
}

// Binder maintains the shared uniform buffers and bind groups used by every
// draw call. It is created by the renderer once a live device exists.
type Binder interface {
	// Alignment returns the device-reported minimum uniform buffer offset
	// alignment used for slot addressing.
	//
	// Returns:
	//   - uint64: the alignment in bytes
	Alignment() uint64

	// ObjectOffset converts a dense slot index into the dynamic offset for
	// the per-object uniform array.
	//
	// Parameters:
	//   - slot: the dense slot index
	//
	// Returns:
	//   - uint64: the byte offset (slot * alignment)
	ObjectOffset(slot int) uint64

	// EnabledOffset returns the dynamic offset into the texture-enabled
	// buffer for a texture id: offset 0 reads the disabled flag, offset
	// alignment reads the enabled flag. Id 0 (the placeholder) is always
	// disabled so untextured draws skip sampling.
	//
	// Parameters:
	//   - textureID: the texture id being bound
	//
	// Returns:
	//   - uint64: the dynamic offset for the enabled flag
	EnabledOffset(textureID uint64) uint64

	// UniformLayout returns the bind group layout for group 0 (camera +
	// per-object uniforms).
	UniformLayout() *wgpu.BindGroupLayout

	// TextureLayout returns the bind group layout for group 1 (enabled
	// flag + texture + sampler).
	TextureLayout() *wgpu.BindGroupLayout

	// UniformBindGroup returns the bind group for group 0, shared by all
	// draws.
	UniformBindGroup() *wgpu.BindGroup

	// TextureBindGroup returns the bind group for a registered texture id.
	//
	// Parameters:
	//   - id: the texture id
	//
	// Returns:
	//   - *wgpu.BindGroup: the bind group
	//   - bool: false if the id was never registered
	TextureBindGroup(id uint64) (*wgpu.BindGroup, bool)

	// RegisterTexture uploads RGBA8 pixels as a sampleable texture and
	// builds its bind group. Registering an id twice replaces the previous
	// resources.
	//
	// Parameters:
	//   - id: the texture id to register
	//   - width, height: texture dimensions in pixels
	//   - pixels: RGBA8 pixel data, 4*width*height bytes
	//
	// Returns:
	//   - error: creation or upload failure
	RegisterTexture(id uint64, width, height uint32, pixels []byte) error

	// Write flushes staged buffer writes to the GPU queue in one batch.
	//
	// Parameters:
	//   - writes: the staged writes to flush
	Write(writes []BufferWrite)

	// Release frees every GPU resource owned by the binder.
	Release()
}

var _ Binder = &binderImpl{}

// NewBinder creates the shared uniform buffers and layouts against a live
// device. The texture-enabled buffer is primed with the disabled flag at
// offset 0 and the enabled flag at offset alignment so both states are
// addressable with a dynamic offset.
//
// Parameters:
//   - device: the WebGPU device
//   - queue: the device queue used for uploads
//   - alignment: the device's minimum uniform buffer offset alignment
//
// Returns:
//   - Binder: the new binder
//   - error: buffer, layout, or bind group creation failure
func NewBinder(device *wgpu.Device, queue *wgpu.Queue, alignment uint64) (Binder, error) {
	if alignment < uniformRecordSize {
		alignment = uniformRecordSize
	}

	b := &binderImpl{
		mu:        &sync.RWMutex{},
		device:    device,
		queue:     queue,
		alignment: alignment,
		textures:  make(map[uint64]*textureBinding),
	}

	var err error
	b.cameraBuffer, err = device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Camera Uniform Buffer",
		Size:  alignment,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create camera buffer: %w", err)
	}

	b.objectBuffer, err = device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Object Uniform Buffer",
		Size:  MaxObjects * alignment,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object buffer: %w", err)
	}

	b.enabledBuffer, err = device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Texture Enabled Buffer",
		Size:  2 * alignment,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create texture enabled buffer: %w", err)
	}

	// Slot 0 holds the disabled flag, slot 1 the enabled flag.
	flag := make([]byte, 4)
	queue.WriteBuffer(b.enabledBuffer, 0, flag)
	binary.LittleEndian.PutUint32(flag, 1)
	queue.WriteBuffer(b.enabledBuffer, alignment, flag)

	if err = b.createLayouts(); err != nil {
		return nil, err
	}
	if err = b.createUniformBindGroup(); err != nil {
		return nil, err
	}

	logger.Debug("binder ready", "alignment", alignment, "capacity", MaxObjects)
	return b, nil
}

func (b *binderImpl) createLayouts() error {
	var err error
	b.uniformLayout, err = b.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "Uniform Bind Group Layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeUniform,
					MinBindingSize: uniformRecordSize,
				},
			},
			{
				Binding:    1,
				Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
				Buffer: wgpu.BufferBindingLayout{
					Type:             wgpu.BufferBindingTypeUniform,
					HasDynamicOffset: true,
					MinBindingSize:   uniformRecordSize,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create uniform layout: %w", err)
	}

	b.textureLayout, err = b.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "Texture Bind Group Layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageFragment,
				Buffer: wgpu.BufferBindingLayout{
					Type:             wgpu.BufferBindingTypeUniform,
					HasDynamicOffset: true,
					MinBindingSize:   4,
				},
			},
			{
				Binding:    1,
				Visibility: wgpu.ShaderStageFragment,
				Texture: wgpu.TextureBindingLayout{
					SampleType:    wgpu.TextureSampleTypeFloat,
					ViewDimension: wgpu.TextureViewDimension2D,
				},
			},
			{
				Binding:    2,
				Visibility: wgpu.ShaderStageFragment,
				Sampler: wgpu.SamplerBindingLayout{
					Type: wgpu.SamplerBindingTypeFiltering,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create texture layout: %w", err)
	}
	return nil
}

func (b *binderImpl) createUniformBindGroup() error {
	var err error
	b.uniformBindGroup, err = b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "Uniform Bind Group",
		Layout: b.uniformLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: b.cameraBuffer, Offset: 0, Size: uniformRecordSize},
			{Binding: 1, Buffer: b.objectBuffer, Offset: 0, Size: uniformRecordSize},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create uniform bind group: %w", err)
	}
	return nil
}

func (b *binderImpl) Alignment() uint64 {
	return b.alignment
}

func (b *binderImpl) ObjectOffset(slot int) uint64 {
	return Offset(slot, b.alignment)
}

func (b *binderImpl) EnabledOffset(textureID uint64) uint64 {
	if textureID == 0 {
		return 0
	}
	return b.alignment
}

func (b *binderImpl) UniformLayout() *wgpu.BindGroupLayout {
	return b.uniformLayout
}

func (b *binderImpl) TextureLayout() *wgpu.BindGroupLayout {
	return b.textureLayout
}

func (b *binderImpl) UniformBindGroup() *wgpu.BindGroup {
	return b.uniformBindGroup
}

func (b *binderImpl) TextureBindGroup(id uint64) (*wgpu.BindGroup, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	tb, ok := b.textures[id]
	if !ok {
		return nil, false
	}
	return tb.bindGroup, true
}

func (b *binderImpl) RegisterTexture(id uint64, width, height uint32, pixels []byte) error {
	if uint64(len(pixels)) != 4*uint64(width)*uint64(height) {
		return fmt.Errorf("texture %d: pixel data is %d bytes, want %d", id, len(pixels), 4*width*height)
	}

	label := fmt.Sprintf("Texture %d", id)
	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: label,
		Size: wgpu.Extent3D{
			Width:              width,
			Height:             height,
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatRGBA8UnormSrgb,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("failed to create texture %d: %w", id, err)
	}

	b.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  tex,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		pixels,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  4 * width,
			RowsPerImage: height,
		},
		&wgpu.Extent3D{
			Width:              width,
			Height:             height,
			DepthOrArrayLayers: 1,
		},
	)

	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return fmt.Errorf("failed to create texture view %d: %w", id, err)
	}

	sampler, err := b.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         label + " Sampler",
		AddressModeU:  wgpu.AddressModeRepeat,
		AddressModeV:  wgpu.AddressModeRepeat,
		AddressModeW:  wgpu.AddressModeRepeat,
		MagFilter:     wgpu.FilterModeNearest,
		MinFilter:     wgpu.FilterModeNearest,
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		LodMinClamp:   0,
		LodMaxClamp:   32,
		MaxAnisotropy: 1,
	})
	if err != nil {
		view.Release()
		tex.Release()
		return fmt.Errorf("failed to create sampler %d: %w", id, err)
	}

	bindGroup, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  label + " Bind Group",
		Layout: b.textureLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: b.enabledBuffer, Offset: 0, Size: 4},
			{Binding: 1, TextureView: view},
			{Binding: 2, Sampler: sampler},
		},
	})
	if err != nil {
		sampler.Release()
		view.Release()
		tex.Release()
		return fmt.Errorf("failed to create texture bind group %d: %w", id, err)
	}

	b.mu.Lock()
	if old, ok := b.textures[id]; ok {
		old.release()
	}
	b.textures[id] = &textureBinding{texture: tex, view: view, sampler: sampler, bindGroup: bindGroup}
	b.mu.Unlock()

	logger.Debug("texture bound", "id", id, "width", width, "height", height)
	return nil
}

func (b *binderImpl) Write(writes []BufferWrite) {
	for _, w := range writes {
		switch w.Target {
		case TargetCamera:
			b.queue.WriteBuffer(b.cameraBuffer, w.Offset, w.Data)
		case TargetObjectArray:
			b.queue.WriteBuffer(b.objectBuffer, w.Offset, w.Data)
		}
	}
}

func (b *binderImpl) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, tb := range b.textures {
		tb.release()
	}
	b.textures = make(map[uint64]*textureBinding)

	if b.uniformBindGroup != nil {
		b.uniformBindGroup.Release()
		b.uniformBindGroup = nil
	}
	if b.uniformLayout != nil {
		b.uniformLayout.Release()
		b.uniformLayout = nil
	}
	if b.textureLayout != nil {
		b.textureLayout.Release()
		b.textureLayout = nil
	}
	for _, buf := range []*wgpu.Buffer{b.cameraBuffer, b.objectBuffer, b.enabledBuffer} {
		if buf != nil {
			buf.Release()
		}
	}
	b.cameraBuffer, b.objectBuffer, b.enabledBuffer = nil, nil, nil
}

func (tb *textureBinding) release() {
	if tb.bindGroup != nil {
		tb.bindGroup.Release()
	}
	if tb.sampler != nil {
		tb.sampler.Release()
	}
	if tb.view != nil {
		tb.view.Release()
	}
	if tb.texture != nil {
		tb.texture.Release()
	}
}
