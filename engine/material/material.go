// Package material defines the closed set of material variants an object can
// be drawn with. Materials are pure data; the renderer inspects the variant
// tag to select a pipeline family and fill the per-object uniform record.
package material

import (
	"github.com/ryanw/byd-go/common"
)

// Kind tags a material variant.
type Kind int

const (
	// KindBasic draws with a flat RGBA color.
	KindBasic Kind = iota
	// KindTextured samples a registered texture, tinted by the base color.
	KindTextured
	// KindLine draws line-list geometry in a fixed debug color.
	KindLine
	// KindCustom draws with a caller-registered pipeline.
	KindCustom
)

// Pipeline keys for the built-in pipeline families. Basic and Textured share
// one pipeline; a per-draw uniform toggles sampling.
const (
	PipelinePrimitive = "primitive"
	PipelineLine      = "line"
)

// LineColor is the fixed color used by the Line variant.
var LineColor = common.NewColor(1, 0.25, 0.75, 1)

// defaultColor is applied to objects that never had a material assigned.
var defaultColor = common.NewColor(1, 0.25, 0.1, 1)

// Material describes how an object is shaded. The zero value is not valid;
// use one of the constructors. Variant-specific fields are only meaningful
// for their own Kind.
type Material struct {
	kind      Kind
	color     common.Color
	textureID uint64
	pipeline  string
}

// NewBasic creates a flat-color material.
func NewBasic(color common.Color) Material {
	return Material{kind: KindBasic, color: color, pipeline: PipelinePrimitive}
}

// NewTextured creates a material sampling the texture registered under id,
// tinted white.
func NewTextured(textureID uint64) Material {
	return Material{
		kind:      KindTextured,
		color:     common.NewColor(1, 1, 1, 1),
		textureID: textureID,
		pipeline:  PipelinePrimitive,
	}
}

// NewLine creates the debug line material.
func NewLine() Material {
	return Material{kind: KindLine, color: LineColor, pipeline: PipelineLine}
}

// NewCustom creates a material drawn with the pipeline registered under key.
// The color is passed through to the per-object uniform unchanged.
func NewCustom(pipelineKey string, color common.Color) Material {
	return Material{kind: KindCustom, color: color, pipeline: pipelineKey}
}

// Default returns the material applied to objects with no explicit material.
func Default() Material {
	return NewBasic(defaultColor)
}

// Kind reports the variant tag.
func (m Material) Kind() Kind {
	return m.kind
}

// Color reports the RGBA color contributed to the per-object uniform record.
func (m Material) Color() common.Color {
	return m.color
}

// TextureID reports the texture bound for the Textured variant. Zero selects
// the built-in placeholder.
func (m Material) TextureID() uint64 {
	return m.textureID
}

// PipelineKey reports the pipeline family the variant renders with.
func (m Material) PipelineKey() string {
	return m.pipeline
}

// NeedsTexture reports whether draws with this material must bind a texture
// with sampling enabled.
func (m Material) NeedsTexture() bool {
	return m.kind == KindTextured
}
