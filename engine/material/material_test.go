package material

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ryanw/byd-go/common"
)

func TestVariantDispatch(t *testing.T) {
	tests := []struct {
		name         string
		m            Material
		kind         Kind
		pipeline     string
		needsTexture bool
	}{
		{"basic", NewBasic(common.NewColor(1, 0, 0, 1)), KindBasic, PipelinePrimitive, false},
		{"textured", NewTextured(7), KindTextured, PipelinePrimitive, true},
		{"line", NewLine(), KindLine, PipelineLine, false},
		{"custom", NewCustom("toon", common.NewColor(0, 1, 0, 1)), KindCustom, "toon", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, tt.m.Kind())
			assert.Equal(t, tt.pipeline, tt.m.PipelineKey())
			assert.Equal(t, tt.needsTexture, tt.m.NeedsTexture())
		})
	}
}

func TestTexturedDefaults(t *testing.T) {
	m := NewTextured(3)
	assert.Equal(t, uint64(3), m.TextureID())
	assert.Equal(t, common.NewColor(1, 1, 1, 1), m.Color())
}

func TestDefaultIsDrawable(t *testing.T) {
	m := Default()
	assert.Equal(t, KindBasic, m.Kind())
	assert.Equal(t, PipelinePrimitive, m.PipelineKey())
	assert.NotZero(t, m.Color()[3], "default material must be opaque")
}

func TestLineColorFixed(t *testing.T) {
	assert.Equal(t, LineColor, NewLine().Color())
}
