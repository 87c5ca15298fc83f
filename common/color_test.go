package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestColorHSL(t *testing.T) {
	tests := []struct {
		name    string
		h, s, l float32
		want    Color
	}{
		{"red", 0, 1, 0.5, Color{1, 0, 0, 1}},
		{"green", 1.0 / 3.0, 1, 0.5, Color{0, 1, 0, 1}},
		{"blue", 2.0 / 3.0, 1, 0.5, Color{0, 0, 1, 1}},
		{"white", 0, 0, 1, Color{1, 1, 1, 1}},
		{"black", 0.5, 1, 0, Color{0, 0, 0, 1}},
		{"grey", 0.25, 0, 0.5, Color{0.5, 0.5, 0.5, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ColorHSL(tt.h, tt.s, tt.l)
			for i := range tt.want {
				assert.InDelta(t, tt.want[i], got[i], 1e-4)
			}
		})
	}
}
