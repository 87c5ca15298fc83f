package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse([]byte(""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParseOverrides(t *testing.T) {
	doc := []byte(`
tick_rate = 30
sample_count = 4
log_level = "debug"

[window]
title = "demo"
width = 640
height = 480

[terminal]
enabled = true
fps = 15
`)
	cfg, err := Parse(doc)
	require.NoError(t, err)
	assert.Equal(t, "demo", cfg.Window.Title)
	assert.Equal(t, 640, cfg.Window.Width)
	assert.Equal(t, 480, cfg.Window.Height)
	assert.True(t, cfg.Terminal.Enabled)
	assert.Equal(t, 15, cfg.Terminal.FPS)
	// Omitted terminal dimensions keep their defaults.
	assert.Equal(t, 128, cfg.Terminal.Width)
	assert.Equal(t, 30.0, cfg.TickRate)
	assert.Equal(t, 4, cfg.SampleCount)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestParseRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"negative width", "[window]\nwidth = -1"},
		{"bad sample count", "sample_count = 3"},
		{"negative tick rate", "tick_rate = -60"},
		{"not toml", "{ nope"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}
