// Package config loads engine configuration from TOML files.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/ryanw/byd-go/common"
)

// ErrInvalidConfig indicates a configuration value outside its valid range.
var ErrInvalidConfig = errors.New("invalid configuration")

// WindowConfig controls the on-screen presentation window.
type WindowConfig struct {
	Title  string `toml:"title"`
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
}

// TerminalConfig controls the headless terminal presenter.
type TerminalConfig struct {
	Enabled bool `toml:"enabled"`
	Width   int  `toml:"width"`
	Height  int  `toml:"height"`
	FPS     int  `toml:"fps"`
}

// EngineConfig is the root configuration for an engine instance.
type EngineConfig struct {
	Window   WindowConfig   `toml:"window"`
	Terminal TerminalConfig `toml:"terminal"`

	TickRate         float64 `toml:"tick_rate"`
	RenderFrameLimit float64 `toml:"render_frame_limit"`
	SampleCount      int     `toml:"sample_count"`
	LogLevel         string  `toml:"log_level"`
}

// Default returns the engine configuration used when no file is provided.
func Default() EngineConfig {
	return EngineConfig{
		Window: WindowConfig{
			Title:  "byd",
			Width:  1024,
			Height: 768,
		},
		Terminal: TerminalConfig{
			Width:  128,
			Height: 128,
			FPS:    30,
		},
		TickRate:    60,
		SampleCount: 1,
		LogLevel:    "info",
	}
}

// Load reads and validates an engine configuration from a TOML file.
// Missing fields fall back to the defaults from Default.
//
// Parameters:
//   - path: filesystem path to the TOML configuration file
//
// Returns:
//   - EngineConfig: the merged configuration
//   - error: read, decode, or validation error
func Load(path string) (EngineConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return EngineConfig{}, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates an engine configuration from TOML bytes,
// merging defaults for any omitted fields.
func Parse(data []byte) (EngineConfig, error) {
	cfg := EngineConfig{}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return EngineConfig{}, fmt.Errorf("decode config: %w", err)
	}

	def := Default()
	cfg.Window.Title = common.Coalesce(cfg.Window.Title, def.Window.Title)
	cfg.Window.Width = common.Coalesce(cfg.Window.Width, def.Window.Width)
	cfg.Window.Height = common.Coalesce(cfg.Window.Height, def.Window.Height)
	cfg.Terminal.Width = common.Coalesce(cfg.Terminal.Width, def.Terminal.Width)
	cfg.Terminal.Height = common.Coalesce(cfg.Terminal.Height, def.Terminal.Height)
	cfg.Terminal.FPS = common.Coalesce(cfg.Terminal.FPS, def.Terminal.FPS)
	cfg.TickRate = common.Coalesce(cfg.TickRate, def.TickRate)
	cfg.SampleCount = common.Coalesce(cfg.SampleCount, def.SampleCount)
	cfg.LogLevel = common.Coalesce(cfg.LogLevel, def.LogLevel)

	if err := cfg.validate(); err != nil {
		return EngineConfig{}, err
	}
	return cfg, nil
}

func (c EngineConfig) validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("%w: window dimensions must be positive", ErrInvalidConfig)
	}
	if c.Terminal.Width <= 0 || c.Terminal.Height <= 0 {
		return fmt.Errorf("%w: terminal dimensions must be positive", ErrInvalidConfig)
	}
	if c.Terminal.FPS <= 0 {
		return fmt.Errorf("%w: terminal fps must be positive", ErrInvalidConfig)
	}
	if c.TickRate <= 0 {
		return fmt.Errorf("%w: tick rate must be positive", ErrInvalidConfig)
	}
	if c.SampleCount != 1 && c.SampleCount != 4 {
		return fmt.Errorf("%w: sample count must be 1 or 4", ErrInvalidConfig)
	}
	return nil
}
