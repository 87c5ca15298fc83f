package engine

import (
	"time"

	"github.com/ryanw/byd-go/engine/config"
	"github.com/ryanw/byd-go/engine/logger"
	"github.com/ryanw/byd-go/engine/renderer"
	"github.com/ryanw/byd-go/engine/scene"
	"github.com/ryanw/byd-go/engine/term"
	"github.com/ryanw/byd-go/engine/texture"
	"github.com/ryanw/byd-go/engine/window"
)

// EngineBuilderOption is a functional option for configuring an Engine.
type EngineBuilderOption func(*engine)

// WithConfig applies tick rate, render frame limit, and log level from an
// engine configuration, and attaches a terminal presenter when terminal
// output is enabled.
//
// Parameters:
//   - cfg: the engine configuration
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithConfig(cfg config.EngineConfig) EngineBuilderOption {
	return func(e *engine) {
		logger.SetLevel(cfg.LogLevel)
		if cfg.TickRate > 0 {
			e.engineTickRate = time.Second / time.Duration(cfg.TickRate)
		}
		if cfg.RenderFrameLimit > 0 {
			e.renderFrameLimit = time.Second / time.Duration(cfg.RenderFrameLimit)
		}
		if cfg.Terminal.Enabled {
			e.presenter = term.NewPresenter(
				term.WithResolution(cfg.Terminal.Width, cfg.Terminal.Height),
				term.WithFPS(cfg.Terminal.FPS),
			)
		}
	}
}

// WithRenderer sets the renderer driving the frame lifecycle. Required.
//
// Parameters:
//   - r: a configured renderer
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderer(r renderer.Renderer) EngineBuilderOption {
	return func(e *engine) {
		e.renderer = r
	}
}

// WithWindow sets a pre-configured window for on-screen presentation.
// Engines without a window run headless.
//
// Parameters:
//   - w: a pre-configured Window instance
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithPresenter sets a terminal presenter for headless output. Overrides the
// presenter a WithConfig option would create.
//
// Parameters:
//   - p: a configured presenter
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithPresenter(p term.Presenter) EngineBuilderOption {
	return func(e *engine) {
		e.presenter = p
	}
}

// WithTextures sets the texture registry whose pending uploads the render
// loop flushes before each frame. A fresh registry is created when omitted.
//
// Parameters:
//   - reg: the texture registry
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithTextures(reg texture.Registry) EngineBuilderOption {
	return func(e *engine) {
		e.textures = reg
	}
}

// WithScene registers a scene at the given z-index key during construction.
// Scenes render in ascending key order.
//
// Parameters:
//   - key: the z-index determining render order (lower renders first)
//   - s: the Scene to register
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithScene(key int, s scene.Scene) EngineBuilderOption {
	return func(e *engine) {
		e.scenes[key] = s
	}
}

// WithProfiling enables or disables frame statistics output.
//
// Parameters:
//   - enabled: if true, enables profiling
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = enabled
	}
}

// WithTickRate sets the simulation tick rate in ticks per second.
// Values <= 0 fall back to the default 60Hz.
//
// Parameters:
//   - fps: target ticks per second (default 60)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithTickRate(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			fps = 60.0
		}
		e.engineTickRate = time.Second / time.Duration(fps)
	}
}

// WithRenderFrameLimit caps the render loop in frames per second.
// Pass 0 to uncap (default).
//
// Parameters:
//   - fps: maximum render frames per second (0 = uncapped)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			e.renderFrameLimit = 0
			return
		}
		e.renderFrameLimit = time.Second / time.Duration(fps)
	}
}
