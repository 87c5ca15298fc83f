// Package engine drives the frame lifecycle: a fixed-rate tick goroutine for
// simulation updates and a render goroutine that resolves scene changes,
// uploads uniforms, and submits draw calls. Output goes to a platform window
// or, in headless mode, to a terminal presenter fed from GPU readback.
package engine

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/ryanw/byd-go/engine/logger"
	"github.com/ryanw/byd-go/engine/profiler"
	"github.com/ryanw/byd-go/engine/renderer"
	"github.com/ryanw/byd-go/engine/scene"
	"github.com/ryanw/byd-go/engine/term"
	"github.com/ryanw/byd-go/engine/texture"
	"github.com/ryanw/byd-go/engine/window"
)

// engine implements the Engine interface.
type engine struct {
	tickRateChannel chan time.Duration

	running bool
	wg      sync.WaitGroup

	quitChannel chan struct{}
	quitOnce    sync.Once

	window    window.Window
	renderer  renderer.Renderer
	textures  texture.Registry
	presenter term.Presenter

	profiler         *profiler.Profiler
	profilingEnabled bool

	engineTickRate time.Duration
	tickCallback   func(deltaTime float32)
	renderCallback func(deltaTime float32)

	sceneMu sync.RWMutex
	scenes  map[int]scene.Scene

	resizeMu      sync.Mutex
	resizePending bool
	resizeWidth   int
	resizeHeight  int

	renderFrameLimit time.Duration
}

// Engine orchestrates the tick loop, render loop, and presentation target.
type Engine interface {
	// Window returns the underlying window, or nil in headless mode.
	//
	// Returns:
	//   - window.Window: the window instance
	Window() window.Window

	// Renderer returns the renderer driving the frame lifecycle.
	//
	// Returns:
	//   - renderer.Renderer: the renderer instance
	Renderer() renderer.Renderer

	// Textures returns the texture registry whose pending uploads the render
	// loop pushes to the GPU before each frame.
	//
	// Returns:
	//   - texture.Registry: the registry instance
	Textures() texture.Registry

	// EnableProfiler enables frame statistics output to the log.
	EnableProfiler()

	// DisableProfiler disables frame statistics output.
	DisableProfiler()

	// SetTickRate sets the simulation tick rate in ticks per second. Takes
	// effect immediately on a running engine.
	//
	// Parameters:
	//   - fps: target ticks per second (defaults to 60 if <= 0)
	SetTickRate(fps float64)

	// SetTickCallback registers the function called each simulation tick,
	// after scene updates. Use this for input processing and game logic.
	//
	// Parameters:
	//   - callback: function receiving the delta time in seconds
	SetTickCallback(callback func(deltaTime float32))

	// SetRenderCallback registers the function called at the end of each
	// render frame.
	//
	// Parameters:
	//   - callback: function receiving the delta time in seconds
	SetRenderCallback(callback func(deltaTime float32))

	// SetRenderFrameLimit caps the render loop in frames per second.
	// Pass 0 to uncap (default).
	//
	// Parameters:
	//   - fps: maximum render frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// AddScene registers a scene at the given z-index key. Scenes render in
	// ascending key order.
	//
	// Parameters:
	//   - key: the z-index determining render order (lower renders first)
	//   - s: the Scene to register
	AddScene(key int, s scene.Scene)

	// RemoveScene removes the scene at the given z-index key.
	//
	// Parameters:
	//   - key: the z-index of the scene to remove
	RemoveScene(key int)

	// Scene retrieves the scene registered at the given z-index key.
	//
	// Parameters:
	//   - key: the z-index of the scene to retrieve
	//
	// Returns:
	//   - scene.Scene: the scene at the key, or nil if not found
	Scene(key int) scene.Scene

	// Run starts the tick and render loops and blocks until the window
	// closes or Quit is called. On return all scenes have been released.
	Run()

	// Quit signals all engine goroutines to stop. Safe to call multiple
	// times and from any goroutine.
	Quit()
}

var _ Engine = &engine{}

// NewEngine creates an Engine with the provided options. A renderer is
// required; a window or a terminal presenter selects the presentation mode.
//
// Parameters:
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		tickRateChannel: make(chan time.Duration, 1),
		quitChannel:     make(chan struct{}),
		scenes:          make(map[int]scene.Scene),
		profiler:        profiler.NewProfiler(),
		engineTickRate:  time.Second / 60,
	}

	for _, opt := range options {
		opt(e)
	}

	if e.renderer == nil {
		panic("engine requires a renderer")
	}
	if e.textures == nil {
		e.textures = texture.NewRegistry()
	}

	if e.window != nil {
		e.window.SetResizeCallback(func(width, height int) {
			e.resizeMu.Lock()
			e.resizePending = true
			e.resizeWidth = width
			e.resizeHeight = height
			e.resizeMu.Unlock()
		})
	}

	return e
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Renderer() renderer.Renderer {
	return e.renderer
}

func (e *engine) Textures() texture.Registry {
	return e.textures
}

func (e *engine) Run() {
	e.running = true
	e.wg.Add(3)
	go e.handleTick()
	go e.handleRender()
	go e.handleQuit()

	if e.window != nil {
		// ProcessMessages blocks on the window message loop until the window
		// closes.
		e.window.ProcessMessages()
		e.signalQuit()
	} else {
		<-e.quitChannel
	}

	e.wg.Wait()
	e.shutdown()
}

func (e *engine) Quit() {
	e.signalQuit()
}

// signalQuit closes the quit channel exactly once.
func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		e.running = false
		close(e.quitChannel)
	})
}

// shutdown releases scene GPU resources and the presenter after both loops
// have stopped. The renderer and window belong to the caller.
func (e *engine) shutdown() {
	e.sceneMu.Lock()
	for _, s := range e.scenes {
		s.Release()
	}
	e.scenes = make(map[int]scene.Scene)
	e.sceneMu.Unlock()

	if e.presenter != nil {
		if err := e.presenter.Close(); err != nil {
			logger.Warn("presenter close failed", "error", err)
		}
	}
}

// handleTick runs the fixed-rate simulation loop. Fires scene updates and the
// tick callback at the configured rate, and listens for dynamic rate changes
// on tickRateChannel.
func (e *engine) handleTick() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.engineTickRate)
	defer ticker.Stop()

	lastTick := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		case <-ticker.C:
			now := time.Now()
			dt := float32(now.Sub(lastTick).Seconds())
			lastTick = now

			for _, s := range e.activeScenes() {
				s.Update(dt)
			}
			if e.tickCallback != nil {
				e.tickCallback(dt)
			}
		case newRate := <-e.tickRateChannel:
			ticker.Reset(newRate)
			e.engineTickRate = newRate
		}
	}
}

// handleRender runs the render loop: resolve queued scene changes, write
// uniforms, record draw calls, then present to the window or the terminal.
// Recovers from panics so a render fault shuts the engine down instead of
// crashing the process.
func (e *engine) handleRender() {
	defer e.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			logger.Error("render goroutine recovered from panic", "panic", r)
			e.signalQuit()
		}
	}()

	lastRender := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		default:
			now := time.Now()
			dt := float32(now.Sub(lastRender).Seconds())
			lastRender = now

			e.renderFrame(dt)

			if e.renderCallback != nil {
				e.renderCallback(dt)
			}
			if e.profilingEnabled && e.profiler != nil {
				e.profiler.Tick()
			}

			if e.renderFrameLimit > 0 {
				elapsed := time.Since(lastRender)
				if remaining := e.renderFrameLimit - elapsed; remaining > 0 {
					time.Sleep(remaining)
				}
			}
		}
	}
}

// renderFrame executes one full frame against the active scenes.
func (e *engine) renderFrame(dt float32) {
	e.applyPendingResize()

	if err := e.textures.Upload(e.renderer); err != nil {
		logger.Warn("texture upload failed", "error", err)
	}

	active := e.activeScenes()
	if len(active) == 0 {
		return
	}

	for _, s := range active {
		if err := s.Resolve(); err != nil {
			logger.Warn("scene resolve failed", "scene", s.Name(), "error", err)
		}
	}
	for _, s := range active {
		s.PrepareFrame()
	}

	if err := e.renderer.BeginFrame(); err != nil {
		logger.Warn("begin frame failed", "error", err)
		return
	}
	for _, s := range active {
		if err := s.DrawCalls(); err != nil {
			logger.Warn("scene draw failed", "scene", s.Name(), "error", err)
		}
	}

	if err := e.renderer.EndFrame(); err != nil {
		switch {
		case errors.Is(err, renderer.ErrSurfaceLost):
			// The surface comes back after reconfiguration; retry next frame.
			logger.Warn("surface lost, reconfiguring", "error", err)
			e.reconfigureSurface()
		case errors.Is(err, renderer.ErrOutOfMemory):
			logger.Error("device out of memory", "error", err)
			e.signalQuit()
		default:
			logger.Warn("end frame failed", "error", err)
		}
		return
	}

	if e.presenter != nil {
		e.presentToTerminal()
	} else {
		e.renderer.Present()
	}
}

// applyPendingResize reconfigures the surface and cameras on the render
// goroutine so resize never races an in-flight frame.
func (e *engine) applyPendingResize() {
	e.resizeMu.Lock()
	pending, width, height := e.resizePending, e.resizeWidth, e.resizeHeight
	e.resizePending = false
	e.resizeMu.Unlock()

	if !pending || width <= 0 || height <= 0 {
		return
	}

	e.renderer.Resize(width, height)
	aspect := float32(width) / float32(height)
	for _, s := range e.activeScenes() {
		if c := s.Camera(); c != nil {
			c.SetAspect(aspect)
		}
	}
}

// reconfigureSurface re-applies the current window dimensions after a lost
// or outdated surface.
func (e *engine) reconfigureSurface() {
	if e.window == nil {
		return
	}
	e.renderer.Resize(e.window.Width(), e.window.Height())
}

// presentToTerminal reads the offscreen frame back and hands it to the
// presenter, which paces output to its configured frame rate.
func (e *engine) presentToTerminal() {
	pixels, width, height, err := e.renderer.ReadPixels()
	if err != nil {
		// A timed-out readback drops one frame; the next frame retries.
		logger.Warn("frame readback failed", "error", err)
		return
	}
	if err := e.presenter.Present(pixels, width, height); err != nil {
		logger.Warn("terminal present failed", "error", err)
	}
}

// activeScenes returns the active scenes in ascending z-index order.
func (e *engine) activeScenes() []scene.Scene {
	e.sceneMu.RLock()
	defer e.sceneMu.RUnlock()

	keys := make([]int, 0, len(e.scenes))
	for k := range e.scenes {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	active := make([]scene.Scene, 0, len(keys))
	for _, k := range keys {
		if s := e.scenes[k]; s.Active() {
			active = append(active, s)
		}
	}
	return active
}

// handleQuit blocks until the quit channel is closed.
func (e *engine) handleQuit() {
	defer e.wg.Done()
	<-e.quitChannel
}

func (e *engine) EnableProfiler() {
	e.profilingEnabled = true
}

func (e *engine) DisableProfiler() {
	e.profilingEnabled = false
}

// SetTickRate sets the simulation tick rate. On a running engine the change
// is delivered through tickRateChannel and takes effect immediately.
func (e *engine) SetTickRate(fps float64) {
	if fps <= 0 {
		fps = 60
	}
	newRate := time.Second / time.Duration(fps)

	if e.running {
		// Replace any pending update without ever blocking, even when a
		// concurrent caller refills the channel between the receive and
		// the send.
		for {
			select {
			case e.tickRateChannel <- newRate:
				return
			default:
			}
			select {
			case <-e.tickRateChannel:
			default:
			}
		}
	} else {
		e.engineTickRate = newRate
	}
}

func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.tickCallback = callback
}

func (e *engine) SetRenderCallback(callback func(deltaTime float32)) {
	e.renderCallback = callback
}

func (e *engine) SetRenderFrameLimit(fps float64) {
	if fps <= 0 {
		e.renderFrameLimit = 0
		return
	}
	e.renderFrameLimit = time.Second / time.Duration(fps)
}

func (e *engine) AddScene(key int, s scene.Scene) {
	e.sceneMu.Lock()
	e.scenes[key] = s
	e.sceneMu.Unlock()
}

func (e *engine) RemoveScene(key int) {
	e.sceneMu.Lock()
	delete(e.scenes, key)
	e.sceneMu.Unlock()
}

func (e *engine) Scene(key int) scene.Scene {
	e.sceneMu.RLock()
	defer e.sceneMu.RUnlock()
	return e.scenes[key]
}
