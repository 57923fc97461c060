// Package engine drives the frame loop: it acquires swapchain frames, records the main
// pass, submits and presents, and applies resizes and asset rebuilds between frames.
package engine

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/prism/common"
	"github.com/Carmen-Shannon/prism/engine/camera"
	"github.com/Carmen-Shannon/prism/engine/core"
	"github.com/Carmen-Shannon/prism/engine/errs"
	"github.com/Carmen-Shannon/prism/engine/logger"
	"github.com/Carmen-Shannon/prism/engine/profiler"
	"github.com/Carmen-Shannon/prism/engine/renderer/pass"
	"github.com/Carmen-Shannon/prism/engine/renderer/resource"
	"github.com/Carmen-Shannon/prism/engine/watcher"
	"github.com/Carmen-Shannon/prism/engine/window"
)

// FrameStats counts frames since the engine was created.
type FrameStats struct {
	Rendered uint64
	Dropped  uint64
	Failed   uint64
}

// engine implements the Engine interface.
type engine struct {
	// mu is the frame lock. It is held for a whole frame and for every resize, rebuild,
	// camera update and watcher invalidation, so none of them interleave with a frame.
	mu   sync.Mutex
	core core.Core
	main *pass.MainPass
	// stale is set when a rebuild after invalidation failed; frames are skipped until a
	// rebuild succeeds because the pass may reference released cache entries.
	stale bool

	window     window.Window
	controller camera.CameraController
	watcher    watcher.Watcher
	watchDirs  *watcher.Dirs

	profiler         *profiler.Profiler
	profilingEnabled atomic.Bool

	tickRateChannel  chan time.Duration
	engineTickRate   time.Duration
	renderFrameLimit time.Duration
	failureBackoff   time.Duration

	running     atomic.Bool
	wg          sync.WaitGroup
	quitChannel chan struct{}
	quitOnce    sync.Once
	closeOnce   sync.Once

	rendered atomic.Uint64
	dropped  atomic.Uint64
	failed   atomic.Uint64
}

// Engine owns the frame loop over a core and its main pass.
type Engine interface {
	// Core returns the core the engine renders with.
	Core() core.Core

	// MainPass returns the live main pass. Callers must not use it concurrently with Run.
	MainPass() *pass.MainPass

	// Window returns the window, or nil when the engine runs headless.
	Window() window.Window

	// RenderFrame renders one frame. A frame that cannot be acquired is logged as
	// "dropped frame" at warn level and skipped without error.
	//
	// Returns:
	//   - bool: true if a frame was submitted and presented
	//   - error: errs.ErrClosed once the core is shut down, or the pass error of a failed frame
	RenderFrame() (bool, error)

	// Resize reconfigures the swapchain and refreshes the main pass before the next frame.
	// A zero dimension is ignored.
	//
	// Parameters:
	//   - width: the new framebuffer width
	//   - height: the new framebuffer height
	//
	// Returns:
	//   - error: error if the surface or the pass cannot be rebuilt
	Resize(width, height uint32) error

	// Rebuild empties every asset cache and rebuilds the main pass from disk.
	//
	// Returns:
	//   - error: error if the pass cannot be rebuilt; the previous pass is kept
	Rebuild() error

	// HandleKey routes a key event: Esc quits, R rebuilds, anything else goes to the
	// camera controller.
	//
	// Parameters:
	//   - key: a common.Key* code
	//   - pressed: true on press or repeat, false on release
	HandleKey(key int, pressed bool)

	// Tick advances the camera controller by dt seconds.
	Tick(dt float32)

	// SetTickRate sets the camera tick rate in ticks per second. Values <= 0 mean 60.
	SetTickRate(fps float64)

	// EnableProfiler enables periodic frame statistics in the log.
	EnableProfiler()

	// DisableProfiler disables periodic frame statistics.
	DisableProfiler()

	// Stats returns the frame counters.
	Stats() FrameStats

	// Run starts the tick and render goroutines and blocks until the window closes or Quit
	// is called, then releases the main pass, the watcher and the core.
	Run()

	// Quit signals Run to stop. Safe to call more than once and from any goroutine.
	Quit()
}

var _ Engine = &engine{}

// NewEngine builds the main pass for the core's current swapchain and wires the window
// callbacks when a window is given.
//
// Parameters:
//   - c: the core
//   - config: the main pass configuration
//   - options: functional options (window, watcher, camera controller, tick rate, profiling)
//
// Returns:
//   - Engine: the engine
//   - error: error if the main pass or the watcher cannot be created
func NewEngine(c core.Core, config pass.MainPassConfig, options ...EngineBuilderOption) (Engine, error) {
	e := &engine{
		core:            c,
		tickRateChannel: make(chan time.Duration, 1),
		quitChannel:     make(chan struct{}),
		profiler:        profiler.NewProfiler(time.Second),
		engineTickRate:  time.Second / 60,
		failureBackoff:  100 * time.Millisecond,
	}
	for _, opt := range options {
		opt(e)
	}
	if e.controller == nil {
		e.controller = camera.NewCameraController()
	}

	main, _, err := pass.NewMainPass(c, config, c.Swapchain())
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	e.main = main

	if e.watchDirs != nil {
		w, err := watcher.NewWatcher(c, *e.watchDirs, watcher.WithLocker(&e.mu))
		if err != nil {
			main.Release()
			return nil, fmt.Errorf("engine: %w", err)
		}
		e.watcher = w
	}

	if e.window != nil {
		e.window.SetResizeCallback(func(width, height uint32) {
			if err := e.Resize(width, height); err != nil {
				logger.Logger().Error("resize failed", "width", width, "height", height, "error", err)
			}
		})
		e.window.SetKeyCallback(e.HandleKey)
	}
	return e, nil
}

func (e *engine) Core() core.Core {
	return e.core
}

func (e *engine) MainPass() *pass.MainPass {
	return e.main
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) RenderFrame() (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.watcher != nil {
		select {
		case <-e.watcher.Requests():
			e.refreshLocked()
		default:
		}
	}
	if e.stale {
		e.dropped.Add(1)
		return false, nil
	}

	frame, err := e.core.AcquireFrame()
	if err != nil {
		if errors.Is(err, errs.ErrClosed) {
			return false, err
		}
		e.dropped.Add(1)
		e.profiler.Drop()
		logger.Logger().Warn("dropped frame", "error", err)
		return false, nil
	}

	if err := e.recordAndSubmit(frame); err != nil {
		frame.Texture.Discard()
		e.failed.Add(1)
		return false, err
	}
	frame.Texture.Present()
	e.rendered.Add(1)
	if e.profilingEnabled.Load() {
		e.profiler.Tick()
	}
	return true, nil
}

// recordAndSubmit records the main pass into a fresh encoder and submits it.
func (e *engine) recordAndSubmit(frame resource.Frame) error {
	enc, err := e.core.Device().CreateCommandEncoder("Frame Encoder")
	if err != nil {
		return fmt.Errorf("frame: %w", err)
	}
	defer enc.Release()

	if _, err := e.main.Perform(enc, frame); err != nil {
		return fmt.Errorf("frame: %w", err)
	}
	cmd, err := enc.Finish()
	if err != nil {
		return fmt.Errorf("frame: %w", err)
	}
	e.core.Device().Queue().Submit(cmd)
	cmd.Release()
	return nil
}

func (e *engine) Resize(width, height uint32) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	changed, err := e.core.Resize(width, height)
	if err != nil || !changed {
		return err
	}
	if _, err := e.main.Refresh(e.main.Config(), e.core.Swapchain()); err != nil {
		e.stale = true
		return fmt.Errorf("resize: %w", err)
	}
	e.stale = false
	return nil
}

func (e *engine) Rebuild() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.main.ClearCachesAndRefresh(e.core.Swapchain()); err != nil {
		// the caches are empty and the old pass holds released entries
		e.stale = true
		return fmt.Errorf("rebuild: %w", err)
	}
	e.stale = false
	return nil
}

// refreshLocked rebuilds the main pass after the watcher invalidated cache entries.
func (e *engine) refreshLocked() {
	if _, err := e.main.Refresh(e.main.Config(), e.core.Swapchain()); err != nil {
		if !e.stale {
			logger.Logger().Error("asset rebuild failed, skipping frames until the next change", "error", err)
		}
		e.stale = true
		return
	}
	if e.stale {
		logger.Logger().Info("asset rebuild recovered")
	}
	e.stale = false
}

func (e *engine) HandleKey(key int, pressed bool) {
	switch {
	case key == common.KeyEsc && pressed:
		e.Quit()
	case key == common.KeyR && pressed:
		if err := e.Rebuild(); err != nil {
			logger.Logger().Error("rebuild failed", "error", err)
		}
	case pressed:
		e.controller.KeyDown(key)
	default:
		e.controller.KeyUp(key)
	}
}

func (e *engine) Tick(dt float32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if basic := e.main.Basic(); basic != nil {
		e.controller.Update(dt, basic.Camera())
	}
}

func (e *engine) SetTickRate(fps float64) {
	if fps <= 0 {
		fps = 60
	}
	rate := time.Duration(float64(time.Second) / fps)
	if !e.running.Load() {
		e.engineTickRate = rate
		return
	}
	// replace any pending update with the newest rate
	select {
	case <-e.tickRateChannel:
	default:
	}
	e.tickRateChannel <- rate
}

func (e *engine) EnableProfiler() {
	e.profilingEnabled.Store(true)
}

func (e *engine) DisableProfiler() {
	e.profilingEnabled.Store(false)
}

func (e *engine) Stats() FrameStats {
	return FrameStats{
		Rendered: e.rendered.Load(),
		Dropped:  e.dropped.Load(),
		Failed:   e.failed.Load(),
	}
}

func (e *engine) Run() {
	e.running.Store(true)
	e.wg.Add(2)
	go e.handleEngine()
	go e.handleRender()

	if e.window != nil {
		e.window.SetUpdateCallback(func() {
			select {
			case <-e.quitChannel:
				e.window.RequestClose()
			default:
			}
		})
		e.window.ProcessMessages()
		e.Quit()
	} else {
		<-e.quitChannel
	}

	e.wg.Wait()
	e.running.Store(false)
	e.close()
}

func (e *engine) Quit() {
	e.quitOnce.Do(func() {
		close(e.quitChannel)
	})
}

// close releases the main pass, then the watcher, then the core. The watcher is closed
// without the frame lock since its goroutine may be waiting on it.
func (e *engine) close() {
	e.closeOnce.Do(func() {
		if e.watcher != nil {
			if err := e.watcher.Close(); err != nil {
				logger.Logger().Warn("watcher close failed", "error", err)
			}
		}
		e.mu.Lock()
		e.main.Release()
		e.mu.Unlock()
		e.core.Shutdown()
		s := e.Stats()
		logger.Logger().Info("engine stopped", "rendered", s.Rendered, "dropped", s.Dropped, "failed", s.Failed)
	})
}

// handleEngine runs the fixed-rate camera tick loop until quit.
func (e *engine) handleEngine() {
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
			e.Tick(float32(now.Sub(lastTick).Seconds()))
			lastTick = now
		case rate := <-e.tickRateChannel:
			ticker.Reset(rate)
			e.engineTickRate = rate
		}
	}
}

// handleRender renders frames until quit. A failed frame is logged and retried after a
// short backoff; a shut down core ends the loop.
func (e *engine) handleRender() {
	defer e.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			logger.Logger().Error("render goroutine recovered from panic", "panic", r)
			e.Quit()
		}
	}()

	for {
		select {
		case <-e.quitChannel:
			return
		default:
		}

		start := time.Now()
		_, err := e.RenderFrame()
		switch {
		case errors.Is(err, errs.ErrClosed):
			e.Quit()
			return
		case err != nil:
			logger.Logger().Error("frame failed", "error", err)
			time.Sleep(e.failureBackoff)
			continue
		}

		if e.renderFrameLimit > 0 {
			if remaining := e.renderFrameLimit - time.Since(start); remaining > 0 {
				time.Sleep(remaining)
			}
		}
	}
}
