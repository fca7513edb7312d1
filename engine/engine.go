package engine

import (
	"github.com/google/uuid"
	"github.com/spaghettifunk/phase/engine/config"
	"github.com/spaghettifunk/phase/engine/core"
	"github.com/spaghettifunk/phase/engine/renderer"
	"github.com/spaghettifunk/phase/engine/renderer/metadata"
	"github.com/spaghettifunk/phase/engine/renderer/vulkan"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine owns a live backend and accepts draws
	EngineStageRunning
	// Engine released every GPU object
	EngineStageShutdown
)

func (s Stage) String() string {
	switch s {
	case EngineStageUninitialized:
		return "uninitialized"
	case EngineStageRunning:
		return "running"
	case EngineStageShutdown:
		return "shutdown"
	default:
		return "unknown"
	}
}

// Engine is the single value the host holds. All methods must be called
// from the thread that called Init.
type Engine struct {
	id           uuid.UUID
	currentStage Stage
	loop         *renderer.FrameLoop
}

// Init creates the Vulkan backend for the window's surface and returns a
// running engine. On failure every object created so far is released.
func Init(window vulkan.WindowSurface, width, height uint32, cfg *config.Config) (*Engine, error) {
	if err := core.SetLogLevel(cfg.Log.Level); err != nil {
		core.LogWarn("keeping default log level: %s", err)
	}

	extent := metadata.NewExtent(width, height)
	backend, err := vulkan.NewBackend(window, extent, vulkan.SettingsFromConfig(cfg))
	if err != nil {
		core.LogError("engine initialization failed: %s", err)
		return nil, err
	}
	return New(backend, width, height), nil
}

// New wraps an already initialized backend.
func New(backend renderer.Backend, width, height uint32) *Engine {
	e := &Engine{
		id:           uuid.New(),
		currentStage: EngineStageRunning,
		loop:         renderer.NewFrameLoop(backend, metadata.NewExtent(width, height)),
	}
	core.LogInfo("engine %s started at %dx%d", e.id, width, height)
	return e
}

func (e *Engine) ID() uuid.UUID {
	return e.id
}

func (e *Engine) Stage() Stage {
	return e.currentStage
}

// Frames reports how many frames reached presentation.
func (e *Engine) Frames() uint64 {
	return e.loop.FrameNumber()
}

// SignalResize records the new window size. The swapchain is rebuilt at the
// start of the next Draw; any number of calls in between coalesce.
func (e *Engine) SignalResize(width, height uint32) {
	if e.currentStage != EngineStageRunning {
		return
	}
	core.LogDebug("Window resize: %d, %d", width, height)
	e.loop.SignalResize(width, height)
}

// Draw renders one frame of the triangle at the given phase of its cycle.
// A returned error is fatal; the host should call Deinit and stop.
func (e *Engine) Draw(cycle float32) error {
	return e.loop.Draw(cycle)
}

// Deinit waits for the device to go idle and releases every GPU object.
// Further calls are no-ops.
func (e *Engine) Deinit() error {
	if e.currentStage != EngineStageRunning {
		return nil
	}
	e.currentStage = EngineStageShutdown
	if err := e.loop.Shutdown(); err != nil {
		core.LogError("engine %s shutdown: %s", e.id, err)
		return err
	}
	core.LogInfo("engine %s shut down after %d frames", e.id, e.loop.FrameNumber())
	return nil
}
