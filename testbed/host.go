package testbed

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/spaghettifunk/phase/engine/config"
	"github.com/spaghettifunk/phase/engine/core"
)

// Window is the part of the platform the host loop drives.
type Window interface {
	PumpMessages() bool
	SetTitle(title string)
	Cursor() (x, y float64, inside bool)
	Size() (width, height uint32)
}

// Renderer is the part of the engine the host loop drives.
type Renderer interface {
	Draw(cycle float32) error
	Deinit() error
}

// Host runs the frame loop: it measures frame time, reports FPS in the
// window title, advances the animation phase and draws.
type Host struct {
	window   Window
	renderer Renderer
	clock    *core.Clock
	fps      core.FPSCounter
	cycle    *CycleDriver
	updates  <-chan *config.Config
}

// NewHost wires the loop together. updates may be nil when the config is
// not watched.
func NewHost(window Window, renderer Renderer, cfg *config.Config, updates <-chan *config.Config) *Host {
	return &Host{
		window:   window,
		renderer: renderer,
		clock:    core.NewClock(),
		cycle:    NewCycleDriver(cfg.Cycle),
		updates:  updates,
	}
}

// Run loops until the window asks to quit or a draw fails. The renderer is
// deinitialized in both cases; a draw error is returned after that.
func (h *Host) Run() error {
	h.clock.Start()
	defer h.clock.Stop()

	for h.window.PumpMessages() {
		if err := h.step(); err != nil {
			core.LogError("draw failed, shutting down: %s", err)
			if deinitErr := h.renderer.Deinit(); deinitErr != nil {
				return errors.CombineErrors(err, deinitErr)
			}
			return err
		}
	}
	return h.renderer.Deinit()
}

func (h *Host) step() error {
	h.clock.Update()
	deltaMS := h.clock.DeltaMS()

	avg := h.fps.AppendFrameTime(deltaMS)
	h.window.SetTitle(fmt.Sprintf("FPS: %.2f", avg))

	h.applyConfigUpdates()

	x, y, inside := h.window.Cursor()
	width, height := h.window.Size()
	cycleMS := h.cycle.CycleMS(x, y, inside, width, height)

	return h.renderer.Draw(h.cycle.Advance(deltaMS, cycleMS))
}

func (h *Host) applyConfigUpdates() {
	for {
		select {
		case cfg, ok := <-h.updates:
			if !ok {
				h.updates = nil
				return
			}
			h.cycle.SetBounds(cfg.Cycle)
			core.LogInfo("cycle bounds now %v..%v ms", cfg.Cycle.MinMS, cfg.Cycle.MaxMS)
		default:
			return
		}
	}
}
