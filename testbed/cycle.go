package testbed

import (
	"math"

	"github.com/spaghettifunk/phase/engine/config"
)

// CycleDriver turns frame times into the triangle's animation phase. The
// closer the cursor is to the window centre, the faster the cycle runs.
type CycleDriver struct {
	minMS float32
	maxMS float32
	accum float32
}

func NewCycleDriver(cfg config.CycleConfig) *CycleDriver {
	d := &CycleDriver{}
	d.SetBounds(cfg)
	return d
}

// SetBounds swaps the cycle duration bounds. The current phase is kept.
func (d *CycleDriver) SetBounds(cfg config.CycleConfig) {
	d.minMS = cfg.MinMS
	d.maxMS = cfg.MaxMS
}

func (d *CycleDriver) Phase() float32 {
	return d.accum
}

// CycleMS is the duration of one full cycle for the given cursor state.
// Inside the window the oval distance from the centre picks a point between
// the bounds; outside it the slowest cycle is used.
func (d *CycleDriver) CycleMS(cursorX, cursorY float64, inside bool, width, height uint32) float32 {
	alpha := float32(1)
	if inside && width > 0 && height > 0 {
		halfW := float32(width) / 2
		halfH := float32(height) / 2
		dx := halfW - float32(cursorX)
		dy := halfH - float32(cursorY)
		alpha = min(1, dx*dx/(halfW*halfW)+dy*dy/(halfH*halfH))
	}
	return d.minMS + (d.maxMS-d.minMS)*alpha
}

// Advance moves the phase forward by deltaMS of a cycle lasting cycleMS and
// returns the new phase, always in [0,1).
func (d *CycleDriver) Advance(deltaMS, cycleMS float32) float32 {
	if cycleMS <= 0 || deltaMS <= 0 {
		return d.accum
	}
	next := float64(d.accum) + float64(deltaMS)/float64(cycleMS)
	next -= math.Floor(next)
	d.accum = float32(next)
	// float32 rounding can land exactly on 1
	if d.accum >= 1 {
		d.accum = 0
	}
	return d.accum
}
