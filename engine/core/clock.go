package core

import (
	"time"

	"github.com/loov/hrtime"
)

type Clock struct {
	running   bool
	startTime time.Duration
	elapsed   time.Duration
	delta     time.Duration
}

func NewClock() *Clock {
	return &Clock{}
}

// Updates the provided clock. Should be called just before checking elapsed time.
// Has no effect on non-started clocks.
func (c *Clock) Update() {
	if !c.running {
		return
	}
	elapsed := hrtime.Since(c.startTime)
	c.delta = elapsed - c.elapsed
	c.elapsed = elapsed
}

// Starts the provided clock. Resets elapsed time.
func (c *Clock) Start() {
	c.startTime = hrtime.Now()
	c.elapsed = 0
	c.delta = 0
	c.running = true
}

// Stops the provided clock. Does not reset elapsed time.
func (c *Clock) Stop() {
	c.running = false
}

func (c *Clock) Elapsed() time.Duration {
	return c.elapsed
}

// Delta is the time between the last two calls to Update.
func (c *Clock) Delta() time.Duration {
	return c.delta
}

// DeltaMS is Delta in fractional milliseconds.
func (c *Clock) DeltaMS() float32 {
	return float32(c.delta) / float32(time.Millisecond)
}
