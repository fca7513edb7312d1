package core

import (
	"github.com/cockroachdb/errors"
)

var (
	// ErrInit marks unrecoverable initialization failures. The host must abort.
	ErrInit = errors.New("engine initialization failed")
	// ErrSwapchain marks a swapchain that could not be built.
	ErrSwapchain = errors.New("swapchain creation failed")
	// ErrSwapchainStale is reported by acquire or present when the surface no
	// longer matches the swapchain (out-of-date or suboptimal). It is handled
	// inside the frame loop by rebuilding and never reaches the host.
	ErrSwapchainStale = errors.New("swapchain is out of date")
	// ErrFatalDevice marks device loss, out-of-memory and any other API
	// failure. The host must call Deinit and terminate.
	ErrFatalDevice = errors.New("fatal device error")
	// ErrInvalidShader marks shader bytecode that is not SPIR-V.
	ErrInvalidShader = errors.New("invalid shader bytecode")
)

// MarkInit tags err as an initialization failure while keeping its message.
func MarkInit(err error) error {
	if err == nil {
		return nil
	}
	return errors.Mark(err, ErrInit)
}

// MarkFatal tags err as a fatal device failure unless it is one already.
func MarkFatal(err error) error {
	if err == nil || errors.Is(err, ErrFatalDevice) {
		return err
	}
	return errors.Mark(err, ErrFatalDevice)
}

// IsStale reports whether err asks for a swapchain rebuild.
func IsStale(err error) bool {
	return errors.Is(err, ErrSwapchainStale)
}
