package renderer

import (
	"github.com/cockroachdb/errors"
	"github.com/spaghettifunk/phase/engine/core"
	"github.com/spaghettifunk/phase/engine/renderer/metadata"
)

type FrameState uint8

const (
	StateIdle FrameState = iota
	StateRecording
	StateSubmitted
	StatePresented
)

func (s FrameState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	case StateSubmitted:
		return "submitted"
	case StatePresented:
		return "presented"
	default:
		return "unknown"
	}
}

// ErrClosed is returned by Draw after Shutdown.
var ErrClosed = errors.New("frame loop already shut down")

// FrameLoop runs one acquire, record, submit, present iteration per Draw
// with a single frame in flight. It holds no state between calls other than
// the resize mailbox, so the host may stop calling Draw at any point.
//
// Running N frames in flight would mean N independent fence/semaphore sets
// in the backend, indexed by FrameNumber modulo N.
type FrameLoop struct {
	backend     Backend
	resize      *ResizeMailbox
	state       FrameState
	frameNumber uint64
	rebuilds    uint64
	closed      bool
}

func NewFrameLoop(backend Backend, initial metadata.Extent) *FrameLoop {
	return &FrameLoop{
		backend: backend,
		resize:  NewResizeMailbox(initial),
		state:   StateIdle,
	}
}

// SignalResize records the latest window size for the next Draw.
func (fl *FrameLoop) SignalResize(width, height uint32) {
	fl.resize.Post(metadata.NewExtent(width, height))
}

func (fl *FrameLoop) State() FrameState {
	return fl.state
}

// FrameNumber counts frames that reached presentation.
func (fl *FrameLoop) FrameNumber() uint64 {
	return fl.frameNumber
}

// Rebuilds counts swapchain rebuilds triggered by the loop.
func (fl *FrameLoop) Rebuilds() uint64 {
	return fl.rebuilds
}

// Draw renders one frame for the given animation phase. Stale swapchains and
// degenerate extents are handled internally and return nil; every returned
// error is marked core.ErrFatalDevice.
func (fl *FrameLoop) Draw(cycle float32) error {
	if fl.closed {
		return ErrClosed
	}
	defer func() {
		fl.state = StateIdle
	}()

	if err := fl.applyResize(); err != nil {
		return err
	}
	if fl.backend.Extent().Degenerate() {
		// minimized, nothing to draw into
		return nil
	}

	if err := fl.backend.WaitForFrame(); err != nil {
		return fl.fatal(err, "waiting for the previous frame")
	}

	if err := fl.backend.UploadVertices(metadata.TriangleVertices(cycle)); err != nil {
		return fl.fatal(err, "uploading vertices")
	}

	imageIndex, err := fl.backend.AcquireNextImage()
	if err != nil {
		if core.IsStale(err) {
			core.LogDebug("swapchain stale on acquire, rebuilding before the next frame")
			return fl.rebuild(fl.resize.Requested())
		}
		return fl.fatal(err, "acquiring swapchain image")
	}

	fl.state = StateRecording
	if err := fl.backend.RecordCommands(imageIndex); err != nil {
		return fl.fatal(err, "recording commands")
	}

	if err := fl.backend.Submit(); err != nil {
		return fl.fatal(err, "submitting frame")
	}
	fl.state = StateSubmitted

	if err := fl.backend.Present(imageIndex); err != nil {
		if !core.IsStale(err) {
			return fl.fatal(err, "presenting frame")
		}
		core.LogDebug("swapchain stale on present, rebuild scheduled")
		fl.resize.MarkStale()
	}
	fl.state = StatePresented
	fl.frameNumber++
	return nil
}

// Shutdown waits for outstanding GPU work and releases the backend. Calling
// it more than once is a no-op.
func (fl *FrameLoop) Shutdown() error {
	if fl.closed {
		return nil
	}
	fl.closed = true
	waitErr := fl.backend.WaitIdle()
	if waitErr != nil {
		core.LogError("waiting for device idle before shutdown: %s", waitErr)
	}
	// tear down even if the wait failed, best effort
	if err := fl.backend.Shutdown(); err != nil {
		return errors.CombineErrors(err, waitErr)
	}
	return waitErr
}

func (fl *FrameLoop) applyResize() error {
	requested, pending := fl.resize.Take()
	if fl.resize.Stale() {
		return fl.rebuild(requested)
	}
	if pending && requested != fl.backend.Extent() {
		return fl.rebuild(requested)
	}
	return nil
}

func (fl *FrameLoop) rebuild(requested metadata.Extent) error {
	if err := fl.backend.RebuildSwapchain(requested); err != nil {
		return fl.fatal(err, "rebuilding swapchain")
	}
	fl.rebuilds++

	current := fl.backend.Extent()
	// Retry on later frames only when the surface, not the host, produced
	// the empty swapchain. A host-requested zero size waits for the next post.
	if current.Degenerate() && !requested.Degenerate() {
		fl.resize.MarkStale()
	} else {
		fl.resize.ClearStale()
	}
	core.LogDebug("swapchain rebuilt: requested %s, got %s", requested, current)
	return nil
}

func (fl *FrameLoop) fatal(err error, op string) error {
	err = core.MarkFatal(errors.Wrap(err, op))
	core.LogError("frame %d: %s", fl.frameNumber, err)
	return err
}
