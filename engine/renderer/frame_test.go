package renderer

import (
	"io"
	"os"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/spaghettifunk/phase/engine/core"
	"github.com/spaghettifunk/phase/engine/renderer/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	core.SetLogOutput(io.Discard)
	os.Exit(m.Run())
}

func newLoop(width, height uint32) (*FrameLoop, *fakeBackend) {
	backend := newFakeBackend(width, height)
	loop := NewFrameLoop(backend, metadata.NewExtent(width, height))
	backend.loop = loop
	return loop, backend
}

func TestDrawRunsFullProtocol(t *testing.T) {
	loop, backend := newLoop(800, 600)

	require.NoError(t, loop.Draw(0.25))

	assert.Equal(t, 1, backend.submissions)
	assert.Equal(t, 1, backend.presents)
	assert.Equal(t, uint64(1), loop.FrameNumber())
	assert.Equal(t, StateIdle, loop.State())
	assert.Equal(t, []FrameState{StateRecording}, backend.statesOnRecord)
	assert.Equal(t, []FrameState{StateSubmitted}, backend.statesOnPresent)
	require.Len(t, backend.uploads, 1)
	assert.Equal(t, metadata.TriangleVertices(0.25), backend.uploads[0])
	assert.Empty(t, backend.rebuildRequests)
}

func TestResizeSignalsCoalesce(t *testing.T) {
	loop, backend := newLoop(800, 600)

	loop.SignalResize(640, 480)
	loop.SignalResize(1024, 768)
	loop.SignalResize(400, 300)
	require.NoError(t, loop.Draw(0))

	require.Len(t, backend.rebuildRequests, 1)
	assert.Equal(t, metadata.NewExtent(400, 300), backend.rebuildRequests[0])
	assert.Equal(t, metadata.NewExtent(400, 300), backend.Extent())

	// the request was consumed
	require.NoError(t, loop.Draw(0.1))
	assert.Len(t, backend.rebuildRequests, 1)
	assert.Equal(t, uint64(1), loop.Rebuilds())
}

func TestResizeToSameExtentIsSkipped(t *testing.T) {
	loop, backend := newLoop(800, 600)

	loop.SignalResize(800, 600)
	require.NoError(t, loop.Draw(0))

	assert.Empty(t, backend.rebuildRequests)
	assert.Equal(t, 1, backend.submissions)
}

func TestDegenerateExtentSkipsFrame(t *testing.T) {
	for _, size := range []metadata.Extent{{Width: 0, Height: 600}, {Width: 800, Height: 0}} {
		t.Run(size.String(), func(t *testing.T) {
			loop, backend := newLoop(800, 600)

			loop.SignalResize(size.Width, size.Height)
			require.NoError(t, loop.Draw(0.1))
			require.NoError(t, loop.Draw(0.2))

			assert.Zero(t, backend.submissions)
			assert.Zero(t, backend.acquires)
			assert.Empty(t, backend.uploads)
			// a host-requested zero size is not retried every frame
			assert.Len(t, backend.rebuildRequests, 1)

			loop.SignalResize(400, 300)
			require.NoError(t, loop.Draw(0.3))
			assert.Equal(t, 1, backend.submissions)
			assert.Equal(t, 1, backend.presents)
			assert.Equal(t, metadata.NewExtent(400, 300), backend.Extent())
		})
	}
}

func TestFenceSignaledAtStartOfEveryFrame(t *testing.T) {
	loop, backend := newLoop(800, 600)

	const frames = 10
	for i := 0; i < frames; i++ {
		require.NoError(t, loop.Draw(float32(i)/frames))
	}
	require.Len(t, backend.fenceAfterWait, frames)
	for i, signaled := range backend.fenceAfterWait {
		assert.True(t, signaled, "frame %d", i)
	}
}

func TestStaleAcquireDoesNotDeadlockFence(t *testing.T) {
	loop, backend := newLoop(800, 600)

	require.NoError(t, loop.Draw(0))
	backend.acquireErrs = []error{staleErr()}
	require.NoError(t, loop.Draw(0.1))

	// aborted frame: nothing submitted, swapchain rebuilt once
	assert.Equal(t, 1, backend.submissions)
	require.Len(t, backend.rebuildRequests, 1)
	assert.Equal(t, metadata.NewExtent(800, 600), backend.rebuildRequests[0])

	// next frame waits on a fence that can still be signaled
	require.NoError(t, loop.Draw(0.2))
	assert.Equal(t, 2, backend.submissions)
	assert.Len(t, backend.rebuildRequests, 1)
}

func TestStalePresentRebuildsOnNextDraw(t *testing.T) {
	loop, backend := newLoop(800, 600)

	backend.presentErrs = []error{staleErr()}
	require.NoError(t, loop.Draw(0))
	assert.Empty(t, backend.rebuildRequests, "no immediate retry")
	assert.Equal(t, uint64(1), loop.FrameNumber())

	require.NoError(t, loop.Draw(0.1))
	require.Len(t, backend.rebuildRequests, 1)
	assert.Equal(t, 2, backend.submissions)
}

func TestSurfaceDrivenMinimizeRetries(t *testing.T) {
	loop, backend := newLoop(800, 600)

	zero := metadata.NewExtent(0, 0)
	backend.surfaceExtent = &zero
	backend.acquireErrs = []error{staleErr()}
	require.NoError(t, loop.Draw(0))
	require.NoError(t, loop.Draw(0.1))
	assert.Zero(t, backend.submissions)
	assert.Len(t, backend.rebuildRequests, 2)

	// window restored by the compositor, no resize event posted
	backend.surfaceExtent = nil
	require.NoError(t, loop.Draw(0.2))
	assert.Len(t, backend.rebuildRequests, 3)
	assert.Equal(t, 1, backend.submissions)

	require.NoError(t, loop.Draw(0.3))
	assert.Len(t, backend.rebuildRequests, 3)
}

func TestRebuildKeepsImageCountInvariant(t *testing.T) {
	loop, backend := newLoop(800, 600)

	for _, size := range []metadata.Extent{{Width: 400, Height: 300}, {Width: 0, Height: 300}, {Width: 1920, Height: 1080}} {
		loop.SignalResize(size.Width, size.Height)
		require.NoError(t, loop.Draw(0.5))
		assert.Equal(t, int(backend.imageCount), backend.views)
		assert.Equal(t, backend.views, backend.framebuffer)
	}
}

func TestFatalErrorsArePropagated(t *testing.T) {
	loop, backend := newLoop(800, 600)

	backend.acquireErrs = []error{errors.New("VK_ERROR_DEVICE_LOST")}
	err := loop.Draw(0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrFatalDevice))
	assert.Equal(t, StateIdle, loop.State())

	backend.submitErr = errors.New("VK_ERROR_OUT_OF_DEVICE_MEMORY")
	err = loop.Draw(0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrFatalDevice))
	assert.Contains(t, err.Error(), "submitting frame")
}

func TestShutdownWaitsAndIsIdempotent(t *testing.T) {
	loop, backend := newLoop(800, 600)

	require.NoError(t, loop.Draw(0))
	require.NoError(t, loop.Shutdown())
	require.NoError(t, loop.Shutdown())

	assert.Equal(t, 1, backend.waitIdles)
	assert.Equal(t, 1, backend.shutdowns)
	assert.Zero(t, backend.live)
	assert.ErrorIs(t, loop.Draw(0), ErrClosed)
}

func TestEndToEndScenario(t *testing.T) {
	loop, backend := newLoop(800, 600)

	require.NoError(t, loop.Draw(0.0))
	require.NoError(t, loop.Draw(0.25))
	loop.SignalResize(400, 300)
	require.NoError(t, loop.Draw(0.5))
	require.NoError(t, loop.Shutdown())

	assert.Equal(t, 3, backend.submissions)
	assert.Equal(t, []metadata.Extent{{Width: 400, Height: 300}}, backend.rebuildRequests)
	assert.Zero(t, backend.live, "every created object was destroyed")
}

func TestResizeMailbox(t *testing.T) {
	m := NewResizeMailbox(metadata.NewExtent(800, 600))

	ext, pending := m.Take()
	assert.False(t, pending)
	assert.Equal(t, metadata.NewExtent(800, 600), ext)

	m.Post(metadata.NewExtent(1, 2))
	m.Post(metadata.NewExtent(3, 4))
	ext, pending = m.Take()
	assert.True(t, pending)
	assert.Equal(t, metadata.NewExtent(3, 4), ext)

	_, pending = m.Take()
	assert.False(t, pending)
	assert.Equal(t, metadata.NewExtent(3, 4), m.Requested())

	m.MarkStale()
	assert.True(t, m.Stale())
	m.ClearStale()
	assert.False(t, m.Stale())
}
