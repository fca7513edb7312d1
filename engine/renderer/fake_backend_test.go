package renderer

import (
	"github.com/cockroachdb/errors"
	"github.com/spaghettifunk/phase/engine/core"
	"github.com/spaghettifunk/phase/engine/renderer/metadata"
)

var errDeadlock = errors.New("fence waited on with no pending submission")

// fakeBackend models the GPU side closely enough to check the frame
// protocol: a fence that is either signaled, pending on a submission or
// reset with nothing pending (which would block forever on real hardware).
type fakeBackend struct {
	loop *FrameLoop

	extent      metadata.Extent
	imageCount  uint32
	views       int
	framebuffer int
	// When set, the surface dictates the swapchain extent.
	surfaceExtent *metadata.Extent

	fenceSignaled bool
	fencePending  bool
	// fence state observed right after each WaitForFrame returned
	fenceAfterWait []bool

	rebuildRequests []metadata.Extent
	uploads         [][]metadata.Vertex
	acquires        int
	submissions     int
	presents        int
	waitIdles       int
	shutdowns       int

	acquireErrs []error
	presentErrs []error
	submitErr   error

	statesOnRecord  []FrameState
	statesOnPresent []FrameState

	live int
}

func newFakeBackend(width, height uint32) *fakeBackend {
	f := &fakeBackend{
		fenceSignaled: true,
		// device, sync, buffer, pipeline
		live: 4,
	}
	f.build(metadata.NewExtent(width, height))
	return f
}

func (f *fakeBackend) build(requested metadata.Extent) {
	extent := requested
	if f.surfaceExtent != nil {
		extent = *f.surfaceExtent
	}
	f.extent = extent
	if extent.Degenerate() {
		f.imageCount, f.views, f.framebuffer = 0, 0, 0
		return
	}
	f.imageCount = 3
	f.views = 3
	f.framebuffer = 3
	f.live += 1 + f.views + f.framebuffer
}

func (f *fakeBackend) destroySwapchain() {
	if f.imageCount > 0 {
		f.live -= 1 + f.views + f.framebuffer
	}
	f.imageCount, f.views, f.framebuffer = 0, 0, 0
}

func (f *fakeBackend) Extent() metadata.Extent {
	return f.extent
}

func (f *fakeBackend) RebuildSwapchain(requested metadata.Extent) error {
	f.rebuildRequests = append(f.rebuildRequests, requested)
	f.completeGPUWork()
	f.destroySwapchain()
	f.build(requested)
	return nil
}

func (f *fakeBackend) completeGPUWork() {
	if f.fencePending {
		f.fencePending = false
		f.fenceSignaled = true
	}
}

func (f *fakeBackend) WaitForFrame() error {
	if !f.fenceSignaled && !f.fencePending {
		return errDeadlock
	}
	f.completeGPUWork()
	f.fenceAfterWait = append(f.fenceAfterWait, f.fenceSignaled)
	return nil
}

func (f *fakeBackend) UploadVertices(vertices []metadata.Vertex) error {
	f.uploads = append(f.uploads, vertices)
	return nil
}

func (f *fakeBackend) AcquireNextImage() (uint32, error) {
	f.acquires++
	if len(f.acquireErrs) > 0 {
		err := f.acquireErrs[0]
		f.acquireErrs = f.acquireErrs[1:]
		if err != nil {
			return 0, err
		}
	}
	return uint32(f.acquires) % f.imageCount, nil
}

func (f *fakeBackend) RecordCommands(imageIndex uint32) error {
	f.statesOnRecord = append(f.statesOnRecord, f.loop.State())
	return nil
}

func (f *fakeBackend) Submit() error {
	if f.submitErr != nil {
		return f.submitErr
	}
	f.fenceSignaled = false
	f.fencePending = true
	f.submissions++
	return nil
}

func (f *fakeBackend) Present(imageIndex uint32) error {
	f.statesOnPresent = append(f.statesOnPresent, f.loop.State())
	f.presents++
	if len(f.presentErrs) > 0 {
		err := f.presentErrs[0]
		f.presentErrs = f.presentErrs[1:]
		return err
	}
	return nil
}

func (f *fakeBackend) WaitIdle() error {
	f.waitIdles++
	f.completeGPUWork()
	return nil
}

func (f *fakeBackend) Shutdown() error {
	f.shutdowns++
	if f.fencePending {
		return errors.New("shutdown with GPU work in flight")
	}
	f.destroySwapchain()
	f.live -= 4
	return nil
}

func staleErr() error {
	return errors.Wrap(core.ErrSwapchainStale, "VK_ERROR_OUT_OF_DATE_KHR")
}
