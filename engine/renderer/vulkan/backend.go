package vulkan

import (
	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/phase/engine/core"
	"github.com/spaghettifunk/phase/engine/renderer"
	"github.com/spaghettifunk/phase/engine/renderer/metadata"
)

var _ renderer.Backend = (*Backend)(nil)

// Backend is the Vulkan implementation of renderer.Backend. It owns one of
// each component and destroys them in a fixed order.
type Backend struct {
	context   *DeviceContext
	sync      *FrameSync
	vertices  *ResourceBuffer
	pipeline  *Pipeline
	swapchain *SwapchainState

	settings Settings
	shutdown bool
}

// NewBackend creates the device context, the sync objects, the vertex
// buffer, the pipeline and the swapchain, in that order. The swapchain comes
// last because its framebuffers reference the pipeline's render pass. Every
// failure is marked core.ErrInit and leaves nothing behind.
func NewBackend(window WindowSurface, extent metadata.Extent, settings Settings) (*Backend, error) {
	// Shaders are validated before any API object exists.
	shaders, err := LoadShaderSet(settings.ShaderDir)
	if err != nil {
		return nil, core.MarkInit(err)
	}

	ctx, err := NewDeviceContext(window, settings)
	if err != nil {
		return nil, err
	}
	b := &Backend{context: ctx, settings: settings}
	if err := b.initialize(shaders, extent); err != nil {
		b.destroy()
		return nil, core.MarkInit(err)
	}
	core.LogInfo("Vulkan renderer initialized successfully.")
	return b, nil
}

func (b *Backend) initialize(shaders ShaderSet, extent metadata.Extent) error {
	var err error
	if b.sync, err = NewFrameSync(b.context); err != nil {
		return err
	}
	if b.vertices, err = NewResourceBuffer(b.context, metadata.TriangleDataSize); err != nil {
		return err
	}
	if b.pipeline, err = NewPipeline(b.context, shaders, b.settings.ClearColor); err != nil {
		return err
	}
	if b.swapchain, err = BuildSwapchain(b.context, b.pipeline.RenderPass, extent); err != nil {
		return err
	}
	return nil
}

func (b *Backend) Extent() metadata.Extent {
	if b.swapchain == nil || b.swapchain.ImageCount == 0 {
		return metadata.Extent{}
	}
	return b.swapchain.Extent
}

func (b *Backend) RebuildSwapchain(requested metadata.Extent) error {
	var err error
	if b.swapchain, err = b.swapchain.Rebuild(b.context, b.pipeline.RenderPass, requested); err != nil {
		return err
	}
	// The device is idle; a suboptimal acquire may have left this signaled.
	return b.sync.ResetPresentSemaphore(b.context)
}

func (b *Backend) WaitForFrame() error {
	return b.sync.RenderFence.Wait(b.context, b.settings.FenceTimeout)
}

func (b *Backend) UploadVertices(vertices []metadata.Vertex) error {
	return b.vertices.Write(vertices)
}

func (b *Backend) AcquireNextImage() (uint32, error) {
	return b.swapchain.AcquireNextImage(b.context, b.sync.PresentSemaphore)
}

func (b *Backend) RecordCommands(imageIndex uint32) error {
	if imageIndex >= b.swapchain.ImageCount {
		return errors.Newf("image index %d out of range for %d images", imageIndex, b.swapchain.ImageCount)
	}
	cb := b.context.CommandBuffer
	cb.Reset()
	if err := cb.Begin(); err != nil {
		return err
	}
	b.pipeline.Record(cb, b.swapchain.Framebuffers[imageIndex], b.swapchain.Extent, b.vertices)
	return cb.End()
}

func (b *Backend) Submit() error {
	if err := b.sync.RenderFence.Reset(b.context); err != nil {
		return err
	}
	cb := b.context.CommandBuffer
	submitInfo := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{b.sync.PresentSemaphore},
		// Only color output waits for the image; vertex work may start early.
		PWaitDstStageMask:    []vk.PipelineStageFlags{vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)},
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{cb.Handle},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{b.sync.RenderSemaphore},
	}
	res := vk.QueueSubmit(b.context.GraphicsQueue, 1, []vk.SubmitInfo{submitInfo}, b.sync.RenderFence.Handle)
	if err := ResultError(res, "vkQueueSubmit"); err != nil {
		return err
	}
	cb.UpdateSubmitted()
	return nil
}

func (b *Backend) Present(imageIndex uint32) error {
	return b.swapchain.Present(b.context, b.sync.RenderSemaphore, imageIndex)
}

func (b *Backend) WaitIdle() error {
	if b.shutdown {
		return nil
	}
	return b.context.WaitIdle()
}

// Shutdown tears down in the order pipeline, swapchain, vertex buffer, sync
// objects, device context. The device must be idle, which makes the order
// between the pipeline and the framebuffers that reference its render pass
// irrelevant.
func (b *Backend) Shutdown() error {
	if b.shutdown {
		return nil
	}
	b.destroy()
	core.LogInfo("Vulkan renderer shut down.")
	return nil
}

func (b *Backend) destroy() {
	b.shutdown = true
	if b.pipeline != nil {
		core.LogDebug("Destroying pipeline...")
		b.pipeline.Destroy(b.context)
		b.pipeline = nil
	}
	if b.swapchain != nil {
		core.LogDebug("Destroying swapchain...")
		b.swapchain.Destroy(b.context)
		b.swapchain = nil
	}
	if b.vertices != nil {
		core.LogDebug("Destroying vertex buffer...")
		b.vertices.Destroy(b.context)
		b.vertices = nil
	}
	if b.sync != nil {
		core.LogDebug("Destroying sync objects...")
		b.sync.Destroy(b.context)
		b.sync = nil
	}
	if b.context != nil {
		b.context.Destroy()
		b.context = nil
	}
}
