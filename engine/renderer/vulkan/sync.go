package vulkan

import (
	vk "github.com/goki/vulkan"
)

// FrameSync orders CPU submission, GPU execution and presentation for the
// single frame in flight:
//
//   - RenderFence: signaled when the GPU finished the last submission. The CPU
//     touches the command buffer and vertex memory only after waiting on it.
//   - PresentSemaphore: signaled by acquire, waited on by the submission.
//   - RenderSemaphore: signaled by the submission, waited on by present.
type FrameSync struct {
	RenderFence      *Fence
	PresentSemaphore vk.Semaphore
	RenderSemaphore  vk.Semaphore
}

// NewFrameSync creates the fence already signaled so the first frame does not
// wait on work that was never submitted.
func NewFrameSync(ctx *DeviceContext) (*FrameSync, error) {
	sync := &FrameSync{}
	fence, err := NewFence(ctx, true)
	if err != nil {
		return nil, err
	}
	sync.RenderFence = fence

	if sync.PresentSemaphore, err = newSemaphore(ctx); err != nil {
		sync.Destroy(ctx)
		return nil, err
	}
	if sync.RenderSemaphore, err = newSemaphore(ctx); err != nil {
		sync.Destroy(ctx)
		return nil, err
	}
	return sync, nil
}

func newSemaphore(ctx *DeviceContext) (vk.Semaphore, error) {
	semaphoreCreateInfo := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}
	var semaphore vk.Semaphore
	if err := ResultError(vk.CreateSemaphore(ctx.Device, &semaphoreCreateInfo, ctx.Allocator, &semaphore), "vkCreateSemaphore"); err != nil {
		return vk.NullSemaphore, err
	}
	return semaphore, nil
}

// ResetPresentSemaphore replaces the present semaphore. A suboptimal acquire
// signals it without a submission to consume the signal; the replacement
// starts unsignaled. The device must be idle.
func (fs *FrameSync) ResetPresentSemaphore(ctx *DeviceContext) error {
	semaphore, err := newSemaphore(ctx)
	if err != nil {
		return err
	}
	if fs.PresentSemaphore != vk.NullSemaphore {
		vk.DestroySemaphore(ctx.Device, fs.PresentSemaphore, ctx.Allocator)
	}
	fs.PresentSemaphore = semaphore
	return nil
}

func (fs *FrameSync) Destroy(ctx *DeviceContext) {
	if fs.RenderSemaphore != vk.NullSemaphore {
		vk.DestroySemaphore(ctx.Device, fs.RenderSemaphore, ctx.Allocator)
		fs.RenderSemaphore = vk.NullSemaphore
	}
	if fs.PresentSemaphore != vk.NullSemaphore {
		vk.DestroySemaphore(ctx.Device, fs.PresentSemaphore, ctx.Allocator)
		fs.PresentSemaphore = vk.NullSemaphore
	}
	if fs.RenderFence != nil {
		fs.RenderFence.Destroy(ctx)
		fs.RenderFence = nil
	}
}
