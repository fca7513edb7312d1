package vulkan

import (
	"time"

	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/phase/engine/core"
)

// Fence tracks on the CPU side whether the GPU fence is signaled, so a second
// wait without a new submission returns immediately.
type Fence struct {
	Handle     vk.Fence
	IsSignaled bool
}

func NewFence(ctx *DeviceContext, createSignaled bool) (*Fence, error) {
	fenceCreateInfo := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
	}
	if createSignaled {
		fenceCreateInfo.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}
	var handle vk.Fence
	if err := ResultError(vk.CreateFence(ctx.Device, &fenceCreateInfo, ctx.Allocator, &handle), "vkCreateFence"); err != nil {
		return nil, err
	}
	return &Fence{Handle: handle, IsSignaled: createSignaled}, nil
}

// Wait blocks until the fence is signaled. Running out of time is reported as
// a fatal error: with a single frame in flight the GPU has stopped making
// progress.
func (f *Fence) Wait(ctx *DeviceContext, timeout time.Duration) error {
	if f.IsSignaled {
		return nil
	}
	res := vk.WaitForFences(ctx.Device, 1, []vk.Fence{f.Handle}, vk.True, uint64(timeout.Nanoseconds()))
	switch res {
	case vk.Success:
		f.IsSignaled = true
		return nil
	case vk.Timeout:
		core.LogWarn("vk_fence_wait - Timed out after %s", timeout)
		return core.MarkFatal(errors.Newf("render fence not signaled within %s", timeout))
	default:
		return ResultError(res, "vkWaitForFences")
	}
}

func (f *Fence) Reset(ctx *DeviceContext) error {
	if !f.IsSignaled {
		return nil
	}
	if err := ResultError(vk.ResetFences(ctx.Device, 1, []vk.Fence{f.Handle}), "vkResetFences"); err != nil {
		return err
	}
	f.IsSignaled = false
	return nil
}

func (f *Fence) Destroy(ctx *DeviceContext) {
	if f.Handle != nil {
		vk.DestroyFence(ctx.Device, f.Handle, ctx.Allocator)
		f.Handle = nil
	}
	f.IsSignaled = false
}
