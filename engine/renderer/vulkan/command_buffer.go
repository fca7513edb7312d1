package vulkan

import (
	vk "github.com/goki/vulkan"
)

type CommandBufferState int

const (
	COMMAND_BUFFER_STATE_READY CommandBufferState = iota
	COMMAND_BUFFER_STATE_RECORDING
	COMMAND_BUFFER_STATE_IN_RENDER_PASS
	COMMAND_BUFFER_STATE_RECORDING_ENDED
	COMMAND_BUFFER_STATE_SUBMITTED
	COMMAND_BUFFER_STATE_NOT_ALLOCATED
)

// CommandBuffer is the single primary command buffer, re-recorded every
// frame. The pool is created with the reset flag so Begin resets it
// implicitly.
type CommandBuffer struct {
	Handle vk.CommandBuffer
	State  CommandBufferState
}

func NewCommandBuffer(ctx *DeviceContext, pool vk.CommandPool) (*CommandBuffer, error) {
	allocateInfo := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        pool,
		CommandBufferCount: 1,
		Level:              vk.CommandBufferLevelPrimary,
	}
	handles := make([]vk.CommandBuffer, 1)
	if err := ResultError(vk.AllocateCommandBuffers(ctx.Device, &allocateInfo, handles), "vkAllocateCommandBuffers"); err != nil {
		return nil, err
	}
	return &CommandBuffer{
		Handle: handles[0],
		State:  COMMAND_BUFFER_STATE_READY,
	}, nil
}

func (cb *CommandBuffer) Free(ctx *DeviceContext, pool vk.CommandPool) {
	if cb.Handle != nil {
		vk.FreeCommandBuffers(ctx.Device, pool, 1, []vk.CommandBuffer{cb.Handle})
		cb.Handle = nil
	}
	cb.State = COMMAND_BUFFER_STATE_NOT_ALLOCATED
}

func (cb *CommandBuffer) Begin() error {
	beginInfo := &vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	}
	if err := ResultError(vk.BeginCommandBuffer(cb.Handle, beginInfo), "vkBeginCommandBuffer"); err != nil {
		return err
	}
	cb.State = COMMAND_BUFFER_STATE_RECORDING
	return nil
}

func (cb *CommandBuffer) End() error {
	if err := ResultError(vk.EndCommandBuffer(cb.Handle), "vkEndCommandBuffer"); err != nil {
		return err
	}
	cb.State = COMMAND_BUFFER_STATE_RECORDING_ENDED
	return nil
}

func (cb *CommandBuffer) UpdateSubmitted() {
	cb.State = COMMAND_BUFFER_STATE_SUBMITTED
}

func (cb *CommandBuffer) Reset() {
	cb.State = COMMAND_BUFFER_STATE_READY
}
