package vulkan

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/phase/engine/core"
	"github.com/spaghettifunk/phase/engine/renderer/metadata"
)

// ResourceBuffer is a host-visible, host-coherent vertex buffer mapped once
// for its whole lifetime. Resizing the window never reallocates it.
type ResourceBuffer struct {
	Handle vk.Buffer
	Memory vk.DeviceMemory
	Mapped unsafe.Pointer
	Size   uint64
}

func NewResourceBuffer(ctx *DeviceContext, size uint64) (*ResourceBuffer, error) {
	buffer := &ResourceBuffer{Size: size}
	if err := buffer.create(ctx); err != nil {
		buffer.Destroy(ctx)
		return nil, err
	}
	core.LogDebug("Vertex buffer created (%d bytes).", size)
	return buffer, nil
}

func (rb *ResourceBuffer) create(ctx *DeviceContext) error {
	bufferCreateInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(rb.Size),
		Usage:       vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit),
		SharingMode: vk.SharingModeExclusive,
	}
	var handle vk.Buffer
	if err := ResultError(vk.CreateBuffer(ctx.Device, &bufferCreateInfo, ctx.Allocator, &handle), "vkCreateBuffer"); err != nil {
		return err
	}
	rb.Handle = handle

	var memReq vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(ctx.Device, rb.Handle, &memReq)
	memReq.Deref()

	memoryType, err := ctx.FindMemoryType(memReq.MemoryTypeBits,
		vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit)
	if err != nil {
		return core.MarkFatal(err)
	}
	allocInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  memReq.Size,
		MemoryTypeIndex: memoryType,
	}
	var memory vk.DeviceMemory
	if err := ResultError(vk.AllocateMemory(ctx.Device, &allocInfo, ctx.Allocator, &memory), "vkAllocateMemory"); err != nil {
		return err
	}
	rb.Memory = memory

	if err := ResultError(vk.BindBufferMemory(ctx.Device, rb.Handle, rb.Memory, 0), "vkBindBufferMemory"); err != nil {
		return err
	}

	var mapped unsafe.Pointer
	if err := ResultError(vk.MapMemory(ctx.Device, rb.Memory, 0, vk.DeviceSize(rb.Size), 0, &mapped), "vkMapMemory"); err != nil {
		return err
	}
	rb.Mapped = mapped
	return nil
}

// Write copies vertex data into the mapped memory. The caller must have
// waited on the render fence.
func (rb *ResourceBuffer) Write(vertices []metadata.Vertex) error {
	data := metadata.VerticesBytes(vertices)
	if uint64(len(data)) > rb.Size {
		return errors.Newf("vertex data of %d bytes exceeds buffer size %d", len(data), rb.Size)
	}
	if rb.Mapped == nil {
		return errors.New("vertex buffer is not mapped")
	}
	if n := vk.Memcopy(rb.Mapped, data); n != len(data) {
		return errors.Newf("copied %d of %d vertex bytes", n, len(data))
	}
	return nil
}

func (rb *ResourceBuffer) Destroy(ctx *DeviceContext) {
	if rb.Mapped != nil {
		vk.UnmapMemory(ctx.Device, rb.Memory)
		rb.Mapped = nil
	}
	if rb.Handle != nil {
		vk.DestroyBuffer(ctx.Device, rb.Handle, ctx.Allocator)
		rb.Handle = nil
	}
	if rb.Memory != nil {
		vk.FreeMemory(ctx.Device, rb.Memory, ctx.Allocator)
		rb.Memory = nil
	}
}
