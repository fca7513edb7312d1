package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/phase/engine/renderer/metadata"
)

type Framebuffer struct {
	Handle vk.Framebuffer
	// Color attachment; owned by the swapchain state.
	View       vk.ImageView
	Renderpass *RenderPass
}

func NewFramebuffer(ctx *DeviceContext, renderpass *RenderPass, view vk.ImageView, extent metadata.Extent) (*Framebuffer, error) {
	framebufferCreateInfo := vk.FramebufferCreateInfo{
		SType:           vk.StructureTypeFramebufferCreateInfo,
		RenderPass:      renderpass.Handle,
		AttachmentCount: 1,
		PAttachments:    []vk.ImageView{view},
		Width:           extent.Width,
		Height:          extent.Height,
		Layers:          1,
	}

	var handle vk.Framebuffer
	if err := ResultError(vk.CreateFramebuffer(ctx.Device, &framebufferCreateInfo, ctx.Allocator, &handle), "vkCreateFramebuffer"); err != nil {
		return nil, err
	}
	return &Framebuffer{
		Handle:     handle,
		View:       view,
		Renderpass: renderpass,
	}, nil
}

func (fb *Framebuffer) Destroy(ctx *DeviceContext) {
	if fb.Handle != nil {
		vk.DestroyFramebuffer(ctx.Device, fb.Handle, ctx.Allocator)
		fb.Handle = nil
	}
	fb.View = nil
	fb.Renderpass = nil
}
