package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/phase/engine/renderer/metadata"
)

// ClearColor is RGBA in [0,1].
type ClearColor [4]float32

/**
 * @brief A render pass with a single color attachment in the surface format.
 * The attachment is cleared on load and transitioned to the present layout.
 */
type RenderPass struct {
	Handle     vk.RenderPass
	ClearColor ClearColor
}

func NewRenderPass(ctx *DeviceContext, format vk.Format, clear ClearColor) (*RenderPass, error) {
	colorAttachment := vk.AttachmentDescription{
		Format:         format,
		Samples:        vk.SampleCount1Bit,
		LoadOp:         vk.AttachmentLoadOpClear,
		StoreOp:        vk.AttachmentStoreOpStore,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutUndefined,  // Do not expect any particular layout before render pass starts.
		FinalLayout:    vk.ImageLayoutPresentSrc, // Transitioned to after the render pass
	}

	colorAttachmentReference := []vk.AttachmentReference{{
		Attachment: 0,
		Layout:     vk.ImageLayoutColorAttachmentOptimal,
	}}

	subpass := vk.SubpassDescription{
		PipelineBindPoint:    vk.PipelineBindPointGraphics,
		ColorAttachmentCount: 1,
		PColorAttachments:    colorAttachmentReference,
	}

	// The image is acquired asynchronously; writes must not start before the
	// presentation engine released it.
	dependency := vk.SubpassDependency{
		SrcSubpass:    vk.SubpassExternal,
		DstSubpass:    0,
		SrcStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		SrcAccessMask: 0,
		DstStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		DstAccessMask: vk.AccessFlags(vk.AccessColorAttachmentReadBit) | vk.AccessFlags(vk.AccessColorAttachmentWriteBit),
	}

	renderpassCreateInfo := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: 1,
		PAttachments:    []vk.AttachmentDescription{colorAttachment},
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
		DependencyCount: 1,
		PDependencies:   []vk.SubpassDependency{dependency},
	}

	var handle vk.RenderPass
	if err := ResultError(vk.CreateRenderPass(ctx.Device, &renderpassCreateInfo, ctx.Allocator, &handle), "vkCreateRenderPass"); err != nil {
		return nil, err
	}
	return &RenderPass{Handle: handle, ClearColor: clear}, nil
}

func (rp *RenderPass) Destroy(ctx *DeviceContext) {
	if rp.Handle != nil {
		vk.DestroyRenderPass(ctx.Device, rp.Handle, ctx.Allocator)
		rp.Handle = nil
	}
}

func (rp *RenderPass) Begin(cb *CommandBuffer, framebuffer vk.Framebuffer, extent metadata.Extent) {
	clearValues := make([]vk.ClearValue, 1)
	clearValues[0].SetColor(rp.ClearColor[:])

	beginInfo := vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  rp.Handle,
		Framebuffer: framebuffer,
		RenderArea: vk.Rect2D{
			Offset: vk.Offset2D{X: 0, Y: 0},
			Extent: vk.Extent2D{Width: extent.Width, Height: extent.Height},
		},
		ClearValueCount: 1,
		PClearValues:    clearValues,
	}
	vk.CmdBeginRenderPass(cb.Handle, &beginInfo, vk.SubpassContentsInline)
	cb.State = COMMAND_BUFFER_STATE_IN_RENDER_PASS
}

func (rp *RenderPass) End(cb *CommandBuffer) {
	vk.CmdEndRenderPass(cb.Handle)
	cb.State = COMMAND_BUFFER_STATE_RECORDING
}
