package vulkan

import (
	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/phase/engine/core"
	"github.com/spaghettifunk/phase/engine/renderer/metadata"
)

/**
 * @brief The triangle pipeline together with the render pass it draws in.
 * Viewport and scissor are dynamic so swapchain rebuilds never touch it.
 */
type Pipeline struct {
	/** @brief The render pass, shared with the swapchain framebuffers. */
	RenderPass *RenderPass
	/** @brief The pipeline layout; no descriptors, no push constants. */
	Layout vk.PipelineLayout
	/** @brief The internal pipeline handle. */
	Handle vk.Pipeline
}

func NewPipeline(ctx *DeviceContext, shaders ShaderSet, clear ClearColor) (*Pipeline, error) {
	pipeline := &Pipeline{}
	if err := pipeline.create(ctx, shaders, clear); err != nil {
		pipeline.Destroy(ctx)
		return nil, err
	}
	core.LogDebug("Graphics pipeline created!")
	return pipeline, nil
}

func (p *Pipeline) create(ctx *DeviceContext, shaders ShaderSet, clear ClearColor) error {
	renderpass, err := NewRenderPass(ctx, ctx.SurfaceFormat.Format, clear)
	if err != nil {
		return err
	}
	p.RenderPass = renderpass

	vertModule, err := newShaderModule(ctx, shaders.Vertex)
	if err != nil {
		return errors.Wrap(err, "vertex shader")
	}
	defer vk.DestroyShaderModule(ctx.Device, vertModule, ctx.Allocator)
	fragModule, err := newShaderModule(ctx, shaders.Fragment)
	if err != nil {
		return errors.Wrap(err, "fragment shader")
	}
	defer vk.DestroyShaderModule(ctx.Device, fragModule, ctx.Allocator)

	stages := []vk.PipelineShaderStageCreateInfo{
		{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vk.ShaderStageVertexBit,
			Module: vertModule,
			PName:  VulkanSafeString("main"),
		},
		{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vk.ShaderStageFragmentBit,
			Module: fragModule,
			PName:  VulkanSafeString("main"),
		},
	}

	// Vertex input
	bindingDescription := vk.VertexInputBindingDescription{
		Binding:   0,
		Stride:    metadata.VertexStride,
		InputRate: vk.VertexInputRateVertex, // Move to next data entry for each vertex.
	}
	attributes := []vk.VertexInputAttributeDescription{
		{Location: 0, Binding: 0, Format: vk.FormatR32g32Sfloat, Offset: 0},
		{Location: 1, Binding: 0, Format: vk.FormatR32g32b32Sfloat, Offset: metadata.VertexColorOffset},
	}
	vertexInputInfo := vk.PipelineVertexInputStateCreateInfo{
		SType:                           vk.StructureTypePipelineVertexInputStateCreateInfo,
		VertexBindingDescriptionCount:   1,
		PVertexBindingDescriptions:      []vk.VertexInputBindingDescription{bindingDescription},
		VertexAttributeDescriptionCount: uint32(len(attributes)),
		PVertexAttributeDescriptions:    attributes,
	}

	inputAssembly := vk.PipelineInputAssemblyStateCreateInfo{
		SType:                  vk.StructureTypePipelineInputAssemblyStateCreateInfo,
		Topology:               vk.PrimitiveTopologyTriangleList,
		PrimitiveRestartEnable: vk.False,
	}

	// Counts only; the values come from the dynamic state.
	viewportState := vk.PipelineViewportStateCreateInfo{
		SType:         vk.StructureTypePipelineViewportStateCreateInfo,
		ViewportCount: 1,
		ScissorCount:  1,
	}

	rasterizerCreateInfo := vk.PipelineRasterizationStateCreateInfo{
		SType:                   vk.StructureTypePipelineRasterizationStateCreateInfo,
		DepthClampEnable:        vk.False,
		RasterizerDiscardEnable: vk.False,
		PolygonMode:             vk.PolygonModeFill,
		CullMode:                vk.CullModeFlags(vk.CullModeNone),
		FrontFace:               vk.FrontFaceCounterClockwise,
		DepthBiasEnable:         vk.False,
		LineWidth:               1.0,
	}

	multisamplingCreateInfo := vk.PipelineMultisampleStateCreateInfo{
		SType:                vk.StructureTypePipelineMultisampleStateCreateInfo,
		RasterizationSamples: vk.SampleCount1Bit,
		SampleShadingEnable:  vk.False,
		MinSampleShading:     1.0,
	}

	colorBlendAttachmentState := vk.PipelineColorBlendAttachmentState{
		BlendEnable: vk.False,
		ColorWriteMask: vk.ColorComponentFlags(vk.ColorComponentRBit) | vk.ColorComponentFlags(vk.ColorComponentGBit) |
			vk.ColorComponentFlags(vk.ColorComponentBBit) | vk.ColorComponentFlags(vk.ColorComponentABit),
	}
	colorBlendStateCreateInfo := vk.PipelineColorBlendStateCreateInfo{
		SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
		LogicOpEnable:   vk.False,
		LogicOp:         vk.LogicOpCopy,
		AttachmentCount: 1,
		PAttachments:    []vk.PipelineColorBlendAttachmentState{colorBlendAttachmentState},
	}

	dynamicStates := []vk.DynamicState{
		vk.DynamicStateViewport,
		vk.DynamicStateScissor,
	}
	dynamicStateCreateInfo := vk.PipelineDynamicStateCreateInfo{
		SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
		DynamicStateCount: uint32(len(dynamicStates)),
		PDynamicStates:    dynamicStates,
	}

	pipelineLayoutCreateInfo := vk.PipelineLayoutCreateInfo{
		SType: vk.StructureTypePipelineLayoutCreateInfo,
	}
	var layout vk.PipelineLayout
	if err := ResultError(vk.CreatePipelineLayout(ctx.Device, &pipelineLayoutCreateInfo, ctx.Allocator, &layout), "vkCreatePipelineLayout"); err != nil {
		return err
	}
	p.Layout = layout

	pipelineCreateInfo := vk.GraphicsPipelineCreateInfo{
		SType:               vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount:          uint32(len(stages)),
		PStages:             stages,
		PVertexInputState:   &vertexInputInfo,
		PInputAssemblyState: &inputAssembly,
		PViewportState:      &viewportState,
		PRasterizationState: &rasterizerCreateInfo,
		PMultisampleState:   &multisamplingCreateInfo,
		PColorBlendState:    &colorBlendStateCreateInfo,
		PDynamicState:       &dynamicStateCreateInfo,
		Layout:              p.Layout,
		RenderPass:          p.RenderPass.Handle,
		Subpass:             0,
		BasePipelineIndex:   -1,
	}

	pipelines := make([]vk.Pipeline, 1)
	res := vk.CreateGraphicsPipelines(ctx.Device, vk.NullPipelineCache, 1,
		[]vk.GraphicsPipelineCreateInfo{pipelineCreateInfo}, ctx.Allocator, pipelines)
	if err := ResultError(res, "vkCreateGraphicsPipelines"); err != nil {
		return err
	}
	p.Handle = pipelines[0]
	return nil
}

// Record draws the triangle from the vertex buffer into the framebuffer. The
// command buffer must be recording.
func (p *Pipeline) Record(cb *CommandBuffer, framebuffer *Framebuffer, extent metadata.Extent, vertices *ResourceBuffer) {
	p.RenderPass.Begin(cb, framebuffer.Handle, extent)

	viewport := vk.Viewport{
		X:        0,
		Y:        0,
		Width:    float32(extent.Width),
		Height:   float32(extent.Height),
		MinDepth: 0.0,
		MaxDepth: 1.0,
	}
	scissor := vk.Rect2D{
		Offset: vk.Offset2D{X: 0, Y: 0},
		Extent: vk.Extent2D{Width: extent.Width, Height: extent.Height},
	}
	vk.CmdSetViewport(cb.Handle, 0, 1, []vk.Viewport{viewport})
	vk.CmdSetScissor(cb.Handle, 0, 1, []vk.Rect2D{scissor})

	vk.CmdBindPipeline(cb.Handle, vk.PipelineBindPointGraphics, p.Handle)
	vk.CmdBindVertexBuffers(cb.Handle, 0, 1, []vk.Buffer{vertices.Handle}, []vk.DeviceSize{0})
	vk.CmdDraw(cb.Handle, metadata.TriangleVertexCount, 1, 0, 0)

	p.RenderPass.End(cb)
}

// Destroy releases the pipeline, its layout, then the render pass.
func (p *Pipeline) Destroy(ctx *DeviceContext) {
	if p.Handle != nil {
		vk.DestroyPipeline(ctx.Device, p.Handle, ctx.Allocator)
		p.Handle = nil
	}
	if p.Layout != nil {
		vk.DestroyPipelineLayout(ctx.Device, p.Layout, ctx.Allocator)
		p.Layout = nil
	}
	if p.RenderPass != nil {
		p.RenderPass.Destroy(ctx)
		p.RenderPass = nil
	}
}
