package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vkdemos/engine/core"
	md "github.com/spaghettifunk/vkdemos/engine/renderer/metadata"
)

/**
 * @brief Holds a Vulkan pipeline and its layout.
 */
type VulkanPipeline struct {
	context *VulkanContext
	desc    *md.PipelineDesc
	/** @brief The internal pipeline handle. */
	Handle vk.Pipeline
	/** @brief The pipeline layout. */
	PipelineLayout vk.PipelineLayout
}

type VulkanPipelineConfig struct {
	Desc *md.PipelineDesc
	/** @brief The renderpass to associate with the pipeline. */
	Renderpass *VulkanRenderPass
	/** @brief The descriptor set layout bound at set 0. */
	DescriptorSetLayout *VulkanDescriptorSetLayout
	Stages              []*VulkanShaderStage
	/** @brief Viewport and scissor are baked from this extent. */
	Extent md.Extent
}

func NewGraphicsPipeline(context *VulkanContext, config *VulkanPipelineConfig) (*VulkanPipeline, error) {
	desc := config.Desc
	outPipeline := &VulkanPipeline{context: context, desc: desc}

	// Viewport state. Pipelines are rebuilt with the swapchain, so the
	// viewport is fixed.
	viewport := vk.Viewport{
		X:        0,
		Y:        0,
		Width:    float32(config.Extent.Width),
		Height:   float32(config.Extent.Height),
		MinDepth: 0.0,
		MaxDepth: 1.0,
	}
	scissor := vk.Rect2D{
		Offset: vk.Offset2D{X: 0, Y: 0},
		Extent: vk.Extent2D{Width: config.Extent.Width, Height: config.Extent.Height},
	}
	viewportState := vk.PipelineViewportStateCreateInfo{
		SType:         vk.StructureTypePipelineViewportStateCreateInfo,
		ViewportCount: 1,
		PViewports:    []vk.Viewport{viewport},
		ScissorCount:  1,
		PScissors:     []vk.Rect2D{scissor},
	}

	// Rasterizer
	rasterizerCreateInfo := vk.PipelineRasterizationStateCreateInfo{
		SType:                   vk.StructureTypePipelineRasterizationStateCreateInfo,
		DepthClampEnable:        vk.False,
		RasterizerDiscardEnable: vk.False,
		PolygonMode:             vk.PolygonModeFill,
		LineWidth:               1.0,
		FrontFace:               vk.FrontFaceCounterClockwise,
		DepthBiasEnable:         vk.False,
	}
	switch desc.CullMode {
	case md.CULL_MODE_BACK:
		rasterizerCreateInfo.CullMode = vk.CullModeFlags(vk.CullModeBackBit)
	case md.CULL_MODE_FRONT:
		rasterizerCreateInfo.CullMode = vk.CullModeFlags(vk.CullModeFrontBit)
	default:
		rasterizerCreateInfo.CullMode = vk.CullModeFlags(vk.CullModeNone)
	}
	if desc.DepthBias {
		rasterizerCreateInfo.DepthBiasEnable = vk.True
		rasterizerCreateInfo.DepthBiasConstantFactor = 1.25
		rasterizerCreateInfo.DepthBiasSlopeFactor = 1.75
	}

	// Multisampling.
	multisamplingCreateInfo := vk.PipelineMultisampleStateCreateInfo{
		SType:                 vk.StructureTypePipelineMultisampleStateCreateInfo,
		SampleShadingEnable:   vk.False,
		RasterizationSamples:  vk.SampleCount1Bit,
		MinSampleShading:      1.0,
		PSampleMask:           nil,
		AlphaToCoverageEnable: vk.False,
		AlphaToOneEnable:      vk.False,
	}

	// Depth and stencil testing.
	depthStencil := vk.PipelineDepthStencilStateCreateInfo{
		SType:             vk.StructureTypePipelineDepthStencilStateCreateInfo,
		DepthTestEnable:   vk.False,
		DepthWriteEnable:  vk.False,
		StencilTestEnable: vk.False,
	}
	if desc.DepthTest {
		depthStencil.DepthTestEnable = vk.True
		depthStencil.DepthCompareOp = vk.CompareOpLessOrEqual
		depthStencil.DepthBoundsTestEnable = vk.False
	}
	if desc.DepthWrite {
		depthStencil.DepthWriteEnable = vk.True
	}

	writeMask := vk.ColorComponentFlags(vk.ColorComponentRBit) | vk.ColorComponentFlags(vk.ColorComponentGBit) |
		vk.ColorComponentFlags(vk.ColorComponentBBit) | vk.ColorComponentFlags(vk.ColorComponentABit)
	var blendAttachments []vk.PipelineColorBlendAttachmentState
	for _, a := range config.Renderpass.desc.Attachments {
		if a.Kind != md.ATTACHMENT_KIND_COLOR {
			continue
		}
		state := vk.PipelineColorBlendAttachmentState{
			BlendEnable:    vk.False,
			ColorWriteMask: writeMask,
		}
		if desc.Blend && len(blendAttachments) == 0 {
			state.BlendEnable = vk.True
			state.SrcColorBlendFactor = vk.BlendFactorOne
			state.DstColorBlendFactor = vk.BlendFactorOne
			state.ColorBlendOp = vk.BlendOpAdd
			state.SrcAlphaBlendFactor = vk.BlendFactorSrcAlpha
			state.DstAlphaBlendFactor = vk.BlendFactorDstAlpha
			state.AlphaBlendOp = vk.BlendOpAdd
		}
		blendAttachments = append(blendAttachments, state)
	}

	colorBlendStateCreateInfo := vk.PipelineColorBlendStateCreateInfo{
		SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
		LogicOpEnable:   vk.False,
		LogicOp:         vk.LogicOpCopy,
		AttachmentCount: uint32(len(blendAttachments)),
		PAttachments:    blendAttachments,
	}

	// Vertex input. A zero stride means the shader generates its vertices.
	vertexInputInfo := vk.PipelineVertexInputStateCreateInfo{
		SType: vk.StructureTypePipelineVertexInputStateCreateInfo,
	}
	if desc.VertexStride > 0 {
		bindingDescription := vk.VertexInputBindingDescription{
			Binding:   0, // Binding index
			Stride:    desc.VertexStride,
			InputRate: vk.VertexInputRateVertex, // Move to next data entry for each vertex.
		}
		attributes := make([]vk.VertexInputAttributeDescription, len(desc.Attributes))
		for i, a := range desc.Attributes {
			attributes[i] = vk.VertexInputAttributeDescription{
				Location: a.Location,
				Binding:  0,
				Format:   vkVertexFormat(a.Format),
				Offset:   a.Offset,
			}
		}
		vertexInputInfo.VertexBindingDescriptionCount = 1
		vertexInputInfo.PVertexBindingDescriptions = []vk.VertexInputBindingDescription{bindingDescription}
		vertexInputInfo.VertexAttributeDescriptionCount = uint32(len(attributes))
		vertexInputInfo.PVertexAttributeDescriptions = attributes
	}

	// Input assembly
	inputAssembly := vk.PipelineInputAssemblyStateCreateInfo{
		SType:                  vk.StructureTypePipelineInputAssemblyStateCreateInfo,
		Topology:               vk.PrimitiveTopologyTriangleList,
		PrimitiveRestartEnable: vk.False,
	}

	// Pipeline layout
	pipelineLayoutCreateInfo := vk.PipelineLayoutCreateInfo{
		SType: vk.StructureTypePipelineLayoutCreateInfo,
	}
	if config.DescriptorSetLayout != nil {
		pipelineLayoutCreateInfo.SetLayoutCount = 1
		pipelineLayoutCreateInfo.PSetLayouts = []vk.DescriptorSetLayout{config.DescriptorSetLayout.Handle}
	}

	// Create the pipeline layout.
	if err := context.locks.SafeCall(PipelineManagement, func() error {
		var pPipelineLayout vk.PipelineLayout
		result := vk.CreatePipelineLayout(
			context.Device.LogicalDevice,
			&pipelineLayoutCreateInfo,
			context.Allocator,
			&pPipelineLayout)
		if !VulkanResultIsSuccess(result) {
			return creationResult("pipeline layout "+desc.Name, result)
		}
		outPipeline.PipelineLayout = pPipelineLayout
		return nil
	}); err != nil {
		return nil, err
	}

	stages := make([]vk.PipelineShaderStageCreateInfo, len(config.Stages))
	for i, s := range config.Stages {
		stages[i] = s.ShaderStageCreateInfo
	}

	// Pipeline create
	pipelineCreateInfo := vk.GraphicsPipelineCreateInfo{
		SType:               vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount:          uint32(len(stages)),
		PStages:             stages,
		PVertexInputState:   &vertexInputInfo,
		PInputAssemblyState: &inputAssembly,
		PViewportState:      &viewportState,
		PRasterizationState: &rasterizerCreateInfo,
		PMultisampleState:   &multisamplingCreateInfo,
		PDepthStencilState:  &depthStencil,
		PColorBlendState:    &colorBlendStateCreateInfo,
		PDynamicState:       nil,
		PTessellationState:  nil,
		Layout:              outPipeline.PipelineLayout,
		RenderPass:          config.Renderpass.Handle,
		Subpass:             0,
		BasePipelineHandle:  nil,
		BasePipelineIndex:   -1,
	}

	pPipelines := make([]vk.Pipeline, 1)
	if err := context.locks.SafeCall(PipelineManagement, func() error {
		result := vk.CreateGraphicsPipelines(
			context.Device.LogicalDevice,
			nil,
			1,
			[]vk.GraphicsPipelineCreateInfo{pipelineCreateInfo},
			context.Allocator,
			pPipelines)
		if !VulkanResultIsSuccess(result) {
			return creationResult("graphics pipeline "+desc.Name, result)
		}
		return nil
	}); err != nil {
		outPipeline.Destroy()
		return nil, err
	}
	outPipeline.Handle = pPipelines[0]

	core.LogDebug("Graphics pipeline %s created!", desc.Name)
	return outPipeline, nil
}

func (pipeline *VulkanPipeline) Desc() *md.PipelineDesc {
	return pipeline.desc
}

func (pipeline *VulkanPipeline) Destroy() {
	context := pipeline.context
	_ = context.locks.SafeCall(PipelineManagement, func() error {
		// Destroy pipeline
		if pipeline.Handle != nil {
			vk.DestroyPipeline(context.Device.LogicalDevice, pipeline.Handle, context.Allocator)
			pipeline.Handle = nil
		}
		// Destroy layout
		if pipeline.PipelineLayout != nil {
			vk.DestroyPipelineLayout(context.Device.LogicalDevice, pipeline.PipelineLayout, context.Allocator)
			pipeline.PipelineLayout = nil
		}
		return nil
	})
}
