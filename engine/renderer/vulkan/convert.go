package vulkan

import (
	vk "github.com/goki/vulkan"
	md "github.com/spaghettifunk/vkdemos/engine/renderer/metadata"
)

func (b *Backend) vkFormat(f md.Format) vk.Format {
	switch f {
	case md.FORMAT_SWAPCHAIN:
		return b.surfaceFormat.Format
	case md.FORMAT_DEPTH:
		return b.context.Device.DepthFormat
	case md.FORMAT_RGBA8_UNORM:
		return vk.FormatR8g8b8a8Unorm
	case md.FORMAT_RGBA32_SFLOAT:
		return vk.FormatR32g32b32a32Sfloat
	}
	return vk.FormatUndefined
}

func vkLayout(l md.ImageLayout) vk.ImageLayout {
	switch l {
	case md.IMAGE_LAYOUT_COLOR_ATTACHMENT:
		return vk.ImageLayoutColorAttachmentOptimal
	case md.IMAGE_LAYOUT_DEPTH_STENCIL_ATTACHMENT:
		return vk.ImageLayoutDepthStencilAttachmentOptimal
	case md.IMAGE_LAYOUT_DEPTH_STENCIL_READ_ONLY:
		return vk.ImageLayoutDepthStencilReadOnlyOptimal
	case md.IMAGE_LAYOUT_SHADER_READ_ONLY:
		return vk.ImageLayoutShaderReadOnlyOptimal
	case md.IMAGE_LAYOUT_TRANSFER_SRC:
		return vk.ImageLayoutTransferSrcOptimal
	case md.IMAGE_LAYOUT_PRESENT_SRC:
		return vk.ImageLayoutPresentSrc
	}
	return vk.ImageLayoutUndefined
}

var stageBits = []struct {
	md md.PipelineStage
	vk vk.PipelineStageFlagBits
}{
	{md.PIPELINE_STAGE_TOP_OF_PIPE, vk.PipelineStageTopOfPipeBit},
	{md.PIPELINE_STAGE_FRAGMENT_SHADER, vk.PipelineStageFragmentShaderBit},
	{md.PIPELINE_STAGE_EARLY_FRAGMENT_TESTS, vk.PipelineStageEarlyFragmentTestsBit},
	{md.PIPELINE_STAGE_LATE_FRAGMENT_TESTS, vk.PipelineStageLateFragmentTestsBit},
	{md.PIPELINE_STAGE_COLOR_ATTACHMENT_OUTPUT, vk.PipelineStageColorAttachmentOutputBit},
	{md.PIPELINE_STAGE_TRANSFER, vk.PipelineStageTransferBit},
	{md.PIPELINE_STAGE_BOTTOM_OF_PIPE, vk.PipelineStageBottomOfPipeBit},
}

func vkStages(s md.PipelineStage) vk.PipelineStageFlags {
	var out vk.PipelineStageFlags
	for _, b := range stageBits {
		if s&b.md != 0 {
			out |= vk.PipelineStageFlags(b.vk)
		}
	}
	return out
}

var accessBits = []struct {
	md md.Access
	vk vk.AccessFlagBits
}{
	{md.ACCESS_SHADER_READ, vk.AccessShaderReadBit},
	{md.ACCESS_COLOR_ATTACHMENT_WRITE, vk.AccessColorAttachmentWriteBit},
	{md.ACCESS_DEPTH_STENCIL_WRITE, vk.AccessDepthStencilAttachmentWriteBit},
	{md.ACCESS_TRANSFER_READ, vk.AccessTransferReadBit},
	{md.ACCESS_MEMORY_READ, vk.AccessMemoryReadBit},
}

func vkAccess(a md.Access) vk.AccessFlags {
	var out vk.AccessFlags
	for _, b := range accessBits {
		if a&b.md != 0 {
			out |= vk.AccessFlags(b.vk)
		}
	}
	return out
}

func vkSubpass(index int32) uint32 {
	if index == md.SUBPASS_EXTERNAL {
		return vk.SubpassExternal
	}
	return uint32(index)
}

func vkShaderStages(s md.ShaderStage) vk.ShaderStageFlags {
	var out vk.ShaderStageFlags
	if s&md.SHADER_STAGE_VERTEX != 0 {
		out |= vk.ShaderStageFlags(vk.ShaderStageVertexBit)
	}
	if s&md.SHADER_STAGE_FRAGMENT != 0 {
		out |= vk.ShaderStageFlags(vk.ShaderStageFragmentBit)
	}
	return out
}

func vkDescriptorType(t md.DescriptorType) vk.DescriptorType {
	switch t {
	case md.DESCRIPTOR_TYPE_UNIFORM_BUFFER_DYNAMIC:
		return vk.DescriptorTypeUniformBufferDynamic
	case md.DESCRIPTOR_TYPE_COMBINED_IMAGE_SAMPLER:
		return vk.DescriptorTypeCombinedImageSampler
	}
	return vk.DescriptorTypeUniformBuffer
}

func vkVertexFormat(f md.VertexAttributeFormat) vk.Format {
	switch f {
	case md.VERTEX_FORMAT_FLOAT2:
		return vk.FormatR32g32Sfloat
	case md.VERTEX_FORMAT_FLOAT4:
		return vk.FormatR32g32b32a32Sfloat
	}
	return vk.FormatR32g32b32Sfloat
}

func vkBufferUsage(u md.BufferUsage) vk.BufferUsageFlags {
	var out vk.BufferUsageFlags
	if u&md.BUFFER_USAGE_VERTEX != 0 {
		out |= vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit)
	}
	if u&md.BUFFER_USAGE_INDEX != 0 {
		out |= vk.BufferUsageFlags(vk.BufferUsageIndexBufferBit)
	}
	if u&md.BUFFER_USAGE_UNIFORM != 0 {
		out |= vk.BufferUsageFlags(vk.BufferUsageUniformBufferBit)
	}
	if u&md.BUFFER_USAGE_TRANSFER_SRC != 0 {
		out |= vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit)
	}
	if u&md.BUFFER_USAGE_TRANSFER_DST != 0 {
		out |= vk.BufferUsageFlags(vk.BufferUsageTransferDstBit)
	}
	return out
}

func vkMemoryProperties(m md.MemoryProperty) vk.MemoryPropertyFlags {
	var out vk.MemoryPropertyFlags
	if m&md.MEMORY_PROPERTY_DEVICE_LOCAL != 0 {
		out |= vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit)
	}
	if m&md.MEMORY_PROPERTY_HOST_VISIBLE != 0 {
		out |= vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit)
	}
	if m&md.MEMORY_PROPERTY_HOST_COHERENT != 0 {
		out |= vk.MemoryPropertyFlags(vk.MemoryPropertyHostCoherentBit)
	}
	return out
}

func queueCapabilities(flags vk.QueueFlags, present bool) md.QueueCapability {
	var out md.QueueCapability
	if flags&vk.QueueFlags(vk.QueueGraphicsBit) != 0 {
		out |= md.QUEUE_CAPABILITY_GRAPHICS
	}
	if flags&vk.QueueFlags(vk.QueueComputeBit) != 0 {
		out |= md.QUEUE_CAPABILITY_COMPUTE
	}
	if flags&vk.QueueFlags(vk.QueueTransferBit) != 0 {
		out |= md.QUEUE_CAPABILITY_TRANSFER
	}
	if flags&vk.QueueFlags(vk.QueueSparseBindingBit) != 0 {
		out |= md.QUEUE_CAPABILITY_SPARSE
	}
	if flags&vk.QueueFlags(vk.QueueProtectedBit) != 0 {
		out |= md.QUEUE_CAPABILITY_PROTECTED
	}
	if present {
		out |= md.QUEUE_CAPABILITY_PRESENT
	}
	return out
}
