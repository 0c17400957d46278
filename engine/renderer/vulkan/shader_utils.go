package vulkan

import (
	vk "github.com/goki/vulkan"
)

// ShaderSource provides SPIR-V for the vertex and fragment stage of a shader.
type ShaderSource interface {
	LoadShader(name string) (vert, frag []uint32, err error)
}

/**
 * @brief Represents a single shader stage.
 */
type VulkanShaderStage struct {
	/** @brief The internal shader module Handle. */
	Handle vk.ShaderModule
	/** @brief The pipeline shader stage creation info. */
	ShaderStageCreateInfo vk.PipelineShaderStageCreateInfo
}

func NewShaderModule(context *VulkanContext, name string, code []uint32, shaderStageFlag vk.ShaderStageFlagBits) (*VulkanShaderStage, error) {
	createInfo := vk.ShaderModuleCreateInfo{
		SType: vk.StructureTypeShaderModuleCreateInfo,
		// CodeSize is in bytes.
		CodeSize: uint(len(code) * 4),
		PCode:    code,
	}

	stage := &VulkanShaderStage{}
	if res := vk.CreateShaderModule(context.Device.LogicalDevice, &createInfo, context.Allocator, &stage.Handle); res != vk.Success {
		return nil, creationResult("shader module "+name, res)
	}

	// Shader stage info
	stage.ShaderStageCreateInfo = vk.PipelineShaderStageCreateInfo{
		SType:  vk.StructureTypePipelineShaderStageCreateInfo,
		Stage:  shaderStageFlag,
		Module: stage.Handle,
		PName:  VulkanSafeString("main"),
	}
	return stage, nil
}

func (s *VulkanShaderStage) Destroy(context *VulkanContext) {
	if s.Handle != nil {
		vk.DestroyShaderModule(context.Device.LogicalDevice, s.Handle, context.Allocator)
		s.Handle = nil
	}
}

// loadShaderStages builds the vertex and fragment stages of a shader. Modules
// can be destroyed once the pipeline is created.
func loadShaderStages(context *VulkanContext, source ShaderSource, name string) ([]*VulkanShaderStage, error) {
	vert, frag, err := source.LoadShader(name)
	if err != nil {
		return nil, err
	}
	vs, err := NewShaderModule(context, name+"_vert", vert, vk.ShaderStageVertexBit)
	if err != nil {
		return nil, err
	}
	fs, err := NewShaderModule(context, name+"_frag", frag, vk.ShaderStageFragmentBit)
	if err != nil {
		vs.Destroy(context)
		return nil, err
	}
	return []*VulkanShaderStage{vs, fs}, nil
}
