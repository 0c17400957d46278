package metadata

type ShaderStage uint32

const (
	SHADER_STAGE_VERTEX ShaderStage = 1 << iota
	SHADER_STAGE_FRAGMENT
)

type DescriptorType uint32

const (
	DESCRIPTOR_TYPE_UNIFORM_BUFFER DescriptorType = iota
	DESCRIPTOR_TYPE_UNIFORM_BUFFER_DYNAMIC
	DESCRIPTOR_TYPE_COMBINED_IMAGE_SAMPLER
)

type DescriptorBinding struct {
	Binding uint32
	Type    DescriptorType
	Stages  ShaderStage
}

type DescriptorPoolSize struct {
	Type  DescriptorType
	Count uint32
}

type VertexAttributeFormat uint32

const (
	VERTEX_FORMAT_FLOAT2 VertexAttributeFormat = iota
	VERTEX_FORMAT_FLOAT3
	VERTEX_FORMAT_FLOAT4
)

type VertexAttribute struct {
	Location uint32
	Format   VertexAttributeFormat
	Offset   uint32
}

type CullMode uint32

const (
	CULL_MODE_NONE CullMode = iota
	CULL_MODE_BACK
	CULL_MODE_FRONT
)

/** @brief A graphics pipeline inside a pass. Shaders are loaded as <Shader>_vert.spv and <Shader>_frag.spv. */
type PipelineDesc struct {
	Name         string
	Shader       string
	VertexStride uint32
	Attributes   []VertexAttribute
	CullMode     CullMode
	DepthTest    bool
	DepthWrite   bool
	// Additive blending on the first color attachment.
	Blend bool
	// Depth bias, used by shadow passes to fight acne.
	DepthBias bool
}
