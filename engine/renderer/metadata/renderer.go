package metadata

// Extent is a width/height pair in pixels. The zero value means
// "follow the swapchain" when used in a pass declaration.
type Extent struct {
	Width  uint32
	Height uint32
}

func (e Extent) IsZero() bool {
	return e.Width == 0 || e.Height == 0
}

func (e Extent) Aspect() float32 {
	if e.Height == 0 {
		return 1
	}
	return float32(e.Width) / float32(e.Height)
}

/** @brief Symbolic image formats; backends resolve them to a concrete format. */
type Format uint32

const (
	FORMAT_UNDEFINED Format = iota
	/** @brief Whatever the swapchain negotiated with the surface. */
	FORMAT_SWAPCHAIN
	/** @brief The best depth format the device supports. */
	FORMAT_DEPTH
	FORMAT_RGBA8_UNORM
	FORMAT_RGBA32_SFLOAT
)

func (f Format) String() string {
	switch f {
	case FORMAT_SWAPCHAIN:
		return "swapchain"
	case FORMAT_DEPTH:
		return "depth"
	case FORMAT_RGBA8_UNORM:
		return "rgba8_unorm"
	case FORMAT_RGBA32_SFLOAT:
		return "rgba32_sfloat"
	}
	return "undefined"
}

type ImageLayout uint32

const (
	IMAGE_LAYOUT_UNDEFINED ImageLayout = iota
	IMAGE_LAYOUT_COLOR_ATTACHMENT
	IMAGE_LAYOUT_DEPTH_STENCIL_ATTACHMENT
	IMAGE_LAYOUT_DEPTH_STENCIL_READ_ONLY
	IMAGE_LAYOUT_SHADER_READ_ONLY
	IMAGE_LAYOUT_TRANSFER_SRC
	IMAGE_LAYOUT_PRESENT_SRC
)

type PipelineStage uint32

const (
	PIPELINE_STAGE_TOP_OF_PIPE PipelineStage = 1 << iota
	PIPELINE_STAGE_FRAGMENT_SHADER
	PIPELINE_STAGE_EARLY_FRAGMENT_TESTS
	PIPELINE_STAGE_LATE_FRAGMENT_TESTS
	PIPELINE_STAGE_COLOR_ATTACHMENT_OUTPUT
	PIPELINE_STAGE_TRANSFER
	PIPELINE_STAGE_BOTTOM_OF_PIPE
)

type Access uint32

const (
	ACCESS_NONE        Access = 0
	ACCESS_SHADER_READ Access = 1 << iota
	ACCESS_COLOR_ATTACHMENT_WRITE
	ACCESS_DEPTH_STENCIL_WRITE
	ACCESS_TRANSFER_READ
	ACCESS_MEMORY_READ
)

/** @brief Marks the implicit subpass outside of a render pass. */
const SUBPASS_EXTERNAL int32 = -1

type SubpassDependency struct {
	SrcSubpass    int32
	DstSubpass    int32
	SrcStageMask  PipelineStage
	DstStageMask  PipelineStage
	SrcAccessMask Access
	DstAccessMask Access
}

type AttachmentKind uint32

const (
	ATTACHMENT_KIND_COLOR AttachmentKind = iota
	ATTACHMENT_KIND_DEPTH
)

/** @brief What happens to an attachment after its pass. Decides the final layout. */
type AttachmentUsage uint32

const (
	/** @brief Presented to the screen. Only valid on the last pass. */
	ATTACHMENT_USAGE_PRESENT AttachmentUsage = iota
	/** @brief Sampled by a later pass. */
	ATTACHMENT_USAGE_SAMPLED
	/** @brief Only used inside its own pass. */
	ATTACHMENT_USAGE_ATTACHMENT_ONLY
)

type ClearValue struct {
	Color   [4]float32
	Depth   float32
	Stencil uint32
}

type AttachmentDesc struct {
	Name   string
	Kind   AttachmentKind
	Format Format
	Usage  AttachmentUsage
	Clear  ClearValue
}

type RenderPassDesc struct {
	Name         string
	Attachments  []AttachmentDesc
	FinalLayouts []ImageLayout
	Dependencies []SubpassDependency
}
