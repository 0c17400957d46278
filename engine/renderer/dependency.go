package renderer

import md "github.com/spaghettifunk/vkdemos/engine/renderer/metadata"

// FinalLayout returns the layout an attachment is left in when its pass ends.
func FinalLayout(a md.AttachmentDesc) md.ImageLayout {
	switch a.Usage {
	case md.ATTACHMENT_USAGE_PRESENT:
		return md.IMAGE_LAYOUT_PRESENT_SRC
	case md.ATTACHMENT_USAGE_SAMPLED:
		if a.Kind == md.ATTACHMENT_KIND_DEPTH {
			return md.IMAGE_LAYOUT_DEPTH_STENCIL_READ_ONLY
		}
		return md.IMAGE_LAYOUT_SHADER_READ_ONLY
	}
	if a.Kind == md.ATTACHMENT_KIND_DEPTH {
		return md.IMAGE_LAYOUT_DEPTH_STENCIL_ATTACHMENT
	}
	return md.IMAGE_LAYOUT_COLOR_ATTACHMENT
}

// AttachmentLayout is the layout used while the pass renders into a.
func AttachmentLayout(a md.AttachmentDesc) md.ImageLayout {
	if a.Kind == md.ATTACHMENT_KIND_DEPTH {
		return md.IMAGE_LAYOUT_DEPTH_STENCIL_ATTACHMENT
	}
	return md.IMAGE_LAYOUT_COLOR_ATTACHMENT
}

// BuildDependencies returns the external->0 and 0->external subpass dependencies
// of a single subpass render pass writing the given attachments. Depth
// attachments synchronize on the fragment test stages, color attachments on
// color attachment output.
func BuildDependencies(attachments []md.AttachmentDesc) []md.SubpassDependency {
	in := md.SubpassDependency{SrcSubpass: md.SUBPASS_EXTERNAL, DstSubpass: 0}
	out := md.SubpassDependency{SrcSubpass: 0, DstSubpass: md.SUBPASS_EXTERNAL}

	presented := false
	for _, a := range attachments {
		if a.Usage == md.ATTACHMENT_USAGE_PRESENT {
			presented = true
		}
	}

	if presented {
		in.SrcStageMask = md.PIPELINE_STAGE_COLOR_ATTACHMENT_OUTPUT
		in.SrcAccessMask = md.ACCESS_NONE
		in.DstStageMask = md.PIPELINE_STAGE_COLOR_ATTACHMENT_OUTPUT
		in.DstAccessMask = md.ACCESS_COLOR_ATTACHMENT_WRITE
		for _, a := range attachments {
			if a.Kind == md.ATTACHMENT_KIND_DEPTH {
				in.SrcStageMask |= md.PIPELINE_STAGE_LATE_FRAGMENT_TESTS
				in.SrcAccessMask |= md.ACCESS_DEPTH_STENCIL_WRITE
				in.DstStageMask |= md.PIPELINE_STAGE_EARLY_FRAGMENT_TESTS
				in.DstAccessMask |= md.ACCESS_DEPTH_STENCIL_WRITE
			}
		}
		out.SrcStageMask = md.PIPELINE_STAGE_COLOR_ATTACHMENT_OUTPUT
		out.SrcAccessMask = md.ACCESS_COLOR_ATTACHMENT_WRITE
		out.DstStageMask = md.PIPELINE_STAGE_BOTTOM_OF_PIPE
		out.DstAccessMask = md.ACCESS_NONE
		return []md.SubpassDependency{in, out}
	}

	for _, a := range attachments {
		depth := a.Kind == md.ATTACHMENT_KIND_DEPTH
		switch {
		case a.Usage == md.ATTACHMENT_USAGE_SAMPLED && depth:
			in.SrcStageMask |= md.PIPELINE_STAGE_FRAGMENT_SHADER
			in.SrcAccessMask |= md.ACCESS_SHADER_READ
			in.DstStageMask |= md.PIPELINE_STAGE_EARLY_FRAGMENT_TESTS
			in.DstAccessMask |= md.ACCESS_DEPTH_STENCIL_WRITE
			out.SrcStageMask |= md.PIPELINE_STAGE_LATE_FRAGMENT_TESTS
			out.SrcAccessMask |= md.ACCESS_DEPTH_STENCIL_WRITE
			out.DstStageMask |= md.PIPELINE_STAGE_FRAGMENT_SHADER
			out.DstAccessMask |= md.ACCESS_SHADER_READ
		case a.Usage == md.ATTACHMENT_USAGE_SAMPLED:
			in.SrcStageMask |= md.PIPELINE_STAGE_FRAGMENT_SHADER
			in.SrcAccessMask |= md.ACCESS_SHADER_READ
			in.DstStageMask |= md.PIPELINE_STAGE_COLOR_ATTACHMENT_OUTPUT
			in.DstAccessMask |= md.ACCESS_COLOR_ATTACHMENT_WRITE
			out.SrcStageMask |= md.PIPELINE_STAGE_COLOR_ATTACHMENT_OUTPUT
			out.SrcAccessMask |= md.ACCESS_COLOR_ATTACHMENT_WRITE
			out.DstStageMask |= md.PIPELINE_STAGE_FRAGMENT_SHADER
			out.DstAccessMask |= md.ACCESS_SHADER_READ
		case depth:
			in.SrcStageMask |= md.PIPELINE_STAGE_LATE_FRAGMENT_TESTS
			in.SrcAccessMask |= md.ACCESS_DEPTH_STENCIL_WRITE
			in.DstStageMask |= md.PIPELINE_STAGE_EARLY_FRAGMENT_TESTS
			in.DstAccessMask |= md.ACCESS_DEPTH_STENCIL_WRITE
		default:
			in.SrcStageMask |= md.PIPELINE_STAGE_COLOR_ATTACHMENT_OUTPUT
			in.DstStageMask |= md.PIPELINE_STAGE_COLOR_ATTACHMENT_OUTPUT
			in.DstAccessMask |= md.ACCESS_COLOR_ATTACHMENT_WRITE
		}
	}

	// Stage masks may never be empty.
	if in.SrcStageMask == 0 {
		in.SrcStageMask = md.PIPELINE_STAGE_TOP_OF_PIPE
	}
	if in.DstStageMask == 0 {
		in.DstStageMask = md.PIPELINE_STAGE_TOP_OF_PIPE
	}
	if out.SrcStageMask == 0 {
		out.SrcStageMask = md.PIPELINE_STAGE_BOTTOM_OF_PIPE
	}
	if out.DstStageMask == 0 {
		out.DstStageMask = md.PIPELINE_STAGE_BOTTOM_OF_PIPE
	}
	return []md.SubpassDependency{in, out}
}
