package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vkdemos/engine/core"
	md "github.com/spaghettifunk/vkdemos/engine/renderer/metadata"
)

type VulkanRenderPass struct {
	context *VulkanContext
	desc    *md.RenderPassDesc
	Handle  vk.RenderPass
	// Clear values in attachment order.
	clearValues []vk.ClearValue
}

// RenderpassCreate builds a single subpass render pass. formats holds the
// resolved format of each attachment in desc.
func RenderpassCreate(context *VulkanContext, desc *md.RenderPassDesc, formats []vk.Format) (*VulkanRenderPass, error) {
	if len(formats) != len(desc.Attachments) || len(desc.FinalLayouts) != len(desc.Attachments) {
		return nil, core.NewProgrammerError("render pass %s: %d attachments, %d formats, %d final layouts",
			desc.Name, len(desc.Attachments), len(formats), len(desc.FinalLayouts))
	}
	outRenderpass := &VulkanRenderPass{
		context:     context,
		desc:        desc,
		clearValues: make([]vk.ClearValue, len(desc.Attachments)),
	}

	attachmentDescriptions := make([]vk.AttachmentDescription, len(desc.Attachments))
	var colorAttachmentReferences []vk.AttachmentReference
	var depthAttachmentReference *vk.AttachmentReference

	for i, a := range desc.Attachments {
		storeOp := vk.AttachmentStoreOpStore
		if a.Kind == md.ATTACHMENT_KIND_DEPTH && a.Usage == md.ATTACHMENT_USAGE_ATTACHMENT_ONLY {
			storeOp = vk.AttachmentStoreOpDontCare
		}
		attachmentDescriptions[i] = vk.AttachmentDescription{
			Format:         formats[i],
			Samples:        vk.SampleCount1Bit,
			LoadOp:         vk.AttachmentLoadOpClear,
			StoreOp:        storeOp,
			StencilLoadOp:  vk.AttachmentLoadOpDontCare,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			InitialLayout:  vk.ImageLayoutUndefined, // Do not expect any particular layout before render pass starts.
			FinalLayout:    vkLayout(desc.FinalLayouts[i]),
		}

		switch a.Kind {
		case md.ATTACHMENT_KIND_DEPTH:
			if depthAttachmentReference != nil {
				return nil, core.NewProgrammerError("render pass %s has more than one depth attachment", desc.Name)
			}
			depthAttachmentReference = &vk.AttachmentReference{
				Attachment: uint32(i),
				Layout:     vk.ImageLayoutDepthStencilAttachmentOptimal,
			}
			outRenderpass.clearValues[i].SetDepthStencil(a.Clear.Depth, a.Clear.Stencil)
		default:
			colorAttachmentReferences = append(colorAttachmentReferences, vk.AttachmentReference{
				Attachment: uint32(i), // Attachment description array index
				Layout:     vk.ImageLayoutColorAttachmentOptimal,
			})
			outRenderpass.clearValues[i].SetColor(a.Clear.Color[:])
		}
	}

	// Main subpass
	subpass := vk.SubpassDescription{
		PipelineBindPoint:       vk.PipelineBindPointGraphics,
		ColorAttachmentCount:    uint32(len(colorAttachmentReferences)),
		PColorAttachments:       colorAttachmentReferences,
		PDepthStencilAttachment: depthAttachmentReference,
	}

	dependencies := make([]vk.SubpassDependency, len(desc.Dependencies))
	for i, d := range desc.Dependencies {
		dependencies[i] = vk.SubpassDependency{
			SrcSubpass:      vkSubpass(d.SrcSubpass),
			DstSubpass:      vkSubpass(d.DstSubpass),
			SrcStageMask:    vkStages(d.SrcStageMask),
			DstStageMask:    vkStages(d.DstStageMask),
			SrcAccessMask:   vkAccess(d.SrcAccessMask),
			DstAccessMask:   vkAccess(d.DstAccessMask),
			DependencyFlags: vk.DependencyFlags(vk.DependencyByRegionBit),
		}
	}

	// Render pass create.
	renderpassCreateInfo := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(attachmentDescriptions)),
		PAttachments:    attachmentDescriptions,
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
		DependencyCount: uint32(len(dependencies)),
		PDependencies:   dependencies,
	}

	var pRenderPass vk.RenderPass
	if res := vk.CreateRenderPass(context.Device.LogicalDevice, &renderpassCreateInfo, context.Allocator, &pRenderPass); res != vk.Success {
		return nil, creationResult("render pass "+desc.Name, res)
	}
	outRenderpass.Handle = pRenderPass
	return outRenderpass, nil
}

func (vr *VulkanRenderPass) Desc() *md.RenderPassDesc {
	return vr.desc
}

func (vr *VulkanRenderPass) Destroy() {
	if vr.Handle != nil {
		vk.DestroyRenderPass(vr.context.Device.LogicalDevice, vr.Handle, vr.context.Allocator)
		vr.Handle = nil
	}
}

func (vr *VulkanRenderPass) begin(commandBuffer *VulkanCommandBuffer, frameBuffer *VulkanFramebuffer, extent md.Extent) {
	beginInfo := vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  vr.Handle,
		Framebuffer: frameBuffer.Handle,
		RenderArea: vk.Rect2D{
			Offset: vk.Offset2D{X: 0, Y: 0},
			Extent: vk.Extent2D{
				Width:  extent.Width,
				Height: extent.Height,
			},
		},
		ClearValueCount: uint32(len(vr.clearValues)),
		PClearValues:    vr.clearValues,
	}

	vk.CmdBeginRenderPass(commandBuffer.Handle, &beginInfo, vk.SubpassContentsInline)
	commandBuffer.State = COMMAND_BUFFER_STATE_IN_RENDER_PASS
}
