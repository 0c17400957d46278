package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vkdemos/engine/renderer"
	md "github.com/spaghettifunk/vkdemos/engine/renderer/metadata"
)

type VulkanFramebuffer struct {
	context     *VulkanContext
	Handle      vk.Framebuffer
	Attachments []vk.ImageView
	Renderpass  *VulkanRenderPass
}

func FramebufferCreate(context *VulkanContext, renderpass *VulkanRenderPass, extent md.Extent, attachments []renderer.Image) (*VulkanFramebuffer, error) {
	outFramebuffer := &VulkanFramebuffer{
		context:     context,
		Attachments: make([]vk.ImageView, len(attachments)),
		Renderpass:  renderpass,
	}
	for i, a := range attachments {
		outFramebuffer.Attachments[i] = a.(*VulkanImage).View
	}

	// Creation info
	framebufferCreateInfo := vk.FramebufferCreateInfo{
		SType:           vk.StructureTypeFramebufferCreateInfo,
		RenderPass:      renderpass.Handle,
		AttachmentCount: uint32(len(outFramebuffer.Attachments)),
		PAttachments:    outFramebuffer.Attachments,
		Width:           extent.Width,
		Height:          extent.Height,
		Layers:          1,
	}

	var pFramebuffer vk.Framebuffer
	if res := vk.CreateFramebuffer(context.Device.LogicalDevice, &framebufferCreateInfo, context.Allocator, &pFramebuffer); res != vk.Success {
		return nil, creationResult("framebuffer "+renderpass.desc.Name, res)
	}
	outFramebuffer.Handle = pFramebuffer
	return outFramebuffer, nil
}

func (vfb *VulkanFramebuffer) Destroy() {
	if vfb.Handle != nil {
		vk.DestroyFramebuffer(vfb.context.Device.LogicalDevice, vfb.Handle, vfb.context.Allocator)
	}
	vfb.Attachments = nil
	vfb.Handle = nil
	vfb.Renderpass = nil
}
