package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vkdemos/engine/core"
	md "github.com/spaghettifunk/vkdemos/engine/renderer/metadata"
)

type VulkanImage struct {
	context *VulkanContext
	desc    md.ImageDesc

	Handle vk.Image
	Memory vk.DeviceMemory
	View   vk.ImageView
	Format vk.Format
	Aspect vk.ImageAspectFlags
	Width  uint32
	Height uint32

	// Swapchain images are owned by the swapchain, only their view is ours.
	owned     bool
	destroyed bool
}

func ImageCreate(context *VulkanContext, desc md.ImageDesc, format vk.Format, usage vk.ImageUsageFlags, memoryFlags vk.MemoryPropertyFlags, aspect vk.ImageAspectFlags) (*VulkanImage, error) {
	img := &VulkanImage{
		context: context,
		desc:    desc,
		Format:  format,
		Aspect:  aspect,
		Width:   desc.Extent.Width,
		Height:  desc.Extent.Height,
		owned:   true,
	}

	imageCreateInfo := vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: vk.ImageType2d,
		Extent: vk.Extent3D{
			Width:  desc.Extent.Width,
			Height: desc.Extent.Height,
			Depth:  1,
		},
		MipLevels:     1,
		ArrayLayers:   1,
		Format:        format,
		Tiling:        vk.ImageTilingOptimal,
		InitialLayout: vk.ImageLayoutUndefined,
		Usage:         usage,
		Samples:       vk.SampleCount1Bit,
		SharingMode:   vk.SharingModeExclusive,
	}

	var handle vk.Image
	if res := vk.CreateImage(context.Device.LogicalDevice, &imageCreateInfo, context.Allocator, &handle); res != vk.Success {
		return nil, creationResult("image "+desc.Label, res)
	}
	img.Handle = handle

	var memoryRequirements vk.MemoryRequirements
	vk.GetImageMemoryRequirements(context.Device.LogicalDevice, handle, &memoryRequirements)
	memoryRequirements.Deref()

	memoryType, err := context.FindMemoryIndex(memoryRequirements.MemoryTypeBits, memoryFlags)
	if err != nil {
		vk.DestroyImage(context.Device.LogicalDevice, handle, context.Allocator)
		return nil, err
	}

	allocateInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  memoryRequirements.Size,
		MemoryTypeIndex: memoryType,
	}
	var memory vk.DeviceMemory
	if res := vk.AllocateMemory(context.Device.LogicalDevice, &allocateInfo, context.Allocator, &memory); res != vk.Success {
		vk.DestroyImage(context.Device.LogicalDevice, handle, context.Allocator)
		return nil, creationResult("image memory "+desc.Label, res)
	}
	img.Memory = memory

	if res := vk.BindImageMemory(context.Device.LogicalDevice, handle, memory, 0); res != vk.Success {
		_ = img.Destroy()
		return nil, creationResult("image memory binding "+desc.Label, res)
	}

	if err := img.createView(); err != nil {
		_ = img.Destroy()
		return nil, err
	}
	return img, nil
}

// wrapSwapchainImage creates a view for an image owned by a swapchain.
func wrapSwapchainImage(context *VulkanContext, handle vk.Image, format vk.Format, extent md.Extent, label string) (*VulkanImage, error) {
	img := &VulkanImage{
		context: context,
		desc: md.ImageDesc{
			Label:  label,
			Kind:   md.ATTACHMENT_KIND_COLOR,
			Format: md.FORMAT_SWAPCHAIN,
			Extent: extent,
		},
		Handle: handle,
		Format: format,
		Aspect: vk.ImageAspectFlags(vk.ImageAspectColorBit),
		Width:  extent.Width,
		Height: extent.Height,
	}
	if err := img.createView(); err != nil {
		return nil, err
	}
	return img, nil
}

func (vi *VulkanImage) createView() error {
	viewCreateInfo := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    vi.Handle,
		ViewType: vk.ImageViewType2d,
		Format:   vi.Format,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     vi.Aspect,
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	}
	var view vk.ImageView
	if res := vk.CreateImageView(vi.context.Device.LogicalDevice, &viewCreateInfo, vi.context.Allocator, &view); res != vk.Success {
		return creationResult("image view "+vi.desc.Label, res)
	}
	vi.View = view
	return nil
}

func (vi *VulkanImage) Desc() md.ImageDesc {
	return vi.desc
}

func (vi *VulkanImage) Destroy() error {
	if vi.destroyed {
		return core.NewProgrammerError("image %q destroyed twice", vi.desc.Label)
	}
	vi.destroyed = true
	device := vi.context.Device.LogicalDevice
	if vi.View != nil {
		vk.DestroyImageView(device, vi.View, vi.context.Allocator)
		vi.View = nil
	}
	if !vi.owned {
		return nil
	}
	if vi.Memory != nil {
		vk.FreeMemory(device, vi.Memory, vi.context.Allocator)
		vi.Memory = nil
	}
	if vi.Handle != nil {
		vk.DestroyImage(device, vi.Handle, vi.context.Allocator)
		vi.Handle = nil
	}
	return nil
}

type VulkanSampler struct {
	context *VulkanContext
	Handle  vk.Sampler
}

// SamplerCreate builds the linear clamp-to-edge sampler used for attachment reads.
func SamplerCreate(context *VulkanContext) (*VulkanSampler, error) {
	anisotropy := vk.Bool32(vk.False)
	if context.Device.Features.SamplerAnisotropy == vk.True {
		anisotropy = vk.True
	}
	samplerInfo := vk.SamplerCreateInfo{
		SType:                   vk.StructureTypeSamplerCreateInfo,
		MagFilter:               vk.FilterLinear,
		MinFilter:               vk.FilterLinear,
		MipmapMode:              vk.SamplerMipmapModeLinear,
		AddressModeU:            vk.SamplerAddressModeClampToEdge,
		AddressModeV:            vk.SamplerAddressModeClampToEdge,
		AddressModeW:            vk.SamplerAddressModeClampToEdge,
		AnisotropyEnable:        anisotropy,
		MaxAnisotropy:           1.0,
		BorderColor:             vk.BorderColorFloatOpaqueWhite,
		UnnormalizedCoordinates: vk.False,
		CompareEnable:           vk.False,
		CompareOp:               vk.CompareOpAlways,
		MinLod:                  0.0,
		MaxLod:                  1.0,
	}
	var handle vk.Sampler
	if res := vk.CreateSampler(context.Device.LogicalDevice, &samplerInfo, context.Allocator, &handle); res != vk.Success {
		return nil, creationResult("sampler", res)
	}
	return &VulkanSampler{context: context, Handle: handle}, nil
}

func (s *VulkanSampler) Destroy() {
	if s.Handle != nil {
		vk.DestroySampler(s.context.Device.LogicalDevice, s.Handle, s.context.Allocator)
		s.Handle = nil
	}
}
