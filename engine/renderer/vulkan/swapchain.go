package vulkan

import (
	"fmt"
	"math"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vkdemos/engine/core"
	mth "github.com/spaghettifunk/vkdemos/engine/math"
	"github.com/spaghettifunk/vkdemos/engine/renderer"
	md "github.com/spaghettifunk/vkdemos/engine/renderer/metadata"
)

type VulkanSwapchain struct {
	context *VulkanContext

	ImageFormat vk.SurfaceFormat
	Handle      vk.Swapchain
	Extent2D    vk.Extent2D
	Images      []*VulkanImage
}

type VulkanSwapchainSupportInfo struct {
	Capabilities vk.SurfaceCapabilities
	Formats      []vk.SurfaceFormat
	PresentModes []vk.PresentMode
}

// chooseSurfaceFormat prefers BGRA8 UNORM with an sRGB non linear color space.
func chooseSurfaceFormat(support *VulkanSwapchainSupportInfo) vk.SurfaceFormat {
	for _, format := range support.Formats {
		// Preferred formats
		if format.Format == vk.FormatB8g8r8a8Unorm && format.ColorSpace == vk.ColorSpaceSrgbNonlinear {
			return format
		}
	}
	return support.Formats[0]
}

func choosePresentMode(support *VulkanSwapchainSupportInfo) vk.PresentMode {
	for _, mode := range support.PresentModes {
		if mode == vk.PresentModeMailbox {
			return mode
		}
	}
	return vk.PresentModeFifo
}

func chooseExtent(capabilities vk.SurfaceCapabilities, width, height uint32) vk.Extent2D {
	if capabilities.CurrentExtent.Width != math.MaxUint32 {
		return capabilities.CurrentExtent
	}
	// Clamp to the value allowed by the GPU.
	min := capabilities.MinImageExtent
	max := capabilities.MaxImageExtent
	return vk.Extent2D{
		Width:  mth.Clamp(width, min.Width, max.Width),
		Height: mth.Clamp(height, min.Height, max.Height),
	}
}

func chooseImageCount(capabilities vk.SurfaceCapabilities) uint32 {
	imageCount := capabilities.MinImageCount + 1
	if capabilities.MaxImageCount > 0 && imageCount > capabilities.MaxImageCount {
		imageCount = capabilities.MaxImageCount
	}
	return imageCount
}

// SwapchainCreate negotiates a swapchain with the surface. old, when not nil,
// is handed to the driver for resource reuse and must be destroyed by the caller.
func SwapchainCreate(context *VulkanContext, format vk.SurfaceFormat, extent md.Extent, old *VulkanSwapchain) (*VulkanSwapchain, error) {
	// Capabilities change with the window, so query them every time.
	support, err := DeviceQuerySwapchainSupport(context.Device.PhysicalDevice, context.Surface)
	if err != nil {
		return nil, err
	}
	context.Device.SwapchainSupport = support
	capabilities := support.Capabilities

	swapchain := &VulkanSwapchain{
		context:     context,
		ImageFormat: format,
		Extent2D:    chooseExtent(capabilities, extent.Width, extent.Height),
	}
	if swapchain.Extent2D.Width == 0 || swapchain.Extent2D.Height == 0 {
		return nil, core.NewProgrammerError("swapchain requested for a %dx%d surface", swapchain.Extent2D.Width, swapchain.Extent2D.Height)
	}

	usage := vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit)
	// Screenshots copy out of the presented image.
	if capabilities.SupportedUsageFlags&vk.ImageUsageFlags(vk.ImageUsageTransferSrcBit) != 0 {
		usage |= vk.ImageUsageFlags(vk.ImageUsageTransferSrcBit)
	}

	// Swapchain create info
	swapchainCreateInfo := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          context.Surface,
		MinImageCount:    chooseImageCount(capabilities),
		ImageFormat:      format.Format,
		ImageColorSpace:  format.ColorSpace,
		ImageExtent:      swapchain.Extent2D,
		ImageArrayLayers: 1,
		ImageUsage:       usage,
		// Graphics and present share one family.
		ImageSharingMode: vk.SharingModeExclusive,
		PreTransform:     capabilities.CurrentTransform,
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		PresentMode:      choosePresentMode(support),
		Clipped:          vk.True,
	}
	if old != nil {
		swapchainCreateInfo.OldSwapchain = old.Handle
	}

	err = context.locks.SafeCall(SwapchainManagement, func() error {
		var swapchainHandle vk.Swapchain
		if res := vk.CreateSwapchain(context.Device.LogicalDevice, &swapchainCreateInfo, context.Allocator, &swapchainHandle); res != vk.Success {
			return creationResult("swapchain", res)
		}
		swapchain.Handle = swapchainHandle
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Images
	var imageCount uint32
	if res := vk.GetSwapchainImages(context.Device.LogicalDevice, swapchain.Handle, &imageCount, nil); res != vk.Success {
		swapchain.Destroy()
		return nil, creationResult("swapchain images", res)
	}
	images := make([]vk.Image, imageCount)
	if res := vk.GetSwapchainImages(context.Device.LogicalDevice, swapchain.Handle, &imageCount, images); res != vk.Success {
		swapchain.Destroy()
		return nil, creationResult("swapchain images", res)
	}

	// Views
	ext := swapchain.Extent()
	for i, handle := range images {
		img, err := wrapSwapchainImage(context, handle, format.Format, ext, fmt.Sprintf("swapchain#%d", i))
		if err != nil {
			swapchain.Destroy()
			return nil, err
		}
		swapchain.Images = append(swapchain.Images, img)
	}

	core.LogInfo("Swapchain created successfully (%dx%d, %d images).", ext.Width, ext.Height, imageCount)
	return swapchain, nil
}

func (vs *VulkanSwapchain) AcquireNextImage(signal renderer.Semaphore) (uint32, error) {
	var imageIndex uint32
	result := vk.AcquireNextImage(vs.context.Device.LogicalDevice, vs.Handle, math.MaxUint64, signal.(*VulkanSemaphore).Handle, nil, &imageIndex)
	if result == vk.Suboptimal {
		// The image is still usable and the semaphore will be signaled.
		return imageIndex, nil
	}
	if err := runtimeResult("acquire next image", result); err != nil {
		return 0, err
	}
	return imageIndex, nil
}

func (vs *VulkanSwapchain) Present(queue renderer.Queue, wait renderer.Semaphore, imageIndex uint32) error {
	q, ok := queue.(*Queue)
	if !ok || !q.Capabilities().Has(md.QUEUE_CAPABILITY_PRESENT) {
		return core.NewProgrammerError("present needs a queue with present support")
	}

	// Return the image to the swapchain for presentation.
	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{wait.(*VulkanSemaphore).Handle},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{vs.Handle},
		PImageIndices:      []uint32{imageIndex},
		PResults:           nil,
	}

	var result vk.Result
	_ = vs.context.locks.SafeQueueCall(q.family, func() error {
		result = vk.QueuePresent(q.handle, &presentInfo)
		return nil
	})
	// Swapchain is out of date, suboptimal or a framebuffer resize has occurred.
	return runtimeResult("present", result)
}

func (vs *VulkanSwapchain) ImageCount() uint32 {
	return uint32(len(vs.Images))
}

func (vs *VulkanSwapchain) Extent() md.Extent {
	return md.Extent{Width: vs.Extent2D.Width, Height: vs.Extent2D.Height}
}

func (vs *VulkanSwapchain) Image(index uint32) renderer.Image {
	return vs.Images[index]
}

func (vs *VulkanSwapchain) Destroy() {
	// Only destroy the views, not the images, since those are owned by the swapchain and are thus
	// destroyed when it is.
	for _, img := range vs.Images {
		_ = img.Destroy()
	}
	vs.Images = nil
	if vs.Handle != nil {
		_ = vs.context.locks.SafeCall(SwapchainManagement, func() error {
			vk.DestroySwapchain(vs.context.Device.LogicalDevice, vs.Handle, vs.context.Allocator)
			return nil
		})
		vs.Handle = nil
	}
}
