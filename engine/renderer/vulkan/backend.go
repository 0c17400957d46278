package vulkan

import (
	"runtime"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vkdemos/engine/core"
	"github.com/spaghettifunk/vkdemos/engine/platform"
	"github.com/spaghettifunk/vkdemos/engine/renderer"
	md "github.com/spaghettifunk/vkdemos/engine/renderer/metadata"
)

type Config struct {
	AppName string
	// Enables VK_LAYER_KHRONOS_validation and the debug report callback.
	Validation bool
	// The first requirement must include graphics and present.
	Queues  []md.QueueRequirement
	Shaders ShaderSource
}

// Backend implements renderer.Backend on top of Vulkan.
type Backend struct {
	platform *platform.Platform
	context  *VulkanContext
	shaders  ShaderSource

	graphics      *Queue
	surfaceFormat vk.SurfaceFormat

	debug bool
}

var _ renderer.Backend = (*Backend)(nil)

func New(p *platform.Platform, cfg Config) (*Backend, error) {
	if len(cfg.Queues) == 0 {
		cfg.Queues = []md.QueueRequirement{{
			Capabilities: md.QUEUE_CAPABILITY_GRAPHICS | md.QUEUE_CAPABILITY_PRESENT,
			Count:        1,
			Priorities:   []float32{1.0},
		}}
	}
	if !cfg.Queues[0].Capabilities.Has(md.QUEUE_CAPABILITY_GRAPHICS | md.QUEUE_CAPABILITY_PRESENT) {
		return nil, core.NewProgrammerError("the first queue requirement must support graphics and present")
	}
	if cfg.Shaders == nil {
		return nil, core.NewProgrammerError("vulkan backend needs a shader source")
	}

	b := &Backend{
		platform: p,
		context: &VulkanContext{
			Allocator: nil,
			Device:    &VulkanDevice{},
			locks:     NewVulkanLockPool(),
		},
		shaders: cfg.Shaders,
		debug:   cfg.Validation,
	}
	if err := b.initialize(cfg); err != nil {
		_ = b.Shutdown()
		return nil, err
	}
	return b, nil
}

func (b *Backend) initialize(cfg Config) error {
	procAddr := glfw.GetVulkanGetInstanceProcAddress()
	if procAddr == nil {
		return core.NewCreationError("vulkan loader", errors.New("GetInstanceProcAddress is nil"))
	}
	vk.SetGetInstanceProcAddr(procAddr)

	if err := vk.Init(); err != nil {
		return core.NewCreationError("vulkan loader", err)
	}

	// Setup Vulkan instance.
	appInfo := &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         uint32(vk.MakeVersion(1, 1, 0)),
		ApplicationVersion: uint32(vk.MakeVersion(1, 0, 0)),
		PApplicationName:   VulkanSafeString(cfg.AppName),
		PEngineName:        VulkanSafeString("vkdemos"),
	}

	createInfo := vk.InstanceCreateInfo{
		SType:            vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: appInfo,
	}

	// Obtain a list of required extensions
	requiredExtensions := []string{"VK_KHR_surface"} // Generic surface extension
	requiredExtensions = append(requiredExtensions, b.platform.GetRequiredExtensionNames()...)

	if runtime.GOOS == "darwin" {
		requiredExtensions = append(requiredExtensions,
			"VK_KHR_portability_enumeration",
			"VK_KHR_get_physical_device_properties2",
		)
		// VK_INSTANCE_CREATE_ENUMERATE_PORTABILITY_BIT_KHR
		createInfo.Flags |= 1
	}

	if b.debug {
		requiredExtensions = append(requiredExtensions, vk.ExtDebugReportExtensionName) // debug utilities
		core.LogInfo("Required extensions:")
		for _, ext := range requiredExtensions {
			core.LogInfo(ext)
		}
	}

	createInfo.EnabledExtensionCount = uint32(len(requiredExtensions))
	createInfo.PpEnabledExtensionNames = VulkanSafeStrings(requiredExtensions)

	// If validation should be done, get a list of the required validation layer names
	// and make sure they exist. Validation layers should only be enabled on non-release builds.
	requiredValidationLayerNames := []string{}
	if b.debug {
		core.LogInfo("Validation layers enabled. Enumerating...")
		requiredValidationLayerNames = []string{"VK_LAYER_KHRONOS_validation"}
		if err := checkValidationLayers(requiredValidationLayerNames); err != nil {
			return err
		}
		core.LogInfo("All required validation layers are present.")
	}

	createInfo.EnabledLayerCount = uint32(len(requiredValidationLayerNames))
	createInfo.PpEnabledLayerNames = VulkanSafeStrings(requiredValidationLayerNames)

	var instance vk.Instance
	if res := vk.CreateInstance(&createInfo, b.context.Allocator, &instance); res != vk.Success {
		return creationResult("vulkan instance", res)
	}
	b.context.Instance = instance
	if err := vk.InitInstance(instance); err != nil {
		return core.NewCreationError("vulkan instance", err)
	}
	core.LogInfo("Vulkan Instance created.")

	// Debugger
	if b.debug {
		core.LogDebug("Creating Vulkan debugger...")
		debugCreateInfo := vk.DebugReportCallbackCreateInfo{
			SType:       vk.StructureTypeDebugReportCallbackCreateInfo,
			Flags:       vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit | vk.DebugReportPerformanceWarningBit),
			PfnCallback: dbgCallbackFunc,
		}
		var dbg vk.DebugReportCallback
		if res := vk.CreateDebugReportCallback(instance, &debugCreateInfo, nil, &dbg); res != vk.Success {
			return creationResult("debug report callback", res)
		}
		b.context.debugMessenger = dbg
		core.LogDebug("Vulkan debugger created.")
	}

	// Surface
	core.LogDebug("Creating Vulkan surface...")
	surface, err := b.platform.CreateSurface(instance)
	if err != nil {
		return core.NewCreationError("window surface", err)
	}
	b.context.Surface = vk.SurfaceFromPointer(surface)
	core.LogDebug("Vulkan surface created.")

	// Device creation
	if err := DeviceCreate(b.context, cfg.Queues[0]); err != nil {
		return err
	}
	b.graphics = &Queue{
		context: b.context,
		handle:  b.context.Device.GraphicsQueue,
		family:  b.context.Device.GraphicsQueueIndex,
		caps:    b.context.Device.GraphicsCapability,
	}

	// The surface format is fixed for the life of the surface. Render passes
	// resolve the swapchain format from it before any swapchain exists.
	b.surfaceFormat = chooseSurfaceFormat(b.context.Device.SwapchainSupport)

	core.LogInfo("Vulkan renderer initialized successfully.")
	return nil
}

func checkValidationLayers(required []string) error {
	// Obtain a list of available validation layers
	var availableLayerCount uint32
	if res := vk.EnumerateInstanceLayerProperties(&availableLayerCount, nil); res != vk.Success {
		return creationResult("instance layer list", res)
	}
	availableLayers := make([]vk.LayerProperties, availableLayerCount)
	if res := vk.EnumerateInstanceLayerProperties(&availableLayerCount, availableLayers); res != vk.Success {
		return creationResult("instance layer list", res)
	}

	// Verify all required layers are available.
	for _, name := range required {
		core.LogInfo("Searching for layer: %s...", name)
		found := false
		for j := range availableLayers {
			availableLayers[j].Deref()
			if name == vk.ToString(availableLayers[j].LayerName[:]) {
				found = true
				core.LogInfo("Found.")
				break
			}
		}
		if !found {
			return core.NewCreationError("validation layer", errors.Newf("required validation layer is missing: %s", name))
		}
	}
	return nil
}

// Shutdown destroys the device level objects. Everything created through the
// backend must have been destroyed before.
func (b *Backend) Shutdown() error {
	ctx := b.context
	if ctx.Device.LogicalDevice != nil {
		vk.DeviceWaitIdle(ctx.Device.LogicalDevice)
		core.LogDebug("Destroying Vulkan device...")
		DeviceDestroy(ctx)
	}

	core.LogDebug("Destroying Vulkan surface...")
	if ctx.Surface != nil {
		vk.DestroySurface(ctx.Instance, ctx.Surface, ctx.Allocator)
		ctx.Surface = nil
	}

	if ctx.debugMessenger != nil {
		core.LogDebug("Destroying Vulkan debugger...")
		vk.DestroyDebugReportCallback(ctx.Instance, ctx.debugMessenger, ctx.Allocator)
		ctx.debugMessenger = nil
	}

	if ctx.Instance != nil {
		core.LogDebug("Destroying Vulkan instance...")
		vk.DestroyInstance(ctx.Instance, ctx.Allocator)
		ctx.Instance = nil
	}
	return nil
}

func (b *Backend) WaitIdle() error {
	return b.context.locks.SafeQueueCall(b.graphics.family, func() error {
		return runtimeResult("device wait idle", vk.DeviceWaitIdle(b.context.Device.LogicalDevice))
	})
}

func (b *Backend) Limits() md.DeviceLimits {
	limits := b.context.Device.Properties.Limits
	return md.DeviceLimits{
		MinUniformBufferOffsetAlignment: uint64(limits.MinUniformBufferOffsetAlignment),
		MaxImageDimension2D:             limits.MaxImageDimension2D,
	}
}

func (b *Backend) GraphicsQueue() renderer.Queue {
	return b.graphics
}

func (b *Backend) CreateSwapchain(extent md.Extent, old renderer.Swapchain) (renderer.Swapchain, error) {
	var prev *VulkanSwapchain
	if old != nil {
		prev = old.(*VulkanSwapchain)
	}
	return SwapchainCreate(b.context, b.surfaceFormat, extent, prev)
}

func (b *Backend) CreateFence(signaled bool) (renderer.Fence, error) {
	return NewFence(b.context, signaled)
}

func (b *Backend) CreateSemaphore() (renderer.Semaphore, error) {
	return NewSemaphore(b.context)
}

func (b *Backend) CreateImage(desc md.ImageDesc) (renderer.Image, error) {
	if desc.Extent.IsZero() {
		return nil, core.NewProgrammerError("image %q has an empty extent", desc.Label)
	}
	if max := b.context.Device.Properties.Limits.MaxImageDimension2D; desc.Extent.Width > max || desc.Extent.Height > max {
		return nil, core.NewProgrammerError("image %q exceeds the device maximum of %d", desc.Label, max)
	}
	format := b.vkFormat(desc.Format)
	var usage vk.ImageUsageFlags
	aspect := vk.ImageAspectFlags(vk.ImageAspectColorBit)
	if desc.Kind == md.ATTACHMENT_KIND_DEPTH {
		usage = vk.ImageUsageFlags(vk.ImageUsageDepthStencilAttachmentBit)
		aspect = vk.ImageAspectFlags(vk.ImageAspectDepthBit)
	} else {
		usage = vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit)
	}
	if desc.Sampled {
		usage |= vk.ImageUsageFlags(vk.ImageUsageSampledBit)
	}
	return ImageCreate(b.context, desc, format, usage, vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit), aspect)
}

func (b *Backend) CreateRenderPass(desc md.RenderPassDesc) (renderer.RenderPass, error) {
	formats := make([]vk.Format, len(desc.Attachments))
	for i, a := range desc.Attachments {
		formats[i] = b.vkFormat(a.Format)
	}
	return RenderpassCreate(b.context, &desc, formats)
}

func (b *Backend) CreateFramebuffer(pass renderer.RenderPass, attachments []renderer.Image, extent md.Extent) (renderer.Framebuffer, error) {
	return FramebufferCreate(b.context, pass.(*VulkanRenderPass), extent, attachments)
}

func (b *Backend) CreateDescriptorSetLayout(bindings []md.DescriptorBinding) (renderer.DescriptorSetLayout, error) {
	return DescriptorSetLayoutCreate(b.context, bindings)
}

func (b *Backend) CreatePipeline(desc *md.PipelineDesc, pass renderer.RenderPass, layout renderer.DescriptorSetLayout, extent md.Extent) (renderer.Pipeline, error) {
	stages, err := loadShaderStages(b.context, b.shaders, desc.Shader)
	if err != nil {
		return nil, err
	}
	// Modules are no longer needed once the pipeline exists.
	defer func() {
		for _, s := range stages {
			s.Destroy(b.context)
		}
	}()

	config := &VulkanPipelineConfig{
		Desc:       desc,
		Renderpass: pass.(*VulkanRenderPass),
		Stages:     stages,
		Extent:     extent,
	}
	if layout != nil {
		config.DescriptorSetLayout = layout.(*VulkanDescriptorSetLayout)
	}
	return NewGraphicsPipeline(b.context, config)
}

func (b *Backend) CreateBuffer(desc md.BufferDesc) (renderer.Buffer, error) {
	return BufferCreate(b.context, desc)
}

func (b *Backend) CreateSampler() (renderer.Sampler, error) {
	return SamplerCreate(b.context)
}

func (b *Backend) CreateDescriptorPool(sizes []md.DescriptorPoolSize, maxSets uint32) (renderer.DescriptorPool, error) {
	return DescriptorPoolCreate(b.context, sizes, maxSets)
}

func (b *Backend) AllocateCommandBuffers(name string, count int) ([]renderer.CommandBuffer, error) {
	cbs, err := AllocateCommandBuffers(b.context, b.context.Device.GraphicsCommandPool, name, count)
	if err != nil {
		return nil, err
	}
	out := make([]renderer.CommandBuffer, len(cbs))
	for i, cb := range cbs {
		out[i] = cb
	}
	return out, nil
}

func dbgCallbackFunc(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType, object uint64, location uint64, messageCode int32, pLayerPrefix string, pMessage string, pUserData unsafe.Pointer) vk.Bool32 {
	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		core.LogError("ERROR: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit) != 0:
		core.LogWarn("WARNING: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportPerformanceWarningBit) != 0:
		core.LogWarn("PERFORMANCE WARNING: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportDebugBit) != 0:
		core.LogDebug("DEBUG: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	default:
		core.LogInfo("INFORMATION: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	}
	return vk.Bool32(vk.False)
}
