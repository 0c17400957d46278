package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vkdemos/engine/core"
	"github.com/spaghettifunk/vkdemos/engine/renderer"
)

type VulkanFence struct {
	context    *VulkanContext
	Handle     vk.Fence
	IsSignaled bool
}

func NewFence(context *VulkanContext, createSignaled bool) (*VulkanFence, error) {
	fence := &VulkanFence{
		context: context,
		// Make sure to signal the fence if required.
		IsSignaled: createSignaled,
	}

	fenceCreateInfo := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
	}
	if fence.IsSignaled {
		fenceCreateInfo.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}

	var pFence vk.Fence
	if res := vk.CreateFence(context.Device.LogicalDevice, &fenceCreateInfo, context.Allocator, &pFence); res != vk.Success {
		return nil, creationResult("fence", res)
	}
	fence.Handle = pFence
	return fence, nil
}

func (vf *VulkanFence) Destroy() {
	if vf.Handle != nil {
		vk.DestroyFence(vf.context.Device.LogicalDevice, vf.Handle, vf.context.Allocator)
		vf.Handle = nil
	}
	vf.IsSignaled = false
}

func (vf *VulkanFence) Wait(timeoutNs uint64) error {
	if vf.IsSignaled {
		// If already signaled, do not wait.
		return nil
	}
	result := vk.WaitForFences(vf.context.Device.LogicalDevice, 1, []vk.Fence{vf.Handle}, vk.True, timeoutNs)
	if result == vk.Timeout {
		core.LogWarn("vk_fence_wait - Timed out")
	}
	if err := runtimeResult("fence wait", result); err != nil {
		return err
	}
	vf.IsSignaled = true
	return nil
}

func (vf *VulkanFence) Reset() error {
	if !vf.IsSignaled {
		return nil
	}
	if res := vk.ResetFences(vf.context.Device.LogicalDevice, 1, []vk.Fence{vf.Handle}); res != vk.Success {
		return runtimeResult("fence reset", res)
	}
	vf.IsSignaled = false
	return nil
}

// submitted marks the fence as pending after a queue submit signaled it.
func (vf *VulkanFence) submitted() {
	vf.IsSignaled = false
}

type VulkanSemaphore struct {
	context *VulkanContext
	Handle  vk.Semaphore
}

func NewSemaphore(context *VulkanContext) (*VulkanSemaphore, error) {
	info := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}
	var handle vk.Semaphore
	if res := vk.CreateSemaphore(context.Device.LogicalDevice, &info, context.Allocator, &handle); res != vk.Success {
		return nil, creationResult("semaphore", res)
	}
	return &VulkanSemaphore{context: context, Handle: handle}, nil
}

func (s *VulkanSemaphore) Destroy() {
	if s.Handle != nil {
		vk.DestroySemaphore(s.context.Device.LogicalDevice, s.Handle, s.context.Allocator)
		s.Handle = nil
	}
}

func semaphoreHandles(list []renderer.Semaphore) []vk.Semaphore {
	out := make([]vk.Semaphore, 0, len(list))
	for _, s := range list {
		out = append(out, s.(*VulkanSemaphore).Handle)
	}
	return out
}
