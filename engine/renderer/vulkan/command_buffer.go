package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vkdemos/engine/core"
	"github.com/spaghettifunk/vkdemos/engine/renderer"
	md "github.com/spaghettifunk/vkdemos/engine/renderer/metadata"
)

type VulkanCommandBufferState int

const (
	COMMAND_BUFFER_STATE_READY VulkanCommandBufferState = iota
	COMMAND_BUFFER_STATE_RECORDING
	COMMAND_BUFFER_STATE_IN_RENDER_PASS
	COMMAND_BUFFER_STATE_RECORDING_ENDED
	COMMAND_BUFFER_STATE_SUBMITTED
	COMMAND_BUFFER_STATE_NOT_ALLOCATED
)

type VulkanCommandBuffer struct {
	context *VulkanContext
	pool    vk.CommandPool
	name    string

	Handle vk.CommandBuffer
	// Command buffer state.
	State VulkanCommandBufferState
}

// AllocateCommandBuffers allocates count primary command buffers from pool.
func AllocateCommandBuffers(context *VulkanContext, pool vk.CommandPool, name string, count int) ([]*VulkanCommandBuffer, error) {
	if count <= 0 {
		return nil, core.NewProgrammerError("command buffers %s: count %d", name, count)
	}
	allocateInfo := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        pool,
		CommandBufferCount: uint32(count),
		Level:              vk.CommandBufferLevelPrimary,
	}
	handles := make([]vk.CommandBuffer, count)
	if err := context.locks.SafeCall(CommandBufferManagement, func() error {
		if res := vk.AllocateCommandBuffers(context.Device.LogicalDevice, &allocateInfo, handles); res != vk.Success {
			return creationResult("command buffers "+name, res)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	out := make([]*VulkanCommandBuffer, count)
	for i, h := range handles {
		out[i] = &VulkanCommandBuffer{
			context: context,
			pool:    pool,
			name:    fmt.Sprintf("%s#%d", name, i),
			Handle:  h,
			State:   COMMAND_BUFFER_STATE_READY,
		}
	}
	return out, nil
}

func (v *VulkanCommandBuffer) Free() {
	if v.State == COMMAND_BUFFER_STATE_NOT_ALLOCATED {
		return
	}
	_ = v.context.locks.SafeCall(CommandBufferManagement, func() error {
		vk.FreeCommandBuffers(v.context.Device.LogicalDevice, v.pool, 1, []vk.CommandBuffer{v.Handle})
		return nil
	})
	v.Handle = nil
	v.State = COMMAND_BUFFER_STATE_NOT_ALLOCATED
}

func (v *VulkanCommandBuffer) Begin(isSingleUse, isSimultaneousUse bool) error {
	switch v.State {
	case COMMAND_BUFFER_STATE_RECORDING, COMMAND_BUFFER_STATE_IN_RENDER_PASS:
		return core.NewProgrammerError("command buffer %s is already recording", v.name)
	case COMMAND_BUFFER_STATE_NOT_ALLOCATED:
		return core.NewProgrammerError("command buffer %s was freed", v.name)
	}

	vBeginInfo := &vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: 0,
	}
	if isSingleUse {
		vBeginInfo.Flags |= vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit)
	}
	if isSimultaneousUse {
		vBeginInfo.Flags |= vk.CommandBufferUsageFlags(vk.CommandBufferUsageSimultaneousUseBit)
	}

	if res := vk.BeginCommandBuffer(v.Handle, vBeginInfo); res != vk.Success {
		return runtimeResult("begin command buffer "+v.name, res)
	}
	v.State = COMMAND_BUFFER_STATE_RECORDING
	return nil
}

func (v *VulkanCommandBuffer) End() error {
	if v.State != COMMAND_BUFFER_STATE_RECORDING {
		return core.NewProgrammerError("command buffer %s ended in state %d", v.name, v.State)
	}
	if res := vk.EndCommandBuffer(v.Handle); res != vk.Success {
		return runtimeResult("end command buffer "+v.name, res)
	}
	v.State = COMMAND_BUFFER_STATE_RECORDING_ENDED
	return nil
}

func (v *VulkanCommandBuffer) UpdateSubmitted() {
	v.State = COMMAND_BUFFER_STATE_SUBMITTED
}

func (v *VulkanCommandBuffer) BeginRenderPass(pass renderer.RenderPass, framebuffer renderer.Framebuffer, extent md.Extent) {
	pass.(*VulkanRenderPass).begin(v, framebuffer.(*VulkanFramebuffer), extent)
}

func (v *VulkanCommandBuffer) EndRenderPass() {
	if v.State != COMMAND_BUFFER_STATE_IN_RENDER_PASS {
		core.LogWarn("command buffer %s: end of render pass outside of a render pass", v.name)
		return
	}
	vk.CmdEndRenderPass(v.Handle)
	v.State = COMMAND_BUFFER_STATE_RECORDING
}

func (v *VulkanCommandBuffer) BindPipeline(pipeline renderer.Pipeline) {
	vk.CmdBindPipeline(v.Handle, vk.PipelineBindPointGraphics, pipeline.(*VulkanPipeline).Handle)
}

func (v *VulkanCommandBuffer) BindDescriptorSet(pipeline renderer.Pipeline, set renderer.DescriptorSet, dynamicOffsets []uint32) {
	vk.CmdBindDescriptorSets(
		v.Handle,
		vk.PipelineBindPointGraphics,
		pipeline.(*VulkanPipeline).PipelineLayout,
		0,
		1,
		[]vk.DescriptorSet{set.(*VulkanDescriptorSet).Handle},
		uint32(len(dynamicOffsets)),
		dynamicOffsets,
	)
}

func (v *VulkanCommandBuffer) BindVertexBuffer(buffer renderer.Buffer) {
	vk.CmdBindVertexBuffers(v.Handle, 0, 1, []vk.Buffer{buffer.(*VulkanBuffer).Handle}, []vk.DeviceSize{0})
}

func (v *VulkanCommandBuffer) BindIndexBuffer(buffer renderer.Buffer) {
	vk.CmdBindIndexBuffer(v.Handle, buffer.(*VulkanBuffer).Handle, 0, vk.IndexTypeUint16)
}

func (v *VulkanCommandBuffer) Draw(vertexCount uint32) {
	vk.CmdDraw(v.Handle, vertexCount, 1, 0, 0)
}

func (v *VulkanCommandBuffer) DrawIndexed(indexCount uint32) {
	vk.CmdDrawIndexed(v.Handle, indexCount, 1, 0, 0, 0)
}

func (v *VulkanCommandBuffer) CopyBuffer(src, dst renderer.Buffer, size uint64) {
	region := vk.BufferCopy{
		SrcOffset: 0,
		DstOffset: 0,
		Size:      vk.DeviceSize(size),
	}
	vk.CmdCopyBuffer(v.Handle, src.(*VulkanBuffer).Handle, dst.(*VulkanBuffer).Handle, 1, []vk.BufferCopy{region})
}

func (v *VulkanCommandBuffer) PipelineBarrier(barrier renderer.ImageBarrier) {
	img := barrier.Image.(*VulkanImage)
	imb := vk.ImageMemoryBarrier{
		SType:               vk.StructureTypeImageMemoryBarrier,
		OldLayout:           vkLayout(barrier.OldLayout),
		NewLayout:           vkLayout(barrier.NewLayout),
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Image:               img.Handle,
		SrcAccessMask:       vkAccess(barrier.SrcAccess),
		DstAccessMask:       vkAccess(barrier.DstAccess),
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     img.Aspect,
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	}
	vk.CmdPipelineBarrier(
		v.Handle,
		vkStages(barrier.SrcStage),
		vkStages(barrier.DstStage),
		0,
		0, nil,
		0, nil,
		1, []vk.ImageMemoryBarrier{imb},
	)
}

func (v *VulkanCommandBuffer) CopyImageToBuffer(image renderer.Image, layout md.ImageLayout, dst renderer.Buffer) {
	img := image.(*VulkanImage)
	region := vk.BufferImageCopy{
		BufferOffset:      0,
		BufferRowLength:   0,
		BufferImageHeight: 0,
		ImageSubresource: vk.ImageSubresourceLayers{
			AspectMask:     img.Aspect,
			MipLevel:       0,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
		ImageOffset: vk.Offset3D{X: 0, Y: 0, Z: 0},
		ImageExtent: vk.Extent3D{Width: img.Width, Height: img.Height, Depth: 1},
	}
	vk.CmdCopyImageToBuffer(v.Handle, img.Handle, vkLayout(layout), dst.(*VulkanBuffer).Handle, 1, []vk.BufferImageCopy{region})
}
