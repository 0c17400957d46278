package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vkdemos/engine/core"
	"github.com/spaghettifunk/vkdemos/engine/renderer"
	md "github.com/spaghettifunk/vkdemos/engine/renderer/metadata"
)

// Queue is a device queue. Submits and presents on one family are serialized.
type Queue struct {
	context *VulkanContext
	handle  vk.Queue
	family  uint32
	caps    md.QueueCapability
}

func (q *Queue) Capabilities() md.QueueCapability {
	return q.caps
}

func (q *Queue) Submit(submission renderer.Submission, fence renderer.Fence) error {
	cb, ok := submission.CommandBuffer.(*VulkanCommandBuffer)
	if !ok || cb.State != COMMAND_BUFFER_STATE_RECORDING_ENDED && cb.State != COMMAND_BUFFER_STATE_SUBMITTED {
		return core.NewProgrammerError("submit of a command buffer that has not been recorded")
	}
	if len(submission.Wait) != len(submission.WaitStages) {
		return core.NewProgrammerError("submit with %d wait semaphores and %d wait stages", len(submission.Wait), len(submission.WaitStages))
	}

	// Each semaphore waits on the corresponding pipeline stage to complete. 1:1 ratio.
	waitStages := make([]vk.PipelineStageFlags, len(submission.WaitStages))
	for i, s := range submission.WaitStages {
		waitStages[i] = vkStages(s)
	}
	submitInfo := vk.SubmitInfo{
		SType:                vk.StructureTypeSubmitInfo,
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{cb.Handle},
		WaitSemaphoreCount:   uint32(len(submission.Wait)),
		PWaitSemaphores:      semaphoreHandles(submission.Wait),
		PWaitDstStageMask:    waitStages,
		SignalSemaphoreCount: uint32(len(submission.Signal)),
		PSignalSemaphores:    semaphoreHandles(submission.Signal),
	}

	var vf *VulkanFence
	var fenceHandle vk.Fence
	if fence != nil {
		vf = fence.(*VulkanFence)
		fenceHandle = vf.Handle
	}

	err := q.context.locks.SafeQueueCall(q.family, func() error {
		return runtimeResult("queue submit", vk.QueueSubmit(q.handle, 1, []vk.SubmitInfo{submitInfo}, fenceHandle))
	})
	if err != nil {
		return err
	}
	cb.UpdateSubmitted()
	if vf != nil {
		vf.submitted()
	}
	return nil
}

func (q *Queue) waitIdle() error {
	return q.context.locks.SafeQueueCall(q.family, func() error {
		return runtimeResult("queue wait idle", vk.QueueWaitIdle(q.handle))
	})
}
