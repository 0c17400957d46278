package renderer

import "github.com/spaghettifunk/vkdemos/engine/renderer/metadata"

// Backend is the device level API the render graph is built on. The Vulkan
// implementation lives in renderer/vulkan, a simulated one in renderer/fakegpu.
type Backend interface {
	Shutdown() error
	// WaitIdle blocks until every queue of the device is idle.
	WaitIdle() error
	Limits() metadata.DeviceLimits
	// GraphicsQueue returns the first declared queue, which supports graphics and present.
	GraphicsQueue() Queue

	CreateSwapchain(extent metadata.Extent, old Swapchain) (Swapchain, error)
	CreateFence(signaled bool) (Fence, error)
	CreateSemaphore() (Semaphore, error)
	CreateImage(desc metadata.ImageDesc) (Image, error)
	CreateRenderPass(desc metadata.RenderPassDesc) (RenderPass, error)
	CreateFramebuffer(pass RenderPass, attachments []Image, extent metadata.Extent) (Framebuffer, error)
	CreateDescriptorSetLayout(bindings []metadata.DescriptorBinding) (DescriptorSetLayout, error)
	CreatePipeline(desc *metadata.PipelineDesc, pass RenderPass, layout DescriptorSetLayout, extent metadata.Extent) (Pipeline, error)
	CreateBuffer(desc metadata.BufferDesc) (Buffer, error)
	CreateSampler() (Sampler, error)
	CreateDescriptorPool(sizes []metadata.DescriptorPoolSize, maxSets uint32) (DescriptorPool, error)
	AllocateCommandBuffers(name string, count int) ([]CommandBuffer, error)
}

type Fence interface {
	// Wait blocks until the fence is signaled or timeoutNs elapses.
	Wait(timeoutNs uint64) error
	Reset() error
	Destroy()
}

type Semaphore interface {
	Destroy()
}

// Submission is one batch handed to a queue.
type Submission struct {
	CommandBuffer CommandBuffer
	Wait          []Semaphore
	WaitStages    []metadata.PipelineStage
	Signal        []Semaphore
}

type Queue interface {
	Capabilities() metadata.QueueCapability
	// Submit enqueues work. fence may be nil.
	Submit(submission Submission, fence Fence) error
}

type Swapchain interface {
	// AcquireNextImage returns core.ErrStaleSurface (wrapped) when the surface changed.
	AcquireNextImage(signal Semaphore) (uint32, error)
	// Present returns core.ErrStaleSurface (wrapped) when out of date or suboptimal.
	Present(queue Queue, wait Semaphore, imageIndex uint32) error
	ImageCount() uint32
	Extent() metadata.Extent
	Image(index uint32) Image
	Destroy()
}

type Image interface {
	Desc() metadata.ImageDesc
	Destroy() error
}

type RenderPass interface {
	Desc() *metadata.RenderPassDesc
	Destroy()
}

type Framebuffer interface {
	Destroy()
}

type DescriptorSetLayout interface {
	Bindings() []metadata.DescriptorBinding
	Destroy()
}

type Pipeline interface {
	Desc() *metadata.PipelineDesc
	Destroy()
}

type Buffer interface {
	Desc() metadata.BufferDesc
	// Mapped returns the persistently mapped memory of a host visible buffer.
	Mapped() []byte
	// Write copies data into a host visible buffer at offset.
	Write(offset uint64, data []byte) error
	Destroy() error
}

type Sampler interface {
	Destroy()
}

type DescriptorWrite struct {
	Binding uint32
	Type    metadata.DescriptorType
	Buffer  Buffer
	Range   uint64
	Image   Image
	Sampler Sampler
}

type DescriptorSet interface {
	Update(writes []DescriptorWrite) error
}

type DescriptorPool interface {
	Allocate(layout DescriptorSetLayout) (DescriptorSet, error)
	Destroy()
}

// ImageBarrier transitions an image layout outside of a render pass.
type ImageBarrier struct {
	Image     Image
	OldLayout metadata.ImageLayout
	NewLayout metadata.ImageLayout
	SrcStage  metadata.PipelineStage
	DstStage  metadata.PipelineStage
	SrcAccess metadata.Access
	DstAccess metadata.Access
}

type CommandBuffer interface {
	Begin(singleUse, simultaneousUse bool) error
	BeginRenderPass(pass RenderPass, framebuffer Framebuffer, extent metadata.Extent)
	BindPipeline(pipeline Pipeline)
	BindDescriptorSet(pipeline Pipeline, set DescriptorSet, dynamicOffsets []uint32)
	BindVertexBuffer(buffer Buffer)
	BindIndexBuffer(buffer Buffer)
	Draw(vertexCount uint32)
	DrawIndexed(indexCount uint32)
	EndRenderPass()
	CopyBuffer(src, dst Buffer, size uint64)
	PipelineBarrier(barrier ImageBarrier)
	CopyImageToBuffer(image Image, layout metadata.ImageLayout, dst Buffer)
	End() error
	Free()
}
