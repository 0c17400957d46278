package fakegpu

import (
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spaghettifunk/vkdemos/engine/core"
	"github.com/spaghettifunk/vkdemos/engine/renderer"
	md "github.com/spaghettifunk/vkdemos/engine/renderer/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recorded(t *testing.T, g *GPU, name string) renderer.CommandBuffer {
	cbs, err := g.AllocateCommandBuffers(name, 1)
	require.NoError(t, err)
	require.NoError(t, cbs[0].Begin(true, false))
	require.NoError(t, cbs[0].End())
	return cbs[0]
}

func TestFenceSignalsOnCompletion(t *testing.T) {
	g := New(Options{})
	f, err := g.CreateFence(false)
	require.NoError(t, err)

	require.NoError(t, g.GraphicsQueue().Submit(renderer.Submission{CommandBuffer: recorded(t, g, "work")}, f))
	assert.Equal(t, 1, g.Pending())

	var done atomic.Bool
	go func() {
		_ = f.Wait(math.MaxUint64)
		done.Store(true)
	}()
	assert.Never(t, done.Load, 50*time.Millisecond, 5*time.Millisecond)

	g.Complete(1)
	assert.Eventually(t, done.Load, time.Second, 5*time.Millisecond)
	assert.NotZero(t, f.(*Fence).SignaledAt())

	subs := g.Submissions()
	require.Len(t, subs, 1)
	assert.Equal(t, "work#0", subs[0].CommandBuffer)
	assert.Equal(t, subs[0].CompletedAt, f.(*Fence).SignaledAt())
	assert.Empty(t, g.Hazards())
}

func TestSubmitRequiresEndedCommandBuffer(t *testing.T) {
	g := New(Options{AutoComplete: true})
	cbs, err := g.AllocateCommandBuffers("open", 1)
	require.NoError(t, err)
	require.NoError(t, cbs[0].Begin(false, false))

	err = g.GraphicsQueue().Submit(renderer.Submission{CommandBuffer: cbs[0]}, nil)
	assert.ErrorIs(t, err, core.ErrProgrammer)

	assert.ErrorIs(t, cbs[0].Begin(false, false), core.ErrProgrammer)
}

func TestSubmitWithSignaledFenceIsAHazard(t *testing.T) {
	g := New(Options{AutoComplete: true})
	f, err := g.CreateFence(true)
	require.NoError(t, err)
	require.NoError(t, g.GraphicsQueue().Submit(renderer.Submission{CommandBuffer: recorded(t, g, "work")}, f))
	assert.Len(t, g.Hazards(), 1)
}

func TestWaitOnUnsignaledSemaphoreIsAHazard(t *testing.T) {
	g := New(Options{AutoComplete: true})
	sem, err := g.CreateSemaphore()
	require.NoError(t, err)
	err = g.GraphicsQueue().Submit(renderer.Submission{
		CommandBuffer: recorded(t, g, "work"),
		Wait:          []renderer.Semaphore{sem},
		WaitStages:    []md.PipelineStage{md.PIPELINE_STAGE_COLOR_ATTACHMENT_OUTPUT},
	}, nil)
	require.NoError(t, err)
	require.Len(t, g.Hazards(), 1)
	assert.Contains(t, g.Hazards()[0], "semaphore")
}

func TestDescriptorPoolExhaustion(t *testing.T) {
	g := New(Options{})
	layout, err := g.CreateDescriptorSetLayout([]md.DescriptorBinding{
		{Binding: 0, Type: md.DESCRIPTOR_TYPE_UNIFORM_BUFFER, Stages: md.SHADER_STAGE_VERTEX},
	})
	require.NoError(t, err)

	pool, err := g.CreateDescriptorPool([]md.DescriptorPoolSize{{Type: md.DESCRIPTOR_TYPE_UNIFORM_BUFFER, Count: 2}}, 1)
	require.NoError(t, err)
	_, err = pool.Allocate(layout)
	require.NoError(t, err)
	_, err = pool.Allocate(layout)
	assert.Error(t, err)

	pool, err = g.CreateDescriptorPool([]md.DescriptorPoolSize{{Type: md.DESCRIPTOR_TYPE_UNIFORM_BUFFER, Count: 1}}, 4)
	require.NoError(t, err)
	_, err = pool.Allocate(layout)
	require.NoError(t, err)
	_, err = pool.Allocate(layout)
	assert.Error(t, err)
}

func TestBufferLifecycle(t *testing.T) {
	g := New(Options{})
	_, err := g.CreateBuffer(md.BufferDesc{Label: "empty"})
	assert.ErrorIs(t, err, core.ErrProgrammer)

	device, err := g.CreateBuffer(md.BufferDesc{Label: "device", Size: 4, Memory: md.MEMORY_PROPERTY_DEVICE_LOCAL})
	require.NoError(t, err)
	assert.Nil(t, device.Mapped())
	assert.ErrorIs(t, device.Write(0, []byte{1}), core.ErrProgrammer)

	host, err := g.CreateBuffer(md.BufferDesc{Label: "host", Size: 4, Memory: md.MEMORY_PROPERTY_HOST_VISIBLE})
	require.NoError(t, err)
	require.NoError(t, host.Write(1, []byte{7, 8}))
	assert.Equal(t, []byte{0, 7, 8, 0}, host.Mapped())
	assert.ErrorIs(t, host.Write(3, []byte{1, 2}), core.ErrProgrammer)

	require.NoError(t, host.Destroy())
	assert.ErrorIs(t, host.Destroy(), core.ErrProgrammer)
}

func TestFailNextInjectsCreationFailure(t *testing.T) {
	g := New(Options{})
	g.FailNext("sampler")
	_, err := g.CreateSampler()
	assert.Error(t, err)
	_, err = g.CreateSampler()
	assert.NoError(t, err)
	assert.Equal(t, 1, g.Created("sampler"))
}

func TestSwapchainAcquireScriptAndStaleness(t *testing.T) {
	g := New(Options{ImageCount: 2})
	sc, err := g.CreateSwapchain(md.Extent{Width: 64, Height: 32}, nil)
	require.NoError(t, err)
	sem, err := g.CreateSemaphore()
	require.NoError(t, err)

	idx, err := sc.AcquireNextImage(sem)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), idx)

	g.ScriptAcquire(0, 0)
	for i := 0; i < 2; i++ {
		idx, err = sc.AcquireNextImage(sem)
		require.NoError(t, err)
		assert.Equal(t, uint32(0), idx)
	}
	idx, err = sc.AcquireNextImage(sem)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), idx)

	g.StaleNextAcquire()
	_, err = sc.AcquireNextImage(sem)
	assert.True(t, core.IsRecoverable(err))

	g.SetSurfaceExtent(md.Extent{Width: 10, Height: 10})
	sc2, err := g.CreateSwapchain(md.Extent{Width: 64, Height: 32}, sc)
	require.NoError(t, err)
	assert.Equal(t, md.Extent{Width: 10, Height: 10}, sc2.Extent())
	assert.Same(t, sc, sc2.(*Swapchain).Old)

	_, err = g.CreateSwapchain(md.Extent{}, nil)
	assert.ErrorIs(t, err, core.ErrProgrammer)
}

func TestRenderPassVisibility(t *testing.T) {
	g := New(Options{AutoComplete: true})
	color := md.AttachmentDesc{Name: "x", Kind: md.ATTACHMENT_KIND_COLOR, Format: md.FORMAT_RGBA8_UNORM, Usage: md.ATTACHMENT_USAGE_SAMPLED, Clear: md.ClearValue{Color: [4]float32{0.5, 0, 0, 1}}}
	ext := md.Extent{Width: 4, Height: 4}

	run := func(deps []md.SubpassDependency) *Image {
		rp, err := g.CreateRenderPass(md.RenderPassDesc{Name: "a", Attachments: []md.AttachmentDesc{color}, FinalLayouts: []md.ImageLayout{md.IMAGE_LAYOUT_SHADER_READ_ONLY}, Dependencies: deps})
		require.NoError(t, err)
		img, err := g.CreateImage(md.ImageDesc{Label: "x", Format: md.FORMAT_RGBA8_UNORM, Extent: ext, Sampled: true})
		require.NoError(t, err)
		fb, err := g.CreateFramebuffer(rp, []renderer.Image{img}, ext)
		require.NoError(t, err)
		cbs, err := g.AllocateCommandBuffers("a", 1)
		require.NoError(t, err)
		require.NoError(t, cbs[0].Begin(true, false))
		cbs[0].BeginRenderPass(rp, fb, ext)
		cbs[0].EndRenderPass()
		require.NoError(t, cbs[0].End())
		require.NoError(t, g.GraphicsQueue().Submit(renderer.Submission{CommandBuffer: cbs[0]}, nil))
		return img.(*Image)
	}

	visible := run([]md.SubpassDependency{
		{SrcSubpass: md.SUBPASS_EXTERNAL, DstSubpass: 0, SrcStageMask: md.PIPELINE_STAGE_FRAGMENT_SHADER, DstStageMask: md.PIPELINE_STAGE_COLOR_ATTACHMENT_OUTPUT},
		{SrcSubpass: 0, DstSubpass: md.SUBPASS_EXTERNAL, SrcStageMask: md.PIPELINE_STAGE_COLOR_ATTACHMENT_OUTPUT, SrcAccessMask: md.ACCESS_COLOR_ATTACHMENT_WRITE, DstStageMask: md.PIPELINE_STAGE_FRAGMENT_SHADER, DstAccessMask: md.ACCESS_SHADER_READ},
	})
	value, layout := visible.Value()
	assert.Equal(t, [4]float32{0.5, 0, 0, 1}, value)
	assert.Equal(t, md.IMAGE_LAYOUT_SHADER_READ_ONLY, layout)
	assert.True(t, visible.visible)
	assert.Empty(t, g.Hazards())

	hidden := run([]md.SubpassDependency{
		{SrcSubpass: md.SUBPASS_EXTERNAL, DstSubpass: 0, SrcStageMask: md.PIPELINE_STAGE_FRAGMENT_SHADER, DstStageMask: md.PIPELINE_STAGE_COLOR_ATTACHMENT_OUTPUT},
	})
	assert.False(t, hidden.visible)
}

func TestWindowWaitEventsBlocksWhileMinimized(t *testing.T) {
	w := NewWindow(0, 0)
	var done atomic.Bool
	go func() {
		w.WaitEvents()
		done.Store(true)
	}()
	assert.Never(t, done.Load, 50*time.Millisecond, 5*time.Millisecond)
	w.SetSize(10, 10)
	assert.Eventually(t, done.Load, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, w.Waits())
}
