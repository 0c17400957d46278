package renderer_test

import (
	"bytes"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/vkdemos/engine/core"
	"github.com/spaghettifunk/vkdemos/engine/renderer"
	"github.com/spaghettifunk/vkdemos/engine/renderer/fakegpu"
	md "github.com/spaghettifunk/vkdemos/engine/renderer/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDependencyMakesProducerWritesVisible(t *testing.T) {
	g := fakegpu.New(fakegpu.Options{AutoComplete: true})
	o := build(t, g, fakegpu.NewWindow(8, 8), producerConsumer(md.Extent{}), 2)

	require.NoError(t, o.Draw())
	assert.Empty(t, g.Hazards())

	pixels, err := o.Readback(0)
	require.NoError(t, err)
	require.Len(t, pixels, 8*8*4)
	assert.Equal(t, bytes.Repeat(texel(black), 8*8), pixels)

	require.NoError(t, o.Destroy())
}

func TestMissingOutgoingDependencyIsDetected(t *testing.T) {
	graph := producerConsumer(md.Extent{})
	deps := renderer.BuildDependencies(graph.Passes[0].Attachments)
	graph.Passes[0].Dependencies = deps[:1]

	g := fakegpu.New(fakegpu.Options{AutoComplete: true})
	o := build(t, g, fakegpu.NewWindow(8, 8), graph, 2)
	require.NoError(t, o.Draw())

	hazards := g.Hazards()
	require.NotEmpty(t, hazards)
	assert.Contains(t, hazards[0], "before its writes are visible")

	pixels, err := o.Readback(0)
	require.NoError(t, err)
	assert.Equal(t, texel(fakegpu.Undefined), pixels[:4])
}

func TestRingBoundsFramesInFlight(t *testing.T) {
	const depth = 2
	g := fakegpu.New(fakegpu.Options{ImageCount: 3})
	graph := producerConsumer(md.Extent{})
	var acquired atomic.Int32
	graph.UpdateUniformData = func(info renderer.FrameInfo, _ *renderer.UniformSet) error {
		acquired.Add(1)
		return nil
	}
	o := build(t, g, fakegpu.NewWindow(8, 8), graph, depth)

	done := make(chan error, 1)
	go func() {
		for i := 0; i < depth+1; i++ {
			if err := o.Draw(); err != nil {
				done <- err
				return
			}
		}
		done <- nil
	}()

	assert.Eventually(t, func() bool { return acquired.Load() == depth }, time.Second, time.Millisecond)
	assert.Never(t, func() bool { return acquired.Load() > depth }, 100*time.Millisecond, 5*time.Millisecond)

	// Retire frame one: its offscreen and final submissions.
	g.Complete(2)
	assert.Eventually(t, func() bool { return acquired.Load() == depth+1 }, time.Second, time.Millisecond)

	require.NoError(t, <-done)
	g.CompleteAll()
	require.NoError(t, o.Destroy())
	assert.Empty(t, g.Hazards())
}

func TestImageOwnerRetiresBeforeUniformWrite(t *testing.T) {
	g := fakegpu.New(fakegpu.Options{ImageCount: 3})
	g.ScriptAcquire(0, 0)

	type write struct {
		at    uint64
		image uint32
	}
	var mu sync.Mutex
	var writes []write

	graph := scene()
	graph.UpdateUniformData = func(info renderer.FrameInfo, u *renderer.UniformSet) error {
		mu.Lock()
		writes = append(writes, write{at: g.Now(), image: info.ImageIndex})
		mu.Unlock()
		return u.Write("camera", 0, mgl32.Ident4())
	}
	count := func() int {
		mu.Lock()
		defer mu.Unlock()
		return len(writes)
	}

	o, err := renderer.NewOrchestrator(g, fakegpu.NewWindow(8, 8), graph, 3)
	require.NoError(t, err)
	built := make(chan error, 1)
	go func() { built <- o.Build() }()
	// Mesh uploads wait on their own fences.
	assert.Eventually(t, func() bool { return g.Pending() == 2 }, time.Second, time.Millisecond)
	g.CompleteAll()
	require.NoError(t, <-built)

	done := make(chan error, 1)
	go func() {
		for i := 0; i < 2; i++ {
			if err := o.Draw(); err != nil {
				done <- err
				return
			}
		}
		done <- nil
	}()

	assert.Eventually(t, func() bool { return count() == 1 }, time.Second, time.Millisecond)
	// Frame two has a free slot but image 0 is still owned by frame one.
	assert.Never(t, func() bool { return count() > 1 }, 100*time.Millisecond, 5*time.Millisecond)

	g.Complete(1)
	assert.Eventually(t, func() bool { return count() == 2 }, time.Second, time.Millisecond)
	require.NoError(t, <-done)

	subs := g.Submissions()
	var frameOne fakegpu.SubmissionRecord
	for _, s := range subs {
		if s.HasFence && s.CommandBuffer == "final#0" {
			frameOne = s
			break
		}
	}
	require.NotZero(t, frameOne.CompletedAt)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, uint32(0), writes[1].image)
	assert.Greater(t, writes[1].at, frameOne.CompletedAt)

	g.CompleteAll()
	require.NoError(t, o.Destroy())
	assert.Empty(t, g.Hazards())
}

func TestDynamicOffsetsFollowStride(t *testing.T) {
	g := fakegpu.New(fakegpu.Options{AutoComplete: true, Alignment: 64})
	graph := scene()
	var stride uint64
	graph.UpdateUniformData = func(info renderer.FrameInfo, u *renderer.UniformSet) error {
		objects := u.Get("objects")
		stride = objects.Stride()
		for i := uint32(0); i < objects.Count(); i++ {
			if err := objects.WriteElement(i, mgl32.Translate3D(float32(i), 0, 0)); err != nil {
				return err
			}
		}
		return nil
	}
	o := build(t, g, fakegpu.NewWindow(16, 16), graph, 2)
	for i := 0; i < 4; i++ {
		require.NoError(t, o.Draw())
	}
	assert.Equal(t, uint64(128), stride)
	assert.Empty(t, g.Hazards())
	require.NoError(t, o.Destroy())
}

func TestResizeIsIdempotentAndKeepsFixedPasses(t *testing.T) {
	g := fakegpu.New(fakegpu.Options{AutoComplete: true})
	o := build(t, g, fakegpu.NewWindow(32, 32), producerConsumer(md.Extent{Width: 16, Height: 16}), 3)
	before := o.Passes()
	ring := o.Ring()
	fences, semaphores := g.Created("fence"), g.Created("semaphore")

	require.NoError(t, o.Draw())
	o.NotifyResized()
	require.NoError(t, o.Draw())

	after := o.Passes()
	require.Len(t, after, len(before))
	for i := range before {
		assert.Equal(t, before[i].Name, after[i].Name)
		assert.Equal(t, before[i].Formats, after[i].Formats)
		assert.Equal(t, before[i].Extent, after[i].Extent)
	}
	// The fixed pass keeps its images; the presenting pass gets new swapchain images.
	assert.Equal(t, before[0].Labels, after[0].Labels)
	assert.NotEqual(t, before[1].Labels, after[1].Labels)

	assert.Equal(t, uint64(1), o.Lifecycle().Generation())
	assert.Equal(t, renderer.StateRunning, o.Lifecycle().State())
	assert.Same(t, ring, o.Ring())
	assert.Equal(t, fences, g.Created("fence"))
	assert.Equal(t, semaphores, g.Created("semaphore"))
	assert.GreaterOrEqual(t, g.IdleWaits(), 1)

	swapchains := g.Swapchains()
	require.Len(t, swapchains, 2)
	assert.Same(t, swapchains[0], swapchains[1].Old)
	assert.True(t, swapchains[0].Destroyed())

	require.NoError(t, o.Draw())
	assert.Empty(t, g.Hazards())
	require.NoError(t, o.Destroy())
}

func TestImageCountChangeRebuildsFixedPasses(t *testing.T) {
	g := fakegpu.New(fakegpu.Options{AutoComplete: true, ImageCount: 2})
	o := build(t, g, fakegpu.NewWindow(32, 32), producerConsumer(md.Extent{Width: 16, Height: 16}), 2)
	before := o.Passes()

	g.SetImageCount(4)
	require.NoError(t, o.Recreate())

	assert.Equal(t, uint32(4), o.Swapchain().ImageCount())
	assert.NotEqual(t, before[0].Labels, o.Passes()[0].Labels)
	for i := 0; i < 8; i++ {
		require.NoError(t, o.Draw())
	}
	assert.Empty(t, g.Hazards())
}

func TestReloadRebuildsFixedPasses(t *testing.T) {
	g := fakegpu.New(fakegpu.Options{AutoComplete: true})
	o := build(t, g, fakegpu.NewWindow(32, 32), producerConsumer(md.Extent{Width: 16, Height: 16}), 2)
	before := o.Passes()

	require.NoError(t, o.Reload())

	after := o.Passes()
	assert.NotEqual(t, before[0].Labels, after[0].Labels)
	assert.Equal(t, before[0].Extent, after[0].Extent)
	assert.Equal(t, uint64(1), o.Lifecycle().Generation())
	require.NoError(t, o.Draw())
	assert.Empty(t, g.Hazards())
	require.NoError(t, o.Destroy())
}

func TestMinimizedWindowStallsRecreation(t *testing.T) {
	g := fakegpu.New(fakegpu.Options{AutoComplete: true})
	w := fakegpu.NewWindow(800, 600)
	o := build(t, g, w, producerConsumer(md.Extent{}), 2)
	require.Equal(t, 1, g.Created("swapchain"))

	w.SetSize(0, 0)
	o.NotifyResized()

	done := make(chan error, 1)
	go func() { done <- o.Draw() }()

	assert.Never(t, func() bool { return len(done) > 0 }, 100*time.Millisecond, 5*time.Millisecond)
	assert.Equal(t, 1, g.Created("swapchain"))

	w.SetSize(1024, 768)
	require.NoError(t, <-done)
	assert.Equal(t, 2, g.Created("swapchain"))
	assert.Equal(t, md.Extent{Width: 1024, Height: 768}, o.Swapchain().Extent())
	assert.GreaterOrEqual(t, w.Waits(), 1)
}

func TestStaleAcquireRecreatesWithoutAdvancing(t *testing.T) {
	g := fakegpu.New(fakegpu.Options{AutoComplete: true})
	o := build(t, g, fakegpu.NewWindow(8, 8), producerConsumer(md.Extent{}), 2)

	g.StaleNextAcquire()
	require.NoError(t, o.Draw())
	assert.Equal(t, 2, g.Created("swapchain"))
	assert.Empty(t, g.Presents())
	assert.Equal(t, 0, o.Ring().Current())

	require.NoError(t, o.Draw())
	assert.Len(t, g.Presents(), 1)
	assert.Equal(t, 1, o.Ring().Current())
	assert.Empty(t, g.Hazards())
}

func TestStalePresentRecreatesAndAdvances(t *testing.T) {
	g := fakegpu.New(fakegpu.Options{AutoComplete: true})
	o := build(t, g, fakegpu.NewWindow(8, 8), producerConsumer(md.Extent{}), 2)

	g.StaleNextPresent()
	require.NoError(t, o.Draw())
	assert.Equal(t, 2, g.Created("swapchain"))
	assert.Equal(t, 1, o.Ring().Current())
	for i := uint32(0); i < o.Swapchain().ImageCount(); i++ {
		assert.Nil(t, o.Ring().ImageOwner(i))
	}
}

func TestOffscreenPassesSubmitBeforeFinal(t *testing.T) {
	g := fakegpu.New(fakegpu.Options{AutoComplete: true})
	o := build(t, g, fakegpu.NewWindow(8, 8), producerConsumer(md.Extent{}), 2)
	for i := 0; i < 3; i++ {
		require.NoError(t, o.Draw())
	}
	subs := g.Submissions()
	require.Len(t, subs, 6)
	for i := 0; i < len(subs); i += 2 {
		off, final := subs[i], subs[i+1]
		assert.Equal(t, []string{"a"}, off.Passes)
		assert.Zero(t, off.Waits)
		assert.False(t, off.HasFence)
		assert.Equal(t, []string{"b"}, final.Passes)
		assert.Equal(t, 1, final.Waits)
		assert.Equal(t, 1, final.Signals)
		assert.True(t, final.HasFence)
		assert.Less(t, off.Seq, final.Seq)
	}
}

func TestCreationFailureIsFatal(t *testing.T) {
	kinds := []string{
		"pipeline", "renderpass", "descriptor pool", "image", "framebuffer", "sampler",
		// exhausted pool, broken SPIR-V and a failed End
		"descriptor set", "shader module", "command buffer end",
	}
	for _, kind := range kinds {
		t.Run(kind, func(t *testing.T) {
			g := fakegpu.New(fakegpu.Options{AutoComplete: true})
			g.FailNext(kind)
			o, err := renderer.NewOrchestrator(g, fakegpu.NewWindow(8, 8), producerConsumer(md.Extent{}), 2)
			require.NoError(t, err)
			err = o.Build()
			require.Error(t, err)
			assert.True(t, core.IsFatal(err))
			assert.False(t, core.IsRecoverable(err))
			assert.ErrorIs(t, err, core.ErrCreationFailure)
			assert.Contains(t, err.Error(), "injected "+kind)
		})
	}
}

func TestDrawBeforeBuildIsProgrammerError(t *testing.T) {
	g := fakegpu.New(fakegpu.Options{AutoComplete: true})
	o, err := renderer.NewOrchestrator(g, fakegpu.NewWindow(8, 8), producerConsumer(md.Extent{}), 2)
	require.NoError(t, err)
	assert.ErrorIs(t, o.Draw(), core.ErrProgrammer)
	require.NoError(t, o.Build())
	assert.ErrorIs(t, o.Build(), core.ErrProgrammer)
}
