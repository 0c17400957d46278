package bloom

import (
	"testing"

	"github.com/spaghettifunk/vkdemos/engine/keys"
	"github.com/spaghettifunk/vkdemos/engine/renderer"
	"github.com/spaghettifunk/vkdemos/engine/renderer/fakegpu"
	md "github.com/spaghettifunk/vkdemos/engine/renderer/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func build(t *testing.T, gpu *fakegpu.GPU, graph *renderer.RenderGraph, w *fakegpu.Window) *renderer.Orchestrator {
	t.Helper()
	o, err := renderer.NewOrchestrator(gpu, w, graph, 5)
	require.NoError(t, err)
	require.NoError(t, o.Build())
	return o
}

func frames(subs []fakegpu.SubmissionRecord) []fakegpu.SubmissionRecord {
	var out []fakegpu.SubmissionRecord
	for _, s := range subs {
		if len(s.Passes) > 0 {
			out = append(out, s)
		}
	}
	return out
}

func TestGraphIsValid(t *testing.T) {
	g := New()
	require.NoError(t, g.Graph.Validate())
	assert.True(t, g.Graph.ShowFPS)

	var names []string
	for _, p := range g.Graph.Passes {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"geometry", "light", "vblur", "hblur", "composite"}, names)
	assert.Equal(t, md.FORMAT_RGBA32_SFLOAT, g.Graph.Passes[0].Attachments[0].Format)
	for _, p := range g.Graph.Passes[1:4] {
		assert.Equal(t, md.Extent{Width: BlurSize, Height: BlurSize}, p.Extent)
	}
}

func TestCompositeSubmittedAfterHorizontalBlur(t *testing.T) {
	gpu := fakegpu.New(fakegpu.Options{AutoComplete: true, ImageCount: 3})
	o := build(t, gpu, NewScene().Graph(), fakegpu.NewWindow(800, 600))

	const count = 6
	for i := 0; i < count; i++ {
		require.NoError(t, o.Draw())
	}
	assert.Empty(t, gpu.Hazards())

	subs := frames(gpu.Submissions())
	require.Len(t, subs, 2*count)
	for i := 0; i < len(subs); i += 2 {
		offscreen, final := subs[i], subs[i+1]
		assert.Equal(t, []string{"geometry", "light", "vblur", "hblur"}, offscreen.Passes)
		assert.Equal(t, []string{"composite"}, final.Passes)
		assert.Less(t, offscreen.Seq, final.Seq)
		assert.True(t, final.HasFence)
		assert.False(t, offscreen.HasFence)
	}
	require.NoError(t, o.Destroy())
}

func TestCompositeSeesTheWholeBlurChain(t *testing.T) {
	graph := NewScene().Graph()
	graph.Readback = true
	graph.Passes[0].Attachments[0].Clear.Color = [4]float32{0.5, 0, 0, 1}
	graph.Passes[1].Attachments[0].Clear.Color = [4]float32{0, 0.5, 0, 0}

	gpu := fakegpu.New(fakegpu.Options{AutoComplete: true})
	o := build(t, gpu, graph, fakegpu.NewWindow(16, 16))
	require.NoError(t, o.Draw())
	assert.Empty(t, gpu.Hazards())

	pixels, err := o.Readback(0)
	require.NoError(t, err)
	require.Len(t, pixels, 16*16*4)
	// geometry + hblur(vblur(light))
	assert.Equal(t, []byte{128, 128, 0, 255}, pixels[:4])
}

func TestBlurTargetsSurviveResize(t *testing.T) {
	gpu := fakegpu.New(fakegpu.Options{AutoComplete: true})
	w := fakegpu.NewWindow(800, 600)
	o := build(t, gpu, NewScene().Graph(), w)
	before := o.Passes()

	w.SetSize(1280, 720)
	o.NotifyResized()
	require.NoError(t, o.Draw())
	require.NoError(t, o.Draw())

	after := o.Passes()
	assert.NotEqual(t, before[0].Labels, after[0].Labels)
	for i := 1; i < 4; i++ {
		assert.Equal(t, before[i].Labels, after[i].Labels, after[i].Name)
	}
	assert.Equal(t, md.Extent{Width: 1280, Height: 720}, after[0].Extent)
	assert.Empty(t, gpu.Hazards())
}

func TestUpdateWritesSettingsAndLights(t *testing.T) {
	s := NewScene()
	s.Bloom = false
	graph := s.Graph()

	var settings, lights []byte
	update := graph.UpdateUniformData
	graph.UpdateUniformData = func(info renderer.FrameInfo, u *renderer.UniformSet) error {
		if err := update(info, u); err != nil {
			return err
		}
		settings = append([]byte(nil), u.Get(uniformBloom).Element(0)...)
		lights = append([]byte(nil), u.Get(uniformLights).Element(0)...)
		return nil
	}

	gpu := fakegpu.New(fakegpu.Options{AutoComplete: true})
	o := build(t, gpu, graph, fakegpu.NewWindow(64, 64))
	require.NoError(t, o.Draw())

	require.Len(t, settings, 16)
	assert.Equal(t, []byte{0, 0, 0, 0}, settings[:4])
	require.Len(t, lights, 80*LightCount)
	assert.Equal(t, uint32(6), s.boxes())
}

func TestKeysDriveBloomAndExposure(t *testing.T) {
	g := New()
	s := g.State.(*Scene)

	g.FnOnKey(keys.B, true)
	assert.False(t, s.Bloom)
	g.FnOnKey(keys.B, false)
	assert.False(t, s.Bloom, "releases are ignored")

	g.FnOnKey(keys.Equal, true)
	assert.InDelta(t, 1.25, s.Exposure, 1e-6)
	g.FnOnKey(keys.KPSubtract, true)
	assert.InDelta(t, 1, s.Exposure, 1e-6)
}
