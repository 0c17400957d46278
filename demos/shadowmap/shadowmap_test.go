package shadowmap

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/vkdemos/engine/renderer"
	"github.com/spaghettifunk/vkdemos/engine/renderer/fakegpu"
	md "github.com/spaghettifunk/vkdemos/engine/renderer/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func build(t *testing.T, graph *renderer.RenderGraph, w *fakegpu.Window) (*renderer.Orchestrator, *fakegpu.GPU) {
	t.Helper()
	gpu := fakegpu.New(fakegpu.Options{AutoComplete: true})
	o, err := renderer.NewOrchestrator(gpu, w, graph, 3)
	require.NoError(t, err)
	require.NoError(t, o.Build())
	return o, gpu
}

// frames drops the mesh upload submissions, which record no pass.
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
	require.Len(t, g.Graph.Passes, 2)
	assert.Equal(t, md.Extent{Width: ShadowMapSize, Height: ShadowMapSize}, g.Graph.Passes[0].Extent)
	assert.True(t, g.Graph.Passes[0].Pipelines[0].DepthBias)
}

func TestShadowPassRendersBeforeLitPass(t *testing.T) {
	o, gpu := build(t, NewScene().Graph(), fakegpu.NewWindow(800, 600))

	for i := 0; i < 4; i++ {
		require.NoError(t, o.Draw())
	}
	assert.Empty(t, gpu.Hazards())

	subs := frames(gpu.Submissions())
	require.Len(t, subs, 8)
	for i := 0; i < len(subs); i += 2 {
		assert.Equal(t, []string{"shadow"}, subs[i].Passes)
		assert.Equal(t, []string{"final"}, subs[i+1].Passes)
		assert.Less(t, subs[i].Seq, subs[i+1].Seq)
	}
	require.NoError(t, o.Destroy())
}

func TestShadowMapSurvivesResize(t *testing.T) {
	w := fakegpu.NewWindow(800, 600)
	o, _ := build(t, NewScene().Graph(), w)
	before := o.Passes()

	w.SetSize(1024, 768)
	o.NotifyResized()
	require.NoError(t, o.Draw())

	after := o.Passes()
	assert.Equal(t, before[0].Labels, after[0].Labels)
	assert.Equal(t, md.Extent{Width: 1024, Height: 768}, after[1].Extent)
}

func TestUniformsCarryEveryObject(t *testing.T) {
	s := NewScene()
	graph := s.Graph()
	var objects [][]byte
	update := graph.UpdateUniformData
	graph.UpdateUniformData = func(info renderer.FrameInfo, u *renderer.UniformSet) error {
		if err := update(info, u); err != nil {
			return err
		}
		arena := u.Get(uniformObjects)
		objects = objects[:0]
		for i := uint32(0); i < arena.Count(); i++ {
			objects = append(objects, arena.Element(i))
		}
		return nil
	}

	o, _ := build(t, graph, fakegpu.NewWindow(800, 600))
	require.NoError(t, o.Draw())
	require.Len(t, objects, 7)
	assert.Equal(t, uint32(6), s.cubes())
	for i := 1; i < len(objects); i++ {
		assert.NotEqual(t, objects[0], objects[i])
	}
}

func TestOrbitMovesTheLight(t *testing.T) {
	s := NewScene()
	assert.Equal(t, s.Light.Position, s.lightPosition(10))

	s.Orbit = true
	p0, p1 := s.lightPosition(0), s.lightPosition(1)
	assert.NotEqual(t, p0, p1)
	assert.InDelta(t, p0.Len(), p1.Len(), 1e-3)
	assert.NotEqual(t, s.LightSpace(p0), s.LightSpace(mgl32.Vec3{0, 20, 0}))
}
