package triangle

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/spaghettifunk/vkdemos/engine/renderer"
	"github.com/spaghettifunk/vkdemos/engine/renderer/fakegpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGraphIsValid(t *testing.T) {
	g := New()
	require.NoError(t, g.Graph.Validate())
	assert.False(t, g.Graph.ShowFPS)
	assert.Len(t, g.Graph.Passes, 1)
}

func TestTriangleRendersOnFakeGPU(t *testing.T) {
	s := NewScene()
	graph := s.Graph()

	var models [][]byte
	update := graph.UpdateUniformData
	graph.UpdateUniformData = func(info renderer.FrameInfo, u *renderer.UniformSet) error {
		// Pretend a quarter turn worth of time passed every frame.
		info.Elapsed = float64(len(models)) * 2
		if err := update(info, u); err != nil {
			return err
		}
		models = append(models, append([]byte(nil), u.Get("transform").Element(0)...))
		return nil
	}

	gpu := fakegpu.New(fakegpu.Options{AutoComplete: true})
	o, err := renderer.NewOrchestrator(gpu, fakegpu.NewWindow(800, 600), graph, 2)
	require.NoError(t, err)
	require.NoError(t, o.Build())

	for i := 0; i < 3; i++ {
		require.NoError(t, o.Draw())
	}
	require.Len(t, models, 3)
	assert.Empty(t, gpu.Hazards())

	// The first column of the model matrix is (cos a, sin a).
	cosA := math.Float32frombits(binary.LittleEndian.Uint32(models[0][0:]))
	assert.InDelta(t, 1, cosA, 1e-5)
	assert.NotEqual(t, models[0][:64], models[1][:64])

	require.NoError(t, o.Destroy())
}

func TestPauseFreezesRotation(t *testing.T) {
	s := NewScene()
	s.Paused = true
	graph := s.Graph()
	gpu := fakegpu.New(fakegpu.Options{AutoComplete: true})
	o, err := renderer.NewOrchestrator(gpu, fakegpu.NewWindow(800, 600), graph, 2)
	require.NoError(t, err)
	require.NoError(t, o.Build())
	require.NoError(t, o.Draw())
	assert.Zero(t, s.angle)
}
