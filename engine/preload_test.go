package engine

import (
	"sync"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLoader struct {
	mutex  sync.Mutex
	loaded []string
	broken string
}

func (l *recordingLoader) LoadShader(name string) ([]uint32, []uint32, error) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	if name == l.broken {
		return nil, nil, errors.Newf("%s_vert.spv: no such file", name)
	}
	l.loaded = append(l.loaded, name)
	return []uint32{0x07230203}, []uint32{0x07230203}, nil
}

func TestPreloadLoadsEveryShader(t *testing.T) {
	l := &recordingLoader{}
	require.NoError(t, preloadShaders(l, []string{"scene", "lamp", "composite"}))
	assert.ElementsMatch(t, []string{"scene", "lamp", "composite"}, l.loaded)
}

func TestPreloadReportsBrokenShader(t *testing.T) {
	l := &recordingLoader{broken: "lamp"}
	err := preloadShaders(l, []string{"scene", "lamp"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lamp")
	assert.Equal(t, []string{"scene"}, l.loaded)
}

func TestPreloadWithoutShaders(t *testing.T) {
	assert.NoError(t, preloadShaders(&recordingLoader{}, nil))
}
