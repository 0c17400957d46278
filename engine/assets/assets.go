package assets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spaghettifunk/vkdemos/engine/core"
)

// ShaderPaths resolves shader names to compiled SPIR-V files.
type ShaderPaths struct {
	Dir string
}

func (p ShaderPaths) Vert(name string) string {
	return filepath.Join(p.Dir, fmt.Sprintf("%s_vert.spv", name))
}

func (p ShaderPaths) Frag(name string) string {
	return filepath.Join(p.Dir, fmt.Sprintf("%s_frag.spv", name))
}

type AssetInfo struct {
	Path       string
	Words      []uint32
	LastLoaded time.Time
}

// ShaderLibrary loads and caches SPIR-V modules. Cached entries are dropped
// by Invalidate, usually from a ShaderWatcher.
type ShaderLibrary struct {
	paths  ShaderPaths
	assets map[string]AssetInfo
	mutex  sync.RWMutex
}

func NewShaderLibrary(paths ShaderPaths) (*ShaderLibrary, error) {
	s, err := os.Stat(paths.Dir)
	if err != nil {
		return nil, errors.Wrapf(err, "shader directory %s", paths.Dir)
	}
	if !s.IsDir() {
		return nil, errors.Newf("shader directory %s is not a directory", paths.Dir)
	}
	return &ShaderLibrary{
		paths:  paths,
		assets: make(map[string]AssetInfo),
	}, nil
}

func (sl *ShaderLibrary) Paths() ShaderPaths {
	return sl.paths
}

// LoadShader returns the vertex and fragment SPIR-V of a shader.
func (sl *ShaderLibrary) LoadShader(name string) (vert, frag []uint32, err error) {
	if vert, err = sl.load(sl.paths.Vert(name)); err != nil {
		return nil, nil, err
	}
	if frag, err = sl.load(sl.paths.Frag(name)); err != nil {
		return nil, nil, err
	}
	return vert, frag, nil
}

func (sl *ShaderLibrary) load(path string) ([]uint32, error) {
	sl.mutex.RLock()
	asset, exists := sl.assets[path]
	sl.mutex.RUnlock()
	if exists {
		return asset.Words, nil
	}

	words, err := loadSPIRV(path)
	if err != nil {
		core.LogError(err.Error())
		return nil, err
	}
	sl.mutex.Lock()
	sl.assets[path] = AssetInfo{
		Path:       path,
		Words:      words,
		LastLoaded: time.Now(),
	}
	sl.mutex.Unlock()
	core.LogDebug("loaded shader module %s (%d words)", path, len(words))
	return words, nil
}

// Invalidate drops a cached module so the next load reads it from disk.
func (sl *ShaderLibrary) Invalidate(path string) {
	sl.mutex.Lock()
	defer sl.mutex.Unlock()
	delete(sl.assets, filepath.Clean(path))
}

// IsShaderBinary reports whether path names a compiled shader stage.
func IsShaderBinary(path string) bool {
	base := filepath.Base(path)
	return strings.HasSuffix(base, "_vert.spv") || strings.HasSuffix(base, "_frag.spv")
}
