package assets

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func spirv(words ...uint32) []byte {
	out := make([]byte, 4*(len(words)+1))
	binary.LittleEndian.PutUint32(out, spirvMagic)
	for i, w := range words {
		binary.LittleEndian.PutUint32(out[4*(i+1):], w)
	}
	return out
}

func writeShader(t *testing.T, dir, name string, words ...uint32) {
	t.Helper()
	paths := ShaderPaths{Dir: dir}
	require.NoError(t, os.WriteFile(paths.Vert(name), spirv(words...), 0o644))
	require.NoError(t, os.WriteFile(paths.Frag(name), spirv(words...), 0o644))
}

func TestShaderPaths(t *testing.T) {
	p := ShaderPaths{Dir: "shaders"}
	assert.Equal(t, filepath.Join("shaders", "bloom_vert.spv"), p.Vert("bloom"))
	assert.Equal(t, filepath.Join("shaders", "bloom_frag.spv"), p.Frag("bloom"))
	assert.True(t, IsShaderBinary(p.Frag("bloom")))
	assert.False(t, IsShaderBinary("shaders/bloom.frag"))
}

func TestLoadShaderDecodesLittleEndianWords(t *testing.T) {
	dir := t.TempDir()
	writeShader(t, dir, "tri", 0xdeadbeef, 7)

	lib, err := NewShaderLibrary(ShaderPaths{Dir: dir})
	require.NoError(t, err)
	vert, frag, err := lib.LoadShader("tri")
	require.NoError(t, err)
	assert.Equal(t, []uint32{spirvMagic, 0xdeadbeef, 7}, vert)
	assert.Equal(t, vert, frag)
}

func TestLoadShaderCachesUntilInvalidated(t *testing.T) {
	dir := t.TempDir()
	writeShader(t, dir, "tri", 1)
	lib, err := NewShaderLibrary(ShaderPaths{Dir: dir})
	require.NoError(t, err)

	_, _, err = lib.LoadShader("tri")
	require.NoError(t, err)
	writeShader(t, dir, "tri", 2)

	vert, _, err := lib.LoadShader("tri")
	require.NoError(t, err)
	assert.Equal(t, uint32(1), vert[1])

	lib.Invalidate(lib.Paths().Vert("tri"))
	vert, _, err = lib.LoadShader("tri")
	require.NoError(t, err)
	assert.Equal(t, uint32(2), vert[1])
}

func TestLoadShaderRejectsBadModules(t *testing.T) {
	dir := t.TempDir()
	lib, err := NewShaderLibrary(ShaderPaths{Dir: dir})
	require.NoError(t, err)

	_, _, err = lib.LoadShader("missing")
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(lib.Paths().Vert("odd"), []byte{1, 2, 3}, 0o644))
	_, _, err = lib.LoadShader("odd")
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(lib.Paths().Vert("magic"), []byte{1, 2, 3, 4}, 0o644))
	_, _, err = lib.LoadShader("magic")
	assert.Error(t, err)
}

func TestNewShaderLibraryNeedsDirectory(t *testing.T) {
	_, err := NewShaderLibrary(ShaderPaths{Dir: filepath.Join(t.TempDir(), "nope")})
	assert.Error(t, err)
}

func TestShaderWatcherReportsWrites(t *testing.T) {
	dir := t.TempDir()
	lib, err := NewShaderLibrary(ShaderPaths{Dir: dir})
	require.NoError(t, err)
	w, err := NewShaderWatcher(lib)
	require.NoError(t, err)

	// Unrelated files are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	writeShader(t, dir, "lit", 3)

	var got string
	require.Eventually(t, func() bool {
		select {
		case got = <-w.Changes():
			return true
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)
	assert.True(t, IsShaderBinary(got))
	assert.Equal(t, dir, filepath.Dir(got))

	require.NoError(t, w.Close())
	assert.Error(t, w.Close())
}
