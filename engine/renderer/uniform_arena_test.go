package renderer

import (
	"encoding/binary"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/vkdemos/engine/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type paddedLight struct {
	Position mgl32.Vec3
	_        float32
	Color    mgl32.Vec3
	_        float32
	Constant float32
}

func TestUniformArenaStrideAndWrite(t *testing.T) {
	size := uint64(binary.Size(paddedLight{}))
	require.Equal(t, uint64(36), size)

	data := make([]byte, ArenaSize(size, 3, 64))
	require.Len(t, data, 192)

	a, err := NewUniformArena("lights", data, size, 3, 64)
	require.NoError(t, err)
	assert.Equal(t, uint64(64), a.Stride())

	require.NoError(t, a.WriteElement(1, paddedLight{Position: mgl32.Vec3{1, 2, 3}, Color: mgl32.Vec3{4, 5, 6}, Constant: 7}))

	var got paddedLight
	_, err = binary.Decode(data[64:], binary.LittleEndian, &got)
	require.NoError(t, err)
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, got.Position)
	assert.Equal(t, float32(7), got.Constant)

	// Neighbouring elements stay untouched.
	assert.Equal(t, make([]byte, 64), data[:64])
	assert.Equal(t, make([]byte, 64), data[128:])
}

func TestUniformArenaRejectsMisuse(t *testing.T) {
	data := make([]byte, 256)
	a, err := NewUniformArena("ubo", data, 16, 2, 128)
	require.NoError(t, err)

	err = a.WriteElement(2, mgl32.Vec4{})
	assert.ErrorIs(t, err, core.ErrProgrammer)

	err = a.WriteElement(0, mgl32.Mat4{})
	assert.ErrorIs(t, err, core.ErrProgrammer)

	err = a.WriteElement(0, "not fixed size")
	assert.Error(t, err)

	_, err = NewUniformArena("small", make([]byte, 10), 16, 1, 0)
	assert.ErrorIs(t, err, core.ErrProgrammer)
}

func TestUniformSet(t *testing.T) {
	s := newUniformSet()
	a, err := NewUniformArena("mvp", make([]byte, 64), 64, 1, 0)
	require.NoError(t, err)
	s.arenas["mvp"] = a

	assert.NoError(t, s.Write("mvp", 0, mgl32.Ident4()))
	assert.ErrorIs(t, s.Write("missing", 0, mgl32.Ident4()), core.ErrProgrammer)
	assert.Same(t, a, s.Get("mvp"))
	assert.Nil(t, s.Get("missing"))
}
