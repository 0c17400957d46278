package scene

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUniformLayoutsMatchStd140(t *testing.T) {
	assert.Equal(t, 80, binary.Size(PointLight{}))
	assert.Equal(t, 80, binary.Size(PerObject{}))
	assert.Equal(t, 128, binary.Size(PerCamera{}))
	assert.Equal(t, VertexStride, binary.Size(Vertex{}))
	assert.Equal(t, QuadVertexStride, binary.Size(QuadVertex{}))
}

func TestPointLightPadding(t *testing.T) {
	l := PointLight{
		Position: mgl32.Vec3{1, 2, 3},
		Ambient:  mgl32.Vec3{4, 5, 6},
		Constant: 15,
	}
	buf, err := binary.Append(nil, binary.LittleEndian, l)
	require.NoError(t, err)

	f := func(offset int) float32 {
		return math.Float32frombits(binary.LittleEndian.Uint32(buf[offset:]))
	}
	assert.Equal(t, float32(3), f(8))
	assert.Equal(t, float32(0), f(12))
	assert.Equal(t, float32(4), f(16))
	assert.Equal(t, float32(15), f(64))
}

func TestCubeMesh(t *testing.T) {
	c := Cube()
	assert.Len(t, c.Vertices, 24*VertexStride)
	require.Len(t, c.Indices, 36)
	assert.Equal(t, []uint16{20, 21, 22, 22, 23, 20}, c.Indices[30:])
	for _, i := range c.Indices {
		assert.Less(t, i, uint16(24))
	}
}

func TestQuadMesh(t *testing.T) {
	q := Quad()
	assert.Len(t, q.Vertices, 4*QuadVertexStride)
	assert.Equal(t, uint32(QuadVertexStride), q.VertexStride)
}

func TestObjectUniformAppliesTransform(t *testing.T) {
	o := Object{Model: mgl32.Translate3D(6, 0, 0), Color: mgl32.Vec3{1, 0, 0}}
	u := o.Uniform(mgl32.Ident4())
	assert.Equal(t, o.Model, u.Model)
	assert.Equal(t, o.Color, u.Color)
}
