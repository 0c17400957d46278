package math

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestCalculateStride(t *testing.T) {
	cases := []struct {
		size, align, want uint64
	}{
		{68, 64, 128},
		{64, 64, 64},
		{1, 256, 256},
		{0, 256, 0},
		{200, 0, 200},
		{68, 48, 96},
		{96, 48, 96},
		{7, 3, 9},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, CalculateStride(c.size, c.align), "size=%d align=%d", c.size, c.align)
	}
}

func TestCalculateStrideIsSmallestMultiple(t *testing.T) {
	for _, align := range []uint32{1, 3, 16, 48, 64, 256} {
		for size := uint32(1); size < 600; size += 7 {
			s := CalculateStride(size, align)
			assert.Zero(t, s%align)
			assert.GreaterOrEqual(t, s, size)
			assert.Less(t, s-size, align)
		}
	}
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 5, Clamp(9, 0, 5))
	assert.Equal(t, float32(0.5), Clamp(float32(0.5), 0, 1))
	assert.Equal(t, uint32(2), Clamp(uint32(1), 2, 4))
}

func TestVulkanPerspectiveFlipsY(t *testing.T) {
	p := mgl32.Perspective(mgl32.DegToRad(45), 1, 0.1, 10)
	v := VulkanPerspective(mgl32.DegToRad(45), 1, 0.1, 10)
	assert.InDelta(t, -p[5], v[5], 1e-6)
	assert.Equal(t, p[0], v[0])
}

func TestVulkanOrthoMapsDepthToUnitRange(t *testing.T) {
	o := VulkanOrtho(-10, 10, -10, 10, 1, 101)
	near := o.Mul4x1(mgl32.Vec4{0, 0, -1, 1})
	far := o.Mul4x1(mgl32.Vec4{0, 0, -101, 1})
	assert.InDelta(t, 0, near.Z(), 1e-5)
	assert.InDelta(t, 1, far.Z(), 1e-5)
	assert.InDelta(t, 1, o.Mul4x1(mgl32.Vec4{10, 0, -1, 1}).X(), 1e-5)
}
