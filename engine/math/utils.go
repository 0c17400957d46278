package math

import (
	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/exp/constraints"
)

// Clamp returns the value `f` clamped to the range [low, high].
// It works for any numeric type (integers and floats).
func Clamp[T constraints.Ordered](f, low, high T) T {
	if f < low {
		return low
	}
	if f > high {
		return high
	}
	return f
}

// CalculateStride rounds size up to the next multiple of alignment.
// An alignment of zero is treated as one.
func CalculateStride[T constraints.Unsigned](size, alignment T) T {
	if alignment == 0 {
		return size
	}
	// Device offset alignments are powers of two.
	if alignment&(alignment-1) == 0 {
		return (size + alignment - 1) &^ (alignment - 1)
	}
	return (size + alignment - 1) / alignment * alignment
}

// VulkanPerspective is mgl32.Perspective with the Y axis flipped for Vulkan clip space.
func VulkanPerspective(fovy, aspect, near, far float32) mgl32.Mat4 {
	p := mgl32.Perspective(fovy, aspect, near, far)
	p[5] *= -1
	return p
}

// VulkanOrtho is mgl32.Ortho with depth remapped from [-1, 1] to Vulkan's [0, 1].
func VulkanOrtho(left, right, bottom, top, near, far float32) mgl32.Mat4 {
	clip := mgl32.Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 0.5, 0,
		0, 0, 0.5, 1,
	}
	return clip.Mul4(mgl32.Ortho(left, right, bottom, top, near, far))
}
