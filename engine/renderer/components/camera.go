package components

import (
	gomath "math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/vkdemos/engine/math"
	md "github.com/spaghettifunk/vkdemos/engine/renderer/metadata"
)

// 89 degrees, keeps the orbit away from the poles.
const pitchLimit = float32(1.55334306)

/**
 * @brief An orbit camera looking at a target. Yaw and pitch are
 * angles around the target; Distance is how far the eye sits from it.
 */
type Camera struct {
	Target   mgl32.Vec3
	Distance float32
	/** @brief Radians around the Y axis. */
	yaw float32
	/** @brief Radians above the XZ plane. */
	pitch float32

	FovY float32
	Near float32
	Far  float32

	/** @brief Internal flag used to determine when the view matrix needs to be rebuilt. */
	isDirty    bool
	viewMatrix mgl32.Mat4
	position   mgl32.Vec3
}

// NewCamera places the eye at position looking at target.
func NewCamera(position, target mgl32.Vec3) *Camera {
	offset := position.Sub(target)
	c := &Camera{
		Target:   target,
		Distance: offset.Len(),
		FovY:     mgl32.DegToRad(45),
		Near:     0.1,
		Far:      1000,
		isDirty:  true,
	}
	if c.Distance > 0 {
		c.yaw = float32(gomath.Atan2(float64(offset.X()), float64(offset.Z())))
		c.pitch = float32(gomath.Asin(float64(offset.Y() / c.Distance)))
	}
	return c
}

func (c *Camera) GetPosition() mgl32.Vec3 {
	c.rebuild()
	return c.position
}

func (c *Camera) GetView() mgl32.Mat4 {
	c.rebuild()
	return c.viewMatrix
}

// Projection is a Vulkan clip space perspective for the given render extent.
func (c *Camera) Projection(extent md.Extent) mgl32.Mat4 {
	aspect := float32(1)
	if extent.Height != 0 {
		aspect = float32(extent.Width) / float32(extent.Height)
	}
	return math.VulkanPerspective(c.FovY, aspect, c.Near, c.Far)
}

func (c *Camera) Yaw(amount float32) {
	c.yaw += amount
	c.isDirty = true
}

func (c *Camera) Pitch(amount float32) {
	c.pitch = math.Clamp(c.pitch+amount, -pitchLimit, pitchLimit)
	c.isDirty = true
}

// Zoom moves the eye toward the target. The distance never drops below Near.
func (c *Camera) Zoom(amount float32) {
	c.Distance = math.Clamp(c.Distance-amount, c.Near, c.Far)
	c.isDirty = true
}

func (c *Camera) rebuild() {
	if !c.isDirty {
		return
	}
	cp, sp := cos(c.pitch), sin(c.pitch)
	offset := mgl32.Vec3{sin(c.yaw) * cp, sp, cos(c.yaw) * cp}.Mul(c.Distance)
	c.position = c.Target.Add(offset)
	c.viewMatrix = mgl32.LookAtV(c.position, c.Target, mgl32.Vec3{0, 1, 0})
	c.isDirty = false
}

func sin(a float32) float32 { return float32(gomath.Sin(float64(a))) }
func cos(a float32) float32 { return float32(gomath.Cos(float64(a))) }
