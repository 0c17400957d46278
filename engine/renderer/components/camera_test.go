package components

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	md "github.com/spaghettifunk/vkdemos/engine/renderer/metadata"
	"github.com/stretchr/testify/assert"
)

func TestCameraKeepsStartingPosition(t *testing.T) {
	eye := mgl32.Vec3{0, 4, 16}
	c := NewCamera(eye, mgl32.Vec3{})
	assert.True(t, c.GetPosition().ApproxEqualThreshold(eye, 1e-4))
	assert.True(t, c.GetView().ApproxEqualThreshold(mgl32.LookAtV(eye, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0}), 1e-4))
}

func TestCameraYawKeepsDistance(t *testing.T) {
	c := NewCamera(mgl32.Vec3{0, 0, 10}, mgl32.Vec3{})
	c.Yaw(mgl32.DegToRad(90))
	p := c.GetPosition()
	assert.InDelta(t, 10, p.X(), 1e-4)
	assert.InDelta(t, 0, p.Z(), 1e-4)
	assert.InDelta(t, 10, p.Len(), 1e-4)
}

func TestCameraPitchIsClamped(t *testing.T) {
	c := NewCamera(mgl32.Vec3{0, 0, 10}, mgl32.Vec3{})
	c.Pitch(10)
	assert.Less(t, c.GetPosition().Y(), float32(10))
	assert.Greater(t, c.GetPosition().Y(), float32(9.9))
}

func TestCameraZoomStopsAtNear(t *testing.T) {
	c := NewCamera(mgl32.Vec3{0, 0, 10}, mgl32.Vec3{})
	c.Zoom(100)
	assert.Equal(t, c.Near, c.Distance)
}

func TestCameraProjectionFlipsY(t *testing.T) {
	c := NewCamera(mgl32.Vec3{0, 0, 10}, mgl32.Vec3{})
	p := c.Projection(md.Extent{Width: 800, Height: 600})
	assert.Less(t, p[5], float32(0))
	assert.Equal(t, p, c.Projection(md.Extent{Width: 800, Height: 600}))
}
