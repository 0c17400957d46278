// Package triangle is the smallest demo: one presenting pass drawing a
// vertex colored triangle that spins around the Z axis.
package triangle

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/vkdemos/demos/scene"
	"github.com/spaghettifunk/vkdemos/engine/game"
	"github.com/spaghettifunk/vkdemos/engine/keys"
	"github.com/spaghettifunk/vkdemos/engine/renderer"
	md "github.com/spaghettifunk/vkdemos/engine/renderer/metadata"
)

const Name = "triangle"

type vertex struct {
	Pos   mgl32.Vec2
	Color mgl32.Vec3
}

var vertices = []vertex{
	{mgl32.Vec2{0, -0.5}, mgl32.Vec3{1, 0, 0}},
	{mgl32.Vec2{0.5, 0.5}, mgl32.Vec3{0, 1, 0}},
	{mgl32.Vec2{-0.5, 0.5}, mgl32.Vec3{0, 0, 1}},
}

// Scene is the state captured by the update callback.
type Scene struct {
	// Radians per second.
	Speed  float32
	Paused bool
	angle  float32
	last   float64
}

type transform struct {
	Model  mgl32.Mat4
	Aspect mgl32.Mat4
}

func NewScene() *Scene {
	return &Scene{Speed: mgl32.DegToRad(45)}
}

func (s *Scene) update(info renderer.FrameInfo, uniforms *renderer.UniformSet) error {
	if !s.Paused {
		s.angle += s.Speed * float32(info.Elapsed-s.last)
	}
	s.last = info.Elapsed

	aspect := mgl32.Ident4()
	if info.Extent.Width > 0 {
		aspect = mgl32.Scale3D(float32(info.Extent.Height)/float32(info.Extent.Width), 1, 1)
	}
	return uniforms.Write("transform", 0, transform{Model: mgl32.HomogRotate3DZ(s.angle), Aspect: aspect})
}

// Graph declares the single pass.
func (s *Scene) Graph() *renderer.RenderGraph {
	return &renderer.RenderGraph{
		Name:   Name,
		Queues: scene.GraphicsQueue(),
		Meshes: []renderer.MeshDesc{{
			Name:         "triangle",
			Vertices:     scene.Encode(vertices),
			VertexStride: 20,
		}},
		Uniforms: []renderer.UniformDesc{{Name: "transform", ElementSize: 128, Count: 1}},
		Passes: []renderer.PassDesc{{
			Name: "main",
			Attachments: []renderer.AttachmentDesc{{
				Name:   "color",
				Kind:   md.ATTACHMENT_KIND_COLOR,
				Format: md.FORMAT_SWAPCHAIN,
				Usage:  md.ATTACHMENT_USAGE_PRESENT,
				Clear:  md.ClearValue{Color: [4]float32{0, 0, 0, 1}},
			}},
			Pipelines: []md.PipelineDesc{{
				Name:         "triangle",
				Shader:       "triangle",
				VertexStride: 20,
				Attributes: []md.VertexAttribute{
					{Location: 0, Format: md.VERTEX_FORMAT_FLOAT2, Offset: 0},
					{Location: 1, Format: md.VERTEX_FORMAT_FLOAT3, Offset: 8},
				},
			}},
			Bindings: []renderer.BindingDesc{{Binding: 0, Stages: md.SHADER_STAGE_VERTEX, Uniform: "transform"}},
			Draws:    []renderer.DrawDesc{{Pipeline: "triangle", Mesh: "triangle", VertexCount: 3}},
		}},
		UpdateUniformData: s.update,
	}
}

// New builds the demo. Space pauses the rotation.
func New() *game.Game {
	s := NewScene()
	return &game.Game{
		Name:  Name,
		Graph: s.Graph(),
		State: s,
		FnOnKey: func(key keys.Key, pressed bool) {
			if pressed && key == keys.Space {
				s.Paused = !s.Paused
			}
		},
	}
}
