// Package shadowmap renders the scene depth from a light into a 2048x2048
// shadow map, then draws the lit scene sampling that map.
package shadowmap

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/vkdemos/demos/scene"
	"github.com/spaghettifunk/vkdemos/engine/game"
	"github.com/spaghettifunk/vkdemos/engine/keys"
	"github.com/spaghettifunk/vkdemos/engine/math"
	"github.com/spaghettifunk/vkdemos/engine/renderer"
	"github.com/spaghettifunk/vkdemos/engine/renderer/components"
	md "github.com/spaghettifunk/vkdemos/engine/renderer/metadata"
)

const (
	Name = "shadowmap"

	ShadowMapSize = 2048

	uniformCamera     = "camera"
	uniformObjects    = "objects"
	uniformLightSpace = "light_space"
	uniformLight      = "light"
)

// PerLight is the matrix from world space into the light's clip space.
type PerLight struct {
	LightSpace mgl32.Mat4
}

// Scene is six cubes over a floor, lit by one point light above them.
type Scene struct {
	Camera  *components.Camera
	Light   scene.PointLight
	Objects []scene.Object
	// The light circles the scene when Orbit is set.
	Orbit bool
}

func NewScene() *Scene {
	floor := scene.Object{Model: mgl32.Translate3D(0, -5, 0), Color: mgl32.Vec3{0.2, 0.2, 0.2}}
	return &Scene{
		Camera: components.NewCamera(mgl32.Vec3{0, 4, 16}, mgl32.Vec3{}),
		Light: scene.PointLight{
			Position: mgl32.Vec3{0, 20, 0},
			Ambient:  mgl32.Vec3{0.2, 0.2, 0.2},
			Diffuse:  mgl32.Vec3{5, 5, 5},
			Specular: mgl32.Vec3{1, 1, 1},
			Constant: 1,
		},
		Objects: []scene.Object{
			{Model: mgl32.Translate3D(6, 0, 0), Color: mgl32.Vec3{1, 0, 0}},
			{Model: mgl32.Translate3D(-6, 0, 0), Color: mgl32.Vec3{1, 1, 0}},
			{Model: mgl32.Translate3D(0, 0, 5), Color: mgl32.Vec3{1, 0, 1}},
			{Model: mgl32.Translate3D(-6, 0, -5), Color: mgl32.Vec3{1, 0, 0}},
			{Model: mgl32.Translate3D(2, 3, 8), Color: mgl32.Vec3{1, 1, 0}},
			{Model: mgl32.Translate3D(0, 6, 4), Color: mgl32.Vec3{0, 1, 1}},
			floor,
		},
	}
}

// cubes is the number of leading objects drawn with the cube mesh; the last is the floor.
func (s *Scene) cubes() uint32 {
	return uint32(len(s.Objects) - 1)
}

// LightSpace is the orthographic light view used by both passes.
func (s *Scene) LightSpace(position mgl32.Vec3) mgl32.Mat4 {
	proj := math.VulkanOrtho(-100, 100, -100, 100, 0.1, 1000)
	view := mgl32.LookAtV(position, mgl32.Vec3{}, mgl32.Vec3{0, 0, 1})
	return proj.Mul4(view)
}

func (s *Scene) lightPosition(elapsed float64) mgl32.Vec3 {
	if !s.Orbit {
		return s.Light.Position
	}
	rot := mgl32.HomogRotate3DY(float32(elapsed) * mgl32.DegToRad(30))
	return rot.Mul4x1(s.Light.Position.Add(mgl32.Vec3{8, 0, 0}).Vec4(1)).Vec3()
}

func (s *Scene) update(info renderer.FrameInfo, u *renderer.UniformSet) error {
	camera := scene.PerCamera{View: s.Camera.GetView(), Proj: s.Camera.Projection(info.Extent)}
	if err := u.Write(uniformCamera, 0, camera); err != nil {
		return err
	}

	light := s.Light
	light.Position = s.lightPosition(info.Elapsed)
	if err := u.Write(uniformLight, 0, light); err != nil {
		return err
	}
	if err := u.Write(uniformLightSpace, 0, PerLight{LightSpace: s.LightSpace(light.Position)}); err != nil {
		return err
	}

	for i, o := range s.Objects {
		if err := u.Write(uniformObjects, uint32(i), o.Uniform(mgl32.Ident4())); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scene) draws(pipeline string) []renderer.DrawDesc {
	return []renderer.DrawDesc{
		{Pipeline: pipeline, Mesh: "cube", DynamicUniform: uniformObjects, ObjectCount: s.cubes()},
		{Pipeline: pipeline, Mesh: "floor", DynamicUniform: uniformObjects, FirstObject: s.cubes(), ObjectCount: 1},
	}
}

// Graph declares the depth pass followed by the lit pass.
func (s *Scene) Graph() *renderer.RenderGraph {
	return &renderer.RenderGraph{
		Name:   Name,
		Queues: scene.GraphicsQueue(),
		Meshes: []renderer.MeshDesc{scene.Cube(), scene.Floor()},
		Uniforms: []renderer.UniformDesc{
			{Name: uniformCamera, ElementSize: 128, Count: 1},
			{Name: uniformObjects, ElementSize: 80, Count: uint32(len(s.Objects)), Dynamic: true},
			{Name: uniformLightSpace, ElementSize: 64, Count: 1},
			{Name: uniformLight, ElementSize: 80, Count: 1},
		},
		Passes: []renderer.PassDesc{
			{
				Name:   "shadow",
				Extent: md.Extent{Width: ShadowMapSize, Height: ShadowMapSize},
				Attachments: []renderer.AttachmentDesc{{
					Name:   "depth",
					Kind:   md.ATTACHMENT_KIND_DEPTH,
					Format: md.FORMAT_DEPTH,
					Usage:  md.ATTACHMENT_USAGE_SAMPLED,
					Clear:  md.ClearValue{Depth: 1},
				}},
				Pipelines: []md.PipelineDesc{{
					Name:         "depth",
					Shader:       "shadow_depth",
					VertexStride: scene.VertexStride,
					Attributes:   scene.VertexAttributes[:1],
					CullMode:     md.CULL_MODE_NONE,
					DepthTest:    true,
					DepthWrite:   true,
					DepthBias:    true,
				}},
				Bindings: []renderer.BindingDesc{
					{Binding: 0, Stages: md.SHADER_STAGE_VERTEX, Uniform: uniformLightSpace},
					{Binding: 1, Stages: md.SHADER_STAGE_VERTEX, Uniform: uniformObjects},
				},
				Draws: s.draws("depth"),
			},
			{
				Name: "final",
				Attachments: []renderer.AttachmentDesc{
					{
						Name:   "color",
						Kind:   md.ATTACHMENT_KIND_COLOR,
						Format: md.FORMAT_SWAPCHAIN,
						Usage:  md.ATTACHMENT_USAGE_PRESENT,
						Clear:  md.ClearValue{Color: [4]float32{0, 0, 0, 1}},
					},
					{
						Name:   "depth",
						Kind:   md.ATTACHMENT_KIND_DEPTH,
						Format: md.FORMAT_DEPTH,
						Usage:  md.ATTACHMENT_USAGE_ATTACHMENT_ONLY,
						Clear:  md.ClearValue{Depth: 1},
					},
				},
				Pipelines: []md.PipelineDesc{{
					Name:         "lit",
					Shader:       "shadow_lit",
					VertexStride: scene.VertexStride,
					Attributes:   scene.VertexAttributes,
					CullMode:     md.CULL_MODE_BACK,
					DepthTest:    true,
					DepthWrite:   true,
				}},
				Bindings: []renderer.BindingDesc{
					{Binding: 0, Stages: md.SHADER_STAGE_VERTEX, Uniform: uniformCamera},
					{Binding: 1, Stages: md.SHADER_STAGE_VERTEX, Uniform: uniformObjects},
					{Binding: 2, Stages: md.SHADER_STAGE_VERTEX, Uniform: uniformLightSpace},
					{Binding: 3, Stages: md.SHADER_STAGE_FRAGMENT, Uniform: uniformLight},
					{Binding: 4, Stages: md.SHADER_STAGE_FRAGMENT, Source: &renderer.AttachmentRef{Pass: "shadow", Attachment: "depth"}},
				},
				Draws: s.draws("lit"),
			},
		},
		UpdateUniformData: s.update,
	}
}

// New builds the demo. Arrow keys orbit the camera, L toggles the moving light.
func New() *game.Game {
	s := NewScene()
	return &game.Game{
		Name:  Name,
		Graph: s.Graph(),
		State: s,
		FnOnKey: func(key keys.Key, pressed bool) {
			if !pressed {
				return
			}
			switch key {
			case keys.Left:
				s.Camera.Yaw(-0.1)
			case keys.Right:
				s.Camera.Yaw(0.1)
			case keys.Up:
				s.Camera.Pitch(0.1)
			case keys.Down:
				s.Camera.Pitch(-0.1)
			case keys.L:
				s.Orbit = !s.Orbit
			}
		},
	}
}
