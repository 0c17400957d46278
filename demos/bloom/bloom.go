// Package bloom renders an HDR scene with four point lights, extracts the
// lights into a 256x256 target, blurs it vertically then horizontally and
// composites the blur over the scene.
package bloom

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/vkdemos/demos/scene"
	"github.com/spaghettifunk/vkdemos/engine/game"
	"github.com/spaghettifunk/vkdemos/engine/keys"
	"github.com/spaghettifunk/vkdemos/engine/renderer"
	"github.com/spaghettifunk/vkdemos/engine/renderer/components"
	md "github.com/spaghettifunk/vkdemos/engine/renderer/metadata"
)

const (
	Name = "bloom"

	BlurSize = 256
	// LightCount leading objects are the light sources.
	LightCount = 4

	uniformCamera  = "camera"
	uniformObjects = "objects"
	uniformLights  = "lights"
	uniformBloom   = "bloom"
)

// Lights is the fragment uniform of the geometry pass, one std140 array.
type Lights struct {
	Lights [LightCount]scene.PointLight
}

// Settings is read by the composite pass.
type Settings struct {
	Enabled  uint32
	Exposure float32
	_        [2]float32
}

type Scene struct {
	Camera   *components.Camera
	Lights   [LightCount]scene.PointLight
	Objects  []scene.Object
	Bloom    bool
	Exposure float32
	// Degrees per second the boxes turn around the Y axis.
	Spin float32
}

func NewScene() *Scene {
	s := &Scene{
		Camera:   components.NewCamera(mgl32.Vec3{0, 20, 16}, mgl32.Vec3{}),
		Bloom:    true,
		Exposure: 1,
		Spin:     90,
	}
	for i := range s.Lights {
		s.Lights[i] = scene.PointLight{
			Position:  mgl32.Vec3{0, float32(2 * i), 0},
			Ambient:   mgl32.Vec3{0.05, 0.05, 0.05},
			Diffuse:   mgl32.Vec3{2, 2, 2},
			Specular:  mgl32.Vec3{5, 5, 5},
			Constant:  15,
			Linear:    0.19,
			Quadratic: 0.032,
		}
		s.Objects = append(s.Objects, scene.Object{
			Model: mgl32.Translate3D(0, float32(2*i), 0),
			Color: mgl32.Vec3{2, 2, 2},
		})
	}
	s.Objects = append(s.Objects,
		scene.Object{Model: mgl32.Translate3D(6, 0, 0), Color: mgl32.Vec3{1, 0, 0}},
		scene.Object{Model: mgl32.Translate3D(-6, 0, 0), Color: mgl32.Vec3{1, 1, 0}},
		scene.Object{Model: mgl32.Translate3D(0, 0, 5), Color: mgl32.Vec3{1, 0, 1}},
		scene.Object{Model: mgl32.Translate3D(-6, 0, -5), Color: mgl32.Vec3{1, 0, 0}},
		scene.Object{Model: mgl32.Translate3D(2, 3, 8), Color: mgl32.Vec3{1, 1, 0}},
		scene.Object{Model: mgl32.Translate3D(0, 6, 4), Color: mgl32.Vec3{0, 1, 1}},
		scene.Object{Model: mgl32.Translate3D(0, -2, 0), Color: mgl32.Vec3{0.2, 0.2, 0.2}},
	)
	return s
}

// boxes is the number of spinning boxes after the lights; the last object is the floor.
func (s *Scene) boxes() uint32 {
	return uint32(len(s.Objects)) - LightCount - 1
}

func (s *Scene) update(info renderer.FrameInfo, u *renderer.UniformSet) error {
	view := s.Camera.GetView()
	if err := u.Write(uniformCamera, 0, scene.PerCamera{View: view, Proj: s.Camera.Projection(info.Extent)}); err != nil {
		return err
	}

	// Lights are shaded in eye space.
	var lights Lights
	for i, l := range s.Lights {
		l.Position = view.Mul4x1(l.Position.Vec4(1)).Vec3()
		lights.Lights[i] = l
	}
	if err := u.Write(uniformLights, 0, lights); err != nil {
		return err
	}

	spin := mgl32.HomogRotate3DY(float32(info.Elapsed) * mgl32.DegToRad(s.Spin))
	floor := uint32(len(s.Objects) - 1)
	for i, o := range s.Objects {
		transform := spin
		if uint32(i) == floor {
			transform = mgl32.Ident4()
		}
		if err := u.Write(uniformObjects, uint32(i), o.Uniform(transform)); err != nil {
			return err
		}
	}

	settings := Settings{Exposure: s.Exposure}
	if s.Bloom {
		settings.Enabled = 1
	}
	return u.Write(uniformBloom, 0, settings)
}

func hdrTarget(name string) renderer.AttachmentDesc {
	return renderer.AttachmentDesc{
		Name:   name,
		Kind:   md.ATTACHMENT_KIND_COLOR,
		Format: md.FORMAT_RGBA32_SFLOAT,
		Usage:  md.ATTACHMENT_USAGE_SAMPLED,
		Clear:  md.ClearValue{Color: [4]float32{0, 0, 0, 1}},
	}
}

func depthTarget() renderer.AttachmentDesc {
	return renderer.AttachmentDesc{
		Name:   "depth",
		Kind:   md.ATTACHMENT_KIND_DEPTH,
		Format: md.FORMAT_DEPTH,
		Usage:  md.ATTACHMENT_USAGE_ATTACHMENT_ONLY,
		Clear:  md.ClearValue{Depth: 1},
	}
}

func meshPipeline(name, shader string) md.PipelineDesc {
	return md.PipelineDesc{
		Name:         name,
		Shader:       shader,
		VertexStride: scene.VertexStride,
		Attributes:   scene.VertexAttributes,
		CullMode:     md.CULL_MODE_BACK,
		DepthTest:    true,
		DepthWrite:   true,
	}
}

func quadPipeline(name, shader string) md.PipelineDesc {
	return md.PipelineDesc{
		Name:         name,
		Shader:       shader,
		VertexStride: scene.QuadVertexStride,
		Attributes:   scene.QuadVertexAttributes,
		CullMode:     md.CULL_MODE_NONE,
	}
}

func blurPass(name, source string) renderer.PassDesc {
	return renderer.PassDesc{
		Name:        name,
		Extent:      md.Extent{Width: BlurSize, Height: BlurSize},
		Attachments: []renderer.AttachmentDesc{hdrTarget("color")},
		Pipelines:   []md.PipelineDesc{quadPipeline(name, "bloom_"+name)},
		Bindings: []renderer.BindingDesc{
			{Binding: 0, Stages: md.SHADER_STAGE_FRAGMENT, Source: &renderer.AttachmentRef{Pass: source, Attachment: "color"}},
		},
		Draws: []renderer.DrawDesc{{Pipeline: name, Mesh: "quad"}},
	}
}

// Graph declares geometry, light, vblur, hblur and the presenting composite, in that order.
func (s *Scene) Graph() *renderer.RenderGraph {
	lightDraw := renderer.DrawDesc{Pipeline: "lamp", Mesh: "cube", DynamicUniform: uniformObjects, ObjectCount: LightCount}
	floor := uint32(len(s.Objects) - 1)

	return &renderer.RenderGraph{
		Name:    Name,
		Queues:  scene.GraphicsQueue(),
		ShowFPS: true,
		Meshes:  []renderer.MeshDesc{scene.Cube(), scene.Floor(), scene.Quad()},
		Uniforms: []renderer.UniformDesc{
			{Name: uniformCamera, ElementSize: 128, Count: 1},
			{Name: uniformObjects, ElementSize: 80, Count: uint32(len(s.Objects)), Dynamic: true},
			{Name: uniformLights, ElementSize: 80 * LightCount, Count: 1},
			{Name: uniformBloom, ElementSize: 16, Count: 1},
		},
		Passes: []renderer.PassDesc{
			{
				Name:        "geometry",
				Attachments: []renderer.AttachmentDesc{hdrTarget("color"), depthTarget()},
				Pipelines:   []md.PipelineDesc{meshPipeline("scene", "bloom_scene"), meshPipeline("lamp", "bloom_lamp")},
				Bindings: []renderer.BindingDesc{
					{Binding: 0, Stages: md.SHADER_STAGE_VERTEX, Uniform: uniformCamera},
					{Binding: 1, Stages: md.SHADER_STAGE_VERTEX | md.SHADER_STAGE_FRAGMENT, Uniform: uniformObjects},
					{Binding: 2, Stages: md.SHADER_STAGE_FRAGMENT, Uniform: uniformLights},
				},
				Draws: []renderer.DrawDesc{
					lightDraw,
					{Pipeline: "scene", Mesh: "cube", DynamicUniform: uniformObjects, FirstObject: LightCount, ObjectCount: s.boxes()},
					{Pipeline: "scene", Mesh: "floor", DynamicUniform: uniformObjects, FirstObject: floor, ObjectCount: 1},
				},
			},
			{
				// Only the light sources, so the blur picks up nothing else.
				Name:        "light",
				Extent:      md.Extent{Width: BlurSize, Height: BlurSize},
				Attachments: []renderer.AttachmentDesc{hdrTarget("color"), depthTarget()},
				Pipelines:   []md.PipelineDesc{meshPipeline("lamp", "bloom_lamp")},
				Bindings: []renderer.BindingDesc{
					{Binding: 0, Stages: md.SHADER_STAGE_VERTEX, Uniform: uniformCamera},
					{Binding: 1, Stages: md.SHADER_STAGE_VERTEX | md.SHADER_STAGE_FRAGMENT, Uniform: uniformObjects},
				},
				Draws: []renderer.DrawDesc{lightDraw},
			},
			blurPass("vblur", "light"),
			blurPass("hblur", "vblur"),
			{
				Name: "composite",
				Attachments: []renderer.AttachmentDesc{{
					Name:   "color",
					Kind:   md.ATTACHMENT_KIND_COLOR,
					Format: md.FORMAT_SWAPCHAIN,
					Usage:  md.ATTACHMENT_USAGE_PRESENT,
				}},
				Pipelines: []md.PipelineDesc{quadPipeline("composite", "bloom_composite")},
				Bindings: []renderer.BindingDesc{
					{Binding: 0, Stages: md.SHADER_STAGE_FRAGMENT, Source: &renderer.AttachmentRef{Pass: "geometry", Attachment: "color"}},
					{Binding: 1, Stages: md.SHADER_STAGE_FRAGMENT, Source: &renderer.AttachmentRef{Pass: "hblur", Attachment: "color"}},
					{Binding: 2, Stages: md.SHADER_STAGE_FRAGMENT, Uniform: uniformBloom},
				},
				Draws: []renderer.DrawDesc{{Pipeline: "composite", Mesh: "quad"}},
			},
		},
		UpdateUniformData: s.update,
	}
}

// New builds the demo. B toggles bloom, +/- change the exposure and the arrow keys orbit the camera.
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
			case keys.B:
				s.Bloom = !s.Bloom
			case keys.Equal, keys.KPAdd:
				s.Exposure *= 1.25
			case keys.Minus, keys.KPSubtract:
				s.Exposure /= 1.25
			case keys.Left:
				s.Camera.Yaw(-0.1)
			case keys.Right:
				s.Camera.Yaw(0.1)
			case keys.Up:
				s.Camera.Pitch(0.1)
			case keys.Down:
				s.Camera.Pitch(-0.1)
			}
		},
	}
}
