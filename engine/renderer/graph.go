package renderer

import (
	"github.com/spaghettifunk/vkdemos/engine/core"
	md "github.com/spaghettifunk/vkdemos/engine/renderer/metadata"
)

// RenderGraph declares everything a demo renders: meshes, uniform data, and an
// ordered list of passes. The last pass presents; the ones before it render
// offscreen and are recorded into a single command buffer per swapchain image.
type RenderGraph struct {
	Name string
	// Queues the demo needs. The first must support graphics and present.
	Queues   []md.QueueRequirement
	Meshes   []MeshDesc
	Uniforms []UniformDesc
	Passes   []PassDesc
	// Readback copies the presented image into a host buffer after every frame.
	Readback bool
	// ShowFPS asks the driver to report frame rate in the window title.
	ShowFPS bool

	// UpdateUniformData runs once per frame, after the image acquired for the
	// frame is no longer used by the GPU.
	UpdateUniformData func(info FrameInfo, uniforms *UniformSet) error
}

// FrameInfo is handed to the per-frame update callback.
type FrameInfo struct {
	ImageIndex  uint32
	FrameNumber uint64
	Extent      md.Extent
	// Seconds since the graph was built.
	Elapsed float64
}

type MeshDesc struct {
	Name         string
	Vertices     []byte
	VertexStride uint32
	Indices      []uint16
}

// UniformDesc declares Count elements of ElementSize bytes. Dynamic uniforms
// are bound once per draw with an offset of object index times the stride.
type UniformDesc struct {
	Name        string
	ElementSize uint64
	Count       uint32
	Dynamic     bool
}

// AttachmentRef names an attachment produced by an earlier pass.
type AttachmentRef struct {
	Pass       string
	Attachment string
}

// BindingDesc is one descriptor of a pass. Exactly one of Uniform and Source is set.
type BindingDesc struct {
	Binding uint32
	Stages  md.ShaderStage
	Uniform string
	Source  *AttachmentRef
}

// DrawDesc is one draw call, or ObjectCount draws when a dynamic uniform is used.
type DrawDesc struct {
	Pipeline string
	// Mesh is optional. Without it VertexCount vertices are drawn with no vertex buffer.
	Mesh           string
	VertexCount    uint32
	DynamicUniform string
	FirstObject    uint32
	ObjectCount    uint32
}

type PassDesc struct {
	Name string
	// Extent fixes the render area. The zero value follows the swapchain.
	Extent      md.Extent
	Attachments []AttachmentDesc
	// Dependencies overrides the generated subpass dependencies when non-nil.
	Dependencies []md.SubpassDependency
	Pipelines    []md.PipelineDesc
	Bindings     []BindingDesc
	Draws        []DrawDesc
}

type AttachmentDesc = md.AttachmentDesc

// Fixed reports whether the pass keeps its extent across swapchain recreation.
func (p *PassDesc) Fixed() bool {
	return !p.Extent.IsZero()
}

func (p *PassDesc) presents() bool {
	for _, a := range p.Attachments {
		if a.Usage == md.ATTACHMENT_USAGE_PRESENT {
			return true
		}
	}
	return false
}

func (p *PassDesc) attachment(name string) (md.AttachmentDesc, bool) {
	for _, a := range p.Attachments {
		if a.Name == name {
			return a, true
		}
	}
	return md.AttachmentDesc{}, false
}

func (g *RenderGraph) uniform(name string) (UniformDesc, bool) {
	for _, u := range g.Uniforms {
		if u.Name == name {
			return u, true
		}
	}
	return UniformDesc{}, false
}

// Shaders lists every shader named by a pipeline, once, in declaration order.
func (g *RenderGraph) Shaders() []string {
	var names []string
	seen := make(map[string]bool)
	for _, p := range g.Passes {
		for _, pl := range p.Pipelines {
			if pl.Shader != "" && !seen[pl.Shader] {
				seen[pl.Shader] = true
				names = append(names, pl.Shader)
			}
		}
	}
	return names
}

func (g *RenderGraph) passIndex(name string) int {
	for i := range g.Passes {
		if g.Passes[i].Name == name {
			return i
		}
	}
	return -1
}

// Validate checks that the graph can be built: names are unique, only the last
// pass presents, and every sampled attachment is produced by an earlier pass.
func (g *RenderGraph) Validate() error {
	if len(g.Passes) == 0 {
		return core.NewProgrammerError("render graph %q has no passes", g.Name)
	}
	if len(g.Queues) > 0 && !g.Queues[0].Capabilities.Has(md.QUEUE_CAPABILITY_GRAPHICS|md.QUEUE_CAPABILITY_PRESENT) {
		return core.NewProgrammerError("render graph %q: first queue must support graphics and present", g.Name)
	}

	meshes := map[string]bool{}
	for _, m := range g.Meshes {
		if meshes[m.Name] {
			return core.NewProgrammerError("mesh %q declared twice", m.Name)
		}
		if len(m.Vertices) == 0 {
			return core.NewProgrammerError("mesh %q has no vertices", m.Name)
		}
		meshes[m.Name] = true
	}
	uniforms := map[string]bool{}
	for _, u := range g.Uniforms {
		if uniforms[u.Name] {
			return core.NewProgrammerError("uniform %q declared twice", u.Name)
		}
		if u.ElementSize == 0 || u.Count == 0 {
			return core.NewProgrammerError("uniform %q is empty", u.Name)
		}
		uniforms[u.Name] = true
	}

	passes := map[string]bool{}
	for i := range g.Passes {
		p := &g.Passes[i]
		last := i == len(g.Passes)-1
		if passes[p.Name] {
			return core.NewProgrammerError("pass %q declared twice", p.Name)
		}
		passes[p.Name] = true

		if len(p.Attachments) == 0 {
			return core.NewProgrammerError("pass %q has no attachments", p.Name)
		}
		if p.presents() != last {
			if last {
				return core.NewProgrammerError("last pass %q must present", p.Name)
			}
			return core.NewProgrammerError("pass %q presents but is not the last pass", p.Name)
		}
		if last && p.Fixed() {
			return core.NewProgrammerError("presenting pass %q cannot have a fixed extent", p.Name)
		}
		if p.Dependencies != nil && len(p.Dependencies) == 0 {
			core.LogWarn("pass %q declares an empty dependency list", p.Name)
		}
		names := map[string]bool{}
		for _, a := range p.Attachments {
			if names[a.Name] {
				return core.NewProgrammerError("pass %q: attachment %q declared twice", p.Name, a.Name)
			}
			names[a.Name] = true
			if a.Usage == md.ATTACHMENT_USAGE_PRESENT && a.Format != md.FORMAT_SWAPCHAIN {
				return core.NewProgrammerError("pass %q: presented attachment %q must use the swapchain format", p.Name, a.Name)
			}
		}

		pipelines := map[string]bool{}
		for _, pl := range p.Pipelines {
			if pipelines[pl.Name] {
				return core.NewProgrammerError("pass %q: pipeline %q declared twice", p.Name, pl.Name)
			}
			pipelines[pl.Name] = true
		}

		bindings := map[uint32]bool{}
		dynamic := map[string]bool{}
		for _, b := range p.Bindings {
			if bindings[b.Binding] {
				return core.NewProgrammerError("pass %q: binding %d declared twice", p.Name, b.Binding)
			}
			bindings[b.Binding] = true
			switch {
			case b.Source != nil && b.Uniform != "":
				return core.NewProgrammerError("pass %q: binding %d sets both a uniform and a source", p.Name, b.Binding)
			case b.Source != nil:
				src := g.passIndex(b.Source.Pass)
				if src < 0 || src >= i {
					return core.NewProgrammerError("pass %q samples %q which is not an earlier pass", p.Name, b.Source.Pass)
				}
				a, ok := g.Passes[src].attachment(b.Source.Attachment)
				if !ok {
					return core.NewProgrammerError("pass %q samples unknown attachment %s/%s", p.Name, b.Source.Pass, b.Source.Attachment)
				}
				if a.Usage != md.ATTACHMENT_USAGE_SAMPLED {
					return core.NewProgrammerError("pass %q samples %s/%s which is not declared sampled", p.Name, b.Source.Pass, b.Source.Attachment)
				}
			case b.Uniform != "":
				u, ok := g.uniform(b.Uniform)
				if !ok {
					return core.NewProgrammerError("pass %q binds unknown uniform %q", p.Name, b.Uniform)
				}
				if u.Dynamic {
					dynamic[u.Name] = true
				}
			default:
				return core.NewProgrammerError("pass %q: binding %d has no resource", p.Name, b.Binding)
			}
		}

		for _, d := range p.Draws {
			if !pipelines[d.Pipeline] {
				return core.NewProgrammerError("pass %q draws with unknown pipeline %q", p.Name, d.Pipeline)
			}
			if d.Mesh != "" && !meshes[d.Mesh] {
				return core.NewProgrammerError("pass %q draws unknown mesh %q", p.Name, d.Mesh)
			}
			if d.Mesh == "" && d.VertexCount == 0 {
				return core.NewProgrammerError("pass %q: draw without mesh needs a vertex count", p.Name)
			}
			if d.DynamicUniform != "" {
				if !dynamic[d.DynamicUniform] {
					return core.NewProgrammerError("pass %q: %q is not a dynamic uniform bound by the pass", p.Name, d.DynamicUniform)
				}
				u, _ := g.uniform(d.DynamicUniform)
				if d.FirstObject+max(d.ObjectCount, 1) > u.Count {
					return core.NewProgrammerError("pass %q draws objects past the end of %q", p.Name, u.Name)
				}
			}
		}
	}
	return nil
}
