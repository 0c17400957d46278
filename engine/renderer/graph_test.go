package renderer

import (
	"testing"

	"github.com/spaghettifunk/vkdemos/engine/core"
	md "github.com/spaghettifunk/vkdemos/engine/renderer/metadata"
	"github.com/stretchr/testify/assert"
)

func validGraph() *RenderGraph {
	return &RenderGraph{
		Name:     "valid",
		Uniforms: []UniformDesc{{Name: "objects", ElementSize: 64, Count: 2, Dynamic: true}},
		Meshes:   []MeshDesc{{Name: "cube", Vertices: make([]byte, 36), VertexStride: 12}},
		Passes: []PassDesc{
			{
				Name:   "shadow",
				Extent: md.Extent{Width: 64, Height: 64},
				Attachments: []AttachmentDesc{
					{Name: "depth", Kind: md.ATTACHMENT_KIND_DEPTH, Format: md.FORMAT_DEPTH, Usage: md.ATTACHMENT_USAGE_SAMPLED},
				},
				Pipelines: []md.PipelineDesc{{Name: "depth"}},
				Bindings:  []BindingDesc{{Binding: 0, Uniform: "objects"}},
				Draws:     []DrawDesc{{Pipeline: "depth", Mesh: "cube", DynamicUniform: "objects", ObjectCount: 2}},
			},
			{
				Name: "final",
				Attachments: []AttachmentDesc{
					{Name: "color", Kind: md.ATTACHMENT_KIND_COLOR, Format: md.FORMAT_SWAPCHAIN, Usage: md.ATTACHMENT_USAGE_PRESENT},
				},
				Pipelines: []md.PipelineDesc{{Name: "lit"}},
				Bindings:  []BindingDesc{{Binding: 0, Source: &AttachmentRef{Pass: "shadow", Attachment: "depth"}}},
				Draws:     []DrawDesc{{Pipeline: "lit", VertexCount: 3}},
			},
		},
	}
}

func TestValidateAcceptsWellFormedGraph(t *testing.T) {
	assert.NoError(t, validGraph().Validate())
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]func(g *RenderGraph){
		"no passes":          func(g *RenderGraph) { g.Passes = nil },
		"last not presenting": func(g *RenderGraph) { g.Passes = g.Passes[:1] },
		"present not last": func(g *RenderGraph) {
			g.Passes[0].Attachments = append(g.Passes[0].Attachments, AttachmentDesc{Name: "c", Format: md.FORMAT_SWAPCHAIN, Usage: md.ATTACHMENT_USAGE_PRESENT})
		},
		"fixed present":       func(g *RenderGraph) { g.Passes[1].Extent = md.Extent{Width: 1, Height: 1} },
		"unknown source pass": func(g *RenderGraph) { g.Passes[1].Bindings[0].Source.Pass = "nope" },
		"forward reference": func(g *RenderGraph) {
			g.Passes[0].Bindings = append(g.Passes[0].Bindings, BindingDesc{Binding: 1, Source: &AttachmentRef{Pass: "final", Attachment: "color"}})
		},
		"source not sampled": func(g *RenderGraph) {
			g.Passes[0].Attachments[0].Usage = md.ATTACHMENT_USAGE_ATTACHMENT_ONLY
		},
		"unknown uniform":     func(g *RenderGraph) { g.Passes[0].Bindings[0].Uniform = "nope" },
		"both resources":      func(g *RenderGraph) { g.Passes[0].Bindings[0].Source = &AttachmentRef{} },
		"duplicate binding":   func(g *RenderGraph) { g.Passes[0].Bindings = append(g.Passes[0].Bindings, BindingDesc{Binding: 0, Uniform: "objects"}) },
		"unknown pipeline":    func(g *RenderGraph) { g.Passes[0].Draws[0].Pipeline = "nope" },
		"unknown mesh":        func(g *RenderGraph) { g.Passes[0].Draws[0].Mesh = "nope" },
		"too many objects":    func(g *RenderGraph) { g.Passes[0].Draws[0].ObjectCount = 3 },
		"empty uniform":       func(g *RenderGraph) { g.Uniforms[0].Count = 0 },
		"present format":      func(g *RenderGraph) { g.Passes[1].Attachments[0].Format = md.FORMAT_RGBA8_UNORM },
		"draw without vertices": func(g *RenderGraph) { g.Passes[1].Draws[0].VertexCount = 0 },
		"first queue lacks present": func(g *RenderGraph) {
			g.Queues = []md.QueueRequirement{{Capabilities: md.QUEUE_CAPABILITY_GRAPHICS, Count: 1}}
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			g := validGraph()
			mutate(g)
			assert.ErrorIs(t, g.Validate(), core.ErrProgrammer)
		})
	}
}

func TestLifecycleResizeFlag(t *testing.T) {
	l := NewLifecycle(nil, nil)
	assert.False(t, l.Resized())
	l.MarkResized()
	assert.True(t, l.Resized())
	assert.False(t, l.Resized())
	assert.Equal(t, "running", l.State().String())
}

func TestShadersAreListedOnce(t *testing.T) {
	g := validGraph()
	g.Passes[0].Pipelines[0].Shader = "depth"
	g.Passes[1].Pipelines = []md.PipelineDesc{{Name: "lit", Shader: "lit"}, {Name: "lamp", Shader: "depth"}, {Name: "none"}}
	assert.Equal(t, []string{"depth", "lit"}, g.Shaders())
}
