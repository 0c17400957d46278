package renderer_test

import (
	"testing"

	"github.com/spaghettifunk/vkdemos/engine/renderer"
	"github.com/spaghettifunk/vkdemos/engine/renderer/fakegpu"
	md "github.com/spaghettifunk/vkdemos/engine/renderer/metadata"
	"github.com/stretchr/testify/require"
)

var (
	black = [4]float32{0, 0, 0, 1}
	white = [4]float32{1, 1, 1, 1}
)

// producerConsumer is pass "a" clearing attachment x, then pass "b" sampling x
// into the presented image.
func producerConsumer(aExtent md.Extent) *renderer.RenderGraph {
	return &renderer.RenderGraph{
		Name:     "producer-consumer",
		Readback: true,
		Passes: []renderer.PassDesc{
			{
				Name:   "a",
				Extent: aExtent,
				Attachments: []renderer.AttachmentDesc{
					{Name: "x", Kind: md.ATTACHMENT_KIND_COLOR, Format: md.FORMAT_RGBA8_UNORM, Usage: md.ATTACHMENT_USAGE_SAMPLED, Clear: md.ClearValue{Color: black}},
				},
			},
			{
				Name: "b",
				Attachments: []renderer.AttachmentDesc{
					{Name: "color", Kind: md.ATTACHMENT_KIND_COLOR, Format: md.FORMAT_SWAPCHAIN, Usage: md.ATTACHMENT_USAGE_PRESENT, Clear: md.ClearValue{Color: white}},
				},
				Pipelines: []md.PipelineDesc{{Name: "blit", Shader: "blit"}},
				Bindings: []renderer.BindingDesc{
					{Binding: 0, Stages: md.SHADER_STAGE_FRAGMENT, Source: &renderer.AttachmentRef{Pass: "a", Attachment: "x"}},
				},
				Draws: []renderer.DrawDesc{{Pipeline: "blit", VertexCount: 3}},
			},
		},
	}
}

// scene is a single presenting pass drawing three objects of a mesh through a
// dynamic uniform of 68 byte elements.
func scene() *renderer.RenderGraph {
	return &renderer.RenderGraph{
		Name: "scene",
		Queues: []md.QueueRequirement{
			{Capabilities: md.QUEUE_CAPABILITY_GRAPHICS | md.QUEUE_CAPABILITY_PRESENT, Count: 1, Priorities: []float32{1}},
		},
		Meshes: []renderer.MeshDesc{
			{Name: "quad", Vertices: make([]byte, 4*12), VertexStride: 12, Indices: []uint16{0, 1, 2, 2, 3, 0}},
		},
		Uniforms: []renderer.UniformDesc{
			{Name: "camera", ElementSize: 64, Count: 1},
			{Name: "objects", ElementSize: 68, Count: 3, Dynamic: true},
		},
		Passes: []renderer.PassDesc{
			{
				Name: "main",
				Attachments: []renderer.AttachmentDesc{
					{Name: "color", Kind: md.ATTACHMENT_KIND_COLOR, Format: md.FORMAT_SWAPCHAIN, Usage: md.ATTACHMENT_USAGE_PRESENT},
					{Name: "depth", Kind: md.ATTACHMENT_KIND_DEPTH, Format: md.FORMAT_DEPTH, Usage: md.ATTACHMENT_USAGE_ATTACHMENT_ONLY, Clear: md.ClearValue{Depth: 1}},
				},
				Pipelines: []md.PipelineDesc{{Name: "lit", Shader: "lit", VertexStride: 12, DepthTest: true, DepthWrite: true}},
				Bindings: []renderer.BindingDesc{
					{Binding: 0, Stages: md.SHADER_STAGE_VERTEX, Uniform: "camera"},
					{Binding: 1, Stages: md.SHADER_STAGE_VERTEX | md.SHADER_STAGE_FRAGMENT, Uniform: "objects"},
				},
				Draws: []renderer.DrawDesc{{Pipeline: "lit", Mesh: "quad", DynamicUniform: "objects", ObjectCount: 3}},
			},
		},
	}
}

func build(t *testing.T, g *fakegpu.GPU, w *fakegpu.Window, graph *renderer.RenderGraph, framesInFlight int) *renderer.Orchestrator {
	t.Helper()
	o, err := renderer.NewOrchestrator(g, w, graph, framesInFlight)
	require.NoError(t, err)
	require.NoError(t, o.Build())
	return o
}

func texel(v [4]float32) []byte {
	out := make([]byte, 4)
	for i, c := range v {
		out[i] = byte(c * 255)
	}
	return out
}
