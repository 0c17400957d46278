package fakegpu

import (
	"fmt"
	"math"

	"github.com/spaghettifunk/vkdemos/engine/core"
	"github.com/spaghettifunk/vkdemos/engine/renderer"
	md "github.com/spaghettifunk/vkdemos/engine/renderer/metadata"
)

type commandBufferState int

const (
	commandBufferReady commandBufferState = iota
	commandBufferRecording
	commandBufferEnded
	commandBufferFreed
)

// Undefined is what a sample of an image that is not yet visible returns.
var Undefined = [4]float32{1, 0, 1, 1}

// executor is the state of one command buffer replay.
type executor struct {
	gpu      *GPU
	label    string
	fb       *Framebuffer
	pipeline *Pipeline
	set      *DescriptorSet
	passes   []string
}

type op func(ex *executor)

type CommandBuffer struct {
	gpu   *GPU
	label string
	state commandBufferState
	ops   []op
}

func (g *GPU) AllocateCommandBuffers(name string, count int) ([]renderer.CommandBuffer, error) {
	out := make([]renderer.CommandBuffer, 0, count)
	for i := 0; i < count; i++ {
		if err := g.countCreate("command buffer"); err != nil {
			return nil, err
		}
		out = append(out, &CommandBuffer{gpu: g, label: fmt.Sprintf("%s#%d", name, i)})
	}
	return out, nil
}

func (c *CommandBuffer) Label() string { return c.label }

func (c *CommandBuffer) Begin(singleUse, simultaneousUse bool) error {
	if c.state == commandBufferRecording || c.state == commandBufferFreed {
		return core.NewProgrammerError("begin of command buffer %q in state %d", c.label, c.state)
	}
	c.ops = nil
	c.state = commandBufferRecording
	return nil
}

func (c *CommandBuffer) record(o op) {
	if c.state != commandBufferRecording {
		c.gpu.mu.Lock()
		c.gpu.hazard("%s: command recorded outside of Begin/End", c.label)
		c.gpu.mu.Unlock()
		return
	}
	c.ops = append(c.ops, o)
}

func (c *CommandBuffer) End() error {
	if c.state != commandBufferRecording {
		return core.NewProgrammerError("end of command buffer %q that is not recording", c.label)
	}
	if err := c.gpu.fail("command buffer end"); err != nil {
		return err
	}
	c.state = commandBufferEnded
	return nil
}

func (c *CommandBuffer) Free() {
	c.state = commandBufferFreed
	c.ops = nil
	c.gpu.countDestroy("command buffer")
}

// execute replays the recorded commands. Called with gpu.mu held.
func (c *CommandBuffer) execute(g *GPU) []string {
	ex := &executor{gpu: g, label: c.label}
	for _, o := range c.ops {
		o(ex)
	}
	return ex.passes
}

func (c *CommandBuffer) BeginRenderPass(pass renderer.RenderPass, framebuffer renderer.Framebuffer, extent md.Extent) {
	rp := pass.(*RenderPass)
	fb := framebuffer.(*Framebuffer)
	c.record(func(ex *executor) {
		if ex.fb != nil {
			ex.gpu.hazard("%s: render pass %q begun inside another", ex.label, rp.desc.Name)
		}
		if fb.pass != rp {
			ex.gpu.hazard("%s: framebuffer was not created for render pass %q", ex.label, rp.desc.Name)
		}
		if !hasDependency(rp.desc.Dependencies, md.SUBPASS_EXTERNAL, 0) {
			ex.gpu.hazard("%s: render pass %q has no external to subpass dependency", ex.label, rp.desc.Name)
		}
		for k, img := range fb.attachments {
			if img.destroyed {
				ex.gpu.hazard("%s: render pass %q renders to destroyed image %q", ex.label, rp.desc.Name, img.desc.Label)
			}
			a := rp.desc.Attachments[k]
			if a.Kind == md.ATTACHMENT_KIND_DEPTH {
				img.layout = md.IMAGE_LAYOUT_DEPTH_STENCIL_ATTACHMENT
				img.value = [4]float32{a.Clear.Depth, 0, 0, 0}
			} else {
				img.layout = md.IMAGE_LAYOUT_COLOR_ATTACHMENT
				img.value = a.Clear.Color
			}
			img.visible = false
		}
		ex.fb = fb
		ex.passes = append(ex.passes, rp.desc.Name)
	})
}

func (c *CommandBuffer) BindPipeline(pipeline renderer.Pipeline) {
	p := pipeline.(*Pipeline)
	c.record(func(ex *executor) {
		if ex.fb == nil || ex.fb.pass != p.pass {
			ex.gpu.hazard("%s: pipeline %q bound outside of its render pass", ex.label, p.desc.Name)
		}
		ex.pipeline = p
		ex.set = nil
	})
}

func (c *CommandBuffer) BindDescriptorSet(pipeline renderer.Pipeline, set renderer.DescriptorSet, dynamicOffsets []uint32) {
	p := pipeline.(*Pipeline)
	s := set.(*DescriptorSet)
	offsets := append([]uint32(nil), dynamicOffsets...)
	c.record(func(ex *executor) {
		if s.layout != p.layout {
			ex.gpu.hazard("%s: descriptor set layout does not match pipeline %q", ex.label, p.desc.Name)
		}
		if len(offsets) != s.layout.dynamicCount() {
			ex.gpu.hazard("%s: %d dynamic offsets for %d dynamic bindings", ex.label, len(offsets), s.layout.dynamicCount())
		}
		k := 0
		for _, b := range s.layout.bindings {
			if b.Type != md.DESCRIPTOR_TYPE_UNIFORM_BUFFER_DYNAMIC || k >= len(offsets) {
				continue
			}
			off := uint64(offsets[k])
			k++
			w, ok := s.writes[b.Binding]
			if !ok {
				continue
			}
			if off%ex.gpu.opts.Alignment != 0 {
				ex.gpu.hazard("%s: dynamic offset %d is not aligned to %d", ex.label, off, ex.gpu.opts.Alignment)
			}
			if off+w.Range > w.Buffer.Desc().Size {
				ex.gpu.hazard("%s: dynamic offset %d reads past the end of %q", ex.label, off, w.Buffer.Desc().Label)
			}
		}
		ex.set = s
	})
}

func (c *CommandBuffer) BindVertexBuffer(buffer renderer.Buffer) {
	b := buffer.(*Buffer)
	c.record(func(ex *executor) {
		if b.destroyed {
			ex.gpu.hazard("%s: destroyed vertex buffer %q bound", ex.label, b.desc.Label)
		}
	})
}

func (c *CommandBuffer) BindIndexBuffer(buffer renderer.Buffer) {
	b := buffer.(*Buffer)
	c.record(func(ex *executor) {
		if b.destroyed {
			ex.gpu.hazard("%s: destroyed index buffer %q bound", ex.label, b.desc.Label)
		}
	})
}

func (c *CommandBuffer) Draw(vertexCount uint32) {
	c.record(func(ex *executor) { ex.draw() })
}

func (c *CommandBuffer) DrawIndexed(indexCount uint32) {
	c.record(func(ex *executor) { ex.draw() })
}

// draw runs the passthrough shader: every color attachment receives the sum of
// the sampled inputs. Draws with no sampled inputs leave the clear value.
func (ex *executor) draw() {
	if ex.fb == nil || ex.pipeline == nil {
		ex.gpu.hazard("%s: draw outside of a render pass or without a pipeline", ex.label)
		return
	}
	if len(ex.pipeline.layout.bindings) > 0 && ex.set == nil {
		ex.gpu.hazard("%s: draw with pipeline %q without a descriptor set", ex.label, ex.pipeline.desc.Name)
		return
	}
	var sum [4]float32
	sampled := 0
	if ex.set != nil {
		for _, b := range ex.set.layout.bindings {
			if b.Type != md.DESCRIPTOR_TYPE_COMBINED_IMAGE_SAMPLER {
				continue
			}
			img := ex.set.writes[b.Binding].Image.(*Image)
			v := img.value
			if !img.visible || (img.layout != md.IMAGE_LAYOUT_SHADER_READ_ONLY && img.layout != md.IMAGE_LAYOUT_DEPTH_STENCIL_READ_ONLY) {
				ex.gpu.hazard("%s: pipeline %q samples %q before its writes are visible", ex.label, ex.pipeline.desc.Name, img.desc.Label)
				v = Undefined
			}
			for i := range sum {
				sum[i] += v[i]
			}
			sampled++
		}
	}
	if sampled == 0 {
		return
	}
	for k, img := range ex.fb.attachments {
		if ex.fb.pass.desc.Attachments[k].Kind == md.ATTACHMENT_KIND_COLOR {
			img.value = sum
		}
	}
}

func (c *CommandBuffer) EndRenderPass() {
	c.record(func(ex *executor) {
		if ex.fb == nil {
			ex.gpu.hazard("%s: end of render pass that was not begun", ex.label)
			return
		}
		rp := ex.fb.pass
		for k, img := range ex.fb.attachments {
			a := rp.desc.Attachments[k]
			img.layout = rp.desc.FinalLayouts[k]
			switch a.Usage {
			case md.ATTACHMENT_USAGE_SAMPLED:
				img.visible = writesVisibleToShaders(rp.desc.Dependencies, a.Kind)
			default:
				img.visible = true
			}
		}
		ex.fb = nil
		ex.pipeline = nil
		ex.set = nil
	})
}

func (c *CommandBuffer) CopyBuffer(src, dst renderer.Buffer, size uint64) {
	s := src.(*Buffer)
	d := dst.(*Buffer)
	c.record(func(ex *executor) {
		if s.desc.Usage&md.BUFFER_USAGE_TRANSFER_SRC == 0 || d.desc.Usage&md.BUFFER_USAGE_TRANSFER_DST == 0 {
			ex.gpu.hazard("%s: copy from %q to %q without transfer usage", ex.label, s.desc.Label, d.desc.Label)
		}
		copy(d.data[:size], s.data[:size])
	})
}

func (c *CommandBuffer) PipelineBarrier(barrier renderer.ImageBarrier) {
	img := barrier.Image.(*Image)
	c.record(func(ex *executor) {
		if img.layout != barrier.OldLayout {
			ex.gpu.hazard("%s: barrier on %q expects layout %d, image is in %d", ex.label, img.desc.Label, barrier.OldLayout, img.layout)
		}
		img.layout = barrier.NewLayout
	})
}

// CopyImageToBuffer fills dst with the image value as 8 bit unorm RGBA texels.
func (c *CommandBuffer) CopyImageToBuffer(image renderer.Image, layout md.ImageLayout, dst renderer.Buffer) {
	img := image.(*Image)
	d := dst.(*Buffer)
	c.record(func(ex *executor) {
		if img.layout != md.IMAGE_LAYOUT_TRANSFER_SRC || layout != md.IMAGE_LAYOUT_TRANSFER_SRC {
			ex.gpu.hazard("%s: copy from %q which is not in transfer source layout", ex.label, img.desc.Label)
		}
		texel := [4]byte{}
		for i, v := range img.value {
			texel[i] = byte(math.Round(float64(max(0, min(1, v))) * 255))
		}
		for off := 0; off+4 <= len(d.data); off += 4 {
			copy(d.data[off:], texel[:])
		}
	})
}

func hasDependency(deps []md.SubpassDependency, src, dst int32) bool {
	for _, d := range deps {
		if d.SrcSubpass == src && d.DstSubpass == dst {
			return true
		}
	}
	return false
}

// writesVisibleToShaders reports whether an outgoing dependency makes the
// attachment writes available to fragment shader reads of later passes.
func writesVisibleToShaders(deps []md.SubpassDependency, kind md.AttachmentKind) bool {
	stage, access := md.PIPELINE_STAGE_COLOR_ATTACHMENT_OUTPUT, md.ACCESS_COLOR_ATTACHMENT_WRITE
	if kind == md.ATTACHMENT_KIND_DEPTH {
		stage, access = md.PIPELINE_STAGE_LATE_FRAGMENT_TESTS, md.ACCESS_DEPTH_STENCIL_WRITE
	}
	for _, d := range deps {
		if d.SrcSubpass != 0 || d.DstSubpass != md.SUBPASS_EXTERNAL {
			continue
		}
		if d.SrcStageMask&stage != 0 && d.SrcAccessMask&access != 0 &&
			d.DstStageMask&md.PIPELINE_STAGE_FRAGMENT_SHADER != 0 && d.DstAccessMask&md.ACCESS_SHADER_READ != 0 {
			return true
		}
	}
	return false
}
