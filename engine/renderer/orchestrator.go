package renderer

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/spaghettifunk/vkdemos/engine/core"
	md "github.com/spaghettifunk/vkdemos/engine/renderer/metadata"
)

type mesh struct {
	vertices    Buffer
	indices     Buffer
	vertexCount uint32
	indexCount  uint32
}

type pass struct {
	desc       *PassDesc
	index      int
	extent     md.Extent
	bindings   []BindingDesc
	layout     DescriptorSetLayout
	renderPass RenderPass
	pipelines  map[string]Pipeline
	// targets[image][attachment]; presented attachments alias swapchain images.
	targets      [][]Image
	framebuffers []Framebuffer
	sets         []DescriptorSet
	imageCount   uint32
}

// PassInfo describes a built pass.
type PassInfo struct {
	Name    string
	Extent  md.Extent
	Fixed   bool
	Formats []md.Format
	// Labels of the attachments of swapchain image 0.
	Labels []string
}

// Orchestrator turns a RenderGraph into GPU objects, records one offscreen and
// one final command buffer per swapchain image, and drives each frame through
// the frame ring. Permanent resources (the ring, meshes, sampler and descriptor
// set layouts) live until Destroy; everything that depends on the swapchain is
// rebuilt by Recreate.
type Orchestrator struct {
	backend        Backend
	graph          *RenderGraph
	framesInFlight int
	lifecycle      *Lifecycle
	clock          *core.Clock
	id             string
	frameNumber    uint64
	built          bool

	// Permanent.
	ring    *FrameRing
	meshes  map[string]*mesh
	sampler Sampler
	passes  []*pass

	// Swapchain dependent.
	swapchain      Swapchain
	uniformBuffers []map[string]Buffer
	uniforms       []*UniformSet
	pool           DescriptorPool
	offscreen      []CommandBuffer
	final          []CommandBuffer
	readback       []Buffer
}

func NewOrchestrator(backend Backend, window Window, graph *RenderGraph, framesInFlight int) (*Orchestrator, error) {
	if err := graph.Validate(); err != nil {
		return nil, err
	}
	if framesInFlight < 1 {
		return nil, core.NewProgrammerError("frames in flight must be at least 1, got %d", framesInFlight)
	}
	return &Orchestrator{
		backend:        backend,
		graph:          graph,
		framesInFlight: framesInFlight,
		lifecycle:      NewLifecycle(window, backend),
		clock:          core.NewClock(),
		id:             uuid.NewString(),
		meshes:         make(map[string]*mesh),
	}, nil
}

func (o *Orchestrator) Lifecycle() *Lifecycle { return o.lifecycle }
func (o *Orchestrator) Ring() *FrameRing      { return o.ring }
func (o *Orchestrator) Swapchain() Swapchain  { return o.swapchain }
func (o *Orchestrator) Graph() *RenderGraph   { return o.graph }

// Passes describes the built passes in submission order.
func (o *Orchestrator) Passes() []PassInfo {
	out := make([]PassInfo, 0, len(o.passes))
	for _, p := range o.passes {
		info := PassInfo{Name: p.desc.Name, Extent: p.extent, Fixed: p.desc.Fixed()}
		for _, a := range p.desc.Attachments {
			info.Formats = append(info.Formats, a.Format)
		}
		if len(p.targets) > 0 {
			for _, img := range p.targets[0] {
				info.Labels = append(info.Labels, img.Desc().Label)
			}
		}
		out = append(out, info)
	}
	return out
}

// Build creates every resource of the graph. It blocks while the window is minimized.
func (o *Orchestrator) Build() error {
	if o.built {
		return core.NewProgrammerError("render graph %q built twice", o.graph.Name)
	}
	extent := o.lifecycle.WaitForDrawableExtent()
	if err := o.buildPermanent(); err != nil {
		return err
	}
	if err := o.buildSwapchainResources(extent, nil); err != nil {
		return err
	}
	o.ring.ResetImages(o.swapchain.ImageCount())
	o.built = true
	o.clock.Start()
	core.LogInfo("Render graph %q built (%s): %d passes, %d swapchain images, %d frames in flight",
		o.graph.Name, o.id, len(o.passes), o.swapchain.ImageCount(), o.framesInFlight)
	return nil
}

func (o *Orchestrator) buildPermanent() error {
	ring, err := NewFrameRing(o.backend, o.framesInFlight)
	if err != nil {
		return err
	}
	o.ring = ring

	if err := o.uploadMeshes(); err != nil {
		return err
	}

	sampler, err := o.backend.CreateSampler()
	if err != nil {
		return core.NewCreationError("attachment sampler", err)
	}
	o.sampler = sampler

	for i := range o.graph.Passes {
		desc := &o.graph.Passes[i]
		p := &pass{desc: desc, index: i, pipelines: make(map[string]Pipeline)}
		p.bindings = append([]BindingDesc(nil), desc.Bindings...)
		sort.Slice(p.bindings, func(a, b int) bool { return p.bindings[a].Binding < p.bindings[b].Binding })

		layoutBindings := make([]md.DescriptorBinding, 0, len(p.bindings))
		for _, b := range p.bindings {
			layoutBindings = append(layoutBindings, md.DescriptorBinding{
				Binding: b.Binding,
				Type:    o.descriptorType(b),
				Stages:  b.Stages,
			})
		}
		layout, err := o.backend.CreateDescriptorSetLayout(layoutBindings)
		if err != nil {
			return core.NewCreationError(fmt.Sprintf("descriptor set layout %s", desc.Name), err)
		}
		p.layout = layout
		o.passes = append(o.passes, p)
	}
	return nil
}

type upload struct {
	staging       Buffer
	commandBuffer CommandBuffer
	fence         Fence
}

// uploadMeshes stages every mesh into device local memory. Each copy gets its
// own fence and all fences are waited on together.
func (o *Orchestrator) uploadMeshes() error {
	var uploads []upload
	for _, m := range o.graph.Meshes {
		built := &mesh{vertexCount: uint32(len(m.Vertices)) / max(m.VertexStride, 1)}
		vb, up, err := o.stageBuffer(m.Name+"/vertices", m.Vertices, md.BUFFER_USAGE_VERTEX)
		if err != nil {
			return err
		}
		built.vertices = vb
		uploads = append(uploads, up)

		if len(m.Indices) > 0 {
			data, err := binary.Append(nil, binary.LittleEndian, m.Indices)
			if err != nil {
				return core.NewProgrammerError("mesh %q indices: %v", m.Name, err)
			}
			ib, up, err := o.stageBuffer(m.Name+"/indices", data, md.BUFFER_USAGE_INDEX)
			if err != nil {
				return err
			}
			built.indices = ib
			built.indexCount = uint32(len(m.Indices))
			uploads = append(uploads, up)
		}
		o.meshes[m.Name] = built
	}

	for _, up := range uploads {
		if err := up.fence.Wait(math.MaxUint64); err != nil {
			return errors.Wrap(err, "wait mesh upload")
		}
	}
	for _, up := range uploads {
		up.fence.Destroy()
		up.commandBuffer.Free()
		if err := up.staging.Destroy(); err != nil {
			return err
		}
	}
	return nil
}

func (o *Orchestrator) stageBuffer(label string, data []byte, usage md.BufferUsage) (Buffer, upload, error) {
	size := uint64(len(data))
	staging, err := o.backend.CreateBuffer(md.BufferDesc{
		Label:  label + "/staging",
		Size:   size,
		Usage:  md.BUFFER_USAGE_TRANSFER_SRC,
		Memory: md.MEMORY_PROPERTY_HOST_VISIBLE | md.MEMORY_PROPERTY_HOST_COHERENT,
	})
	if err != nil {
		return nil, upload{}, core.NewCreationError("staging buffer "+label, err)
	}
	if err := staging.Write(0, data); err != nil {
		return nil, upload{}, err
	}
	dst, err := o.backend.CreateBuffer(md.BufferDesc{
		Label:  label,
		Size:   size,
		Usage:  usage | md.BUFFER_USAGE_TRANSFER_DST,
		Memory: md.MEMORY_PROPERTY_DEVICE_LOCAL,
	})
	if err != nil {
		return nil, upload{}, core.NewCreationError("buffer "+label, err)
	}

	cbs, err := o.backend.AllocateCommandBuffers("upload "+label, 1)
	if err != nil {
		return nil, upload{}, core.NewCreationError("upload command buffer", err)
	}
	cb := cbs[0]
	if err := cb.Begin(true, false); err != nil {
		return nil, upload{}, err
	}
	cb.CopyBuffer(staging, dst, size)
	if err := cb.End(); err != nil {
		return nil, upload{}, core.NewCreationError("upload command buffer "+label, err)
	}
	fence, err := o.backend.CreateFence(false)
	if err != nil {
		return nil, upload{}, core.NewCreationError("upload fence", err)
	}
	if err := o.backend.GraphicsQueue().Submit(Submission{CommandBuffer: cb}, fence); err != nil {
		return nil, upload{}, errors.Wrapf(err, "submit upload of %s", label)
	}
	return dst, upload{staging: staging, commandBuffer: cb, fence: fence}, nil
}

func (o *Orchestrator) descriptorType(b BindingDesc) md.DescriptorType {
	if b.Source != nil {
		return md.DESCRIPTOR_TYPE_COMBINED_IMAGE_SAMPLER
	}
	if u, _ := o.graph.uniform(b.Uniform); u.Dynamic {
		return md.DESCRIPTOR_TYPE_UNIFORM_BUFFER_DYNAMIC
	}
	return md.DESCRIPTOR_TYPE_UNIFORM_BUFFER
}

// buildSwapchainResources creates, in order: swapchain, attachments,
// renderpasses, framebuffers, pipelines, uniform buffers, descriptor pool and
// sets, and command buffers. Fixed extent passes already built for the same
// image count are kept as they are.
func (o *Orchestrator) buildSwapchainResources(extent md.Extent, old Swapchain) error {
	sc, err := o.backend.CreateSwapchain(extent, old)
	if err != nil {
		return core.NewCreationError("swapchain", err)
	}
	if old != nil {
		old.Destroy()
	}
	o.swapchain = sc
	count := sc.ImageCount()

	for _, p := range o.passes {
		if p.desc.Fixed() && p.renderPass != nil {
			if p.imageCount == count {
				continue
			}
			core.LogWarn("Swapchain image count changed from %d to %d, rebuilding fixed pass %q", p.imageCount, count, p.desc.Name)
			o.destroyPassTargets(p)
			if err := o.buildPassTargets(p, count); err != nil {
				return err
			}
			continue
		}
		if err := o.buildPass(p, count); err != nil {
			return err
		}
	}

	if err := o.createUniformBuffers(count); err != nil {
		return err
	}
	if err := o.createDescriptorSets(count); err != nil {
		return err
	}
	if o.graph.Readback {
		if err := o.createReadbackBuffers(count); err != nil {
			return err
		}
	}
	return o.recordCommandBuffers(count)
}

func (o *Orchestrator) buildPass(p *pass, count uint32) error {
	if p.desc.Fixed() {
		p.extent = p.desc.Extent
	} else {
		p.extent = o.swapchain.Extent()
	}

	rpDesc := md.RenderPassDesc{
		Name:         p.desc.Name,
		Attachments:  p.desc.Attachments,
		Dependencies: p.desc.Dependencies,
	}
	if rpDesc.Dependencies == nil {
		rpDesc.Dependencies = BuildDependencies(p.desc.Attachments)
	}
	for _, a := range p.desc.Attachments {
		rpDesc.FinalLayouts = append(rpDesc.FinalLayouts, FinalLayout(a))
	}
	rp, err := o.backend.CreateRenderPass(rpDesc)
	if err != nil {
		return core.NewCreationError("renderpass "+p.desc.Name, err)
	}
	p.renderPass = rp

	if err := o.buildPassTargets(p, count); err != nil {
		return err
	}

	for i := range p.desc.Pipelines {
		pd := &p.desc.Pipelines[i]
		pl, err := o.backend.CreatePipeline(pd, rp, p.layout, p.extent)
		if err != nil {
			return core.NewCreationError(fmt.Sprintf("pipeline %s/%s", p.desc.Name, pd.Name), err)
		}
		p.pipelines[pd.Name] = pl
	}
	return nil
}

// buildPassTargets creates the attachment images and framebuffers of every swapchain image.
func (o *Orchestrator) buildPassTargets(p *pass, count uint32) error {
	p.targets = make([][]Image, count)
	p.framebuffers = make([]Framebuffer, count)
	for i := uint32(0); i < count; i++ {
		images := make([]Image, 0, len(p.desc.Attachments))
		for _, a := range p.desc.Attachments {
			if a.Usage == md.ATTACHMENT_USAGE_PRESENT {
				images = append(images, o.swapchain.Image(i))
				continue
			}
			img, err := o.backend.CreateImage(md.ImageDesc{
				Label:   fmt.Sprintf("%s/%s#%d-%s", p.desc.Name, a.Name, i, uuid.NewString()),
				Kind:    a.Kind,
				Format:  a.Format,
				Extent:  p.extent,
				Sampled: a.Usage == md.ATTACHMENT_USAGE_SAMPLED,
			})
			if err != nil {
				return core.NewCreationError(fmt.Sprintf("attachment %s/%s", p.desc.Name, a.Name), err)
			}
			images = append(images, img)
		}
		p.targets[i] = images

		fb, err := o.backend.CreateFramebuffer(p.renderPass, images, p.extent)
		if err != nil {
			return core.NewCreationError(fmt.Sprintf("framebuffer %s#%d", p.desc.Name, i), err)
		}
		p.framebuffers[i] = fb
	}
	p.imageCount = count
	return nil
}

func (o *Orchestrator) createUniformBuffers(count uint32) error {
	align := o.backend.Limits().MinUniformBufferOffsetAlignment
	o.uniformBuffers = make([]map[string]Buffer, count)
	o.uniforms = make([]*UniformSet, count)
	for i := uint32(0); i < count; i++ {
		o.uniformBuffers[i] = make(map[string]Buffer, len(o.graph.Uniforms))
		set := newUniformSet()
		for _, u := range o.graph.Uniforms {
			buf, err := o.backend.CreateBuffer(md.BufferDesc{
				Label:  fmt.Sprintf("%s#%d", u.Name, i),
				Size:   ArenaSize(u.ElementSize, u.Count, align),
				Usage:  md.BUFFER_USAGE_UNIFORM,
				Memory: md.MEMORY_PROPERTY_HOST_VISIBLE | md.MEMORY_PROPERTY_HOST_COHERENT,
			})
			if err != nil {
				return core.NewCreationError("uniform buffer "+u.Name, err)
			}
			arena, err := NewUniformArena(u.Name, buf.Mapped(), u.ElementSize, u.Count, align)
			if err != nil {
				return err
			}
			o.uniformBuffers[i][u.Name] = buf
			set.arenas[u.Name] = arena
		}
		o.uniforms[i] = set
	}
	return nil
}

// descriptorPoolSizes sizes the pool for every pass and image. The pool is never grown.
func (o *Orchestrator) descriptorPoolSizes(count uint32) ([]md.DescriptorPoolSize, uint32) {
	perType := map[md.DescriptorType]uint32{}
	sets := uint32(0)
	for _, p := range o.passes {
		if len(p.bindings) == 0 {
			continue
		}
		sets++
		for _, b := range p.bindings {
			perType[o.descriptorType(b)]++
		}
	}
	var sizes []md.DescriptorPoolSize
	for _, t := range []md.DescriptorType{
		md.DESCRIPTOR_TYPE_UNIFORM_BUFFER,
		md.DESCRIPTOR_TYPE_UNIFORM_BUFFER_DYNAMIC,
		md.DESCRIPTOR_TYPE_COMBINED_IMAGE_SAMPLER,
	} {
		if n := perType[t]; n > 0 {
			sizes = append(sizes, md.DescriptorPoolSize{Type: t, Count: n * count})
		}
	}
	return sizes, sets * count
}

func (o *Orchestrator) createDescriptorSets(count uint32) error {
	sizes, maxSets := o.descriptorPoolSizes(count)
	if maxSets == 0 {
		return nil
	}
	pool, err := o.backend.CreateDescriptorPool(sizes, maxSets)
	if err != nil {
		return core.NewCreationError("descriptor pool", err)
	}
	o.pool = pool

	for _, p := range o.passes {
		p.sets = nil
		if len(p.bindings) == 0 {
			continue
		}
		p.sets = make([]DescriptorSet, count)
		for i := uint32(0); i < count; i++ {
			set, err := pool.Allocate(p.layout)
			if err != nil {
				return core.NewCreationError(fmt.Sprintf("descriptor set %s#%d", p.desc.Name, i), err)
			}
			writes := make([]DescriptorWrite, 0, len(p.bindings))
			for _, b := range p.bindings {
				w := DescriptorWrite{Binding: b.Binding, Type: o.descriptorType(b)}
				if b.Source != nil {
					w.Image = o.sourceImage(*b.Source, i)
					w.Sampler = o.sampler
				} else {
					buf := o.uniformBuffers[i][b.Uniform]
					w.Buffer = buf
					w.Range = buf.Desc().Size
					if w.Type == md.DESCRIPTOR_TYPE_UNIFORM_BUFFER_DYNAMIC {
						w.Range = o.uniforms[i].Get(b.Uniform).ElementSize()
					}
				}
				writes = append(writes, w)
			}
			if err := set.Update(writes); err != nil {
				return err
			}
			p.sets[i] = set
		}
	}
	return nil
}

func (o *Orchestrator) sourceImage(ref AttachmentRef, imageIndex uint32) Image {
	src := o.passes[o.graph.passIndex(ref.Pass)]
	for k, a := range src.desc.Attachments {
		if a.Name == ref.Attachment {
			return src.targets[imageIndex][k]
		}
	}
	return nil
}

func (o *Orchestrator) createReadbackBuffers(count uint32) error {
	ext := o.swapchain.Extent()
	o.readback = make([]Buffer, count)
	for i := uint32(0); i < count; i++ {
		buf, err := o.backend.CreateBuffer(md.BufferDesc{
			Label:  fmt.Sprintf("readback#%d", i),
			Size:   uint64(ext.Width) * uint64(ext.Height) * 4,
			Usage:  md.BUFFER_USAGE_TRANSFER_DST,
			Memory: md.MEMORY_PROPERTY_HOST_VISIBLE | md.MEMORY_PROPERTY_HOST_COHERENT,
		})
		if err != nil {
			return core.NewCreationError("readback buffer", err)
		}
		o.readback[i] = buf
	}
	return nil
}

// recordCommandBuffers records, per swapchain image, every offscreen pass in
// declaration order into one buffer and the presenting pass into another.
func (o *Orchestrator) recordCommandBuffers(count uint32) error {
	last := len(o.passes) - 1
	var err error
	if last > 0 {
		if o.offscreen, err = o.backend.AllocateCommandBuffers("offscreen", int(count)); err != nil {
			return core.NewCreationError("offscreen command buffers", err)
		}
	}
	if o.final, err = o.backend.AllocateCommandBuffers("final", int(count)); err != nil {
		return core.NewCreationError("final command buffers", err)
	}

	for i := uint32(0); i < count; i++ {
		if last > 0 {
			cb := o.offscreen[i]
			if err := cb.Begin(false, true); err != nil {
				return err
			}
			for _, p := range o.passes[:last] {
				o.recordPass(cb, p, i)
			}
			if err := cb.End(); err != nil {
				return core.NewCreationError(fmt.Sprintf("offscreen command buffer #%d", i), err)
			}
		}

		cb := o.final[i]
		if err := cb.Begin(false, true); err != nil {
			return err
		}
		o.recordPass(cb, o.passes[last], i)
		if o.graph.Readback {
			o.recordReadback(cb, i)
		}
		if err := cb.End(); err != nil {
			return core.NewCreationError(fmt.Sprintf("final command buffer #%d", i), err)
		}
	}
	return nil
}

func (o *Orchestrator) recordPass(cb CommandBuffer, p *pass, imageIndex uint32) {
	cb.BeginRenderPass(p.renderPass, p.framebuffers[imageIndex], p.extent)
	for _, d := range p.desc.Draws {
		pl := p.pipelines[d.Pipeline]
		cb.BindPipeline(pl)

		var m *mesh
		if d.Mesh != "" {
			m = o.meshes[d.Mesh]
			cb.BindVertexBuffer(m.vertices)
			if m.indices != nil {
				cb.BindIndexBuffer(m.indices)
			}
		}

		for j := uint32(0); j < max(d.ObjectCount, 1); j++ {
			if p.sets != nil {
				cb.BindDescriptorSet(pl, p.sets[imageIndex], o.dynamicOffsets(p, d, d.FirstObject+j))
			}
			switch {
			case m != nil && m.indices != nil:
				cb.DrawIndexed(m.indexCount)
			case d.VertexCount > 0:
				cb.Draw(d.VertexCount)
			default:
				cb.Draw(m.vertexCount)
			}
		}
	}
	cb.EndRenderPass()
}

// dynamicOffsets returns one offset per dynamic binding of the pass, in binding order.
func (o *Orchestrator) dynamicOffsets(p *pass, d DrawDesc, object uint32) []uint32 {
	var offsets []uint32
	for _, b := range p.bindings {
		if o.descriptorType(b) != md.DESCRIPTOR_TYPE_UNIFORM_BUFFER_DYNAMIC {
			continue
		}
		offset := uint32(0)
		if b.Uniform == d.DynamicUniform {
			offset = object * uint32(o.uniforms[0].Get(b.Uniform).Stride())
		}
		offsets = append(offsets, offset)
	}
	return offsets
}

func (o *Orchestrator) recordReadback(cb CommandBuffer, imageIndex uint32) {
	img := o.swapchain.Image(imageIndex)
	cb.PipelineBarrier(ImageBarrier{
		Image:     img,
		OldLayout: md.IMAGE_LAYOUT_PRESENT_SRC,
		NewLayout: md.IMAGE_LAYOUT_TRANSFER_SRC,
		SrcStage:  md.PIPELINE_STAGE_COLOR_ATTACHMENT_OUTPUT,
		DstStage:  md.PIPELINE_STAGE_TRANSFER,
		SrcAccess: md.ACCESS_COLOR_ATTACHMENT_WRITE,
		DstAccess: md.ACCESS_TRANSFER_READ,
	})
	cb.CopyImageToBuffer(img, md.IMAGE_LAYOUT_TRANSFER_SRC, o.readback[imageIndex])
	cb.PipelineBarrier(ImageBarrier{
		Image:     img,
		OldLayout: md.IMAGE_LAYOUT_TRANSFER_SRC,
		NewLayout: md.IMAGE_LAYOUT_PRESENT_SRC,
		SrcStage:  md.PIPELINE_STAGE_TRANSFER,
		DstStage:  md.PIPELINE_STAGE_BOTTOM_OF_PIPE,
		SrcAccess: md.ACCESS_TRANSFER_READ,
		DstAccess: md.ACCESS_MEMORY_READ,
	})
}

// Readback returns the pixels copied from the presented image after the last
// frame that rendered to imageIndex completed.
func (o *Orchestrator) Readback(imageIndex uint32) ([]byte, error) {
	if !o.graph.Readback {
		return nil, core.NewProgrammerError("render graph %q was built without readback", o.graph.Name)
	}
	if int(imageIndex) >= len(o.readback) {
		return nil, core.NewProgrammerError("readback of image %d out of range", imageIndex)
	}
	if owner := o.ring.ImageOwner(imageIndex); owner != nil {
		if err := owner.Wait(math.MaxUint64); err != nil {
			return nil, err
		}
	}
	data := o.readback[imageIndex].Mapped()
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// NotifyResized flags the framebuffer as resized; the swapchain is rebuilt after the next present.
func (o *Orchestrator) NotifyResized() {
	o.lifecycle.MarkResized()
}

// Draw renders and presents one frame. A stale surface rebuilds the swapchain
// resources and is not reported; any returned error is fatal.
func (o *Orchestrator) Draw() error {
	if !o.built {
		return core.NewProgrammerError("draw called before render graph %q was built", o.graph.Name)
	}
	frame, err := o.ring.AcquireNextFrame(o.swapchain)
	if err != nil {
		if core.IsRecoverable(err) {
			return o.Recreate()
		}
		return err
	}
	idx := frame.ImageIndex

	o.clock.Update()
	if o.graph.UpdateUniformData != nil {
		info := FrameInfo{
			ImageIndex:  idx,
			FrameNumber: o.frameNumber,
			Extent:      o.swapchain.Extent(),
			Elapsed:     o.clock.Elapsed(),
		}
		if err := o.graph.UpdateUniformData(info, o.uniforms[idx]); err != nil {
			return errors.Wrapf(err, "update uniform data of %s", o.graph.Name)
		}
	}

	var offscreen CommandBuffer
	if o.offscreen != nil {
		offscreen = o.offscreen[idx]
	}
	queue := o.backend.GraphicsQueue()
	if err := frame.Submit(queue, offscreen, o.final[idx]); err != nil {
		return err
	}

	err = o.swapchain.Present(queue, frame.Slot.RenderCompleteSemaphore, idx)
	o.ring.Advance()
	o.frameNumber++
	if err != nil && !core.IsRecoverable(err) {
		return err
	}
	if err != nil || o.lifecycle.Resized() {
		return o.Recreate()
	}
	return nil
}

// Recreate rebuilds every swapchain dependent resource. Ring semaphores and
// fences are kept; only the image ownership table is reset.
func (o *Orchestrator) Recreate() error {
	if !o.built {
		return core.NewProgrammerError("recreate called before render graph %q was built", o.graph.Name)
	}
	return o.rebuild(false)
}

// Reload rebuilds every pass, fixed extent ones included, so pipelines pick
// up shader binaries that changed on disk.
func (o *Orchestrator) Reload() error {
	if !o.built {
		return core.NewProgrammerError("reload called before render graph %q was built", o.graph.Name)
	}
	return o.rebuild(true)
}

func (o *Orchestrator) rebuild(all bool) error {
	return o.lifecycle.Recreate(func(extent md.Extent) error {
		if err := o.destroySwapchainResources(all); err != nil {
			return err
		}
		if err := o.buildSwapchainResources(extent, o.swapchain); err != nil {
			return err
		}
		o.ring.ResetImages(o.swapchain.ImageCount())
		return nil
	})
}

// destroySwapchainResources tears down, in reverse creation order, what
// depends on the swapchain. Fixed extent passes survive unless all is set.
// The swapchain itself is kept so it can be handed over as the old swapchain.
func (o *Orchestrator) destroySwapchainResources(all bool) error {
	for _, cb := range o.final {
		cb.Free()
	}
	for _, cb := range o.offscreen {
		cb.Free()
	}
	o.final, o.offscreen = nil, nil

	for _, b := range o.readback {
		if err := b.Destroy(); err != nil {
			return err
		}
	}
	o.readback = nil

	if o.pool != nil {
		o.pool.Destroy()
		o.pool = nil
	}
	for _, p := range o.passes {
		p.sets = nil
	}

	for _, bufs := range o.uniformBuffers {
		for _, b := range bufs {
			if err := b.Destroy(); err != nil {
				return err
			}
		}
	}
	o.uniformBuffers, o.uniforms = nil, nil

	for i := len(o.passes) - 1; i >= 0; i-- {
		p := o.passes[i]
		if p.desc.Fixed() && !all {
			continue
		}
		for _, pl := range p.pipelines {
			pl.Destroy()
		}
		p.pipelines = make(map[string]Pipeline)
		o.destroyPassTargets(p)
		if p.renderPass != nil {
			p.renderPass.Destroy()
			p.renderPass = nil
		}
	}
	return nil
}

func (o *Orchestrator) destroyPassTargets(p *pass) {
	for _, fb := range p.framebuffers {
		fb.Destroy()
	}
	for _, images := range p.targets {
		for k, img := range images {
			if p.desc.Attachments[k].Usage == md.ATTACHMENT_USAGE_PRESENT {
				continue
			}
			if err := img.Destroy(); err != nil {
				core.LogWarn("destroy attachment %s: %v", img.Desc().Label, err)
			}
		}
	}
	p.framebuffers, p.targets = nil, nil
	p.imageCount = 0
}

// Destroy idles the device and releases everything the graph created.
func (o *Orchestrator) Destroy() error {
	if !o.built {
		return nil
	}
	if err := o.backend.WaitIdle(); err != nil {
		return err
	}
	if err := o.destroySwapchainResources(true); err != nil {
		return err
	}
	o.swapchain.Destroy()
	o.swapchain = nil

	for _, p := range o.passes {
		p.layout.Destroy()
	}
	o.passes = nil
	o.sampler.Destroy()
	for _, m := range o.meshes {
		if err := m.vertices.Destroy(); err != nil {
			return err
		}
		if m.indices != nil {
			if err := m.indices.Destroy(); err != nil {
				return err
			}
		}
	}
	o.meshes = nil
	o.ring.Destroy()
	o.built = false
	core.LogInfo("Render graph %q destroyed", o.graph.Name)
	return nil
}
