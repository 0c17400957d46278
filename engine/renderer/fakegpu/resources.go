package fakegpu

import (
	"github.com/cockroachdb/errors"
	"github.com/spaghettifunk/vkdemos/engine/core"
	"github.com/spaghettifunk/vkdemos/engine/renderer"
	md "github.com/spaghettifunk/vkdemos/engine/renderer/metadata"
)

type Fence struct {
	gpu        *GPU
	signaled   bool
	signaledAt uint64
	destroyed  bool
}

func (g *GPU) CreateFence(signaled bool) (renderer.Fence, error) {
	if err := g.countCreate("fence"); err != nil {
		return nil, err
	}
	return &Fence{gpu: g, signaled: signaled}, nil
}

// Wait returns immediately for a zero timeout; any other timeout waits until
// the fence is signaled.
func (f *Fence) Wait(timeoutNs uint64) error {
	g := f.gpu
	g.mu.Lock()
	defer g.mu.Unlock()
	if f.destroyed {
		return core.NewProgrammerError("wait on destroyed fence")
	}
	if timeoutNs == 0 && !f.signaled {
		return core.NewProgrammerError("fence not signaled")
	}
	for !f.signaled {
		g.cond.Wait()
	}
	return nil
}

func (f *Fence) Reset() error {
	f.gpu.mu.Lock()
	defer f.gpu.mu.Unlock()
	f.signaled = false
	return nil
}

// SignaledAt is the timeline position of the last signal, zero if never signaled by the queue.
func (f *Fence) SignaledAt() uint64 {
	f.gpu.mu.Lock()
	defer f.gpu.mu.Unlock()
	return f.signaledAt
}

func (f *Fence) Destroy() {
	f.gpu.mu.Lock()
	if f.destroyed {
		f.gpu.hazard("fence destroyed twice")
	}
	f.destroyed = true
	f.gpu.mu.Unlock()
	f.gpu.countDestroy("fence")
}

type Semaphore struct {
	gpu      *GPU
	signaled bool
}

func (g *GPU) CreateSemaphore() (renderer.Semaphore, error) {
	if err := g.countCreate("semaphore"); err != nil {
		return nil, err
	}
	return &Semaphore{gpu: g}, nil
}

func (s *Semaphore) Destroy() {
	s.gpu.countDestroy("semaphore")
}

type Buffer struct {
	gpu       *GPU
	desc      md.BufferDesc
	data      []byte
	destroyed bool
}

func (g *GPU) CreateBuffer(desc md.BufferDesc) (renderer.Buffer, error) {
	if desc.Size == 0 {
		return nil, core.NewProgrammerError("buffer %q has zero size", desc.Label)
	}
	if err := g.countCreate("buffer"); err != nil {
		return nil, err
	}
	return &Buffer{gpu: g, desc: desc, data: make([]byte, desc.Size)}, nil
}

func (b *Buffer) Desc() md.BufferDesc { return b.desc }

func (b *Buffer) Mapped() []byte {
	if !b.desc.HostVisible() {
		return nil
	}
	return b.data
}

// Bytes returns the contents regardless of memory type.
func (b *Buffer) Bytes() []byte {
	return b.data
}

func (b *Buffer) Write(offset uint64, data []byte) error {
	if b.destroyed {
		return core.NewProgrammerError("write to destroyed buffer %q", b.desc.Label)
	}
	if !b.desc.HostVisible() {
		return core.NewProgrammerError("write to buffer %q which is not host visible", b.desc.Label)
	}
	if offset+uint64(len(data)) > b.desc.Size {
		return core.NewProgrammerError("write of %d bytes at %d overflows buffer %q", len(data), offset, b.desc.Label)
	}
	copy(b.data[offset:], data)
	return nil
}

func (b *Buffer) Destroy() error {
	if b.destroyed {
		return core.NewProgrammerError("buffer %q destroyed twice", b.desc.Label)
	}
	b.destroyed = true
	b.gpu.countDestroy("buffer")
	return nil
}

// Image holds a single texel value standing in for its contents.
type Image struct {
	gpu       *GPU
	desc      md.ImageDesc
	layout    md.ImageLayout
	value     [4]float32
	visible   bool
	swapchain bool
	destroyed bool
}

func (g *GPU) CreateImage(desc md.ImageDesc) (renderer.Image, error) {
	if desc.Extent.IsZero() {
		return nil, core.NewProgrammerError("image %q has a zero extent", desc.Label)
	}
	if err := g.countCreate("image"); err != nil {
		return nil, err
	}
	return &Image{gpu: g, desc: desc}, nil
}

func (i *Image) Desc() md.ImageDesc { return i.desc }

// Value returns the texel value and layout.
func (i *Image) Value() ([4]float32, md.ImageLayout) {
	i.gpu.mu.Lock()
	defer i.gpu.mu.Unlock()
	return i.value, i.layout
}

func (i *Image) Destroy() error {
	if i.swapchain {
		return core.NewProgrammerError("swapchain image %q destroyed directly", i.desc.Label)
	}
	if i.destroyed {
		return core.NewProgrammerError("image %q destroyed twice", i.desc.Label)
	}
	i.destroyed = true
	i.gpu.countDestroy("image")
	return nil
}

type RenderPass struct {
	gpu  *GPU
	desc md.RenderPassDesc
}

func (g *GPU) CreateRenderPass(desc md.RenderPassDesc) (renderer.RenderPass, error) {
	if len(desc.FinalLayouts) != len(desc.Attachments) {
		return nil, core.NewProgrammerError("renderpass %q: %d attachments but %d final layouts", desc.Name, len(desc.Attachments), len(desc.FinalLayouts))
	}
	if err := g.countCreate("renderpass"); err != nil {
		return nil, err
	}
	return &RenderPass{gpu: g, desc: desc}, nil
}

func (r *RenderPass) Desc() *md.RenderPassDesc { return &r.desc }
func (r *RenderPass) Destroy()                 { r.gpu.countDestroy("renderpass") }

type Framebuffer struct {
	gpu         *GPU
	pass        *RenderPass
	attachments []*Image
	extent      md.Extent
}

func (g *GPU) CreateFramebuffer(pass renderer.RenderPass, attachments []renderer.Image, extent md.Extent) (renderer.Framebuffer, error) {
	rp := pass.(*RenderPass)
	if len(attachments) != len(rp.desc.Attachments) {
		return nil, core.NewProgrammerError("framebuffer for %q: %d images for %d attachments", rp.desc.Name, len(attachments), len(rp.desc.Attachments))
	}
	fb := &Framebuffer{gpu: g, pass: rp, extent: extent}
	for _, a := range attachments {
		img := a.(*Image)
		if img.desc.Extent != extent {
			return nil, core.NewProgrammerError("framebuffer for %q: image %q is %v, framebuffer is %v", rp.desc.Name, img.desc.Label, img.desc.Extent, extent)
		}
		fb.attachments = append(fb.attachments, img)
	}
	if err := g.countCreate("framebuffer"); err != nil {
		return nil, err
	}
	return fb, nil
}

func (f *Framebuffer) Destroy() { f.gpu.countDestroy("framebuffer") }

type DescriptorSetLayout struct {
	gpu      *GPU
	bindings []md.DescriptorBinding
}

func (g *GPU) CreateDescriptorSetLayout(bindings []md.DescriptorBinding) (renderer.DescriptorSetLayout, error) {
	if err := g.countCreate("descriptor set layout"); err != nil {
		return nil, err
	}
	return &DescriptorSetLayout{gpu: g, bindings: bindings}, nil
}

func (l *DescriptorSetLayout) Bindings() []md.DescriptorBinding { return l.bindings }
func (l *DescriptorSetLayout) Destroy()                         { l.gpu.countDestroy("descriptor set layout") }

func (l *DescriptorSetLayout) dynamicCount() int {
	n := 0
	for _, b := range l.bindings {
		if b.Type == md.DESCRIPTOR_TYPE_UNIFORM_BUFFER_DYNAMIC {
			n++
		}
	}
	return n
}

type Pipeline struct {
	gpu    *GPU
	desc   *md.PipelineDesc
	pass   *RenderPass
	layout *DescriptorSetLayout
	extent md.Extent
}

func (g *GPU) CreatePipeline(desc *md.PipelineDesc, pass renderer.RenderPass, layout renderer.DescriptorSetLayout, extent md.Extent) (renderer.Pipeline, error) {
	if extent.IsZero() {
		return nil, core.NewProgrammerError("pipeline %q has a zero viewport", desc.Name)
	}
	if err := g.fail("shader module"); err != nil {
		return nil, errors.Wrapf(err, "shader %s", desc.Shader)
	}
	if err := g.countCreate("pipeline"); err != nil {
		return nil, err
	}
	return &Pipeline{gpu: g, desc: desc, pass: pass.(*RenderPass), layout: layout.(*DescriptorSetLayout), extent: extent}, nil
}

func (p *Pipeline) Desc() *md.PipelineDesc { return p.desc }
func (p *Pipeline) Destroy()               { p.gpu.countDestroy("pipeline") }

type Sampler struct {
	gpu *GPU
}

func (g *GPU) CreateSampler() (renderer.Sampler, error) {
	if err := g.countCreate("sampler"); err != nil {
		return nil, err
	}
	return &Sampler{gpu: g}, nil
}

func (s *Sampler) Destroy() { s.gpu.countDestroy("sampler") }

// DescriptorPool enforces its set and per type budgets like a real pool.
type DescriptorPool struct {
	gpu       *GPU
	remaining map[md.DescriptorType]uint32
	sets      uint32
	destroyed bool
}

func (g *GPU) CreateDescriptorPool(sizes []md.DescriptorPoolSize, maxSets uint32) (renderer.DescriptorPool, error) {
	if maxSets == 0 {
		return nil, core.NewProgrammerError("descriptor pool with zero sets")
	}
	if err := g.countCreate("descriptor pool"); err != nil {
		return nil, err
	}
	p := &DescriptorPool{gpu: g, remaining: make(map[md.DescriptorType]uint32), sets: maxSets}
	for _, s := range sizes {
		p.remaining[s.Type] += s.Count
	}
	return p, nil
}

func (p *DescriptorPool) Allocate(layout renderer.DescriptorSetLayout) (renderer.DescriptorSet, error) {
	if p.destroyed {
		return nil, core.NewProgrammerError("allocate from destroyed descriptor pool")
	}
	if err := p.gpu.fail("descriptor set"); err != nil {
		return nil, err
	}
	l := layout.(*DescriptorSetLayout)
	if p.sets == 0 {
		return nil, errors.New("descriptor pool out of sets")
	}
	need := map[md.DescriptorType]uint32{}
	for _, b := range l.bindings {
		need[b.Type]++
	}
	for t, n := range need {
		if p.remaining[t] < n {
			return nil, errors.Newf("descriptor pool out of descriptors of type %d", t)
		}
	}
	for t, n := range need {
		p.remaining[t] -= n
	}
	p.sets--
	return &DescriptorSet{gpu: p.gpu, layout: l, writes: make(map[uint32]renderer.DescriptorWrite)}, nil
}

func (p *DescriptorPool) Destroy() {
	p.destroyed = true
	p.gpu.countDestroy("descriptor pool")
}

type DescriptorSet struct {
	gpu    *GPU
	layout *DescriptorSetLayout
	writes map[uint32]renderer.DescriptorWrite
}

func (s *DescriptorSet) Update(writes []renderer.DescriptorWrite) error {
	for _, w := range writes {
		var binding *md.DescriptorBinding
		for i := range s.layout.bindings {
			if s.layout.bindings[i].Binding == w.Binding {
				binding = &s.layout.bindings[i]
			}
		}
		if binding == nil {
			return core.NewProgrammerError("descriptor write to binding %d not in layout", w.Binding)
		}
		if binding.Type != w.Type {
			return core.NewProgrammerError("descriptor write to binding %d has type %d, layout says %d", w.Binding, w.Type, binding.Type)
		}
		switch w.Type {
		case md.DESCRIPTOR_TYPE_COMBINED_IMAGE_SAMPLER:
			if w.Image == nil || w.Sampler == nil {
				return core.NewProgrammerError("descriptor write to binding %d lacks image or sampler", w.Binding)
			}
			if !w.Image.Desc().Sampled {
				return core.NewProgrammerError("image %q bound for sampling was not created sampled", w.Image.Desc().Label)
			}
		default:
			if w.Buffer == nil || w.Range > w.Buffer.Desc().Size {
				return core.NewProgrammerError("descriptor write to binding %d has an invalid buffer range", w.Binding)
			}
		}
		s.writes[w.Binding] = w
	}
	return nil
}
