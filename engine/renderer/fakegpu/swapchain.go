package fakegpu

import (
	"fmt"

	"github.com/spaghettifunk/vkdemos/engine/core"
	"github.com/spaghettifunk/vkdemos/engine/renderer"
	md "github.com/spaghettifunk/vkdemos/engine/renderer/metadata"
)

type Swapchain struct {
	gpu       *GPU
	extent    md.Extent
	images    []*Image
	next      uint32
	destroyed bool
	// Old is the swapchain this one replaced, if any.
	Old *Swapchain
}

func (g *GPU) CreateSwapchain(extent md.Extent, old renderer.Swapchain) (renderer.Swapchain, error) {
	if extent.IsZero() {
		return nil, core.NewProgrammerError("swapchain requested with zero extent %v", extent)
	}
	if err := g.countCreate("swapchain"); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.surface != nil {
		extent = *g.surface
	}
	sc := &Swapchain{gpu: g, extent: extent}
	if old != nil {
		sc.Old = old.(*Swapchain)
		if sc.Old.destroyed {
			g.hazard("swapchain recreated from a destroyed swapchain")
		}
	}
	for i := uint32(0); i < g.opts.ImageCount; i++ {
		sc.images = append(sc.images, &Image{
			gpu: g,
			desc: md.ImageDesc{
				Label:  fmt.Sprintf("swapchain#%d/%d", len(g.swapchains), i),
				Kind:   md.ATTACHMENT_KIND_COLOR,
				Format: md.FORMAT_SWAPCHAIN,
				Extent: extent,
			},
			swapchain: true,
		})
	}
	g.swapchains = append(g.swapchains, sc)
	return sc, nil
}

func (s *Swapchain) AcquireNextImage(signal renderer.Semaphore) (uint32, error) {
	g := s.gpu
	g.mu.Lock()
	defer g.mu.Unlock()
	if s.destroyed {
		return 0, core.NewProgrammerError("acquire from destroyed swapchain")
	}
	if g.staleAcquire > 0 {
		g.staleAcquire--
		return 0, core.StaleSurface("acquire next image")
	}
	idx := s.next
	if len(g.acquireScript) > 0 {
		idx = g.acquireScript[0]
		g.acquireScript = g.acquireScript[1:]
	} else {
		s.next = (s.next + 1) % uint32(len(s.images))
	}
	if idx >= uint32(len(s.images)) {
		return 0, core.NewProgrammerError("scripted image %d out of range", idx)
	}
	signal.(*Semaphore).signaled = true
	return idx, nil
}

func (s *Swapchain) Present(queue renderer.Queue, wait renderer.Semaphore, imageIndex uint32) error {
	g := s.gpu
	if !queue.Capabilities().Has(md.QUEUE_CAPABILITY_PRESENT) {
		return core.NewProgrammerError("present on a queue without present support")
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	sem := wait.(*Semaphore)
	if !sem.signaled {
		g.hazard("present of image %d waits on a semaphore nothing signals", imageIndex)
	}
	sem.signaled = false
	if img := s.images[imageIndex]; img.layout != md.IMAGE_LAYOUT_PRESENT_SRC {
		g.hazard("present of image %d in layout %d", imageIndex, img.layout)
	}
	g.presents = append(g.presents, imageIndex)
	if g.stalePresent > 0 {
		g.stalePresent--
		return core.StaleSurface("queue present")
	}
	return nil
}

func (s *Swapchain) ImageCount() uint32               { return uint32(len(s.images)) }
func (s *Swapchain) Extent() md.Extent                { return s.extent }
func (s *Swapchain) Image(index uint32) renderer.Image { return s.images[index] }
func (s *Swapchain) Destroyed() bool {
	s.gpu.mu.Lock()
	defer s.gpu.mu.Unlock()
	return s.destroyed
}

func (s *Swapchain) Destroy() {
	s.gpu.mu.Lock()
	if s.destroyed {
		s.gpu.hazard("swapchain destroyed twice")
	}
	s.destroyed = true
	s.gpu.mu.Unlock()
	s.gpu.countDestroy("swapchain")
}
