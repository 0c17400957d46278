// Package fakegpu is an in-memory implementation of the renderer backend. It
// models the parts of a GPU that the frame lifecycle depends on: a single in
// order queue whose submissions complete when the caller says so, fences and
// semaphores, image layouts and the visibility of attachment writes to later
// passes. Every image holds one texel value so clears, sampling and readback
// can be checked end to end.
package fakegpu

import (
	"fmt"
	"sync"

	"github.com/spaghettifunk/vkdemos/engine/core"
	"github.com/spaghettifunk/vkdemos/engine/renderer"
	md "github.com/spaghettifunk/vkdemos/engine/renderer/metadata"
)

type Options struct {
	// ImageCount is the number of swapchain images. Defaults to 3.
	ImageCount uint32
	// Alignment is minUniformBufferOffsetAlignment. Defaults to 256.
	Alignment uint64
	// AutoComplete completes every submission as soon as it is made.
	AutoComplete bool
}

// SubmissionRecord is what the queue saw for one submission.
type SubmissionRecord struct {
	Seq           uint64
	CommandBuffer string
	Passes        []string
	Waits         int
	Signals       int
	HasFence      bool
	// CompletedAt is zero until the submission completes.
	CompletedAt uint64
}

type pending struct {
	record *SubmissionRecord
	fence  *Fence
}

// GPU is the fake device. It is safe for concurrent use.
type GPU struct {
	mu   sync.Mutex
	cond *sync.Cond

	opts  Options
	seq   uint64
	queue *Queue

	pending     []*pending
	submissions []*SubmissionRecord
	hazards     []string
	presents    []uint32

	created   map[string]int
	destroyed map[string]int
	failNext  map[string]bool
	idleWaits int

	// Swapchain scripting.
	acquireScript []uint32
	staleAcquire  int
	stalePresent  int
	surface       *md.Extent
	swapchains    []*Swapchain
}

var _ renderer.Backend = (*GPU)(nil)

func New(opts Options) *GPU {
	if opts.ImageCount == 0 {
		opts.ImageCount = 3
	}
	if opts.Alignment == 0 {
		opts.Alignment = 256
	}
	g := &GPU{
		opts:      opts,
		created:   make(map[string]int),
		destroyed: make(map[string]int),
		failNext:  make(map[string]bool),
	}
	g.cond = sync.NewCond(&g.mu)
	g.queue = &Queue{gpu: g}
	return g
}

// tick advances the timeline. Callers hold g.mu.
func (g *GPU) tick() uint64 {
	g.seq++
	return g.seq
}

// Now advances the timeline and returns the new sequence number. Tests use it
// to place host side events on the same timeline as GPU completions.
func (g *GPU) Now() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.tick()
}

func (g *GPU) hazard(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	core.LogWarn("fakegpu hazard: %s", msg)
	g.hazards = append(g.hazards, msg)
}

// Hazards returns every synchronization or usage violation seen so far.
func (g *GPU) Hazards() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.hazards...)
}

// Submissions returns a snapshot of every submission in queue order.
func (g *GPU) Submissions() []SubmissionRecord {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]SubmissionRecord, 0, len(g.submissions))
	for _, s := range g.submissions {
		out = append(out, *s)
	}
	return out
}

// Presents returns the image indices presented so far.
func (g *GPU) Presents() []uint32 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]uint32(nil), g.presents...)
}

func (g *GPU) Pending() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.pending)
}

// Complete retires the n oldest pending submissions, signaling their fences.
func (g *GPU) Complete(n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.complete(n)
}

func (g *GPU) CompleteAll() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.complete(len(g.pending))
}

func (g *GPU) complete(n int) {
	if n > len(g.pending) {
		n = len(g.pending)
	}
	for _, p := range g.pending[:n] {
		at := g.tick()
		p.record.CompletedAt = at
		if p.fence != nil {
			p.fence.signaled = true
			p.fence.signaledAt = at
		}
	}
	g.pending = g.pending[n:]
	g.cond.Broadcast()
}

func (g *GPU) countCreate(kind string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.injected(kind); err != nil {
		return err
	}
	g.created[kind]++
	return nil
}

// injected consumes a pending FailNext for kind. Called with g.mu held.
func (g *GPU) injected(kind string) error {
	if !g.failNext[kind] {
		return nil
	}
	delete(g.failNext, kind)
	return fmt.Errorf("injected %s creation failure", kind)
}

func (g *GPU) fail(kind string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.injected(kind)
}

func (g *GPU) countDestroy(kind string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.destroyed[kind]++
}

// FailNext makes the next creation of kind fail, e.g. "pipeline" or "descriptor pool".
// "descriptor set", "shader module" and "command buffer end" fail the matching
// allocation, pipeline shader load and End.
func (g *GPU) FailNext(kind string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failNext[kind] = true
}

func (g *GPU) Created(kind string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.created[kind]
}

func (g *GPU) Destroyed(kind string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.destroyed[kind]
}

func (g *GPU) IdleWaits() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.idleWaits
}

// ScriptAcquire makes the next acquisitions return the given image indices.
func (g *GPU) ScriptAcquire(indices ...uint32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.acquireScript = append(g.acquireScript, indices...)
}

// StaleNextAcquire makes the next acquisition report an out of date surface.
func (g *GPU) StaleNextAcquire() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.staleAcquire++
}

// StaleNextPresent makes the next present report a suboptimal surface.
func (g *GPU) StaleNextPresent() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.stalePresent++
}

// SetSurfaceExtent pins the surface's current extent, which overrides the
// requested extent the way a real surface reports currentExtent.
func (g *GPU) SetSurfaceExtent(e md.Extent) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.surface = &e
}

// SetImageCount changes the image count of swapchains created from now on.
func (g *GPU) SetImageCount(n uint32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.opts.ImageCount = n
}

// Swapchains returns every swapchain created so far.
func (g *GPU) Swapchains() []*Swapchain {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]*Swapchain(nil), g.swapchains...)
}

func (g *GPU) Shutdown() error {
	return g.WaitIdle()
}

// WaitIdle blocks until every pending submission has completed.
func (g *GPU) WaitIdle() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.idleWaits++
	if g.opts.AutoComplete {
		g.complete(len(g.pending))
	}
	for len(g.pending) > 0 {
		g.cond.Wait()
	}
	return nil
}

func (g *GPU) Limits() md.DeviceLimits {
	return md.DeviceLimits{
		MinUniformBufferOffsetAlignment: g.opts.Alignment,
		MaxImageDimension2D:             16384,
	}
}

func (g *GPU) GraphicsQueue() renderer.Queue {
	return g.queue
}

// Queue is the single in order graphics and present queue.
type Queue struct {
	gpu *GPU
}

func (q *Queue) Capabilities() md.QueueCapability {
	return md.QUEUE_CAPABILITY_GRAPHICS | md.QUEUE_CAPABILITY_PRESENT | md.QUEUE_CAPABILITY_TRANSFER | md.QUEUE_CAPABILITY_COMPUTE
}

// Submit executes the command buffer against the simulated resource state and
// queues it for completion.
func (q *Queue) Submit(submission renderer.Submission, fence renderer.Fence) error {
	g := q.gpu
	cb, ok := submission.CommandBuffer.(*CommandBuffer)
	if !ok || cb == nil {
		return core.NewProgrammerError("submit without a command buffer")
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if cb.state != commandBufferEnded {
		return core.NewProgrammerError("submit of command buffer %q that is not ended", cb.label)
	}
	if len(submission.Wait) != len(submission.WaitStages) {
		return core.NewProgrammerError("submit of %q: %d wait semaphores but %d wait stages", cb.label, len(submission.Wait), len(submission.WaitStages))
	}
	for _, s := range submission.Wait {
		sem := s.(*Semaphore)
		if !sem.signaled {
			g.hazard("%s waits on a semaphore nothing signals", cb.label)
		}
		sem.signaled = false
	}

	var f *Fence
	if fence != nil {
		f = fence.(*Fence)
		if f.signaled {
			g.hazard("%s submitted with a fence that is still signaled", cb.label)
		}
	}

	record := &SubmissionRecord{
		Seq:           g.tick(),
		CommandBuffer: cb.label,
		Waits:         len(submission.Wait),
		Signals:       len(submission.Signal),
		HasFence:      f != nil,
	}
	record.Passes = cb.execute(g)

	for _, s := range submission.Signal {
		s.(*Semaphore).signaled = true
	}
	g.submissions = append(g.submissions, record)
	g.pending = append(g.pending, &pending{record: record, fence: f})
	if g.opts.AutoComplete {
		g.complete(len(g.pending))
	}
	return nil
}
