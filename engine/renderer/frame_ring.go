package renderer

import (
	"math"

	"github.com/cockroachdb/errors"
	"github.com/spaghettifunk/vkdemos/engine/core"
	md "github.com/spaghettifunk/vkdemos/engine/renderer/metadata"
)

// FrameSlot holds the synchronization objects of one frame in flight.
// Slots are created once and survive swapchain recreation.
type FrameSlot struct {
	AcquireSemaphore        Semaphore
	RenderCompleteSemaphore Semaphore
	InFlightFence           Fence
}

// FrameRing bounds the CPU to at most len(slots) frames ahead of the GPU and
// tracks which in-flight fence last used each swapchain image.
type FrameRing struct {
	slots   []*FrameSlot
	current int
	// Owner fence of each swapchain image, nil when unowned.
	images []Fence
}

// Frame is the state of one acquired frame.
type Frame struct {
	Slot       *FrameSlot
	SlotIndex  int
	ImageIndex uint32
}

func NewFrameRing(backend Backend, depth int) (*FrameRing, error) {
	if depth < 1 {
		return nil, core.NewProgrammerError("frame ring depth must be at least 1, got %d", depth)
	}
	r := &FrameRing{slots: make([]*FrameSlot, 0, depth)}
	for i := 0; i < depth; i++ {
		acquire, err := backend.CreateSemaphore()
		if err != nil {
			r.Destroy()
			return nil, core.NewCreationError("image available semaphore", err)
		}
		complete, err := backend.CreateSemaphore()
		if err != nil {
			acquire.Destroy()
			r.Destroy()
			return nil, core.NewCreationError("render complete semaphore", err)
		}
		// Created signaled so the first wait on each slot returns immediately.
		fence, err := backend.CreateFence(true)
		if err != nil {
			acquire.Destroy()
			complete.Destroy()
			r.Destroy()
			return nil, core.NewCreationError("in flight fence", err)
		}
		r.slots = append(r.slots, &FrameSlot{
			AcquireSemaphore:        acquire,
			RenderCompleteSemaphore: complete,
			InFlightFence:           fence,
		})
	}
	return r, nil
}

func (r *FrameRing) Depth() int   { return len(r.slots) }
func (r *FrameRing) Current() int { return r.current }

// ImageOwner returns the fence that last used the swapchain image, or nil.
func (r *FrameRing) ImageOwner(imageIndex uint32) Fence {
	if int(imageIndex) >= len(r.images) {
		return nil
	}
	return r.images[imageIndex]
}

// ResetImages forgets all image ownership. Called whenever the swapchain is
// (re)created.
func (r *FrameRing) ResetImages(imageCount uint32) {
	r.images = make([]Fence, imageCount)
}

// AcquireNextFrame waits for the current slot to retire, acquires a swapchain
// image and waits for the last frame that used that image. A stale surface is
// returned as a recoverable error without advancing the slot.
func (r *FrameRing) AcquireNextFrame(swapchain Swapchain) (*Frame, error) {
	slot := r.slots[r.current]

	// Wait for the execution of the frame that last used this slot to complete.
	if err := slot.InFlightFence.Wait(math.MaxUint64); err != nil {
		return nil, errors.Wrapf(err, "wait in flight fence of slot %d", r.current)
	}

	imageIndex, err := swapchain.AcquireNextImage(slot.AcquireSemaphore)
	if err != nil {
		if core.IsRecoverable(err) {
			core.LogDebug("acquire reported a stale surface on slot %d", r.current)
		}
		return nil, err
	}
	if int(imageIndex) >= len(r.images) {
		return nil, core.NewProgrammerError("acquired image %d but ring tracks %d images", imageIndex, len(r.images))
	}

	// Make sure a previous frame is not still using this image.
	if owner := r.images[imageIndex]; owner != nil {
		if err := owner.Wait(math.MaxUint64); err != nil {
			return nil, errors.Wrapf(err, "wait owner fence of image %d", imageIndex)
		}
	}

	// Mark the image as in use by this slot.
	r.images[imageIndex] = slot.InFlightFence

	return &Frame{Slot: slot, SlotIndex: r.current, ImageIndex: imageIndex}, nil
}

// Submit resets the slot fence and submits the frame's work. The offscreen
// buffer, when present, is submitted first with no semaphores and no fence;
// the final buffer waits for the acquired image at color attachment output,
// signals render completion and carries the slot fence.
func (f *Frame) Submit(queue Queue, offscreen, final CommandBuffer) error {
	if err := f.Slot.InFlightFence.Reset(); err != nil {
		return errors.Wrapf(err, "reset in flight fence of slot %d", f.SlotIndex)
	}
	if offscreen != nil {
		if err := queue.Submit(Submission{CommandBuffer: offscreen}, nil); err != nil {
			return errors.Wrap(err, "submit offscreen command buffer")
		}
	}
	err := queue.Submit(Submission{
		CommandBuffer: final,
		Wait:          []Semaphore{f.Slot.AcquireSemaphore},
		WaitStages:    []md.PipelineStage{md.PIPELINE_STAGE_COLOR_ATTACHMENT_OUTPUT},
		Signal:        []Semaphore{f.Slot.RenderCompleteSemaphore},
	}, f.Slot.InFlightFence)
	if err != nil {
		return errors.Wrap(err, "submit final command buffer")
	}
	return nil
}

// Advance moves to the next slot. Called after every present attempt.
func (r *FrameRing) Advance() {
	r.current = (r.current + 1) % len(r.slots)
}

func (r *FrameRing) Destroy() {
	for _, s := range r.slots {
		s.AcquireSemaphore.Destroy()
		s.RenderCompleteSemaphore.Destroy()
		s.InFlightFence.Destroy()
	}
	r.slots = nil
	r.images = nil
}
