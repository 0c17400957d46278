package renderer

import (
	"github.com/cockroachdb/errors"
	"github.com/spaghettifunk/vkdemos/engine/core"
	md "github.com/spaghettifunk/vkdemos/engine/renderer/metadata"
)

// Window is the part of the platform the swapchain lifecycle needs.
type Window interface {
	// FramebufferSize returns the drawable size in pixels. Zero while minimized.
	FramebufferSize() (width, height int)
	// WaitEvents blocks until the platform delivers at least one event.
	WaitEvents()
}

type LifecycleState int

const (
	StateRunning LifecycleState = iota
	StateRecreating
)

func (s LifecycleState) String() string {
	if s == StateRecreating {
		return "recreating"
	}
	return "running"
}

// Lifecycle serializes swapchain recreation. It waits out a minimized window,
// drains the device, and then runs the rebuild.
type Lifecycle struct {
	window  Window
	backend Backend
	state   LifecycleState
	resized bool
	// Number of completed recreations.
	generation uint64
}

func NewLifecycle(window Window, backend Backend) *Lifecycle {
	return &Lifecycle{window: window, backend: backend, state: StateRunning}
}

func (l *Lifecycle) State() LifecycleState { return l.state }
func (l *Lifecycle) Generation() uint64    { return l.generation }

// MarkResized flags that the framebuffer changed size. The next present triggers a recreation.
func (l *Lifecycle) MarkResized() {
	l.resized = true
}

// Resized reports and clears the resize flag.
func (l *Lifecycle) Resized() bool {
	r := l.resized
	l.resized = false
	return r
}

// WaitForDrawableExtent blocks while the window has a zero sized framebuffer.
func (l *Lifecycle) WaitForDrawableExtent() md.Extent {
	w, h := l.window.FramebufferSize()
	if w == 0 || h == 0 {
		core.LogInfo("Window minimized, waiting for a drawable size.")
	}
	for w == 0 || h == 0 {
		l.window.WaitEvents()
		w, h = l.window.FramebufferSize()
	}
	return md.Extent{Width: uint32(w), Height: uint32(h)}
}

// Recreate waits for a drawable extent, idles the device and hands the new
// extent to rebuild. A failed rebuild is fatal.
func (l *Lifecycle) Recreate(rebuild func(extent md.Extent) error) error {
	if l.state == StateRecreating {
		return core.NewProgrammerError("swapchain recreation re-entered")
	}
	l.state = StateRecreating
	l.resized = false

	extent := l.WaitForDrawableExtent()

	// Wait for any operations to complete.
	if err := l.backend.WaitIdle(); err != nil {
		return errors.Wrap(err, "wait device idle before recreation")
	}

	if err := rebuild(extent); err != nil {
		return errors.Wrap(err, "recreate swapchain resources")
	}
	l.generation++
	l.state = StateRunning
	core.LogInfo("Swapchain recreated: %dx%d (generation %d)", extent.Width, extent.Height, l.generation)
	return nil
}
