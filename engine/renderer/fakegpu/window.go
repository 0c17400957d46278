package fakegpu

import "sync"

// Window is a scriptable stand in for the platform window.
type Window struct {
	mu     sync.Mutex
	cond   *sync.Cond
	width  int
	height int
	waits  int
}

func NewWindow(width, height int) *Window {
	w := &Window{width: width, height: height}
	w.cond = sync.NewCond(&w.mu)
	return w
}

func (w *Window) FramebufferSize() (int, int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.width, w.height
}

// WaitEvents blocks while the window has no drawable area.
func (w *Window) WaitEvents() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.waits++
	for w.width == 0 || w.height == 0 {
		w.cond.Wait()
	}
}

func (w *Window) SetSize(width, height int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.width, w.height = width, height
	w.cond.Broadcast()
}

// Waits counts the calls to WaitEvents.
func (w *Window) Waits() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.waits
}
