package assets

import (
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"
	"github.com/spaghettifunk/vkdemos/engine/core"
)

// ShaderWatcher reports compiled shaders that change on disk. Changes are
// delivered on a channel so the owner can fire events from its own thread.
type ShaderWatcher struct {
	library  *ShaderLibrary
	fsnotify *fsnotify.Watcher

	changes chan string
	done    chan struct{}
	wg      sync.WaitGroup

	mutex    sync.Mutex
	isClosed bool
}

func NewShaderWatcher(library *ShaderLibrary) (*ShaderWatcher, error) {
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "shader watcher")
	}
	if err := fsWatch.Add(library.Paths().Dir); err != nil {
		fsWatch.Close()
		return nil, errors.Wrapf(err, "watching %s", library.Paths().Dir)
	}

	sw := &ShaderWatcher{
		library:  library,
		fsnotify: fsWatch,
		changes:  make(chan string, 16),
		done:     make(chan struct{}),
	}
	sw.wg.Add(1)
	go sw.start()
	return sw, nil
}

// Changes yields the path of every shader binary written or created.
func (sw *ShaderWatcher) Changes() <-chan string {
	return sw.changes
}

func (sw *ShaderWatcher) Close() error {
	sw.mutex.Lock()
	if sw.isClosed {
		sw.mutex.Unlock()
		return errors.New("shader watcher already closed")
	}
	sw.isClosed = true
	sw.mutex.Unlock()

	close(sw.done)
	sw.wg.Wait()
	return nil
}

func (sw *ShaderWatcher) start() {
	defer sw.wg.Done()
	for {
		select {
		case e, ok := <-sw.fsnotify.Events:
			if !ok {
				return
			}
			if !IsShaderBinary(e.Name) {
				continue
			}
			// Handle create or modify events
			if e.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			sw.library.Invalidate(e.Name)
			if e.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			select {
			case sw.changes <- e.Name:
			default:
				// The owner drains once per frame; a full channel already holds a reload.
				core.LogDebug("shader change for %s coalesced", e.Name)
			}

		case err, ok := <-sw.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError(err.Error())

		case <-sw.done:
			sw.fsnotify.Close()
			close(sw.changes)
			return
		}
	}
}
