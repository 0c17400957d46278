package engine

import (
	"runtime"

	"github.com/spaghettifunk/vkdemos/engine/core"
	"github.com/spaghettifunk/vkdemos/engine/systems"
)

type shaderLoader interface {
	LoadShader(name string) (vert, frag []uint32, err error)
}

// preloadShaders reads every shader the graph names on a worker pool, so a
// missing or broken module fails startup before any device object exists.
func preloadShaders(loader shaderLoader, names []string) error {
	if len(names) == 0 {
		return nil
	}
	workers := min(runtime.NumCPU(), len(names))
	js, err := systems.NewJobSystem(workers, len(names))
	if err != nil {
		return err
	}
	for _, name := range names {
		job := systems.JobTask{
			Name: name,
			Run: func() error {
				_, _, err := loader.LoadShader(name)
				return err
			},
		}
		if err := js.Submit(job); err != nil {
			return err
		}
	}
	err = js.Wait()
	if serr := js.Shutdown(); serr != nil {
		return serr
	}
	if err == nil {
		core.LogDebug("Preloaded %d shaders", len(names))
	}
	return err
}
