package engine

import (
	"fmt"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/spaghettifunk/vkdemos/engine/assets"
	"github.com/spaghettifunk/vkdemos/engine/core"
	"github.com/spaghettifunk/vkdemos/engine/game"
	"github.com/spaghettifunk/vkdemos/engine/keys"
	"github.com/spaghettifunk/vkdemos/engine/platform"
	"github.com/spaghettifunk/vkdemos/engine/renderer"
	"github.com/spaghettifunk/vkdemos/engine/renderer/vulkan"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently booting up
	EngineStageBooting
	// Engine completed boot process and is ready to be initialized
	EngineStageBootComplete
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
)

// Engine drives the frame lifecycle: it owns the window, the backend and the
// orchestrator built from the game's render graph.
type Engine struct {
	currentStage Stage
	config       *ApplicationConfig
	gameInstance *game.Game

	isRunning   atomic.Bool
	isSuspended bool

	events       *core.EventBus
	platform     *platform.Platform
	shaders      *assets.ShaderLibrary
	watcher      *assets.ShaderWatcher
	backend      renderer.Backend
	orchestrator *renderer.Orchestrator

	// shaderChanges is the watcher channel, nil without hot reload.
	shaderChanges <-chan string
	reloadPending bool

	clock    *core.Clock
	metrics  *core.Metrics
	lastTime float64
	showFPS  bool
	width    uint32
	height   uint32
}

func New(cfg *ApplicationConfig, g *game.Game) (*Engine, error) {
	if g == nil || g.Graph == nil {
		return nil, core.NewProgrammerError("engine needs a game with a render graph")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	level, err := core.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	core.SetLogLevel(level)

	e := &Engine{
		currentStage: EngineStageBooting,
		config:       cfg,
		gameInstance: g,
		events:       core.NewEventBus(),
		clock:        core.NewClock(),
		metrics:      core.NewMetrics(),
		showFPS:      cfg.showFPS(g.Graph.ShowFPS),
		width:        cfg.StartWidth,
		height:       cfg.StartHeight,
	}
	e.platform = platform.New(e.events)
	e.currentStage = EngineStageBootComplete
	return e, nil
}

func (e *Engine) Initialize() error {
	e.currentStage = EngineStageInitializing
	e.registerEvents()

	if err := e.platform.Startup(e.config.Name, e.config.StartPosX, e.config.StartPosY, e.config.StartWidth, e.config.StartHeight); err != nil {
		return err
	}

	lib, err := assets.NewShaderLibrary(assets.ShaderPaths{Dir: e.config.ShaderDir})
	if err != nil {
		core.LogError(err.Error())
		return err
	}
	e.shaders = lib
	if err := preloadShaders(lib, e.gameInstance.Graph.Shaders()); err != nil {
		core.LogError(err.Error())
		return err
	}

	if e.config.HotReload {
		w, err := assets.NewShaderWatcher(lib)
		if err != nil {
			return err
		}
		e.watcher = w
		e.shaderChanges = w.Changes()
	}

	backend, err := vulkan.New(e.platform, vulkan.Config{
		AppName:    e.config.Name,
		Validation: e.config.Validation,
		Queues:     e.gameInstance.Graph.Queues,
		Shaders:    lib,
	})
	if err != nil {
		core.LogError(err.Error())
		return err
	}
	e.backend = backend

	o, err := renderer.NewOrchestrator(backend, e.platform, e.gameInstance.Graph, e.config.FramesInFlight)
	if err != nil {
		return err
	}
	if err := o.Build(); err != nil {
		core.LogError(err.Error())
		return err
	}
	e.orchestrator = o

	if e.gameInstance.FnInitialize != nil {
		if err := e.gameInstance.FnInitialize(); err != nil {
			return err
		}
	}
	if e.gameInstance.FnOnResize != nil {
		if err := e.gameInstance.FnOnResize(e.width, e.height); err != nil {
			return err
		}
	}

	e.currentStage = EngineStageInitialized
	core.LogInfo("Demo %s ready with %d frames in flight", e.gameInstance.Name, e.config.FramesInFlight)
	return nil
}

func (e *Engine) registerEvents() {
	e.events.Register(core.EventCodeApplicationQuit, e, e.onEvent)
	e.events.Register(core.EventCodeKeyPressed, e, e.onKey)
	e.events.Register(core.EventCodeKeyReleased, e, e.onKey)
	e.events.Register(core.EventCodeResized, e, e.onResized)
	e.events.Register(core.EventCodeShaderReloaded, e, e.onShaderReloaded)
}

// Run renders frames until the window closes, a quit event fires or Stop is called.
func (e *Engine) Run() error {
	if e.currentStage != EngineStageInitialized {
		return core.NewProgrammerError("engine run before initialization")
	}
	e.currentStage = EngineStageRunning
	e.isRunning.Store(true)

	e.clock.Start()
	e.clock.Update()
	e.lastTime = e.clock.Elapsed()

	for e.isRunning.Load() {
		e.platform.PumpMessages()
		if e.platform.ShouldClose() {
			e.isRunning.Store(false)
			break
		}

		if e.isSuspended {
			// Nothing to present, block until the OS has something for us.
			e.platform.WaitEvents()
			continue
		}

		if err := e.frame(); err != nil {
			e.isRunning.Store(false)
			return err
		}
	}
	return nil
}

// frame runs one iteration of the loop after window events were pumped.
func (e *Engine) frame() error {
	e.clock.Update()
	currentTime := e.clock.Elapsed()
	delta := currentTime - e.lastTime

	e.drainShaderChanges()
	if e.reloadPending {
		e.reloadPending = false
		if err := e.orchestrator.Reload(); err != nil {
			return errors.Wrap(err, "reload shaders")
		}
	}

	if e.gameInstance.FnUpdate != nil {
		if err := e.gameInstance.FnUpdate(delta); err != nil {
			return errors.Wrap(err, "game update")
		}
	}

	if err := e.orchestrator.Draw(); err != nil {
		return err
	}

	e.metrics.Update(delta)
	if e.showFPS && e.metrics.Frames == 1 && e.metrics.FPS > 0 {
		fps, ms := e.metrics.Frame()
		title := fmt.Sprintf("%s - %.0f fps (%.2f ms)", e.config.Name, fps, ms)
		if e.platform != nil && e.platform.Window != nil {
			e.platform.SetTitle(title)
		}
		core.LogDebug(title)
	}

	e.lastTime = currentTime
	return nil
}

// drainShaderChanges turns every pending watcher notification into an event.
func (e *Engine) drainShaderChanges() {
	if e.shaderChanges == nil {
		return
	}
	for {
		select {
		case path, ok := <-e.shaderChanges:
			if !ok {
				e.shaderChanges = nil
				return
			}
			ctx := core.EventContext{}
			ctx.Data.S = path
			e.events.Fire(core.EventCodeShaderReloaded, e, ctx)
		default:
			return
		}
	}
}

// Stop asks Run to return after the current frame. It is safe to call from any goroutine.
func (e *Engine) Stop() {
	e.isRunning.Store(false)
}

func (e *Engine) Shutdown() error {
	e.currentStage = EngineStageShuttingDown
	var errs error

	if e.gameInstance.FnShutdown != nil {
		errs = errors.CombineErrors(errs, e.gameInstance.FnShutdown())
	}
	if e.watcher != nil {
		errs = errors.CombineErrors(errs, e.watcher.Close())
		e.watcher = nil
	}
	if e.orchestrator != nil {
		errs = errors.CombineErrors(errs, e.orchestrator.Destroy())
		e.orchestrator = nil
	}
	if e.backend != nil {
		errs = errors.CombineErrors(errs, e.backend.Shutdown())
		e.backend = nil
	}
	if e.platform != nil {
		errs = errors.CombineErrors(errs, e.platform.Shutdown())
	}
	e.events.Shutdown()
	e.currentStage = EngineStageUninitialized
	return errs
}

// GetFramebufferSize returns the width and height (in this order)
// of the application framebuffer.
func (e *Engine) GetFramebufferSize() (uint32, uint32) {
	return e.width, e.height
}

func (e *Engine) onEvent(code core.SystemEventCode, sender interface{}, listener interface{}, context core.EventContext) bool {
	switch code {
	case core.EventCodeApplicationQuit:
		core.LogInfo("EventCodeApplicationQuit received, shutting down.")
		e.isRunning.Store(false)
		return true
	}
	return false
}

func (e *Engine) onKey(code core.SystemEventCode, sender interface{}, listener interface{}, context core.EventContext) bool {
	if e.gameInstance.FnOnKey == nil {
		return false
	}
	e.gameInstance.FnOnKey(keys.Key(context.Data.U32[0]), code == core.EventCodeKeyPressed)
	return false
}

func (e *Engine) onResized(code core.SystemEventCode, sender interface{}, listener interface{}, context core.EventContext) bool {
	width := context.Data.U32[0]
	height := context.Data.U32[1]

	// Check if different. If so, trigger a resize event.
	if width == e.width && height == e.height {
		return false
	}
	e.width = width
	e.height = height
	core.LogDebug("Window resize: %d, %d", width, height)

	// Handle minimization
	if width == 0 || height == 0 {
		core.LogInfo("Window minimized, suspending application.")
		e.isSuspended = true
		return true
	}
	if e.isSuspended {
		core.LogInfo("Window restored, resuming application.")
		e.isSuspended = false
	}
	if e.orchestrator != nil {
		e.orchestrator.NotifyResized()
	}
	if e.gameInstance.FnOnResize != nil {
		if err := e.gameInstance.FnOnResize(width, height); err != nil {
			core.LogError(err.Error())
		}
	}
	return false
}

func (e *Engine) onShaderReloaded(code core.SystemEventCode, sender interface{}, listener interface{}, context core.EventContext) bool {
	core.LogInfo("Shader %s changed, rebuilding pipelines", context.Data.S)
	e.reloadPending = true
	return false
}
