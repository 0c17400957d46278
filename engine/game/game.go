// Package game declares what a demo hands to the engine.
package game

import (
	"github.com/spaghettifunk/vkdemos/engine/keys"
	"github.com/spaghettifunk/vkdemos/engine/renderer"
)

// Game is what a demo hands to the engine. The graph renders every frame; the
// hooks are optional.
type Game struct {
	Name  string
	Graph *renderer.RenderGraph
	State interface{}

	FnInitialize Initialize
	FnUpdate     Update
	FnOnKey      OnKey
	FnOnResize   OnResize
	FnShutdown   Shutdown
}

type Initialize func() error
type Update func(deltaTime float64) error
type OnKey func(key keys.Key, pressed bool)
type OnResize func(width uint32, height uint32) error
type Shutdown func() error
