// Package demos maps demo names to their constructors.
package demos

import (
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/spaghettifunk/vkdemos/demos/bloom"
	"github.com/spaghettifunk/vkdemos/demos/shadowmap"
	"github.com/spaghettifunk/vkdemos/demos/triangle"
	"github.com/spaghettifunk/vkdemos/engine/game"
)

type Constructor func() *game.Game

var registry = map[string]Constructor{
	triangle.Name:  triangle.New,
	shadowmap.Name: shadowmap.New,
	bloom.Name:     bloom.New,
}

// Names returns the registered demos, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// New builds the named demo.
func New(name string) (*game.Game, error) {
	c, ok := registry[name]
	if !ok {
		return nil, errors.Newf("unknown demo %q, expected one of %v", name, Names())
	}
	return c(), nil
}
