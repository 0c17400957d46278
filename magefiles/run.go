//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Compiles the shaders and runs the named demo: triangle, shadowmap or bloom.
func (Run) Demo(name string) error {
	if err := buildShaders(); err != nil {
		return err
	}
	fmt.Printf("Run demo %s...\n", name)
	if _, err := executeCmd("go", withArgs("run", ".", "-demo", name), withStream()); err != nil {
		return err
	}
	return nil
}

// Runs the test suite. glfw and vulkan need cgo.
func Test() error {
	_, err := executeCmd("go", withArgs("test", "./..."), withEnv("CGO_ENABLED=1"), withStream())
	return err
}
