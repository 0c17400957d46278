//go:build mage

package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
)

const shaderDir = "shaders"

type Build mg.Namespace

// Compiles every shaders/<name>.vert and .frag into <name>_vert.spv and <name>_frag.spv.
func (Build) Shaders() error {
	return buildShaders()
}

// Compiles the shaders and builds the vkdemos binary.
func (Build) Binary() error {
	mg.Deps(Build.Shaders)
	_, err := executeCmd("go", withArgs("build", "-o", "bin/vkdemos", "."), withStream())
	return err
}

func buildShaders() error {
	sources, err := shaderSources()
	if err != nil {
		return err
	}
	if len(sources) == 0 {
		return fmt.Errorf("no shader sources in %s", shaderDir)
	}
	for _, src := range sources {
		if _, err := executeCmd("glslc", withArgs(src, "-o", spvPath(src)), withStream()); err != nil {
			return err
		}
	}
	return nil
}

func shaderSources() ([]string, error) {
	var out []string
	for _, ext := range []string{"*.vert", "*.frag"} {
		matches, err := filepath.Glob(filepath.Join(shaderDir, ext))
		if err != nil {
			return nil, err
		}
		out = append(out, matches...)
	}
	return out, nil
}

// spvPath maps shaders/bloom_scene.frag to shaders/bloom_scene_frag.spv.
func spvPath(src string) string {
	ext := filepath.Ext(src)
	return strings.TrimSuffix(src, ext) + "_" + strings.TrimPrefix(ext, ".") + ".spv"
}
