//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

var shaderSources = []string{"triangle.vert", "triangle.frag"}

// Compiles the GLSL sources in shaders/ to SPIR-V.
func (Build) Shaders() error {
	return buildShaders()
}

func buildShaders() error {
	for _, src := range shaderSources {
		if _, err := executeCmd("glslc", withArgs(src, "-o", src+".spv"), withDir("shaders"), withStream()); err != nil {
			return err
		}
	}
	return nil
}
