// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"
)

// Embedded view shader source.
//
//go:embed shaders/view.wgsl
var viewShaderWGSL string

// Entry points in shaders/view.wgsl.
const (
	viewVertexEntry   = "vs_main"
	viewFragmentEntry = "fs_main"
)

// viewSPIRV compiles the view shader to SPIR-V once per process.
var viewSPIRV = sync.OnceValues(func() ([]uint32, error) {
	return compileSPIRV(viewShaderWGSL)
})

// compileSPIRV compiles WGSL source to SPIR-V words.
func compileSPIRV(wgsl string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(wgsl)
	if err != nil {
		return nil, fmt.Errorf("compile shader: %w", err)
	}

	// SPIR-V is little-endian 32-bit words.
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return words, nil
}

// viewShaderSource returns the shader source in the form the backend
// consumes: SPIR-V for Vulkan, WGSL for everything else.
func viewShaderSource(backend gputypes.Backend) (hal.ShaderSource, error) {
	if backend != gputypes.BackendVulkan {
		return hal.ShaderSource{WGSL: viewShaderWGSL}, nil
	}
	words, err := viewSPIRV()
	if err != nil {
		return hal.ShaderSource{}, err
	}
	return hal.ShaderSource{SPIRV: words}, nil
}
