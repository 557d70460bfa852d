// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// PipelineCache owns the format-independent objects of the view pipeline
// (shader, layouts, sampler) and one render pipeline per surface format.
//
// Reloading an image or resizing the window reuses the cached pipeline;
// only the per-image uniform buffer and bind group are rebuilt.
//
// PipelineCache is safe for concurrent use. Lookups take a read lock and
// creation double-checks under the write lock.
type PipelineCache struct {
	device  hal.Device
	backend gputypes.Backend

	mu         sync.RWMutex
	shader     hal.ShaderModule
	layout     hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	sampler    hal.Sampler
	pipelines  map[gputypes.TextureFormat]hal.RenderPipeline

	hits   uint64
	misses uint64
}

// NewPipelineCache creates an empty cache for device. Objects are created
// lazily on the first Get.
func NewPipelineCache(ctx *Context) *PipelineCache {
	return &PipelineCache{
		device:    ctx.device,
		backend:   ctx.backend,
		pipelines: make(map[gputypes.TextureFormat]hal.RenderPipeline),
	}
}

// Get returns the render pipeline targeting format, creating it on a miss.
func (c *PipelineCache) Get(format gputypes.TextureFormat) (hal.RenderPipeline, error) {
	c.mu.RLock()
	if p, ok := c.pipelines[format]; ok {
		c.mu.RUnlock()
		atomic.AddUint64(&c.hits, 1)
		return p, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	if p, ok := c.pipelines[format]; ok {
		atomic.AddUint64(&c.hits, 1)
		return p, nil
	}
	if err := c.ensureSharedLocked(); err != nil {
		return nil, err
	}
	p, err := c.createPipelineLocked(format)
	if err != nil {
		return nil, err
	}
	c.pipelines[format] = p
	atomic.AddUint64(&c.misses, 1)
	slogger().Debug("gpu: view pipeline created", "format", format)
	return p, nil
}

// Layout returns the bind group layout, or nil before the first Get.
func (c *PipelineCache) Layout() hal.BindGroupLayout {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.layout
}

// Sampler returns the nearest-neighbour sampler, or nil before the first Get.
func (c *PipelineCache) Sampler() hal.Sampler {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sampler
}

// Stats returns cache hits and misses.
func (c *PipelineCache) Stats() (hits, misses uint64) {
	return atomic.LoadUint64(&c.hits), atomic.LoadUint64(&c.misses)
}

// Len returns the number of cached render pipelines.
func (c *PipelineCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.pipelines)
}

func (c *PipelineCache) ensureSharedLocked() error {
	if c.shader != nil {
		return nil
	}

	src, err := viewShaderSource(c.backend)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrGPUResourceCreationFailed, err)
	}
	shader, err := c.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "fitsview_view_shader",
		Source: src,
	})
	if err != nil {
		return fmt.Errorf("%w: compile view shader: %w", ErrGPUResourceCreationFailed, err)
	}

	// R32Float is not filterable without an optional feature, so the
	// texture is bound as unfilterable and sampled with a non-filtering
	// sampler.
	layout, err := c.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "fitsview_view_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeUnfilterableFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageFragment,
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeNonFiltering},
			},
			{
				Binding:    2,
				Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
		},
	})
	if err != nil {
		c.device.DestroyShaderModule(shader)
		return fmt.Errorf("%w: view layout: %w", ErrGPUResourceCreationFailed, err)
	}

	pipeLayout, err := c.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "fitsview_view_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{layout},
	})
	if err != nil {
		c.device.DestroyBindGroupLayout(layout)
		c.device.DestroyShaderModule(shader)
		return fmt.Errorf("%w: view pipeline layout: %w", ErrGPUResourceCreationFailed, err)
	}

	sampler, err := c.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        "fitsview_nearest",
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    gputypes.FilterModeNearest,
		MinFilter:    gputypes.FilterModeNearest,
		MipmapFilter: gputypes.FilterModeNearest,
	})
	if err != nil {
		c.device.DestroyPipelineLayout(pipeLayout)
		c.device.DestroyBindGroupLayout(layout)
		c.device.DestroyShaderModule(shader)
		return fmt.Errorf("%w: sampler: %w", ErrGPUResourceCreationFailed, err)
	}

	c.shader, c.layout, c.pipeLayout, c.sampler = shader, layout, pipeLayout, sampler
	return nil
}

// straightAlphaBlend composites the shader's non-premultiplied output.
func straightAlphaBlend() gputypes.BlendState {
	return gputypes.BlendState{
		Color: gputypes.BlendComponent{
			SrcFactor: gputypes.BlendFactorSrcAlpha,
			DstFactor: gputypes.BlendFactorOneMinusSrcAlpha,
			Operation: gputypes.BlendOperationAdd,
		},
		Alpha: gputypes.BlendComponent{
			SrcFactor: gputypes.BlendFactorOne,
			DstFactor: gputypes.BlendFactorOneMinusSrcAlpha,
			Operation: gputypes.BlendOperationAdd,
		},
	}
}

func (c *PipelineCache) createPipelineLocked(format gputypes.TextureFormat) (hal.RenderPipeline, error) {
	blend := straightAlphaBlend()
	pipeline, err := c.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "fitsview_view_pipeline",
		Layout: c.pipeLayout,
		Vertex: hal.VertexState{
			Module:     c.shader,
			EntryPoint: viewVertexEntry,
		},
		Fragment: &hal.FragmentState{
			Module:     c.shader,
			EntryPoint: viewFragmentEntry,
			Targets: []gputypes.ColorTargetState{
				{
					Format:    format,
					Blend:     &blend,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: view pipeline %v: %w", ErrGPUResourceCreationFailed, format, err)
	}
	return pipeline, nil
}

// Destroy releases every cached object. The cache is empty afterwards.
func (c *PipelineCache) Destroy() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for f, p := range c.pipelines {
		c.device.DestroyRenderPipeline(p)
		delete(c.pipelines, f)
	}
	if c.sampler != nil {
		c.device.DestroySampler(c.sampler)
		c.sampler = nil
	}
	if c.pipeLayout != nil {
		c.device.DestroyPipelineLayout(c.pipeLayout)
		c.pipeLayout = nil
	}
	if c.layout != nil {
		c.device.DestroyBindGroupLayout(c.layout)
		c.layout = nil
	}
	if c.shader != nil {
		c.device.DestroyShaderModule(c.shader)
		c.shader = nil
	}
}
