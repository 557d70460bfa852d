// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// ViewPipeline is everything needed to draw one ImageTexture into a
// surface of a given format: a cached render pipeline plus the per-image
// uniform buffer and bind group.
//
// A ViewPipeline keeps a CPU copy of the uniform block. Each Write queues
// the bytes to the GPU buffer and updates the copy only once the queue
// accepted them, so the copy always matches what the next submitted frame
// reads.
type ViewPipeline struct {
	device   hal.Device
	queue    hal.Queue
	pipeline hal.RenderPipeline
	bind     hal.BindGroup
	uniforms hal.Buffer
	shadow   [UniformSize]byte
	format   gputypes.TextureFormat
	gen      uint64
}

// NewViewPipeline binds tex to a pipeline for format and uploads the
// default uniform block for the given viewport aspect.
func NewViewPipeline(ctx *Context, cache *PipelineCache, tex *ImageTexture,
	format gputypes.TextureFormat, viewportAspect float32,
) (*ViewPipeline, error) {
	pipeline, err := cache.Get(format)
	if err != nil {
		return nil, err
	}
	device := ctx.device

	buf, err := device.CreateBuffer(&hal.BufferDescriptor{
		Label: "fitsview_view_uniforms",
		Size:  UniformSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: uniform buffer: %w", ErrGPUResourceCreationFailed, err)
	}

	bind, err := device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "fitsview_view_bind",
		Layout: cache.Layout(),
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.TextureViewBinding{TextureView: tex.View().NativeHandle()}},
			{Binding: 1, Resource: gputypes.SamplerBinding{Sampler: cache.Sampler().NativeHandle()}},
			{Binding: 2, Resource: gputypes.BufferBinding{
				Buffer: buf.NativeHandle(), Offset: 0, Size: UniformSize,
			}},
		},
	})
	if err != nil {
		device.DestroyBuffer(buf)
		return nil, fmt.Errorf("%w: view bind group: %w", ErrGPUResourceCreationFailed, err)
	}

	vp := &ViewPipeline{
		device:   device,
		queue:    ctx.queue,
		pipeline: pipeline,
		bind:     bind,
		uniforms: buf,
		format:   format,
		gen:      tex.Generation(),
	}
	copy(vp.shadow[:], DefaultUniforms(tex.Aspect(), viewportAspect).Bytes())
	if err := vp.queue.WriteBuffer(vp.uniforms, 0, vp.shadow[:]); err != nil {
		vp.Destroy()
		return nil, fmt.Errorf("%w: uniform upload: %w", ErrGPUResourceCreationFailed, err)
	}
	return vp, nil
}

// Write replaces UniformSize-bounded bytes at offset and queues them for
// upload. Writes outside the block, and writes the queue rejects, are
// dropped with a warning and leave the block unchanged.
func (v *ViewPipeline) Write(offset int, data []byte) {
	if offset < 0 || offset+len(data) > UniformSize {
		slogger().Warn("gpu: uniform write out of range", "offset", offset, "len", len(data))
		return
	}
	if err := v.queue.WriteBuffer(v.uniforms, uint64(offset), data); err != nil {
		slogger().Warn("gpu: uniform write failed", "offset", offset, "len", len(data), "error", err)
		return
	}
	copy(v.shadow[offset:], data)
}

// UniformBuffer returns the GPU buffer holding the uniform block.
func (v *ViewPipeline) UniformBuffer() hal.Buffer { return v.uniforms }

// Uniforms decodes the current uniform block.
func (v *ViewPipeline) Uniforms() Uniforms {
	u, _ := DecodeUniforms(v.shadow[:])
	return u
}

// Bytes returns a copy of the current uniform block.
func (v *ViewPipeline) Bytes() []byte {
	b := make([]byte, UniformSize)
	copy(b, v.shadow[:])
	return b
}

// Format returns the target format the pipeline was built for.
func (v *ViewPipeline) Format() gputypes.TextureFormat { return v.format }

// Generation returns the generation of the texture this pipeline binds.
func (v *ViewPipeline) Generation() uint64 { return v.gen }

// Record issues the draw into an open render pass: one fullscreen
// triangle, no vertex buffers.
func (v *ViewPipeline) Record(rp hal.RenderPassEncoder) {
	rp.SetPipeline(v.pipeline)
	rp.SetBindGroup(0, v.bind, nil)
	rp.Draw(3, 1, 0, 0)
}

// Destroy releases the bind group and uniform buffer. The render pipeline
// belongs to the PipelineCache and is not released here.
func (v *ViewPipeline) Destroy() {
	if v.bind != nil {
		v.device.DestroyBindGroup(v.bind)
		v.bind = nil
	}
	if v.uniforms != nil {
		v.device.DestroyBuffer(v.uniforms)
		v.uniforms = nil
	}
}
