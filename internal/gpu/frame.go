// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// FrameCommands is a recorded frame: the command buffer to submit and the
// encoder that owns its storage.
type FrameCommands struct {
	device  hal.Device
	encoder hal.CommandEncoder
	buffer  hal.CommandBuffer
}

// Buffer returns the command buffer to submit.
func (f *FrameCommands) Buffer() hal.CommandBuffer { return f.buffer }

// Release frees the command buffer and destroys its encoder. Call it only
// once the submission has completed, or if it was never submitted.
func (f *FrameCommands) Release() {
	if f.buffer != nil {
		f.device.FreeCommandBuffer(f.buffer)
		f.buffer = nil
	}
	if f.encoder != nil {
		f.encoder.Destroy()
		f.encoder = nil
	}
}

// RecordFrame encodes one render pass into target. With a pipeline the
// target is cleared to transparent and the image drawn over it; without
// one it is cleared to placeholder and nothing is drawn.
func RecordFrame(device hal.Device, target hal.TextureView, placeholder gputypes.Color, vp *ViewPipeline) (*FrameCommands, error) {
	encoder, err := device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "fitsview_frame_encoder",
	})
	if err != nil {
		return nil, fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("fitsview_frame"); err != nil {
		encoder.Destroy()
		return nil, fmt.Errorf("begin encoding: %w", err)
	}

	clearValue := placeholder
	if vp != nil {
		clearValue = gputypes.Color{R: 0, G: 0, B: 0, A: 0}
	}
	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "fitsview_view_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       target,
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: clearValue,
		}},
	})
	if vp != nil {
		vp.Record(rp)
	}
	rp.End()

	cmd, err := encoder.EndEncoding()
	if err != nil {
		encoder.DiscardEncoding()
		encoder.Destroy()
		return nil, fmt.Errorf("end encoding: %w", err)
	}
	return &FrameCommands{device: device, encoder: encoder, buffer: cmd}, nil
}
