// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package gpu holds the GPU side of fitsview: device and surface setup,
// the R32Float image texture, the view pipeline and its uniform block,
// and per-frame command recording.
//
// # Objects and lifetimes
//
//   - Context: instance, adapter, device and queue. Created once.
//   - HALSurface: the native window swapchain. Reconfigured on resize.
//   - PipelineCache: shader, layouts, sampler and one render pipeline per
//     surface format. Lives as long as the Context.
//   - ImageTexture: one uploaded image. Replaced on every load.
//   - ViewPipeline: uniform buffer and bind group pairing a pipeline with
//     one ImageTexture. Rebuilt after every load.
//   - Reclaimer: releases replaced textures and pipelines once the GPU is
//     done with the frames that used them.
//
// # Uniform block
//
// The fragment shader reads a 48-byte block of little-endian f32 values:
//
//	offset  field
//	0       min            stretch window low
//	4       max            stretch window high
//	8       brightness
//	12      contrast
//	16      zoom
//	20      pan_x
//	24      pan_y
//	28      image_aspect
//	32      viewport_aspect
//	36      transfer       0 linear, 1 log, 2 sqrt, 3 asinh
//	40      reserved
//
// Writers update single fields in place with ViewPipeline.Write.
package gpu
