// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"fmt"
	"math"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// ImageFormat is the texel format of uploaded images: one 32-bit float
// channel per pixel.
const ImageFormat = gputypes.TextureFormatR32Float

// ValidateImage checks that pixels holds exactly width*height values and
// that both dimensions are positive and within maxDim (0 means no limit).
func ValidateImage(pixels []float32, width, height, maxDim uint32) error {
	if width == 0 || height == 0 {
		return fmt.Errorf("%w: zero dimension %dx%d", ErrInvalidImage, width, height)
	}
	if maxDim > 0 && (width > maxDim || height > maxDim) {
		return fmt.Errorf("%w: %dx%d exceeds device limit %d", ErrInvalidImage, width, height, maxDim)
	}
	n := uint64(width) * uint64(height)
	if n > math.MaxInt || uint64(len(pixels)) != n {
		return fmt.Errorf("%w: have %d values, want %d", ErrInvalidImage, len(pixels), n)
	}
	return nil
}

// ImageTexture is a GPU-resident copy of a scalar image. It is immutable
// once uploaded; a new image means a new ImageTexture.
type ImageTexture struct {
	texture hal.Texture
	view    hal.TextureView
	width   uint32
	height  uint32
	gen     uint64
}

// NewImageTexture creates an R32Float texture of the given size on ctx and
// uploads pixels in row-major order, row 0 first. gen identifies this
// upload for later pairing with a pipeline.
func NewImageTexture(ctx *Context, pixels []float32, width, height uint32, gen uint64) (*ImageTexture, error) {
	if err := ValidateImage(pixels, width, height, ctx.limits.MaxTextureDimension2D); err != nil {
		return nil, err
	}
	device := ctx.device

	extent := hal.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1}
	tex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label:         "fitsview_image",
		Size:          extent,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        ImageFormat,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: image texture: %w", ErrGPUResourceCreationFailed, err)
	}

	view, err := device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         "fitsview_image_view",
		Format:        ImageFormat,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		device.DestroyTexture(tex)
		return nil, fmt.Errorf("%w: image view: %w", ErrGPUResourceCreationFailed, err)
	}

	err = ctx.queue.WriteTexture(
		&hal.ImageCopyTexture{
			Texture:  tex,
			MipLevel: 0,
		},
		float32Bytes(pixels),
		&hal.ImageDataLayout{
			Offset:       0,
			BytesPerRow:  width * 4,
			RowsPerImage: height,
		},
		&extent,
	)
	if err != nil {
		device.DestroyTextureView(view)
		device.DestroyTexture(tex)
		return nil, fmt.Errorf("%w: image upload: %w", ErrGPUResourceCreationFailed, err)
	}

	slogger().Debug("gpu: image uploaded", "width", width, "height", height, "generation", gen)
	return &ImageTexture{texture: tex, view: view, width: width, height: height, gen: gen}, nil
}

// float32Bytes reinterprets pixels as little-endian bytes without copying.
// Every supported GPU platform is little-endian.
func float32Bytes(pixels []float32) []byte {
	if len(pixels) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&pixels[0])), len(pixels)*4)
}

// View returns the sampled view of the texture.
func (t *ImageTexture) View() hal.TextureView { return t.view }

// Size returns the image dimensions in pixels.
func (t *ImageTexture) Size() (width, height uint32) { return t.width, t.height }

// Aspect returns width/height.
func (t *ImageTexture) Aspect() float32 { return Aspect(t.width, t.height) }

// Generation returns the upload generation.
func (t *ImageTexture) Generation() uint64 { return t.gen }

// Destroy releases the texture and its view.
func (t *ImageTexture) Destroy(device hal.Device) {
	if t.view != nil {
		device.DestroyTextureView(t.view)
		t.view = nil
	}
	if t.texture != nil {
		device.DestroyTexture(t.texture)
		t.texture = nil
	}
}
