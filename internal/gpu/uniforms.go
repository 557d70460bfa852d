// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"encoding/binary"
	"fmt"
	"math"
)

// View uniform block layout. The shader declares the same twelve f32 fields
// in this order; offsets are a wire contract between the writer and
// shaders/view.wgsl.
const (
	OffsetMin            = 0
	OffsetMax            = 4
	OffsetBrightness     = 8
	OffsetContrast       = 12
	OffsetZoom           = 16
	OffsetPanX           = 20
	OffsetPanY           = 24
	OffsetImageAspect    = 28
	OffsetViewportAspect = 32
	OffsetTransfer       = 36

	// UniformSize is the size of the view uniform block in bytes.
	UniformSize = 48
)

// Default stretch window and levels for a freshly built pipeline.
const (
	DefaultMin        = 0
	DefaultMax        = 65535
	DefaultBrightness = 0
	DefaultContrast   = 1
	DefaultZoom       = 1

	// MinZoom is the smallest zoom factor written to the uniform block.
	// Non-positive and NaN zoom requests are clamped to it.
	MinZoom = 1e-3
)

// Transfer selects the tone curve applied after windowing.
type Transfer uint8

const (
	// TransferLinear maps the stretch window linearly to [0, 1].
	TransferLinear Transfer = iota

	// TransferLog applies log(1 + a*t) / log(1 + a).
	TransferLog

	// TransferSqrt applies sqrt(t).
	TransferSqrt

	// TransferAsinh applies asinh(b*t) / asinh(b).
	TransferAsinh
)

// String returns a human-readable name for the transfer function.
func (t Transfer) String() string {
	switch t {
	case TransferLinear:
		return "linear"
	case TransferLog:
		return "log"
	case TransferSqrt:
		return "sqrt"
	case TransferAsinh:
		return "asinh"
	default:
		return fmt.Sprintf("Transfer(%d)", t)
	}
}

// Valid reports whether t is a known transfer function.
func (t Transfer) Valid() bool { return t <= TransferAsinh }

// Uniforms is the CPU-side view of the uniform block.
type Uniforms struct {
	Min            float32
	Max            float32
	Brightness     float32
	Contrast       float32
	Zoom           float32
	PanX           float32
	PanY           float32
	ImageAspect    float32
	ViewportAspect float32
	Transfer       Transfer
}

// DefaultUniforms returns the initial uniform values for a pipeline built
// against an image with the given aspect ratio shown in a viewport with
// the given aspect ratio.
func DefaultUniforms(imageAspect, viewportAspect float32) Uniforms {
	return Uniforms{
		Min:            DefaultMin,
		Max:            DefaultMax,
		Brightness:     DefaultBrightness,
		Contrast:       DefaultContrast,
		Zoom:           DefaultZoom,
		ImageAspect:    imageAspect,
		ViewportAspect: viewportAspect,
		Transfer:       TransferLinear,
	}
}

// Bytes encodes the uniforms into the 48-byte little-endian wire layout.
func (u Uniforms) Bytes() []byte {
	buf := make([]byte, UniformSize)
	PutFloats(buf[OffsetMin:], u.Min, u.Max, u.Brightness, u.Contrast,
		u.Zoom, u.PanX, u.PanY, u.ImageAspect, u.ViewportAspect, float32(u.Transfer))
	return buf
}

// DecodeUniforms is the inverse of Uniforms.Bytes.
func DecodeUniforms(b []byte) (Uniforms, error) {
	if len(b) < UniformSize {
		return Uniforms{}, fmt.Errorf("gpu: uniform block is %d bytes, want %d", len(b), UniformSize)
	}
	f := func(off int) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(b[off:])) }
	return Uniforms{
		Min:            f(OffsetMin),
		Max:            f(OffsetMax),
		Brightness:     f(OffsetBrightness),
		Contrast:       f(OffsetContrast),
		Zoom:           f(OffsetZoom),
		PanX:           f(OffsetPanX),
		PanY:           f(OffsetPanY),
		ImageAspect:    f(OffsetImageAspect),
		ViewportAspect: f(OffsetViewportAspect),
		Transfer:       Transfer(f(OffsetTransfer)),
	}, nil
}

// PutFloats writes vals as consecutive little-endian f32 values into dst.
func PutFloats(dst []byte, vals ...float32) {
	for i, v := range vals {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(v))
	}
}

// Floats encodes vals as consecutive little-endian f32 values.
func Floats(vals ...float32) []byte {
	b := make([]byte, len(vals)*4)
	PutFloats(b, vals...)
	return b
}

// Aspect returns width/height, or 1 when height is zero.
func Aspect(width, height uint32) float32 {
	if height == 0 {
		return 1
	}
	return float32(width) / float32(height)
}

// ClampZoom enforces the zoom > 0 invariant.
func ClampZoom(zoom float32) float32 {
	if zoom != zoom || zoom < MinZoom { // NaN compares unequal to itself
		return MinZoom
	}
	return zoom
}
