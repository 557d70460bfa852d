// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import "errors"

// Renderer subsystem errors. The root package re-exports these so callers
// can match them with errors.Is without importing internal/gpu.
var (
	// ErrAdapterUnavailable is returned when no compatible graphics adapter exists.
	ErrAdapterUnavailable = errors.New("fitsview: no compatible GPU adapter")

	// ErrDeviceRequestFailed is returned when the adapter refuses to open a device.
	ErrDeviceRequestFailed = errors.New("fitsview: device request failed")

	// ErrSurfaceConfigurationUnsupported is returned when the window surface
	// reports no usable format or rejects the configuration.
	ErrSurfaceConfigurationUnsupported = errors.New("fitsview: surface configuration unsupported")

	// ErrNoTextureLoaded is returned when a pipeline build is attempted
	// before any image data was loaded.
	ErrNoTextureLoaded = errors.New("fitsview: no texture loaded")

	// ErrGPUResourceCreationFailed is returned when a texture, buffer,
	// shader or pipeline cannot be created.
	ErrGPUResourceCreationFailed = errors.New("fitsview: GPU resource creation failed")

	// ErrFrameAcquisitionFailed is returned when the next surface frame
	// cannot be acquired (surface lost, outdated or timed out). Transient.
	ErrFrameAcquisitionFailed = errors.New("fitsview: frame acquisition failed")

	// ErrInvalidImage is returned when pixel data does not match its dimensions.
	ErrInvalidImage = errors.New("fitsview: invalid image data")
)
