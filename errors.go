package fitsview

import (
	"errors"

	"github.com/gogpu/fitsview/internal/gpu"
)

// Errors returned by the renderer. Lower layers wrap them, so match with
// errors.Is.
var (
	// ErrAdapterUnavailable is returned when no compatible graphics adapter exists.
	ErrAdapterUnavailable = gpu.ErrAdapterUnavailable

	// ErrDeviceRequestFailed is returned when the adapter refuses to open a device.
	ErrDeviceRequestFailed = gpu.ErrDeviceRequestFailed

	// ErrSurfaceConfigurationUnsupported is returned when the window surface
	// cannot be configured.
	ErrSurfaceConfigurationUnsupported = gpu.ErrSurfaceConfigurationUnsupported

	// ErrNoTextureLoaded is returned by BuildPipeline before any LoadImageData.
	ErrNoTextureLoaded = gpu.ErrNoTextureLoaded

	// ErrGPUResourceCreationFailed is returned when a texture, buffer, shader
	// or pipeline cannot be created.
	ErrGPUResourceCreationFailed = gpu.ErrGPUResourceCreationFailed

	// ErrFrameAcquisitionFailed is transient. The presentation loop skips the
	// tick and never returns it to callers.
	ErrFrameAcquisitionFailed = gpu.ErrFrameAcquisitionFailed

	// ErrInvalidImage is returned when pixel data does not match its dimensions.
	ErrInvalidImage = gpu.ErrInvalidImage

	// ErrRendererClosed is returned by operations on a closed Renderer.
	ErrRendererClosed = errors.New("fitsview: renderer closed")
)
