// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// PresentMode selects how surface frames are queued for display.
type PresentMode uint8

const (
	// PresentModeFifo waits for vertical blank. Always supported.
	PresentModeFifo PresentMode = iota

	// PresentModeMailbox replaces the queued frame without tearing.
	PresentModeMailbox

	// PresentModeImmediate presents without waiting; may tear.
	PresentModeImmediate
)

func (m PresentMode) toHAL() hal.PresentMode {
	switch m {
	case PresentModeMailbox:
		return hal.PresentModeMailbox
	case PresentModeImmediate:
		return hal.PresentModeImmediate
	default:
		return hal.PresentModeFifo
	}
}

// String returns a human-readable name for the present mode.
func (m PresentMode) String() string {
	switch m {
	case PresentModeFifo:
		return "fifo"
	case PresentModeMailbox:
		return "mailbox"
	case PresentModeImmediate:
		return "immediate"
	default:
		return fmt.Sprintf("PresentMode(%d)", m)
	}
}

// ContextConfig controls adapter selection and surface setup.
type ContextConfig struct {
	// Backends are tried in order. Empty means the platform defaults.
	Backends []gputypes.Backend

	// PowerPreference ranks discrete vs integrated adapters.
	PowerPreference gputypes.PowerPreference

	// PresentMode is used when the surface supports it; Fifo otherwise.
	PresentMode PresentMode

	// Width and Height are the initial surface size in pixels.
	Width, Height uint32
}

// Context is the process-wide handle to a graphics adapter: the logical
// device and its submission queue. A Context either owns the device
// (Open) or borrows one from a host application (NewSharedContext).
type Context struct {
	instance hal.Instance
	adapter  hal.Adapter
	device   hal.Device
	queue    hal.Queue
	backend  gputypes.Backend
	limits   gputypes.Limits
	name     string
	external bool
}

// NewSharedContext wraps a device and queue owned by someone else.
// Destroy on a shared context releases nothing.
func NewSharedContext(device hal.Device, queue hal.Queue) *Context {
	return &Context{
		device:   device,
		queue:    queue,
		limits:   gputypes.DefaultLimits(),
		name:     "shared",
		external: true,
	}
}

// ContextFromProvider builds a shared Context from a host device provider.
// The provider must expose HalDevice() and HalQueue() returning hal.Device
// and hal.Queue, as gogpu's gpucontext implementations do.
func ContextFromProvider(provider any) (*Context, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, fmt.Errorf("%w: provider does not expose HAL types", ErrDeviceRequestFailed)
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: provider HalDevice is not hal.Device", ErrDeviceRequestFailed)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: provider HalQueue is not hal.Queue", ErrDeviceRequestFailed)
	}
	return NewSharedContext(device, queue), nil
}

// Open selects an adapter compatible with the given native window, opens
// a device and queue on it and configures a presentable surface.
func Open(display, window uintptr, cfg ContextConfig) (*Context, *HALSurface, error) {
	backends := cfg.Backends
	if len(backends) == 0 {
		backends = defaultBackends
	}

	var lastErr error
	for _, b := range backends {
		ctx, surface, err := openBackend(b, display, window, cfg)
		if err == nil {
			return ctx, surface, nil
		}
		slogger().Debug("gpu: backend unavailable", "backend", b, "err", err)
		lastErr = err
	}
	if lastErr == nil {
		lastErr = ErrAdapterUnavailable
	}
	return nil, nil, lastErr
}

func openBackend(b gputypes.Backend, display, window uintptr, cfg ContextConfig) (*Context, *HALSurface, error) {
	backend, ok := hal.GetBackend(b)
	if !ok {
		return nil, nil, fmt.Errorf("%w: backend %v not registered", ErrAdapterUnavailable, b)
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, nil, fmt.Errorf("%w: create instance: %w", ErrAdapterUnavailable, err)
	}

	surface, err := instance.CreateSurface(display, window)
	if err != nil {
		instance.Destroy()
		return nil, nil, fmt.Errorf("%w: create surface: %w", ErrSurfaceConfigurationUnsupported, err)
	}

	adapters := instance.EnumerateAdapters(surface)
	selected := selectAdapter(adapters, cfg.PowerPreference)
	if selected == nil {
		surface.Destroy()
		instance.Destroy()
		return nil, nil, ErrAdapterUnavailable
	}

	limits := gputypes.DefaultLimits()
	openDev, err := selected.Adapter.Open(gputypes.Features(0), limits)
	if err != nil {
		surface.Destroy()
		instance.Destroy()
		return nil, nil, fmt.Errorf("%w: %w", ErrDeviceRequestFailed, err)
	}

	ctx := &Context{
		instance: instance,
		adapter:  selected.Adapter,
		device:   openDev.Device,
		queue:    openDev.Queue,
		backend:  b,
		limits:   limits,
		name:     selected.Info.Name,
	}

	caps := selected.Adapter.SurfaceCapabilities(surface)
	hs, err := newHALSurface(ctx, surface, caps, cfg)
	if err != nil {
		surface.Destroy()
		ctx.Destroy()
		return nil, nil, err
	}

	slogger().Info("gpu: adapter selected",
		"adapter", ctx.name, "backend", b,
		"format", hs.Format(), "alpha", hs.config.AlphaMode, "present", hs.config.PresentMode)
	return ctx, hs, nil
}

// selectAdapter ranks adapters by device type according to the power
// preference and returns the best one, or nil when the list is empty.
func selectAdapter(adapters []hal.ExposedAdapter, pref gputypes.PowerPreference) *hal.ExposedAdapter {
	var best *hal.ExposedAdapter
	bestRank := -1
	for i := range adapters {
		r := adapterRank(adapters[i].Info.DeviceType, pref)
		if r > bestRank {
			best, bestRank = &adapters[i], r
		}
	}
	return best
}

// adapterRank scores a device type; higher is preferred.
func adapterRank(dt gputypes.DeviceType, pref gputypes.PowerPreference) int {
	switch dt {
	case gputypes.DeviceTypeDiscreteGPU:
		if pref == gputypes.PowerPreferenceLowPower {
			return 2
		}
		return 3
	case gputypes.DeviceTypeIntegratedGPU:
		if pref == gputypes.PowerPreferenceLowPower {
			return 3
		}
		return 2
	default:
		return 1
	}
}

// selectAlphaMode picks the compositing mode for a transparent window
// background: premultiplied, then post-multiplied, then inherit, then
// whatever the platform lists first. The second result reports whether
// the chosen mode allows transparency.
func selectAlphaMode(supported []hal.CompositeAlphaMode) (hal.CompositeAlphaMode, bool) {
	for _, want := range []hal.CompositeAlphaMode{
		hal.CompositeAlphaModePremultiplied,
		hal.CompositeAlphaModeUnpremultiplied,
		hal.CompositeAlphaModeInherit,
	} {
		for _, m := range supported {
			if m == want {
				return m, true
			}
		}
	}
	if len(supported) == 0 {
		return hal.CompositeAlphaModeOpaque, false
	}
	return supported[0], false
}

// selectSurfaceFormat prefers a plain 8-bit unorm format so the shader's
// output is presented without an extra sRGB encode; otherwise it takes
// the first reported format.
func selectSurfaceFormat(formats []gputypes.TextureFormat) (gputypes.TextureFormat, error) {
	if len(formats) == 0 {
		return gputypes.TextureFormatUndefined, ErrSurfaceConfigurationUnsupported
	}
	for _, f := range formats {
		if f == gputypes.TextureFormatBGRA8Unorm || f == gputypes.TextureFormatRGBA8Unorm {
			return f, nil
		}
	}
	return formats[0], nil
}

// selectPresentMode returns want when supported, else Fifo when listed,
// else the first listed mode.
func selectPresentMode(supported []hal.PresentMode, want PresentMode) hal.PresentMode {
	w := want.toHAL()
	for _, m := range supported {
		if m == w {
			return m
		}
	}
	for _, m := range supported {
		if m == hal.PresentModeFifo {
			return m
		}
	}
	if len(supported) == 0 {
		return hal.PresentModeFifo
	}
	return supported[0]
}

// Device returns the logical device.
func (c *Context) Device() hal.Device { return c.device }

// Queue returns the submission queue.
func (c *Context) Queue() hal.Queue { return c.queue }

// Backend returns the backend the device was opened on. Shared contexts
// report the zero value.
func (c *Context) Backend() gputypes.Backend { return c.backend }

// Limits returns the limits the device was opened with.
func (c *Context) Limits() gputypes.Limits { return c.limits }

// Name returns the adapter name.
func (c *Context) Name() string { return c.name }

// Shared reports whether the device belongs to a host application.
func (c *Context) Shared() bool { return c.external }

// Destroy releases the device, adapter and instance when owned.
func (c *Context) Destroy() {
	if c.external {
		c.device = nil
		c.queue = nil
		return
	}
	if c.device != nil {
		c.device.Destroy()
		c.device = nil
	}
	if c.adapter != nil {
		c.adapter.Destroy()
		c.adapter = nil
	}
	if c.instance != nil {
		c.instance.Destroy()
		c.instance = nil
	}
	c.queue = nil
}

// errorsIsAny reports whether err matches any of targets.
func errorsIsAny(err error, targets ...error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}
