// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Frame is a presentable texture acquired from a Surface for one tick.
type Frame interface {
	// View returns the render target for this frame.
	View() hal.TextureView

	// Discard releases the frame without presenting it.
	Discard()
}

// Surface is the window-bound presentation target.
//
// HALSurface implements it for native windows. Hosts that own their
// swapchain supply their own implementation.
type Surface interface {
	// Format returns the negotiated pixel format of acquired frames.
	Format() gputypes.TextureFormat

	// Configure (re)creates the swapchain at the given size in pixels.
	Configure(width, height uint32) error

	// Acquire returns the next frame. Failures wrap ErrFrameAcquisitionFailed.
	Acquire() (Frame, error)

	// Present queues the frame for display.
	Present(Frame) error

	// Destroy releases the surface.
	Destroy()
}

// HALSurface is a Surface backed by a hal.Surface on a native window.
type HALSurface struct {
	ctx     *Context
	surface hal.Surface
	config  hal.SurfaceConfiguration
	opaque  bool
}

func newHALSurface(ctx *Context, surface hal.Surface, caps *hal.SurfaceCapabilities, cfg ContextConfig) (*HALSurface, error) {
	if caps == nil {
		return nil, fmt.Errorf("%w: no surface capabilities", ErrSurfaceConfigurationUnsupported)
	}
	format, err := selectSurfaceFormat(caps.Formats)
	if err != nil {
		return nil, err
	}
	alpha, transparent := selectAlphaMode(caps.AlphaModes)
	if !transparent {
		slogger().Warn("gpu: surface has no transparent alpha mode, window background will be opaque",
			"alpha", alpha)
	}

	s := &HALSurface{
		ctx:     ctx,
		surface: surface,
		config: hal.SurfaceConfiguration{
			Width:       max(cfg.Width, 1),
			Height:      max(cfg.Height, 1),
			Format:      format,
			Usage:       gputypes.TextureUsageRenderAttachment,
			PresentMode: selectPresentMode(caps.PresentModes, cfg.PresentMode),
			AlphaMode:   alpha,
		},
		opaque: !transparent,
	}
	if err := s.Configure(s.config.Width, s.config.Height); err != nil {
		return nil, err
	}
	return s, nil
}

// Format returns the negotiated surface format.
func (s *HALSurface) Format() gputypes.TextureFormat { return s.config.Format }

// Opaque reports whether the platform refused every transparent alpha mode.
func (s *HALSurface) Opaque() bool { return s.opaque }

// Size returns the configured size in pixels.
func (s *HALSurface) Size() (uint32, uint32) { return s.config.Width, s.config.Height }

// Configure applies the size, clamping each dimension to at least 1.
func (s *HALSurface) Configure(width, height uint32) error {
	s.config.Width = max(width, 1)
	s.config.Height = max(height, 1)
	if err := s.surface.Configure(s.ctx.device, &s.config); err != nil {
		return fmt.Errorf("%w: %w", ErrSurfaceConfigurationUnsupported, err)
	}
	return nil
}

// Acquire gets the next swapchain texture. A lost or outdated surface is
// reconfigured once at its current size and the acquire retried.
func (s *HALSurface) Acquire() (Frame, error) {
	acquired, err := s.surface.AcquireTexture(nil)
	if err != nil && errorsIsAny(err, hal.ErrSurfaceLost, hal.ErrSurfaceOutdated) {
		if cerr := s.Configure(s.config.Width, s.config.Height); cerr != nil {
			return nil, fmt.Errorf("%w: %w", ErrFrameAcquisitionFailed, cerr)
		}
		acquired, err = s.surface.AcquireTexture(nil)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFrameAcquisitionFailed, err)
	}

	view, err := s.ctx.device.CreateTextureView(acquired.Texture, &hal.TextureViewDescriptor{
		Label:         "fitsview_surface_view",
		Format:        s.config.Format,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		s.surface.DiscardTexture(acquired.Texture)
		return nil, fmt.Errorf("%w: view: %w", ErrFrameAcquisitionFailed, err)
	}
	if acquired.Suboptimal {
		slogger().Debug("gpu: suboptimal surface frame")
	}
	return &halFrame{s: s, tex: acquired.Texture, view: view}, nil
}

// Present queues a frame acquired from this surface.
func (s *HALSurface) Present(f Frame) error {
	hf, ok := f.(*halFrame)
	if !ok || hf.s != s {
		return fmt.Errorf("gpu: present: frame does not belong to surface")
	}
	err := s.ctx.queue.Present(s.surface, hf.tex, nil)
	hf.releaseView()
	return err
}

// Destroy unconfigures and releases the surface.
func (s *HALSurface) Destroy() {
	if s.surface == nil {
		return
	}
	if s.ctx.device != nil {
		s.surface.Unconfigure(s.ctx.device)
	}
	s.surface.Destroy()
	s.surface = nil
}

type halFrame struct {
	s    *HALSurface
	tex  hal.SurfaceTexture
	view hal.TextureView
}

func (f *halFrame) View() hal.TextureView { return f.view }

func (f *halFrame) Discard() {
	f.releaseView()
	if f.tex != nil {
		f.s.surface.DiscardTexture(f.tex)
		f.tex = nil
	}
}

func (f *halFrame) releaseView() {
	if f.view != nil {
		f.s.ctx.device.DestroyTextureView(f.view)
		f.view = nil
	}
}
