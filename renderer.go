package fitsview

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gogpu/fitsview/internal/gpu"
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

// Window is the host window the renderer presents into.
type Window interface {
	// NativeHandles returns the platform display and window handles
	// (X11 Display*/Window, Win32 HINSTANCE/HWND, or 0/NSWindow*).
	NativeHandles() (display, window uintptr)

	// FramebufferSize returns the drawable size in pixels.
	FramebufferSize() (width, height int)
}

// Surface is a presentation target supplied by a host that owns its own
// swapchain. See NewShared.
type Surface = gpu.Surface

// Frame is one acquired Surface texture.
type Frame = gpu.Frame

// Transfer selects the tone curve applied after windowing.
type Transfer = gpu.Transfer

// Transfer functions.
const (
	TransferLinear = gpu.TransferLinear
	TransferLog    = gpu.TransferLog
	TransferSqrt   = gpu.TransferSqrt
	TransferAsinh  = gpu.TransferAsinh
)

// ViewUniforms is a decoded copy of the view uniform block.
type ViewUniforms = gpu.Uniforms

// Renderer draws one scalar image into a window surface.
//
// The image texture and the pipeline state built against it are swapped
// under a single mutex. The presentation loop holds the same mutex only
// while recording a frame, never while submitting or presenting, so a
// frame always records a consistent texture/bind group pair.
//
// All methods are safe for concurrent use.
type Renderer struct {
	opts options

	ctx          *gpu.Context
	surface      gpu.Surface
	ownsSurface  bool
	cache        *gpu.PipelineCache
	reclaim      *gpu.Reclaimer
	maxDimension uint32

	mu       sync.Mutex
	texture  *gpu.ImageTexture
	view     *gpu.ViewPipeline
	resize   *[2]uint32
	closed   bool
	running  bool
	done     chan struct{}
	stopFlag atomic.Bool

	// ops counts LoadImageData and BuildPipeline calls that touch the
	// device outside mu. Close waits for it before releasing the device.
	ops sync.WaitGroup

	nextGen atomic.Uint64

	drawn   atomic.Uint64
	cleared atomic.Uint64
	skipped atomic.Uint64
}

// New opens a GPU device compatible with w, configures a presentable
// surface on it and returns an Empty renderer. The loop is not running
// until Start.
func New(w Window, opts ...Option) (*Renderer, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	display, handle := w.NativeHandles()
	fw, fh := w.FramebufferSize()
	ctx, surface, err := gpu.Open(display, handle, gpu.ContextConfig{
		Backends:        o.backends,
		PowerPreference: o.power,
		PresentMode:     o.presentMode,
		Width:           clampDim(fw),
		Height:          clampDim(fh),
	})
	if err != nil {
		return nil, err
	}
	return newRenderer(ctx, surface, true, o), nil
}

// NewShared creates a renderer on a device owned by a host application.
// The provider must expose its HAL device and queue (HalDevice, HalQueue);
// surface is the host's presentation target. Close releases neither.
func NewShared(provider gpucontext.DeviceProvider, surface Surface, opts ...Option) (*Renderer, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if surface == nil {
		return nil, fmt.Errorf("%w: nil surface", ErrSurfaceConfigurationUnsupported)
	}
	ctx, err := gpu.ContextFromProvider(provider)
	if err != nil {
		return nil, err
	}
	return newRenderer(ctx, surface, false, o), nil
}

func newRenderer(ctx *gpu.Context, surface gpu.Surface, ownsSurface bool, o options) *Renderer {
	return &Renderer{
		opts:         o,
		ctx:          ctx,
		surface:      surface,
		ownsSurface:  ownsSurface,
		cache:        gpu.NewPipelineCache(ctx),
		reclaim:      gpu.NewReclaimer(ctx.Queue()),
		maxDimension: ctx.Limits().MaxTextureDimension2D,
	}
}

func (r *Renderer) logger() *slog.Logger {
	if r.opts.logger != nil {
		return r.opts.logger
	}
	return Logger()
}

func clampDim(v int) uint32 {
	if v < 1 {
		return 1
	}
	return uint32(v) //nolint:gosec // window sizes fit uint32
}

// SurfaceFormat returns the negotiated format of the presentation surface,
// the format BuildPipeline normally targets.
func (r *Renderer) SurfaceFormat() gputypes.TextureFormat {
	return r.surface.Format()
}

// LoadImageData uploads a width×height single-channel float image and
// makes it current. Values are not range-checked; NaN and Inf are
// uploaded as is.
//
// Any pipeline built against the previous image is discarded, so the
// renderer is TextureLoaded afterwards until BuildPipeline is called.
func (r *Renderer) LoadImageData(pixels []float32, width, height uint32) error {
	if err := gpu.ValidateImage(pixels, width, height, r.maxDimension); err != nil {
		return err
	}
	if !r.enter() {
		return ErrRendererClosed
	}
	defer r.ops.Done()

	// Upload outside the lock; the loop keeps drawing the old image.
	gen := r.nextGen.Add(1)
	tex, err := gpu.NewImageTexture(r.ctx, pixels, width, height, gen)
	if err != nil {
		return err
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		tex.Destroy(r.ctx.Device())
		return ErrRendererClosed
	}
	oldTex, oldView := r.texture, r.view
	r.texture, r.view = tex, nil
	r.retireLocked(oldTex, oldView)
	r.mu.Unlock()

	r.logger().Info("fitsview: image loaded",
		"width", width, "height", height, "generation", gen)
	return nil
}

// BuildPipeline builds the view pipeline for the current image, targeting
// format, with the viewport aspect taken from viewportWidth/viewportHeight.
// The uniform block starts from defaults: window [0, 65535], brightness 0,
// contrast 1, zoom 1, no pan, linear transfer.
//
// It returns ErrNoTextureLoaded, leaving the renderer unchanged, when no
// image has been loaded.
func (r *Renderer) BuildPipeline(format gputypes.TextureFormat, viewportWidth, viewportHeight uint32) error {
	if !r.enter() {
		return ErrRendererClosed
	}
	defer r.ops.Done()
	r.mu.Lock()
	loaded := r.texture != nil
	r.mu.Unlock()
	if !loaded {
		return ErrNoTextureLoaded
	}

	// Shader compilation and pipeline creation happen once per format and
	// stay outside the lock.
	if _, err := r.cache.Get(format); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrRendererClosed
	}
	tex := r.texture
	if tex == nil {
		return ErrNoTextureLoaded
	}
	aspect := gpu.Aspect(max(viewportWidth, 1), max(viewportHeight, 1))
	vp, err := gpu.NewViewPipeline(r.ctx, r.cache, tex, format, aspect)
	if err != nil {
		return err
	}
	old := r.view
	r.view = vp
	r.retireLocked(nil, old)

	r.logger().Debug("fitsview: pipeline built",
		"format", format, "viewport_aspect", aspect, "generation", vp.Generation())
	return nil
}

// enter registers a call that uses the device outside mu. It fails once
// Close has started.
func (r *Renderer) enter() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return false
	}
	r.ops.Add(1)
	return true
}

// retireLocked schedules release of replaced objects once in-flight
// frames no longer reference them.
func (r *Renderer) retireLocked(tex *gpu.ImageTexture, view *gpu.ViewPipeline) {
	if view != nil {
		r.reclaim.Retire(view.Destroy)
	}
	if tex != nil {
		device := r.ctx.Device()
		r.reclaim.Retire(func() { tex.Destroy(device) })
	}
}

// write applies an in-place uniform update when the renderer is Ready.
func (r *Renderer) write(offset int, data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.view == nil {
		return
	}
	r.view.Write(offset, data)
}

// UpdateView sets zoom and pan. Zoom is clamped to a small positive
// minimum. A no-op unless Ready; values are not carried over to a later
// BuildPipeline.
func (r *Renderer) UpdateView(zoom, panX, panY float32) {
	r.write(gpu.OffsetZoom, gpu.Floats(gpu.ClampZoom(zoom), panX, panY))
}

// UpdateStretch sets the display window [lo, hi]. Callers keep lo < hi;
// lo == hi shows a binary threshold at lo. A no-op unless Ready.
func (r *Renderer) UpdateStretch(lo, hi float32) {
	r.write(gpu.OffsetMin, gpu.Floats(lo, hi))
}

// UpdateViewportAspect sets the viewport aspect ratio from a size in
// pixels. Zero dimensions count as 1. A no-op unless Ready.
func (r *Renderer) UpdateViewportAspect(width, height uint32) {
	r.write(gpu.OffsetViewportAspect, gpu.Floats(gpu.Aspect(max(width, 1), max(height, 1))))
}

// UpdateLevels sets brightness (added after contrast) and contrast
// (scale about mid-gray). A no-op unless Ready.
func (r *Renderer) UpdateLevels(brightness, contrast float32) {
	r.write(gpu.OffsetBrightness, gpu.Floats(brightness, contrast))
}

// UpdateTransfer selects the tone curve. Unknown values are ignored.
// A no-op unless Ready.
func (r *Renderer) UpdateTransfer(t Transfer) {
	if !t.Valid() {
		r.logger().Warn("fitsview: unknown transfer function", "transfer", t)
		return
	}
	r.write(gpu.OffsetTransfer, gpu.Floats(float32(t)))
}

// Resize reconfigures the surface on the next loop tick and updates the
// viewport aspect in place.
func (r *Renderer) Resize(width, height uint32) {
	width, height = max(width, 1), max(height, 1)
	r.mu.Lock()
	if !r.closed {
		r.resize = &[2]uint32{width, height}
	}
	r.mu.Unlock()
	r.UpdateViewportAspect(width, height)
}

// State reports where the renderer is in its load/build lifecycle.
func (r *Renderer) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stateLocked()
}

func (r *Renderer) stateLocked() State {
	switch {
	case r.texture == nil:
		return Empty
	case r.view == nil:
		return TextureLoaded
	default:
		return Ready
	}
}

// ImageSize returns the current image dimensions, or ok == false when
// Empty.
func (r *Renderer) ImageSize() (width, height uint32, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.texture == nil {
		return 0, 0, false
	}
	width, height = r.texture.Size()
	return width, height, true
}

// Uniforms returns the view uniforms the next frame will use, or
// ok == false when not Ready.
func (r *Renderer) Uniforms() (u ViewUniforms, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.view == nil {
		return ViewUniforms{}, false
	}
	return r.view.Uniforms(), true
}

// UniformBytes returns a copy of the 48-byte uniform block, or nil when
// not Ready.
func (r *Renderer) UniformBytes() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.view == nil {
		return nil
	}
	return r.view.Bytes()
}

// Stats returns the presentation loop counters.
func (r *Renderer) Stats() Stats {
	return Stats{
		Drawn:   r.drawn.Load(),
		Cleared: r.cleared.Load(),
		Skipped: r.skipped.Load(),
	}
}

// PipelineCacheStats returns pipeline cache hits and misses.
func (r *Renderer) PipelineCacheStats() (hits, misses uint64) {
	return r.cache.Stats()
}

// Close stops the loop, waits for it and for any in-progress
// LoadImageData or BuildPipeline to finish, then releases every GPU
// object the renderer owns. Close is idempotent.
func (r *Renderer) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.stopFlag.Store(true)
	running, done := r.running, r.done
	r.mu.Unlock()

	if running {
		<-done
	}
	r.ops.Wait()

	r.mu.Lock()
	tex, view := r.texture, r.view
	r.texture, r.view, r.resize = nil, nil, nil
	r.retireLocked(tex, view)
	r.mu.Unlock()

	r.reclaim.Destroy()
	r.cache.Destroy()
	if r.ownsSurface {
		r.surface.Destroy()
	}
	r.ctx.Destroy()
	r.logger().Info("fitsview: renderer closed")
	return nil
}
