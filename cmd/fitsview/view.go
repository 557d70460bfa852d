package main

import (
	"fmt"
	"math"
	"sync"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/fitsview"
	"github.com/gogpu/fitsview/fits"
)

// renderer is the part of *fitsview.Renderer the viewer drives.
type renderer interface {
	SurfaceFormat() gputypes.TextureFormat
	LoadImageData(pixels []float32, width, height uint32) error
	BuildPipeline(format gputypes.TextureFormat, viewportWidth, viewportHeight uint32) error
	UpdateView(zoom, panX, panY float32)
	UpdateStretch(lo, hi float32)
	UpdateLevels(brightness, contrast float32)
	UpdateTransfer(t fitsview.Transfer)
	Resize(width, height uint32)
}

// Input step sizes.
const (
	zoomStep       = 1.1
	minZoom        = 0.05
	maxZoom        = 200
	brightnessStep = 0.05
	contrastStep   = 1.1
)

// viewer holds the interactive view state and pushes it to the renderer.
// Input handlers run on the main thread; reloads from the file watcher run
// on their own goroutine.
type viewer struct {
	r               renderer
	lowPct, highPct float64

	mu          sync.Mutex
	fbW, fbH    int
	imageAspect float32

	zoom, panX, panY     float32
	brightness, contrast float32
	transfer             fitsview.Transfer
	lo, hi               float32
}

func newViewer(r renderer, lowPct, highPct float64, fbW, fbH int) *viewer {
	v := &viewer{r: r, lowPct: lowPct, highPct: highPct, fbW: fbW, fbH: fbH, imageAspect: 1}
	v.resetLocked()
	return v
}

// load uploads img, rebuilds the pipeline and reapplies the current view.
// The stretch window is recomputed from the new pixels.
func (v *viewer) load(img *fits.Image) (fits.Statistics, error) {
	stats := fits.ComputeStatistics(img.Pixels)
	lo, hi := fits.AutoStretch(img.Pixels, stats, v.lowPct, v.highPct)

	if err := v.r.LoadImageData(img.Pixels, img.Width, img.Height); err != nil {
		return stats, fmt.Errorf("upload: %w", err)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.r.BuildPipeline(v.r.SurfaceFormat(), uint32(max(v.fbW, 1)), uint32(max(v.fbH, 1))); err != nil { //nolint:gosec // clamped positive
		return stats, fmt.Errorf("pipeline: %w", err)
	}
	v.imageAspect = float32(img.Width) / float32(img.Height)
	v.lo, v.hi = lo, hi
	v.applyLocked()
	return stats, nil
}

func (v *viewer) applyLocked() {
	v.r.UpdateStretch(v.lo, v.hi)
	v.r.UpdateLevels(v.brightness, v.contrast)
	v.r.UpdateTransfer(v.transfer)
	v.r.UpdateView(v.zoom, v.panX, v.panY)
}

func (v *viewer) resetLocked() {
	v.zoom, v.panX, v.panY = 1, 0, 0
	v.brightness, v.contrast = 0, 1
	v.transfer = fitsview.TransferLinear
}

// stretch returns the current stretch window.
func (v *viewer) stretch() (lo, hi float32) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lo, v.hi
}

// reset restores zoom, pan, levels and the linear transfer. The stretch
// window is kept.
func (v *viewer) reset() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.resetLocked()
	v.applyLocked()
}

// zoomBy zooms by zoomStep per scroll step.
func (v *viewer) zoomBy(steps float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	z := float64(v.zoom) * math.Pow(zoomStep, steps)
	v.zoom = float32(min(max(z, minZoom), maxZoom))
	v.r.UpdateView(v.zoom, v.panX, v.panY)
}

// drag pans by a cursor movement of (dx, dy) in a window of winW x winH
// screen units, so the image follows the cursor.
func (v *viewer) drag(dx, dy float64, winW, winH int) {
	if winW <= 0 || winH <= 0 {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	ex, ey := v.extentLocked()
	v.panX -= float32(dx / float64(winW) / float64(ex))
	v.panY -= float32(dy / float64(winH) / float64(ey))
	v.r.UpdateView(v.zoom, v.panX, v.panY)
}

// extentLocked returns the image extent in NDC half-units at the current
// zoom, letterboxed into the viewport.
func (v *viewer) extentLocked() (float32, float32) {
	vp := float32(1)
	if v.fbH > 0 {
		vp = float32(v.fbW) / float32(v.fbH)
	}
	ratio := v.imageAspect / max(vp, 1e-6)
	if ratio > 1 {
		return v.zoom, v.zoom / ratio
	}
	return ratio * v.zoom, v.zoom
}

func (v *viewer) adjustBrightness(d float32) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.brightness = min(max(v.brightness+d, -1), 1)
	v.r.UpdateLevels(v.brightness, v.contrast)
}

func (v *viewer) scaleContrast(f float32) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.contrast = min(max(v.contrast*f, 0.05), 20)
	v.r.UpdateLevels(v.brightness, v.contrast)
}

func (v *viewer) setTransfer(t fitsview.Transfer) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.transfer = t
	v.r.UpdateTransfer(t)
}

// resize records the new framebuffer size and forwards it.
func (v *viewer) resize(w, h int) {
	v.mu.Lock()
	v.fbW, v.fbH = w, h
	v.mu.Unlock()
	v.r.Resize(uint32(max(w, 1)), uint32(max(h, 1))) //nolint:gosec // clamped positive
}
