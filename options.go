package fitsview

import (
	"log/slog"
	"time"

	"github.com/gogpu/fitsview/internal/gpu"
	"github.com/gogpu/gputypes"
)

// PresentMode selects how frames are queued for display.
type PresentMode = gpu.PresentMode

// Present modes. Unsupported requests fall back to PresentModeFifo.
const (
	PresentModeFifo      = gpu.PresentModeFifo
	PresentModeMailbox   = gpu.PresentModeMailbox
	PresentModeImmediate = gpu.PresentModeImmediate
)

// Option configures a Renderer during creation.
//
// Example:
//
//	r, err := fitsview.New(win,
//	    fitsview.WithTickInterval(8*time.Millisecond),
//	    fitsview.WithPresentMode(fitsview.PresentModeMailbox))
type Option func(*options)

// options holds optional configuration for Renderer creation.
type options struct {
	tick        time.Duration
	clearColor  gputypes.Color
	power       gputypes.PowerPreference
	presentMode PresentMode
	logger      *slog.Logger
	backends    []gputypes.Backend
}

// DefaultTickInterval is the presentation loop cadence, about 60 Hz.
const DefaultTickInterval = 16 * time.Millisecond

// DefaultClearColor fills the window while there is nothing to draw.
var DefaultClearColor = gputypes.Color{R: 0.2, G: 0.5, B: 0.8, A: 1.0}

// defaultOptions returns the default renderer options.
func defaultOptions() options {
	return options{
		tick:        DefaultTickInterval,
		clearColor:  DefaultClearColor,
		power:       gputypes.PowerPreferenceHighPerformance,
		presentMode: PresentModeFifo,
	}
}

// WithTickInterval sets the presentation loop cadence. Non-positive values
// keep the default.
func WithTickInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.tick = d
		}
	}
}

// WithClearColor sets the placeholder color shown before a pipeline is built.
func WithClearColor(c gputypes.Color) Option {
	return func(o *options) {
		o.clearColor = c
	}
}

// WithPowerPreference selects between discrete and integrated adapters.
func WithPowerPreference(p gputypes.PowerPreference) Option {
	return func(o *options) {
		o.power = p
	}
}

// WithPresentMode requests a present mode. The surface falls back to Fifo
// when the mode is not supported.
func WithPresentMode(m PresentMode) Option {
	return func(o *options) {
		o.presentMode = m
	}
}

// WithLogger sets a logger for this renderer, overriding the package logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithBackend restricts adapter selection to one backend.
func WithBackend(b gputypes.Backend) Option {
	return func(o *options) {
		o.backends = []gputypes.Backend{b}
	}
}
