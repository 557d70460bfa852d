package fitsview

import (
	"testing"
	"time"

	"github.com/gogpu/gputypes"
)

func TestDefaultOptions(t *testing.T) {
	o := defaultOptions()
	if o.tick != 16*time.Millisecond {
		t.Errorf("tick = %v, want 16ms", o.tick)
	}
	if o.clearColor != (gputypes.Color{R: 0.2, G: 0.5, B: 0.8, A: 1}) {
		t.Errorf("clear color = %+v", o.clearColor)
	}
	if o.power != gputypes.PowerPreferenceHighPerformance {
		t.Errorf("power = %v", o.power)
	}
	if o.presentMode != PresentModeFifo {
		t.Errorf("present mode = %v", o.presentMode)
	}
	if o.logger != nil || o.backends != nil {
		t.Error("logger and backends should default to nil")
	}
}

func TestOptions(t *testing.T) {
	o := defaultOptions()
	for _, opt := range []Option{
		WithTickInterval(8 * time.Millisecond),
		WithClearColor(gputypes.Color{A: 1}),
		WithPowerPreference(gputypes.PowerPreferenceLowPower),
		WithPresentMode(PresentModeMailbox),
		WithBackend(gputypes.BackendVulkan),
	} {
		opt(&o)
	}
	if o.tick != 8*time.Millisecond {
		t.Errorf("tick = %v", o.tick)
	}
	if o.clearColor != (gputypes.Color{A: 1}) {
		t.Errorf("clear color = %+v", o.clearColor)
	}
	if o.power != gputypes.PowerPreferenceLowPower {
		t.Errorf("power = %v", o.power)
	}
	if o.presentMode != PresentModeMailbox {
		t.Errorf("present mode = %v", o.presentMode)
	}
	if len(o.backends) != 1 || o.backends[0] != gputypes.BackendVulkan {
		t.Errorf("backends = %v", o.backends)
	}

	WithTickInterval(0)(&o)
	if o.tick != 8*time.Millisecond {
		t.Error("non-positive tick interval should be ignored")
	}
}
