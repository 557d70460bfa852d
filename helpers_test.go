package fitsview

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"unsafe"

	"github.com/gogpu/fitsview/internal/gpu"
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

// noopProvider implements gpucontext.DeviceProvider over a noop HAL device.
type noopProvider struct {
	device hal.Device
	queue  hal.Queue
}

func (p *noopProvider) Device() gpucontext.Device             { return nil }
func (p *noopProvider) Queue() gpucontext.Queue               { return nil }
func (p *noopProvider) Adapter() gpucontext.Adapter           { return nil }
func (p *noopProvider) AdapterInfo() gpucontext.AdapterInfo   { return gpucontext.AdapterInfo{} }
func (p *noopProvider) SurfaceFormat() gputypes.TextureFormat { return testFormat }
func (p *noopProvider) HalDevice() any                        { return p.device }
func (p *noopProvider) HalQueue() any                         { return p.queue }

const testFormat = gputypes.TextureFormatBGRA8Unorm

func newNoopProvider(t *testing.T) *noopProvider {
	t.Helper()
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		t.Fatal("noop backend exposes no adapters")
	}
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() {
		openDev.Device.Destroy()
		instance.Destroy()
	})
	return &noopProvider{device: openDev.Device, queue: openDev.Queue}
}

var errSurfaceLost = errors.New("test: surface lost")

// fakeSurface hands out frames backed by one noop render target.
type fakeSurface struct {
	device hal.Device
	tex    hal.Texture
	view   hal.TextureView

	failAcquire atomic.Bool
	acquired    atomic.Int64
	presented   atomic.Int64
	discarded   atomic.Int64

	mu         sync.Mutex
	configured [][2]uint32
	destroyed  bool
}

func newFakeSurface(t *testing.T, device hal.Device) *fakeSurface {
	t.Helper()
	tex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label:         "fake_surface",
		Size:          hal.Extent3D{Width: 800, Height: 600, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        testFormat,
		Usage:         gputypes.TextureUsageRenderAttachment,
	})
	if err != nil {
		t.Fatalf("CreateTexture: %v", err)
	}
	view, err := device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         "fake_surface_view",
		Format:        testFormat,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		t.Fatalf("CreateTextureView: %v", err)
	}
	s := &fakeSurface{device: device, tex: tex, view: view}
	t.Cleanup(func() {
		device.DestroyTextureView(view)
		device.DestroyTexture(tex)
	})
	return s
}

type fakeFrame struct {
	s *fakeSurface
}

func (f fakeFrame) View() hal.TextureView { return f.s.view }
func (f fakeFrame) Discard()              { f.s.discarded.Add(1) }

func (s *fakeSurface) Format() gputypes.TextureFormat { return testFormat }

func (s *fakeSurface) Configure(w, h uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.configured = append(s.configured, [2]uint32{w, h})
	return nil
}

func (s *fakeSurface) Acquire() (Frame, error) {
	if s.failAcquire.Load() {
		return nil, errors.Join(ErrFrameAcquisitionFailed, errSurfaceLost)
	}
	s.acquired.Add(1)
	return fakeFrame{s: s}, nil
}

func (s *fakeSurface) Present(Frame) error {
	s.presented.Add(1)
	return nil
}

func (s *fakeSurface) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.destroyed = true
}

func (s *fakeSurface) configurations() [][2]uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][2]uint32(nil), s.configured...)
}

// newTestRenderer returns a renderer on the noop backend with a fake
// surface. The loop is not started; tests drive it with tick.
func newTestRenderer(t *testing.T, opts ...Option) (*Renderer, *fakeSurface) {
	t.Helper()
	p := newNoopProvider(t)
	s := newFakeSurface(t, p.device)
	r, err := NewShared(p, s, opts...)
	if err != nil {
		t.Fatalf("NewShared: %v", err)
	}
	t.Cleanup(func() { _ = r.Close() })
	return r, s
}

func ramp(w, h uint32) []float32 {
	px := make([]float32, w*h)
	for i := range px {
		px[i] = float32(i)
	}
	return px
}

// failingWrites rejects texture uploads.
type failingWrites struct {
	hal.Queue
}

func (failingWrites) WriteTexture(*hal.ImageCopyTexture, []byte, *hal.ImageDataLayout, *hal.Extent3D) error {
	return errors.New("test: upload rejected")
}

// blockingQueue parks WriteTexture until release is closed, reporting
// entry on entered.
type blockingQueue struct {
	hal.Queue
	entered chan struct{}
	release chan struct{}
}

func (q *blockingQueue) WriteTexture(dst *hal.ImageCopyTexture, data []byte, layout *hal.ImageDataLayout, size *hal.Extent3D) error {
	close(q.entered)
	<-q.release
	return q.Queue.WriteTexture(dst, data, layout, size)
}

// gpuUniformBytes reads the uniform block back from the view pipeline's
// GPU buffer.
func gpuUniformBytes(t *testing.T, r *Renderer) []byte {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.view == nil {
		t.Fatal("no view pipeline")
	}
	device, buf := r.ctx.Device(), r.view.UniformBuffer()
	m, err := device.MapBuffer(buf, 0, gpu.UniformSize)
	if err != nil {
		t.Fatalf("MapBuffer: %v", err)
	}
	defer func() { _ = device.UnmapBuffer(buf) }()
	return append([]byte(nil), unsafe.Slice((*byte)(m.Ptr), gpu.UniformSize)...)
}
