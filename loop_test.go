package fitsview

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gogpu/fitsview/internal/gpu"
)

func TestTickClearsUntilReady(t *testing.T) {
	r, s := newTestRenderer(t)

	r.tick()
	if got := r.Stats(); got.Cleared != 1 || got.Drawn != 0 {
		t.Errorf("Empty: stats = %+v, want one clear", got)
	}

	if err := r.LoadImageData(ramp(4, 2), 4, 2); err != nil {
		t.Fatal(err)
	}
	r.tick()
	if got := r.Stats(); got.Cleared != 2 || got.Drawn != 0 {
		t.Errorf("TextureLoaded: stats = %+v, want two clears", got)
	}

	if err := r.BuildPipeline(testFormat, 800, 600); err != nil {
		t.Fatal(err)
	}
	r.tick()
	if got := r.Stats(); got.Drawn != 1 {
		t.Errorf("Ready: stats = %+v, want one draw", got)
	}
	if s.presented.Load() != 3 {
		t.Errorf("presented = %d, want 3", s.presented.Load())
	}
}

func TestTickAfterReloadFallsBackToClear(t *testing.T) {
	r, _ := newTestRenderer(t)
	if err := r.LoadImageData(ramp(4, 2), 4, 2); err != nil {
		t.Fatal(err)
	}
	if err := r.BuildPipeline(testFormat, 800, 600); err != nil {
		t.Fatal(err)
	}
	r.tick()

	if err := r.LoadImageData(ramp(8, 8), 8, 8); err != nil {
		t.Fatal(err)
	}
	for range 3 {
		r.tick()
	}
	if got := r.Stats(); got.Drawn != 1 || got.Cleared != 3 {
		t.Errorf("stats = %+v, want 1 draw then 3 clears", got)
	}
}

// Retired textures, pipelines and command buffers must be released as
// their submissions complete, not held until Close.
func TestTickReleasesCompletedWork(t *testing.T) {
	r, _ := newTestRenderer(t)

	for i := range 300 {
		if i%60 == 0 {
			if err := r.LoadImageData(ramp(4, 2), 4, 2); err != nil {
				t.Fatal(err)
			}
			if err := r.BuildPipeline(testFormat, 800, 600); err != nil {
				t.Fatal(err)
			}
		}
		r.tick()
		if p := r.reclaim.Pending(); p > 2 {
			t.Fatalf("tick %d: %d objects awaiting release, want at most 2", i, p)
		}
	}
	r.tick()
	if p := r.reclaim.Pending(); p != 0 {
		t.Errorf("%d objects still awaiting release", p)
	}
	if got := r.Stats(); got.Drawn != 301 {
		t.Errorf("stats = %+v, want 301 draws", got)
	}
}

func TestTickSkipsFailedAcquire(t *testing.T) {
	r, s := newTestRenderer(t)
	s.failAcquire.Store(true)

	for range 5 {
		if !r.tick() {
			t.Fatal("failed acquisition must not stop the loop")
		}
	}
	if got := r.Stats(); got.Skipped != 5 || got.Cleared != 0 {
		t.Errorf("stats = %+v, want 5 skipped", got)
	}
	if s.presented.Load() != 0 {
		t.Errorf("presented = %d, want 0", s.presented.Load())
	}

	s.failAcquire.Store(false)
	r.tick()
	if got := r.Stats(); got.Cleared != 1 {
		t.Errorf("recovered: stats = %+v", got)
	}
}

func TestTickStopFlag(t *testing.T) {
	r, s := newTestRenderer(t)
	r.Stop()
	if r.tick() {
		t.Error("tick should report stop")
	}
	if s.acquired.Load() != 0 {
		t.Error("a stopped tick must not acquire a frame")
	}
}

func TestTickPanicsOnGenerationMismatch(t *testing.T) {
	r, _ := newTestRenderer(t)
	if err := r.LoadImageData(ramp(4, 2), 4, 2); err != nil {
		t.Fatal(err)
	}
	if err := r.BuildPipeline(testFormat, 800, 600); err != nil {
		t.Fatal(err)
	}

	// Swap the texture field alone, bypassing LoadImageData.
	other, err := gpu.NewImageTexture(r.ctx, ramp(2, 2), 2, 2, 999)
	if err != nil {
		t.Fatal(err)
	}
	r.mu.Lock()
	orig := r.texture
	r.texture = other
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		r.texture = orig
		r.mu.Unlock()
		other.Destroy(r.ctx.Device())
	}()

	defer func() {
		v := recover()
		if v == nil {
			t.Fatal("expected panic")
		}
		if msg, _ := v.(string); !strings.Contains(msg, "generation") {
			t.Errorf("panic = %v", v)
		}
	}()
	r.tick()
}

func TestStartStop(t *testing.T) {
	r, s := newTestRenderer(t, WithTickInterval(time.Millisecond))
	r.Start()
	r.Start()

	deadline := time.Now().Add(5 * time.Second)
	for s.presented.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if s.presented.Load() < 3 {
		t.Fatalf("loop presented %d frames", s.presented.Load())
	}

	r.Stop()
	for r.Running() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if r.Running() {
		t.Fatal("loop did not stop")
	}
	n := s.presented.Load()
	time.Sleep(10 * time.Millisecond)
	if s.presented.Load() != n {
		t.Error("frames presented after Stop")
	}

	r.Start()
	if !r.Running() {
		t.Error("Start after Stop should restart the loop")
	}
}

// Loading differently sized images and rebuilding while the loop runs must
// never draw a bind group over a replaced texture.
func TestConcurrentLoadWhileLooping(t *testing.T) {
	r, s := newTestRenderer(t, WithTickInterval(time.Millisecond))
	r.Start()

	var wg sync.WaitGroup
	for w := range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 25 {
				width := uint32(1 + (w+i)%7)
				height := uint32(1 + (w*3+i)%5)
				if err := r.LoadImageData(ramp(width, height), width, height); err != nil {
					t.Errorf("LoadImageData: %v", err)
					return
				}
				// Another goroutine may reload in between; only a
				// generation mismatch would be a bug, and that panics.
				if err := r.BuildPipeline(testFormat, 640, 480); err != nil {
					t.Errorf("BuildPipeline: %v", err)
					return
				}
				r.UpdateView(1.5, 0.01, 0.02)
				r.UpdateStretch(0, float32(width*height))
			}
		}()
	}
	wg.Wait()

	deadline := time.Now().Add(5 * time.Second)
	start := s.presented.Load()
	for s.presented.Load() < start+2 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if err := r.Close(); err != nil {
		t.Fatal(err)
	}

	st := r.Stats()
	if st.Drawn+st.Cleared == 0 {
		t.Errorf("loop presented nothing: %+v", st)
	}
	if r.State() != Empty {
		t.Errorf("State after Close = %v", r.State())
	}
}
