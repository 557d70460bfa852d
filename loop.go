package fitsview

import (
	"fmt"
	"time"

	"github.com/gogpu/fitsview/internal/gpu"
	"github.com/gogpu/wgpu/hal"
)

// Start launches the presentation loop. It presents one frame per tick
// interval until Stop or Close. Start on a closed renderer does nothing;
// on a running one it cancels a pending Stop.
func (r *Renderer) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	if r.running {
		r.stopFlag.Store(false)
		return
	}
	r.running = true
	r.stopFlag.Store(false)
	r.done = make(chan struct{})
	go r.run(r.done)
}

// Stop asks the loop to exit before its next tick and returns without
// waiting for an in-flight present.
func (r *Renderer) Stop() {
	r.stopFlag.Store(true)
}

// Running reports whether the loop goroutine is active.
func (r *Renderer) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

func (r *Renderer) run(done chan struct{}) {
	defer close(done)

	log := r.logger()
	log.Info("fitsview: presentation loop started", "tick", r.opts.tick)
	ticker := time.NewTicker(r.opts.tick)
	defer ticker.Stop()

	for {
		if r.tick() {
			<-ticker.C
			continue
		}
		if r.exit() {
			break
		}
	}
	log.Info("fitsview: presentation loop stopped", "stats", r.Stats())
}

// exit marks the loop stopped unless Start cleared the stop flag after
// tick observed it.
func (r *Renderer) exit() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopFlag.Load() || r.closed {
		r.running = false
		return true
	}
	return false
}

// tick presents one frame. It returns false once the stop flag is set.
func (r *Renderer) tick() bool {
	if r.stopFlag.Load() {
		return false
	}
	r.applyResize()

	frame, err := r.surface.Acquire()
	if err != nil {
		r.skipped.Add(1)
		r.logger().Debug("fitsview: tick skipped", "err", err)
		return true
	}

	cmds, drew, err := r.record(frame)
	if err != nil {
		frame.Discard()
		r.skipped.Add(1)
		r.logger().Error("fitsview: record frame", "err", err)
		return true
	}

	index, err := r.ctx.Queue().Submit([]hal.CommandBuffer{cmds.Buffer()})
	if err != nil {
		r.reclaim.Abandon()
		cmds.Release()
		frame.Discard()
		r.skipped.Add(1)
		r.logger().Error("fitsview: submit", "err", err)
		return true
	}
	r.reclaim.Submitted(index)
	r.reclaim.Retire(cmds.Release)

	if err := r.surface.Present(frame); err != nil {
		r.skipped.Add(1)
		r.logger().Debug("fitsview: present", "err", err)
		return true
	}
	if drew {
		r.drawn.Add(1)
	} else {
		r.cleared.Add(1)
	}
	return true
}

// record encodes the frame under the renderer lock so the texture and
// bind group it references cannot be swapped mid-recording. Objects
// retired between record and submit wait for that submission.
func (r *Renderer) record(frame gpu.Frame) (cmds *gpu.FrameCommands, drew bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.reclaim.Collect()

	vp := r.view
	if vp != nil {
		if r.texture == nil {
			panic("fitsview: view pipeline present without a texture")
		}
		if tg, pg := r.texture.Generation(), vp.Generation(); tg != pg {
			panic(fmt.Sprintf("fitsview: pipeline generation %d does not match texture generation %d", pg, tg))
		}
	}

	cmds, err = gpu.RecordFrame(r.ctx.Device(), frame.View(), r.opts.clearColor, vp)
	if err != nil {
		return nil, false, err
	}
	r.reclaim.Begin()
	return cmds, vp != nil, nil
}

// applyResize reconfigures the surface if Resize was called since the
// last tick. Only the loop touches the surface configuration.
func (r *Renderer) applyResize() {
	r.mu.Lock()
	size := r.resize
	r.resize = nil
	r.mu.Unlock()
	if size == nil {
		return
	}
	if err := r.surface.Configure(size[0], size[1]); err != nil {
		r.logger().Warn("fitsview: surface resize", "width", size[0], "height", size[1], "err", err)
		return
	}
	r.logger().Debug("fitsview: surface resized", "width", size[0], "height", size[1])
}
