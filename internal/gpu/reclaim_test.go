// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

func TestReclaimerImmediateWhenIdle(t *testing.T) {
	q := &lagQueue{}
	r := NewReclaimer(q)
	defer r.Destroy()

	released := false
	r.Retire(func() { released = true })
	if !released {
		t.Error("nothing in flight: release should run immediately")
	}
	if r.Pending() != 0 {
		t.Errorf("Pending = %d, want 0", r.Pending())
	}
}

func TestReclaimerWaitsForCompletion(t *testing.T) {
	q := &lagQueue{}
	r := NewReclaimer(q)

	r.Submitted(1)
	r.Submitted(2)

	released := 0
	r.Retire(func() { released++ })
	r.Retire(func() { released++ })
	if released != 0 {
		t.Fatal("release should wait for outstanding submissions")
	}

	q.completed.Store(1)
	if n := r.Collect(); n != 0 || released != 0 {
		t.Errorf("Collect at 1 released %d, want 0", n)
	}
	q.completed.Store(2)
	if n := r.Collect(); n != 2 || released != 2 {
		t.Errorf("Collect at 2 released %d, want 2", n)
	}
	if r.Pending() != 0 {
		t.Errorf("Pending = %d, want 0", r.Pending())
	}

	// Completed work lets later retirements run at once.
	r.Retire(func() { released++ })
	if released != 3 {
		t.Error("retire after completion should release immediately")
	}
}

func TestReclaimerRetireWhileRecording(t *testing.T) {
	q := &lagQueue{}
	r := NewReclaimer(q)

	r.Begin()
	released := false
	r.Retire(func() { released = true })
	if released {
		t.Fatal("object may be referenced by the frame being recorded")
	}
	if r.Collect() != 0 {
		t.Fatal("Collect must not release before the frame is submitted")
	}

	r.Submitted(5)
	q.completed.Store(4)
	r.Collect()
	if released {
		t.Fatal("released before the recording's submission completed")
	}
	q.completed.Store(5)
	r.Collect()
	if !released {
		t.Error("not released after the submission completed")
	}
}

func TestReclaimerAbandon(t *testing.T) {
	q := &lagQueue{}
	r := NewReclaimer(q)

	r.Begin()
	released := false
	r.Retire(func() { released = true })
	r.Abandon()
	if r.Collect() != 1 || !released {
		t.Error("abandoned frame should not hold back releases")
	}
}

func TestReclaimerDestroyReleasesAll(t *testing.T) {
	q := &lagQueue{}
	r := NewReclaimer(q)

	r.Submitted(3)
	released := 0
	r.Retire(func() { released++ })
	r.Begin()
	r.Retire(func() { released++ })

	r.Destroy()
	if released != 2 {
		t.Errorf("Destroy released %d, want 2", released)
	}
	if r.Pending() != 0 {
		t.Errorf("Pending after Destroy = %d", r.Pending())
	}
}

// Every frame submitted on a synchronous queue completes at once, so the
// pending set must not grow with the number of frames.
func TestReclaimerBoundedOverFrames(t *testing.T) {
	ctx := newNoopContext(t)
	target := newTargetView(t, ctx)
	r := NewReclaimer(ctx.Queue())
	defer r.Destroy()

	for i := range 300 {
		r.Collect()
		cmds, err := RecordFrame(ctx.Device(), target, gputypes.Color{}, nil)
		if err != nil {
			t.Fatalf("RecordFrame: %v", err)
		}
		r.Begin()
		if i%50 == 0 {
			r.Retire(func() {})
		}
		index, err := ctx.Queue().Submit([]hal.CommandBuffer{cmds.Buffer()})
		if err != nil {
			t.Fatalf("Submit: %v", err)
		}
		r.Submitted(index)
		r.Retire(cmds.Release)
		if p := r.Pending(); p > 1 {
			t.Fatalf("frame %d: Pending = %d, want at most 1", i, p)
		}
	}
	r.Collect()
	if p := r.Pending(); p != 0 {
		t.Errorf("Pending after last frame = %d, want 0", p)
	}
	if r.Last() != 300 {
		t.Errorf("Last = %d, want 300", r.Last())
	}
}
