// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"sync"
	"time"

	"github.com/gogpu/wgpu/hal"
)

// reclaimPoll is the sleep between completion polls in WaitIdle.
const reclaimPoll = time.Millisecond

// Reclaimer defers releasing GPU objects until every submission that may
// reference them has completed. Completion is tracked by the submission
// indices the queue returns from Submit and reports from PollCompleted.
//
// A frame being recorded has no index yet. Begin marks it in flight;
// objects retired meanwhile wait for the index Submitted later reports,
// or are returned to the normal queue by Abandon if the frame never
// reaches the GPU.
type Reclaimer struct {
	queue hal.Queue

	mu       sync.Mutex
	last     uint64
	inFlight bool
	pending  []retired
}

type retired struct {
	after       uint64
	awaitSubmit bool
	release     func()
}

// NewReclaimer tracks submissions made on queue.
func NewReclaimer(queue hal.Queue) *Reclaimer {
	return &Reclaimer{queue: queue}
}

// Begin marks a frame as recorded but not yet submitted.
func (r *Reclaimer) Begin() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inFlight = true
}

// Submitted records the submission index of the frame started by Begin.
func (r *Reclaimer) Submitted(index uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.last = max(r.last, index)
	for i := range r.pending {
		if r.pending[i].awaitSubmit {
			r.pending[i].after = max(r.pending[i].after, index)
			r.pending[i].awaitSubmit = false
		}
	}
	r.inFlight = false
}

// Abandon ends the frame started by Begin without a submission.
func (r *Reclaimer) Abandon() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.pending {
		r.pending[i].awaitSubmit = false
	}
	r.inFlight = false
}

// Last returns the highest submission index seen.
func (r *Reclaimer) Last() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

// Retire schedules release to run once every submission made so far, and
// the frame currently being recorded if any, has completed. With nothing
// outstanding it runs immediately.
func (r *Reclaimer) Retire(release func()) {
	r.mu.Lock()
	if !r.inFlight && r.last <= r.queue.PollCompleted() {
		r.mu.Unlock()
		release()
		return
	}
	r.pending = append(r.pending, retired{after: r.last, awaitSubmit: r.inFlight, release: release})
	r.mu.Unlock()
}

// Pending returns the number of objects awaiting release.
func (r *Reclaimer) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// Collect releases every retired object whose submissions have completed.
// It never blocks on the GPU.
func (r *Reclaimer) Collect() int {
	r.mu.Lock()
	completed := r.queue.PollCompleted()
	var ready []func()
	keep := r.pending[:0]
	for _, p := range r.pending {
		if !p.awaitSubmit && p.after <= completed {
			ready = append(ready, p.release)
			continue
		}
		keep = append(keep, p)
	}
	clear(r.pending[len(keep):])
	r.pending = keep
	r.mu.Unlock()

	for _, release := range ready {
		release()
	}
	return len(ready)
}

// WaitIdle polls until every submitted index has completed or timeout
// elapses, then releases everything that completed.
func (r *Reclaimer) WaitIdle(timeout time.Duration) int {
	deadline := time.Now().Add(timeout)
	for r.queue.PollCompleted() < r.Last() && time.Now().Before(deadline) {
		time.Sleep(reclaimPoll)
	}
	return r.Collect()
}

// Destroy waits briefly for outstanding work and releases everything
// still pending.
func (r *Reclaimer) Destroy() {
	r.WaitIdle(time.Second)

	r.mu.Lock()
	pending := r.pending
	r.pending = nil
	r.inFlight = false
	r.mu.Unlock()
	for _, p := range pending {
		p.release()
	}
}
