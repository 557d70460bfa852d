// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"errors"
	"sync/atomic"
	"testing"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

// newNoopContext opens a device on the noop backend and wraps it in a
// shared Context.
func newNoopContext(t *testing.T) *Context {
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
	return NewSharedContext(openDev.Device, openDev.Queue)
}

func ramp(w, h uint32) []float32 {
	px := make([]float32, w*h)
	for i := range px {
		px[i] = float32(i)
	}
	return px
}

var errQueue = errors.New("test: queue rejected write")

// failingQueue rejects every buffer and texture write.
type failingQueue struct {
	hal.Queue
}

func (failingQueue) WriteBuffer(hal.Buffer, uint64, []byte) error { return errQueue }

func (failingQueue) WriteTexture(*hal.ImageCopyTexture, []byte, *hal.ImageDataLayout, *hal.Extent3D) error {
	return errQueue
}

// lagQueue reports completion only up to what the test sets.
type lagQueue struct {
	hal.Queue
	completed atomic.Uint64
}

func (q *lagQueue) PollCompleted() uint64 { return q.completed.Load() }

// encoderDevice hands out encoders that can fail and that count their
// cleanup calls.
type encoderDevice struct {
	hal.Device
	failBegin bool
	failEnd   bool
	last      *countingEncoder
}

func (d *encoderDevice) CreateCommandEncoder(desc *hal.CommandEncoderDescriptor) (hal.CommandEncoder, error) {
	enc, err := d.Device.CreateCommandEncoder(desc)
	if err != nil {
		return nil, err
	}
	d.last = &countingEncoder{CommandEncoder: enc, failBegin: d.failBegin, failEnd: d.failEnd}
	return d.last, nil
}

type countingEncoder struct {
	hal.CommandEncoder
	failBegin bool
	failEnd   bool
	discarded int
	destroyed int
}

func (e *countingEncoder) BeginEncoding(label string) error {
	if e.failBegin {
		return errors.New("test: begin encoding")
	}
	return e.CommandEncoder.BeginEncoding(label)
}

func (e *countingEncoder) EndEncoding() (hal.CommandBuffer, error) {
	if e.failEnd {
		return nil, errors.New("test: end encoding")
	}
	return e.CommandEncoder.EndEncoding()
}

func (e *countingEncoder) DiscardEncoding() {
	e.discarded++
	e.CommandEncoder.DiscardEncoding()
}

func (e *countingEncoder) Destroy() {
	e.destroyed++
	e.CommandEncoder.Destroy()
}

// readBuffer maps a noop buffer and copies out its first n bytes.
func readBuffer(t *testing.T, device hal.Device, buf hal.Buffer, n int) []byte {
	t.Helper()
	m, err := device.MapBuffer(buf, 0, uint64(n))
	if err != nil {
		t.Fatalf("MapBuffer: %v", err)
	}
	defer func() { _ = device.UnmapBuffer(buf) }()
	return append([]byte(nil), unsafe.Slice((*byte)(m.Ptr), n)...)
}
