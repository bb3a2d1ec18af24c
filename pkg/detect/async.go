package detect

import (
	"sync"

	"gocv.io/x/gocv"
)

// Handle resolves to exactly one DetectionResult. Wait blocks until
// the result is ready and may be called any number of times.
type Handle struct {
	once sync.Once
	ch   chan DetectionResult
	res  DetectionResult
}

func newHandle() *Handle {
	return &Handle{ch: make(chan DetectionResult, 1)}
}

// resolvedHandle wraps an already-computed result, for the degraded
// path where no pool is available.
func resolvedHandle(res DetectionResult) *Handle {
	h := newHandle()
	h.ch <- res
	return h
}

// Wait returns the result, blocking until the task completes.
func (h *Handle) Wait() DetectionResult {
	h.once.Do(func() { h.res = <-h.ch })
	return h.res
}

// DetectAsync schedules Detect on the shared pool and returns a
// handle. The frame is cloned before return, so the caller may reuse
// or close its Mat immediately. Without a pool the call degrades to a
// synchronous Detect.
func (d *Detector) DetectAsync(frame gocv.Mat) *Handle {
	p := currentPool()
	if p == nil {
		return resolvedHandle(d.Detect(frame))
	}
	owned := frame.Clone()
	h := newHandle()
	p.submit(func() {
		defer owned.Close()
		h.ch <- d.Detect(owned)
	})
	return h
}

// DetectBufferAsync schedules DetectBuffer on the shared pool over a
// private copy of buf.
func (d *Detector) DetectBufferAsync(buf []byte) *Handle {
	p := currentPool()
	if p == nil {
		return resolvedHandle(d.DetectBuffer(buf))
	}
	owned := make([]byte, len(buf))
	copy(owned, buf)
	h := newHandle()
	p.submit(func() {
		h.ch <- d.DetectBuffer(owned)
	})
	return h
}
