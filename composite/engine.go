// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package composite blends pixel runs under a colorspace.CompositeOp.
//
// Engine is the entry point used by layer merging: it applies a
// colorspace.Strategy's per-pixel algebra to single pixels, aligned runs
// and strided rectangles. Ops without defined math are reported through
// the shared logger and counted; the destination is left unchanged and no
// error is returned, so callers must tolerate "no visible change".
//
// Engine performs no locking. Callers guarantee exclusive access to the
// destination for the duration of a call.
package composite

import (
	"sync/atomic"

	"github.com/gogpu/tilecomp/colorspace"
	"github.com/gogpu/tilecomp/internal/logging"
)

// Engine composites pixel buffers laid out by one colorspace.Strategy.
//
// Thread safety: an Engine may be shared between goroutines that composite
// into disjoint destinations.
type Engine[Q colorspace.Quantum] struct {
	strategy colorspace.Strategy[Q]
	channels int

	unsupported atomic.Uint64
}

// NewEngine creates an engine for the given strategy.
func NewEngine[Q colorspace.Quantum](s colorspace.Strategy[Q]) *Engine[Q] {
	return &Engine[Q]{
		strategy: s,
		channels: s.Channels(),
	}
}

// Strategy returns the engine's color strategy.
func (e *Engine[Q]) Strategy() colorspace.Strategy[Q] {
	return e.strategy
}

// Supports reports whether op has defined math.
func (e *Engine[Q]) Supports(op colorspace.CompositeOp) bool {
	return op.Supported()
}

// Unsupported returns how many composite calls selected an op without
// defined math since the engine was created.
func (e *Engine[Q]) Unsupported() uint64 {
	return e.unsupported.Load()
}

// report records an unsupported op selection. It returns true when the
// caller must skip the call.
func (e *Engine[Q]) report(op colorspace.CompositeOp, pixels int) bool {
	if op.Supported() {
		return false
	}
	e.unsupported.Add(1)
	logging.Logger().Warn("composite: op not implemented, destination unchanged",
		"op", op.String(),
		"strategy", e.strategy.Name(),
		"pixels", pixels)
	return true
}

// Composite blends one src pixel onto dst.
func (e *Engine[Q]) Composite(dst, src colorspace.Pixel[Q], opacity Q, op colorspace.CompositeOp) {
	if e.report(op, 1) {
		return
	}
	e.strategy.Composite(dst, src, opacity, op)
}

// CompositeRun blends n consecutive src pixels onto n consecutive dst
// pixels. Both slices must hold at least n pixels.
func (e *Engine[Q]) CompositeRun(dst, src []Q, n int, opacity Q, op colorspace.CompositeOp) {
	if n <= 0 || e.report(op, n) {
		return
	}
	e.run(dst, src, n, opacity, op)
}

// CompositeRect blends a w x h rectangle. Strides are in samples.
func (e *Engine[Q]) CompositeRect(dst []Q, dstStride int, src []Q, srcStride int, w, h int, opacity Q, op colorspace.CompositeOp) {
	if w <= 0 || h <= 0 || e.report(op, w*h) {
		return
	}
	rowLen := w * e.channels
	for y := range h {
		d := dst[y*dstStride : y*dstStride+rowLen]
		s := src[y*srcStride : y*srcStride+rowLen]
		e.run(d, s, w, opacity, op)
	}
}

func (e *Engine[Q]) run(dst, src []Q, n int, opacity Q, op colorspace.CompositeOp) {
	ch := e.channels
	// Whole-run fast paths for the opaque copy and clear cases.
	if opacity == colorspace.Max[Q]() {
		switch op {
		case colorspace.Copy:
			copy(dst[:n*ch], src[:n*ch])
			return
		case colorspace.Clear:
			clear(dst[:n*ch])
			return
		}
	}
	for i := 0; i < n*ch; i += ch {
		e.strategy.Composite(dst[i:i+ch], src[i:i+ch], opacity, op)
	}
}
