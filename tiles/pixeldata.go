// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package tiles

import (
	"fmt"
	"image"

	"github.com/gogpu/tilecomp/colorspace"
)

// Mode is the direction of a PixelData transfer.
type Mode uint8

const (
	// ModeRead fills the descriptor from the plane.
	ModeRead Mode = iota

	// ModeWrite scatters the descriptor into the plane.
	ModeWrite
)

// String returns "read" or "write".
func (m Mode) String() string {
	if m == ModeWrite {
		return "write"
	}
	return "read"
}

// Ownership says who owns a descriptor's buffer.
type Ownership uint8

const (
	// Borrowed buffers belong to the caller and outlive the descriptor.
	Borrowed Ownership = iota

	// Owned buffers come from a Pool and go back to it on Release.
	Owned
)

// PixelData describes a rectangular pixel transfer.
//
// The rectangle is inclusive on both corners: Width = X2-X1+1 and
// Height = Y2-Y1+1. Data holds Height rows of Stride samples, each row
// Width pixels of Depth samples.
//
// A descriptor lives for one transfer and is not shared between
// goroutines.
type PixelData[Q colorspace.Quantum] struct {
	X1, Y1, X2, Y2 int
	Width, Height  int

	// Depth is the number of samples per pixel.
	Depth int

	// Stride is the row length in samples, Depth*Width.
	Stride int

	Mode Mode
	Data []Q

	Ownership Ownership
	pool      *Pool[Q]
}

// Borrow builds a descriptor over caller storage. rect is half-open, as
// image.Rectangle always is; buf must hold at least Dx*Dy*depth samples.
func Borrow[Q colorspace.Quantum](rect image.Rectangle, mode Mode, depth int, buf []Q) (*PixelData[Q], error) {
	pd := describe[Q](rect, mode, depth)
	pd.Data = buf
	pd.Ownership = Borrowed
	if err := pd.Validate(); err != nil {
		return nil, err
	}
	return pd, nil
}

// Acquire builds a descriptor whose zeroed buffer comes from the default
// pool for Q. Call Release when done.
func Acquire[Q colorspace.Quantum](rect image.Rectangle, mode Mode, depth int) (*PixelData[Q], error) {
	return AcquireFrom(DefaultPool[Q](), rect, mode, depth)
}

// AcquireFrom is Acquire with an explicit pool.
func AcquireFrom[Q colorspace.Quantum](pool *Pool[Q], rect image.Rectangle, mode Mode, depth int) (*PixelData[Q], error) {
	pd := describe[Q](rect, mode, depth)
	if pd.X2 < pd.X1 || pd.Y2 < pd.Y1 {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRect, rect)
	}
	if depth <= 0 {
		return nil, fmt.Errorf("%w: depth %d", ErrDepthMismatch, depth)
	}
	pd.Data = pool.Get(pd.Stride * pd.Height)
	pd.Ownership = Owned
	pd.pool = pool
	return pd, nil
}

// WithPixelData acquires an owned descriptor, runs fn and releases the
// descriptor on every exit path, including a panic in fn.
func WithPixelData[Q colorspace.Quantum](rect image.Rectangle, mode Mode, depth int, fn func(pd *PixelData[Q]) error) error {
	pd, err := Acquire[Q](rect, mode, depth)
	if err != nil {
		return err
	}
	defer pd.Release()
	return fn(pd)
}

func describe[Q colorspace.Quantum](rect image.Rectangle, mode Mode, depth int) *PixelData[Q] {
	w, h := rect.Dx(), rect.Dy()
	return &PixelData[Q]{
		X1: rect.Min.X, Y1: rect.Min.Y,
		X2: rect.Max.X - 1, Y2: rect.Max.Y - 1,
		Width: w, Height: h,
		Depth:  depth,
		Stride: depth * w,
		Mode:   mode,
	}
}

// Validate checks the descriptor's internal consistency.
func (pd *PixelData[Q]) Validate() error {
	switch {
	case pd == nil:
		return fmt.Errorf("%w: nil descriptor", ErrMalformedRect)
	case pd.X2 < pd.X1 || pd.Y2 < pd.Y1:
		return fmt.Errorf("%w: (%d,%d)-(%d,%d)", ErrMalformedRect, pd.X1, pd.Y1, pd.X2, pd.Y2)
	case pd.Width != pd.X2-pd.X1+1 || pd.Height != pd.Y2-pd.Y1+1:
		return fmt.Errorf("%w: size %dx%d for (%d,%d)-(%d,%d)",
			ErrMalformedRect, pd.Width, pd.Height, pd.X1, pd.Y1, pd.X2, pd.Y2)
	case pd.Depth <= 0:
		return fmt.Errorf("%w: depth %d", ErrDepthMismatch, pd.Depth)
	case pd.Stride != pd.Depth*pd.Width:
		return fmt.Errorf("%w: stride %d, want %d", ErrStrideMismatch, pd.Stride, pd.Depth*pd.Width)
	case len(pd.Data) < pd.Stride*pd.Height:
		return fmt.Errorf("%w: %d samples, need %d", ErrShortBuffer, len(pd.Data), pd.Stride*pd.Height)
	}
	return nil
}

// Rect returns the descriptor rectangle in half-open form.
func (pd *PixelData[Q]) Rect() image.Rectangle {
	return image.Rect(pd.X1, pd.Y1, pd.X2+1, pd.Y2+1)
}

// Pixel returns the pixel at plane coordinates (x, y) as a view into Data.
func (pd *PixelData[Q]) Pixel(x, y int) colorspace.Pixel[Q] {
	off := (y-pd.Y1)*pd.Stride + (x-pd.X1)*pd.Depth
	return colorspace.Pixel[Q](pd.Data[off : off+pd.Depth])
}

// Release returns an owned buffer to its pool and detaches Data. It is a
// no-op for borrowed storage beyond detaching, and safe to call twice.
func (pd *PixelData[Q]) Release() {
	if pd.Ownership == Owned && pd.pool != nil {
		pd.pool.Put(pd.Data)
		pd.pool = nil
	}
	pd.Data = nil
}

// check validates pd for a transfer in mode against a plane of depth
// samples per pixel.
func (pd *PixelData[Q]) check(mode Mode, depth int) error {
	if err := pd.Validate(); err != nil {
		return err
	}
	if pd.Mode != mode {
		return fmt.Errorf("%w: %s descriptor for %s", ErrWrongMode, pd.Mode, mode)
	}
	if pd.Depth != depth {
		return fmt.Errorf("%w: descriptor %d, plane %d", ErrDepthMismatch, pd.Depth, depth)
	}
	return nil
}
