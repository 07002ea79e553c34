// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"
	"fmt"
	"image"
	"unsafe"

	"github.com/gogpu/tilecomp/colorspace"
	"github.com/gogpu/tilecomp/internal/logging"
	"github.com/gogpu/tilecomp/tiles"
)

// Errors returned by the render path.
var (
	// ErrScratchTooSmall is returned when a rectangle does not fit the
	// Scratch passed with it.
	ErrScratchTooSmall = errors.New("render: scratch too small")

	// ErrInvalidOrder is returned for a ChannelOrder that is not a
	// permutation.
	ErrInvalidOrder = errors.New("render: invalid channel order")
)

// Source is a plane the renderer reads from. *tiles.Manager implements it.
type Source[Q colorspace.Quantum] interface {
	Channels() int
	ReadPixelData(pd *tiles.PixelData[Q]) error
}

// DirtySource is a Source that tracks changed regions.
type DirtySource[Q colorspace.Quantum] interface {
	Source[Q]
	TakeDirty() []image.Rectangle
	MarkDirty(rect image.Rectangle)
}

// Renderer converts plane regions into Frames and hands them to a Painter.
//
// Thread safety: a Renderer holds no mutable state and may be shared;
// each goroutine needs its own Scratch.
type Renderer[Q colorspace.Quantum] struct {
	strategy colorspace.Strategy[Q]
	order    ChannelOrder
	channels int

	// direct is set when stored samples already are display bytes.
	direct bool
}

// NewRenderer creates a renderer producing frames in the given order.
func NewRenderer[Q colorspace.Quantum](s colorspace.Strategy[Q], order ChannelOrder) (*Renderer[Q], error) {
	if !order.Valid() {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOrder, [4]uint8(order))
	}
	_, rgb := s.(colorspace.RGB[Q])
	return &Renderer[Q]{
		strategy: s,
		order:    order,
		channels: s.Channels(),
		direct:   rgb && colorspace.Bytes[Q]() == 1 && order.IsIdentity(),
	}, nil
}

// Order returns the renderer's output byte order.
func (r *Renderer[Q]) Order() ChannelOrder {
	return r.order
}

// ZeroCopy reports whether frames wrap scratch samples without conversion.
func (r *Renderer[Q]) ZeroCopy() bool {
	return r.direct
}

// Frame reads rect from src and returns it as display bytes.
func (r *Renderer[Q]) Frame(src Source[Q], scratch *Scratch[Q], rect image.Rectangle) (*Frame, error) {
	if src.Channels() != r.channels {
		return nil, fmt.Errorf("render: source has %d channels, strategy %s has %d: %w",
			src.Channels(), r.strategy.Name(), r.channels, tiles.ErrDepthMismatch)
	}
	if scratch.Channels() != r.channels {
		return nil, fmt.Errorf("render: scratch sized for %d channels, strategy %s has %d: %w",
			scratch.Channels(), r.strategy.Name(), r.channels, tiles.ErrDepthMismatch)
	}
	if !scratch.Fits(rect, r.channels) {
		w, h := scratch.Size()
		return nil, fmt.Errorf("%w: %dx%d rect, scratch %dx%d", ErrScratchTooSmall, rect.Dx(), rect.Dy(), w, h)
	}

	ch := r.channels
	n := rect.Dx() * rect.Dy()
	samples := scratch.samples[:n*ch]
	pd, err := tiles.Borrow(rect, tiles.ModeRead, ch, samples)
	if err != nil {
		return nil, err
	}
	if err := src.ReadPixelData(pd); err != nil {
		return nil, err
	}

	if r.direct {
		return &Frame{
			Pix:    unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(samples))), len(samples)),
			Stride: rect.Dx() * 4,
			Rect:   rect,
			Order:  r.order,
		}, nil
	}

	pix := scratch.bytes(n * 4)
	o := r.order
	var px [4]byte
	for i := range n {
		r.strategy.ToNRGBA(colorspace.Pixel[Q](samples[i*ch:(i+1)*ch]), px[:])
		d := pix[i*4 : i*4+4]
		d[0], d[1], d[2], d[3] = px[o[0]], px[o[1]], px[o[2]], px[o[3]]
	}
	return &Frame{Pix: pix, Stride: rect.Dx() * 4, Rect: rect, Order: o}, nil
}

// Render reads rect from src and paints it at rect.Min.
func (r *Renderer[Q]) Render(src Source[Q], scratch *Scratch[Q], rect image.Rectangle, p Painter) error {
	f, err := r.Frame(src, scratch, rect)
	if err != nil {
		return err
	}
	p.DrawImage(rect.Min.X, rect.Min.Y, f)
	return nil
}

// Update renders every dirty region of src and clears its flags. It
// returns the number of regions painted. On error the regions not yet
// painted are marked dirty again.
func (r *Renderer[Q]) Update(src DirtySource[Q], scratch *Scratch[Q], p Painter) (int, error) {
	rects := src.TakeDirty()
	for i, rect := range rects {
		if err := r.Render(src, scratch, rect, p); err != nil {
			for _, rest := range rects[i:] {
				src.MarkDirty(rest)
			}
			return i, err
		}
	}
	if len(rects) > 0 {
		logging.Logger().Debug("render: update", "rects", len(rects), "order", r.order.String())
	}
	return len(rects), nil
}
