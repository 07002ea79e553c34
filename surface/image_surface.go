// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package surface

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"

	"github.com/gogpu/tilecomp/render"
)

// ImageSurface is a CPU surface backed by an *image.RGBA.
//
// By default DrawImage replaces the covered pixels (draw.Src), so painting
// an updated region twice leaves no trace of the old contents. Set the
// operator to draw.Over to blend frames onto what is already there.
type ImageSurface struct {
	width  int
	height int
	img    *image.RGBA
	op     draw.Op

	// closed tracks if Close has been called
	closed bool
}

// NewImageSurface creates a transparent surface of the given size.
func NewImageSurface(width, height int) *ImageSurface {
	if width <= 0 {
		width = 1
	}
	if height <= 0 {
		height = 1
	}
	return &ImageSurface{
		width:  width,
		height: height,
		img:    image.NewRGBA(image.Rect(0, 0, width, height)),
		op:     draw.Src,
	}
}

// NewImageSurfaceFromImage creates a surface that paints into img.
func NewImageSurfaceFromImage(img *image.RGBA) *ImageSurface {
	b := img.Bounds()
	return &ImageSurface{
		width:  b.Dx(),
		height: b.Dy(),
		img:    img,
		op:     draw.Src,
	}
}

// Width returns the surface width.
func (s *ImageSurface) Width() int {
	return s.width
}

// Height returns the surface height.
func (s *ImageSurface) Height() int {
	return s.height
}

// SetOp selects how DrawImage combines frames with the surface.
func (s *ImageSurface) SetOp(op draw.Op) {
	s.op = op
}

// Clear fills the entire surface with the given color.
func (s *ImageSurface) Clear(c color.Color) {
	if s.closed {
		return
	}
	draw.Draw(s.img, s.img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
}

// DrawImage implements render.Painter. img is drawn with its bounds' top-left
// corner at (x, y) of the surface; pixels outside the surface are clipped.
func (s *ImageSurface) DrawImage(x, y int, img image.Image) {
	if s.closed || img == nil {
		return
	}
	// An NRGBA source hits the draw package's fast paths.
	if f, ok := img.(*render.Frame); ok {
		img = f.NRGBA()
	}
	sb := img.Bounds()
	r := image.Rect(x, y, x+sb.Dx(), y+sb.Dy()).Add(s.img.Rect.Min)
	draw.Draw(s.img, r, img, sb.Min, s.op)
}

// Snapshot returns a copy of the current surface contents.
func (s *ImageSurface) Snapshot() *image.RGBA {
	if s.closed {
		return nil
	}
	out := image.NewRGBA(image.Rect(0, 0, s.width, s.height))
	draw.Draw(out, out.Rect, s.img, s.img.Rect.Min, draw.Src)
	return out
}

// Image returns the underlying image. This is a direct reference, not a
// copy.
func (s *ImageSurface) Image() *image.RGBA {
	return s.img
}

// Close releases the backing image.
func (s *ImageSurface) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.img = nil
	return nil
}

var (
	_ Surface        = (*ImageSurface)(nil)
	_ render.Painter = (*ImageSurface)(nil)
)
