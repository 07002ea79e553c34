// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"image"
	"image/color"
)

// Frame is a display-ready 8-bit region: Rect.Dx()*Rect.Dy() pixels of four
// bytes in Order, rows Stride bytes apart. Rect is in plane coordinates.
//
// Frame implements image.Image with straight-alpha colors.
type Frame struct {
	Pix    []byte
	Stride int
	Rect   image.Rectangle
	Order  ChannelOrder
}

// ColorModel implements image.Image.
func (f *Frame) ColorModel() color.Model { return color.NRGBAModel }

// Bounds implements image.Image.
func (f *Frame) Bounds() image.Rectangle { return f.Rect }

// At implements image.Image.
func (f *Frame) At(x, y int) color.Color {
	if !(image.Point{X: x, Y: y}.In(f.Rect)) {
		return color.NRGBA{}
	}
	p := f.Pix[f.PixOffset(x, y):]
	inv := f.Order.Inverse()
	return color.NRGBA{R: p[inv[0]], G: p[inv[1]], B: p[inv[2]], A: p[inv[3]]}
}

// PixOffset returns the index of the first byte of pixel (x, y).
func (f *Frame) PixOffset(x, y int) int {
	return (y-f.Rect.Min.Y)*f.Stride + (x-f.Rect.Min.X)*4
}

// NRGBA returns the frame as an *image.NRGBA. For identity order the
// result shares Pix with the frame; otherwise it is a converted copy.
func (f *Frame) NRGBA() *image.NRGBA {
	if f.Order.IsIdentity() {
		return &image.NRGBA{Pix: f.Pix, Stride: f.Stride, Rect: f.Rect}
	}
	out := image.NewNRGBA(f.Rect)
	inv := f.Order.Inverse()
	w := f.Rect.Dx() * 4
	for y := range f.Rect.Dy() {
		Swizzle(out.Pix[y*out.Stride:y*out.Stride+w], f.Pix[y*f.Stride:y*f.Stride+w], inv)
	}
	return out
}

var _ image.Image = (*Frame)(nil)
