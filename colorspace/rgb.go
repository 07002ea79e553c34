// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package colorspace

// Sample offsets of the RGB strategy.
const (
	Red   = 0
	Green = 1
	Blue  = 2
	Alpha = 3

	// RGBAChannels is the number of samples in an RGB pixel.
	RGBAChannels = 4
)

var rgbLayout = []Channel{
	{Name: "red", Index: Red},
	{Name: "green", Index: Green},
	{Name: "blue", Index: Blue},
	{Name: "alpha", Index: Alpha, Alpha: true},
}

// RGB is the four channel {Red, Green, Blue, Alpha} strategy.
//
// With Q = uint8 its memory layout is identical to image.NRGBA.Pix.
type RGB[Q Quantum] struct{}

// Name implements Strategy.
func (RGB[Q]) Name() string { return "rgba" }

// Channels implements Strategy.
func (RGB[Q]) Channels() int { return RGBAChannels }

// AlphaIndex implements Strategy.
func (RGB[Q]) AlphaIndex() int { return Alpha }

// Layout implements Strategy. The returned slice must not be modified.
func (RGB[Q]) Layout() []Channel { return rgbLayout }

// NativeColor implements Strategy.
func (RGB[Q]) NativeColor(c ColorSource, dst Pixel[Q]) {
	r, g, b := c.RGB8()
	dst[Red] = Upscale[Q](r)
	dst[Green] = Upscale[Q](g)
	dst[Blue] = Upscale[Q](b)
}

// NativeColorOpacity implements Strategy.
func (s RGB[Q]) NativeColorOpacity(c ColorSource, opacity Q, dst Pixel[Q]) {
	s.NativeColor(c, dst)
	dst[Alpha] = opacity
}

// Composite implements Strategy.
func (RGB[Q]) Composite(dst, src Pixel[Q], opacity Q, op CompositeOp) bool {
	return compositePixel(dst[:RGBAChannels], src[:RGBAChannels], opacity, op, Alpha)
}

// ToNRGBA implements Strategy.
func (RGB[Q]) ToNRGBA(src Pixel[Q], dst []byte) {
	_ = dst[3]
	dst[0] = Downscale(src[Red])
	dst[1] = Downscale(src[Green])
	dst[2] = Downscale(src[Blue])
	dst[3] = Downscale(src[Alpha])
}

var (
	_ Strategy[uint8]  = RGB[uint8]{}
	_ Strategy[uint16] = RGB[uint16]{}
)
