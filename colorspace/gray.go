// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package colorspace

// Sample offsets of the Gray strategy.
const (
	GrayValue = 0
	GrayAlpha = 1

	// GrayChannels is the number of samples in a Gray pixel.
	GrayChannels = 2
)

var grayLayout = []Channel{
	{Name: "gray", Index: GrayValue},
	{Name: "alpha", Index: GrayAlpha, Alpha: true},
}

// Gray is the two channel {Gray, Alpha} strategy.
type Gray[Q Quantum] struct{}

// Luma returns the 8-bit luminance of c using the JFIF coefficients.
// 19595 + 38470 + 7471 == 65536.
func Luma(c ColorSource) uint8 {
	r, g, b := c.RGB8()
	y := (19595*uint32(r) + 38470*uint32(g) + 7471*uint32(b) + 1<<15) >> 16
	return uint8(y)
}

// Name implements Strategy.
func (Gray[Q]) Name() string { return "graya" }

// Channels implements Strategy.
func (Gray[Q]) Channels() int { return GrayChannels }

// AlphaIndex implements Strategy.
func (Gray[Q]) AlphaIndex() int { return GrayAlpha }

// Layout implements Strategy. The returned slice must not be modified.
func (Gray[Q]) Layout() []Channel { return grayLayout }

// NativeColor implements Strategy.
func (Gray[Q]) NativeColor(c ColorSource, dst Pixel[Q]) {
	dst[GrayValue] = Upscale[Q](Luma(c))
}

// NativeColorOpacity implements Strategy.
func (s Gray[Q]) NativeColorOpacity(c ColorSource, opacity Q, dst Pixel[Q]) {
	s.NativeColor(c, dst)
	dst[GrayAlpha] = opacity
}

// Composite implements Strategy.
func (Gray[Q]) Composite(dst, src Pixel[Q], opacity Q, op CompositeOp) bool {
	return compositePixel(dst[:GrayChannels], src[:GrayChannels], opacity, op, GrayAlpha)
}

// ToNRGBA implements Strategy.
func (Gray[Q]) ToNRGBA(src Pixel[Q], dst []byte) {
	_ = dst[3]
	y := Downscale(src[GrayValue])
	dst[0] = y
	dst[1] = y
	dst[2] = y
	dst[3] = Downscale(src[GrayAlpha])
}

var (
	_ Strategy[uint8]  = Gray[uint8]{}
	_ Strategy[uint16] = Gray[uint16]{}
)
