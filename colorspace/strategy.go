// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package colorspace

// Pixel is one pixel's samples in the channel order of its Strategy.
// A Pixel produced by slicing a tile or run is a view; writes go through.
type Pixel[Q Quantum] []Q

// Channel describes one position in a strategy's channel layout.
type Channel struct {
	// Name is the channel name, e.g. "red" or "alpha".
	Name string

	// Index is the sample offset of the channel within a pixel.
	Index int

	// Alpha marks the opacity channel.
	Alpha bool
}

// Strategy is a color model: channel layout, color conversion and
// per-pixel compositing. A strategy is chosen once per image plane and
// never mixed within one plane.
type Strategy[Q Quantum] interface {
	// Name returns a short identifier such as "rgba".
	Name() string

	// Channels returns the number of samples per pixel.
	Channels() int

	// AlphaIndex returns the sample offset of the alpha channel.
	AlphaIndex() int

	// Layout returns the channel layout in storage order.
	Layout() []Channel

	// NativeColor writes c into the color channels of dst.
	// The alpha channel is left untouched.
	NativeColor(c ColorSource, dst Pixel[Q])

	// NativeColorOpacity writes c into dst and sets alpha to opacity.
	NativeColorOpacity(c ColorSource, opacity Q, dst Pixel[Q])

	// Composite blends src onto dst in place under op, scaling the
	// source coverage by opacity. It returns false, leaving dst
	// untouched, when op has no defined math.
	Composite(dst, src Pixel[Q], opacity Q, op CompositeOp) bool

	// ToNRGBA converts one pixel to straight 8-bit R, G, B, A in dst[0:4].
	ToNRGBA(src Pixel[Q], dst []byte)
}

// compositePixel implements the op algebra shared by all strategies.
// ai is the alpha sample offset; every other sample is a color channel.
func compositePixel[Q Quantum](dst, src Pixel[Q], opacity Q, op CompositeOp, ai int) bool {
	switch op {
	case Clear:
		if opacity == Max[Q]() {
			clear(dst)
		}
		return true
	case Copy:
		if opacity == Max[Q]() {
			copy(dst, src)
		}
		return true
	case Over:
		over(dst, src, opacity, ai)
		return true
	default:
		return false
	}
}

// over is straight-alpha source-over with truncating fixed-point division.
//
// The destination alpha is accumulated in two steps: an intermediate
// full-opacity alpha a1 first, then the stored alpha from a1. This is not
// the textbook Porter-Duff alpha and is kept bit-compatible on purpose.
func over[Q Quantum](dst, src Pixel[Q], opacity Q, ai int) {
	m := uint32(Max[Q]())
	sa := uint32(src[ai])
	if sa == 0 {
		return
	}
	if uint32(opacity) == m && uint32(dst[ai]) == m && sa == m {
		copy(dst, src)
		return
	}

	alpha := sa * uint32(opacity) / m
	inv := m - alpha
	for c := range dst {
		if c == ai {
			continue
		}
		dst[c] = Q((uint32(dst[c])*inv + uint32(src[c])*alpha) / m)
	}

	da := uint32(dst[ai])
	a1 := (da*(m-sa) + sa) / m
	dst[ai] = Q((da*(m-a1) + sa) / m)
}
