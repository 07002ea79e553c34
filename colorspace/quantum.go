// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package colorspace

import "unsafe"

// Quantum is the storage type of one channel sample.
type Quantum interface {
	~uint8 | ~uint16
}

// Max returns the full-scale sample value for Q (255 or 65535).
// For the alpha channel Max means fully opaque and 0 fully transparent.
func Max[Q Quantum]() Q {
	return ^Q(0)
}

// OpacityTransparent is the opacity that leaves the destination unchanged.
const OpacityTransparent = 0

// OpacityOpaque returns full opacity for Q. It equals Max.
func OpacityOpaque[Q Quantum]() Q {
	return Max[Q]()
}

// Bytes returns the size of one sample of Q in bytes.
func Bytes[Q Quantum]() int {
	var q Q
	return int(unsafe.Sizeof(q))
}

// Upscale converts an 8-bit channel value to Q by linear rescale.
// Upscale(0) == 0 and Upscale(255) == Max[Q]().
func Upscale[Q Quantum](v uint8) Q {
	return Q(uint32(v) * uint32(Max[Q]()) / 255)
}

// Downscale converts a sample of Q to 8 bits, rounding to nearest.
// Downscale(Upscale(v)) == v for every v.
func Downscale[Q Quantum](v Q) uint8 {
	m := uint32(Max[Q]())
	return uint8((uint32(v)*255 + m/2) / m)
}

// Scale multiplies a by b/Max with truncating division.
func Scale[Q Quantum](a, b Q) Q {
	return Q(uint32(a) * uint32(b) / uint32(Max[Q]()))
}
