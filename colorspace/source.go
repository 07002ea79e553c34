// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package colorspace

import (
	"fmt"
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
)

// ColorSource is an external color that can be converted to native samples.
// RGB8 returns the straight (non-premultiplied) 8-bit red, green and blue
// components; alpha is supplied separately by the caller.
type ColorSource interface {
	RGB8() (r, g, b uint8)
}

// DeviceColor is a device-independent color with float components in [0,1].
type DeviceColor colorful.Color

// RGB8 implements ColorSource. Out-of-gamut components are clamped.
func (c DeviceColor) RGB8() (r, g, b uint8) {
	return colorful.Color(c).Clamped().RGB255()
}

// ParseHex parses a "#rrggbb" or "#rgb" color.
func ParseHex(s string) (DeviceColor, error) {
	c, err := colorful.Hex(s)
	if err != nil {
		return DeviceColor{}, fmt.Errorf("colorspace: parse color %q: %w", s, err)
	}
	return DeviceColor(c), nil
}

// HostColor adapts a host display color (image/color) to ColorSource.
type HostColor struct {
	color.Color
}

// RGB8 implements ColorSource. The color is un-premultiplied first, so a
// half transparent red still yields r == 255.
func (c HostColor) RGB8() (r, g, b uint8) {
	n := color.NRGBAModel.Convert(c.Color).(color.NRGBA)
	return n.R, n.G, n.B
}

// PackedRGB is a packed 32-bit 0xAARRGGBB color. The alpha byte is ignored.
type PackedRGB uint32

// PackRGB builds a PackedRGB from its components.
func PackRGB(r, g, b uint8) PackedRGB {
	return PackedRGB(0xff000000 | uint32(r)<<16 | uint32(g)<<8 | uint32(b))
}

// RGB8 implements ColorSource.
func (p PackedRGB) RGB8() (r, g, b uint8) {
	return uint8(p >> 16), uint8(p >> 8), uint8(p)
}

// Interface checks.
var (
	_ ColorSource = DeviceColor{}
	_ ColorSource = HostColor{}
	_ ColorSource = PackedRGB(0)
)
