// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// ChannelOrder is a byte permutation applied to 4-byte RGBA pixels:
// output byte i is input byte order[i].
type ChannelOrder [4]uint8

// Common orders.
var (
	// OrderRGBA is the identity order, the layout of image.NRGBA.
	OrderRGBA = ChannelOrder{0, 1, 2, 3}

	// OrderARGB is alpha first, the byte order of a packed 0xAARRGGBB
	// word on big-endian hosts.
	OrderARGB = ChannelOrder{3, 0, 1, 2}

	// OrderBGRA is the byte order of a packed 0xAARRGGBB word on
	// little-endian hosts.
	OrderBGRA = ChannelOrder{2, 1, 0, 3}
)

// NativeARGB32 returns the byte order of a host 32-bit 0xAARRGGBB word.
func NativeARGB32() ChannelOrder {
	var b [4]byte
	binary.NativeEndian.PutUint32(b[:], 0x03020100)
	if b[0] == 0x00 {
		return OrderBGRA
	}
	return OrderARGB
}

// Valid reports whether o is a permutation of {0, 1, 2, 3}.
func (o ChannelOrder) Valid() bool {
	var seen [4]bool
	for _, s := range o {
		if s > 3 || seen[s] {
			return false
		}
		seen[s] = true
	}
	return true
}

// IsIdentity reports whether o leaves pixels unchanged.
func (o ChannelOrder) IsIdentity() bool {
	return o == OrderRGBA
}

// Inverse returns the order that undoes o.
func (o ChannelOrder) Inverse() ChannelOrder {
	var inv ChannelOrder
	for i, s := range o {
		inv[s&3] = uint8(i)
	}
	return inv
}

// String returns the order as channel letters, e.g. "bgra".
func (o ChannelOrder) String() string {
	if !o.Valid() {
		return fmt.Sprintf("ChannelOrder(%v)", [4]uint8(o))
	}
	const names = "rgba"
	b := make([]byte, 4)
	for i, s := range o {
		b[i] = names[s]
	}
	return string(b)
}

// ParseChannelOrder parses channel letters such as "bgra", or "argb32" for
// NativeARGB32.
func ParseChannelOrder(s string) (ChannelOrder, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "argb32" || s == "native" {
		return NativeARGB32(), nil
	}
	if len(s) != 4 {
		return ChannelOrder{}, fmt.Errorf("%w: %q", ErrInvalidOrder, s)
	}
	var o ChannelOrder
	for i := range 4 {
		idx := strings.IndexByte("rgba", s[i])
		if idx < 0 {
			return ChannelOrder{}, fmt.Errorf("%w: %q", ErrInvalidOrder, s)
		}
		o[i] = uint8(idx)
	}
	if !o.Valid() {
		return ChannelOrder{}, fmt.Errorf("%w: %q", ErrInvalidOrder, s)
	}
	return o, nil
}

// Swizzle permutes every 4-byte pixel of src into dst. dst and src may be
// the same slice. Trailing bytes that do not form a whole pixel are left
// alone.
func Swizzle(dst, src []byte, order ChannelOrder) {
	n := min(len(dst), len(src)) &^ 3
	for i := 0; i < n; i += 4 {
		p := [4]byte{src[i], src[i+1], src[i+2], src[i+3]}
		dst[i] = p[order[0]&3]
		dst[i+1] = p[order[1]&3]
		dst[i+2] = p[order[2]&3]
		dst[i+3] = p[order[3]&3]
	}
}
