// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"image"

	"github.com/gogpu/tilecomp/colorspace"
)

// Scratch is the working memory of a Renderer: room for the samples of the
// largest rectangle the caller will render and for its converted bytes.
//
// A Frame produced from a Scratch is only valid until the Scratch is used
// again. Scratch is not safe for concurrent use; give each goroutine its
// own.
type Scratch[Q colorspace.Quantum] struct {
	maxW, maxH int
	channels   int
	samples    []Q
	pix        []byte
}

// NewScratch allocates a scratch for rectangles up to maxW x maxH pixels of
// the given number of channels.
func NewScratch[Q colorspace.Quantum](maxW, maxH, channels int) *Scratch[Q] {
	maxW, maxH, channels = max(maxW, 0), max(maxH, 0), max(channels, 0)
	return &Scratch[Q]{
		maxW:     maxW,
		maxH:     maxH,
		channels: channels,
		samples:  make([]Q, maxW*maxH*channels),
	}
}

// Fits reports whether rect fits the scratch for a plane of channels
// samples per pixel.
func (s *Scratch[Q]) Fits(rect image.Rectangle, channels int) bool {
	return channels == s.channels && rect.Dx() <= s.maxW && rect.Dy() <= s.maxH
}

// Channels returns the samples per pixel the scratch was sized for.
func (s *Scratch[Q]) Channels() int {
	return s.channels
}

// Size returns the maximum rectangle size.
func (s *Scratch[Q]) Size() (w, h int) {
	return s.maxW, s.maxH
}

// bytes returns n bytes of conversion space, allocated on first use.
func (s *Scratch[Q]) bytes(n int) []byte {
	if cap(s.pix) < n {
		s.pix = make([]byte, s.maxW*s.maxH*4)
	}
	return s.pix[:n]
}
