// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package render turns regions of a tile plane into display-ready bytes.
//
// A Renderer reads a rectangle through the plane's read path into a
// caller-owned Scratch, converts each pixel to straight 8-bit RGBA and
// permutes the bytes into the requested ChannelOrder. The result is a
// Frame, an image.Image that a Painter draws at the rectangle's origin.
//
// When samples are 8-bit RGBA and the order is the identity, the stored
// bytes already are the display bytes and the Frame wraps the scratch
// without a conversion pass.
//
// # Usage
//
//	r, _ := render.NewRenderer[uint8](colorspace.RGB[uint8]{}, render.NativeARGB32())
//	scratch := render.NewScratch[uint8](64, 64, 4)
//	n, err := r.Update(plane, scratch, painter)
package render
