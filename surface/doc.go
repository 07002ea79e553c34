// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package surface provides display targets for rendered frames.
//
// An ImageSurface is a CPU-backed *image.RGBA that implements
// render.Painter, so a Renderer can paint tile frames straight into it.
// Encode and Save export a surface (or any image) as PNG, JPEG, BMP or
// TIFF, picking the format from the file extension.
//
// Example:
//
//	s := surface.NewImageSurface(800, 600)
//	defer s.Close()
//
//	renderer.Update(plane, scratch, s)
//	err := surface.Save("out.png", s.Image())
package surface
