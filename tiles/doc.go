// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package tiles stores a raster plane as a sparse grid of fixed-size tiles.
//
// A Manager owns the grid. Tiles are allocated lazily on the first write to
// their cell; reads of a cell that was never written return the plane's
// default pixel (all zero unless configured) without allocating.
//
// Rectangular regions move in and out of the plane through a PixelData
// descriptor. A descriptor names an inclusive pixel rectangle, a sample
// depth and a buffer that is either borrowed from the caller or owned by
// the descriptor and returned to a Pool on Release:
//
//	err := tiles.WithPixelData(image.Rect(0, 0, 128, 64), tiles.ModeRead, 4,
//		func(pd *tiles.PixelData[uint8]) error {
//			return m.ReadPixelData(pd)
//		})
//
// Every call locks all tiles it touches in row-major order before copying,
// so a reader never observes a write to the same region half applied.
package tiles
