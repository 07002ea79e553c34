// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package tiles

import "github.com/gogpu/tilecomp/colorspace"

// Default tile size in pixels.
const (
	DefaultTileWidth  = 64
	DefaultTileHeight = 64
)

// Plane limits. NewManager rejects larger grids and tiles with
// ErrInvalidDimensions.
const (
	// MaxGridTiles is the largest number of tile cells in one plane.
	MaxGridTiles = 1 << 24

	// MaxTileSamples is the largest number of samples in one tile.
	MaxTileSamples = 1 << 26
)

type config[Q colorspace.Quantum] struct {
	tileW, tileH int
	maxTiles     int
	pool         *Pool[Q]
	def          colorspace.Pixel[Q]
}

// Option configures a Manager.
type Option[Q colorspace.Quantum] func(*config[Q])

// WithTileSize sets the tile size in pixels (default 64x64).
func WithTileSize[Q colorspace.Quantum](w, h int) Option[Q] {
	return func(c *config[Q]) {
		c.tileW, c.tileH = w, h
	}
}

// WithMaxTiles caps the number of allocated tiles. Zero means unlimited.
func WithMaxTiles[Q colorspace.Quantum](n int) Option[Q] {
	return func(c *config[Q]) {
		c.maxTiles = max(n, 0)
	}
}

// WithPool sets the pool tile storage is drawn from.
func WithPool[Q colorspace.Quantum](p *Pool[Q]) Option[Q] {
	return func(c *config[Q]) {
		if p != nil {
			c.pool = p
		}
	}
}

// WithDefault sets the pixel reported for cells that were never written
// and used to initialize new tiles. It must have one sample per channel.
func WithDefault[Q colorspace.Quantum](px colorspace.Pixel[Q]) Option[Q] {
	return func(c *config[Q]) {
		c.def = append(colorspace.Pixel[Q](nil), px...)
	}
}
