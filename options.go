package tilecomp

import (
	"github.com/gogpu/tilecomp/colorspace"
	"github.com/gogpu/tilecomp/tiles"
)

// Option configures an Image during creation.
//
// Example:
//
//	img, err := tilecomp.NewImage[uint8](800, 600, colorspace.RGB[uint8]{},
//		tilecomp.WithTileSize(32, 32),
//		tilecomp.WithBackground(colorspace.PackRGB(255, 255, 255)))
type Option func(*options)

// options holds optional configuration for Image creation.
type options struct {
	tileW, tileH int
	maxTiles     int
	workers      int
	background   colorspace.ColorSource
}

// defaultOptions returns the default image options.
func defaultOptions() options {
	return options{
		tileW: tiles.DefaultTileWidth,
		tileH: tiles.DefaultTileHeight,
	}
}

// WithTileSize sets the tile size of every plane of the image.
func WithTileSize(w, h int) Option {
	return func(o *options) {
		o.tileW, o.tileH = w, h
	}
}

// WithMaxTiles caps the tiles each plane (every layer and the projection)
// may allocate. Zero means unlimited.
func WithMaxTiles(n int) Option {
	return func(o *options) {
		o.maxTiles = n
	}
}

// WithWorkers sets the number of goroutines used to flatten and merge.
// Zero or negative uses GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithBackground gives the projection an opaque background of color c
// under all layers. Without a background the projection starts
// transparent, and Over leaves a transparent destination with alpha 1
// (8-bit opaque red over nothing flattens to {255, 0, 0, 1}). Use a background,
// or Copy for the bottom layer, when the result must be visible.
func WithBackground(c colorspace.ColorSource) Option {
	return func(o *options) {
		o.background = c
	}
}
