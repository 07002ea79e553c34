// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package tiles

import (
	"image"
	"sync"

	"github.com/gogpu/tilecomp/colorspace"
)

// Tile is one fixed-size cell of a Manager's grid.
//
// Every tile has the full tile size, including tiles on the right and
// bottom edges of a plane whose size is not a multiple of it; samples past
// the plane edge are never read or written.
type Tile[Q colorspace.Quantum] struct {
	// X is the tile column index (0-based).
	X int

	// Y is the tile row index (0-based).
	Y int

	// Width is the tile width in pixels.
	Width int

	// Height is the tile height in pixels.
	Height int

	// Channels is the number of samples per pixel.
	Channels int

	mu       sync.RWMutex
	data     []Q
	released bool
}

// Stride returns the row stride in samples.
func (t *Tile[Q]) Stride() int {
	return t.Width * t.Channels
}

// Bounds returns the tile's pixel rectangle in plane space. It may extend
// past the plane for edge tiles.
func (t *Tile[Q]) Bounds() image.Rectangle {
	x, y := t.X*t.Width, t.Y*t.Height
	return image.Rect(x, y, x+t.Width, y+t.Height)
}

// Pixel copies the pixel at tile-local (px, py) into dst and returns it.
// It returns nil for coordinates outside the tile or a released tile.
func (t *Tile[Q]) Pixel(px, py int, dst colorspace.Pixel[Q]) colorspace.Pixel[Q] {
	if px < 0 || px >= t.Width || py < 0 || py >= t.Height {
		return nil
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.released {
		return nil
	}
	off := (py*t.Width + px) * t.Channels
	return append(dst[:0], t.data[off:off+t.Channels]...)
}

// CopyTo copies all tile samples into dst and reports the number copied.
func (t *Tile[Q]) CopyTo(dst []Q) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.released {
		return 0
	}
	return copy(dst, t.data)
}

// row returns the samples of row y (plane space) from column x1 through x2
// inclusive. The caller holds the tile lock.
func (t *Tile[Q]) row(x1, y, x2 int) []Q {
	off := ((y-t.Y*t.Height)*t.Width + x1 - t.X*t.Width) * t.Channels
	return t.data[off : off+(x2-x1+1)*t.Channels]
}

// release hands the tile storage back to pool. The caller holds the write
// lock.
func (t *Tile[Q]) release(pool *Pool[Q]) {
	if t.released {
		return
	}
	pool.Put(t.data)
	t.data = nil
	t.released = true
}

func lockTiles[Q colorspace.Quantum](tiles []*Tile[Q], write bool) {
	for _, t := range tiles {
		switch {
		case t == nil:
		case write:
			t.mu.Lock()
		default:
			t.mu.RLock()
		}
	}
}

func unlockTiles[Q colorspace.Quantum](tiles []*Tile[Q], write bool) {
	for i := len(tiles) - 1; i >= 0; i-- {
		t := tiles[i]
		switch {
		case t == nil:
		case write:
			t.mu.Unlock()
		default:
			t.mu.RUnlock()
		}
	}
}

// fillPixels repeats px across dst.
func fillPixels[Q colorspace.Quantum](dst, px []Q) {
	zero := true
	for _, v := range px {
		if v != 0 {
			zero = false
			break
		}
	}
	if zero {
		clear(dst)
		return
	}
	for i := 0; i+len(px) <= len(dst); i += len(px) {
		copy(dst[i:], px)
	}
}
