// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package parallel

import (
	"image"
	"math/bits"
	"sync/atomic"
)

// DirtyRegion is a lock-free bitmap with one bit per tile of a grid.
// Bit index = ty*tilesX + tx, 64 tiles per word.
//
// All methods are safe for concurrent use.
type DirtyRegion struct {
	words  []atomic.Uint64
	tilesX int
	tilesY int
}

// NewDirtyRegion creates a clean bitmap for a tilesX x tilesY grid.
// It returns nil for an empty grid.
func NewDirtyRegion(tilesX, tilesY int) *DirtyRegion {
	if tilesX <= 0 || tilesY <= 0 {
		return nil
	}
	return &DirtyRegion{
		words:  make([]atomic.Uint64, (tilesX*tilesY+63)/64),
		tilesX: tilesX,
		tilesY: tilesY,
	}
}

// Mark flags tile (tx, ty). Out-of-grid coordinates are ignored.
func (d *DirtyRegion) Mark(tx, ty int) {
	if tx < 0 || tx >= d.tilesX || ty < 0 || ty >= d.tilesY {
		return
	}
	idx := ty*d.tilesX + tx
	d.words[idx/64].Or(1 << (idx & 63))
}

// MarkRange flags every tile in the inclusive tile range, clamped to the grid.
func (d *DirtyRegion) MarkRange(tx1, ty1, tx2, ty2 int) {
	tx1, ty1 = max(tx1, 0), max(ty1, 0)
	tx2, ty2 = min(tx2, d.tilesX-1), min(ty2, d.tilesY-1)
	for ty := ty1; ty <= ty2; ty++ {
		for tx := tx1; tx <= tx2; tx++ {
			d.Mark(tx, ty)
		}
	}
}

// MarkAll flags every tile.
func (d *DirtyRegion) MarkAll() {
	total := d.tilesX * d.tilesY
	full := total / 64
	for i := range full {
		d.words[i].Store(^uint64(0))
	}
	if rem := total % 64; rem > 0 {
		d.words[full].Store(uint64(1)<<rem - 1)
	}
}

// Clear resets every flag.
func (d *DirtyRegion) Clear() {
	for i := range d.words {
		d.words[i].Store(0)
	}
}

// IsDirty reports whether tile (tx, ty) is flagged.
func (d *DirtyRegion) IsDirty(tx, ty int) bool {
	if tx < 0 || tx >= d.tilesX || ty < 0 || ty >= d.tilesY {
		return false
	}
	idx := ty*d.tilesX + tx
	return d.words[idx/64].Load()&(1<<(idx&63)) != 0
}

// Count returns the number of flagged tiles.
func (d *DirtyRegion) Count() int {
	n := 0
	for i := range d.words {
		n += bits.OnesCount64(d.words[i].Load())
	}
	return n
}

// Take returns the flagged tiles in row-major order and clears them.
// Each word is swapped atomically, so a tile marked concurrently is either
// returned now or kept for the next Take.
func (d *DirtyRegion) Take() []image.Point {
	var out []image.Point
	for wi := range d.words {
		d.collect(wi, d.words[wi].Swap(0), &out)
	}
	return out
}

// Points returns the flagged tiles in row-major order without clearing them.
func (d *DirtyRegion) Points() []image.Point {
	var out []image.Point
	for wi := range d.words {
		d.collect(wi, d.words[wi].Load(), &out)
	}
	return out
}

func (d *DirtyRegion) collect(wi int, word uint64, out *[]image.Point) {
	total := d.tilesX * d.tilesY
	for word != 0 {
		bit := bits.TrailingZeros64(word)
		idx := wi*64 + bit
		if idx >= total {
			return
		}
		*out = append(*out, image.Pt(idx%d.tilesX, idx/d.tilesX))
		word &^= 1 << bit
	}
}

// TilesX returns the grid width in tiles.
func (d *DirtyRegion) TilesX() int { return d.tilesX }

// TilesY returns the grid height in tiles.
func (d *DirtyRegion) TilesY() int { return d.tilesY }
