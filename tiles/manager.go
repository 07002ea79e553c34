// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package tiles

import (
	"fmt"
	"image"
	"sync"

	"github.com/gogpu/tilecomp/colorspace"
	"github.com/gogpu/tilecomp/internal/logging"
	"github.com/gogpu/tilecomp/internal/parallel"
)

// Manager owns the tile grid of one raster plane.
//
// The grid slice is guarded by mu; each tile has its own lock. Calls lock
// the tiles they touch in row-major order, readers shared and writers
// exclusive, so overlapping calls serialize per region without deadlock.
//
// Thread safety: Manager is safe for concurrent use.
type Manager[Q colorspace.Quantum] struct {
	width, height  int
	channels       int
	tileW, tileH   int
	tilesX, tilesY int
	maxTiles       int
	pool           *Pool[Q]
	def            colorspace.Pixel[Q]

	mu     sync.RWMutex
	grid   []*Tile[Q]
	count  int
	closed bool

	dirty *parallel.DirtyRegion
}

// NewManager creates an empty plane of width x height pixels with the
// given number of samples per pixel.
func NewManager[Q colorspace.Quantum](width, height, channels int, opts ...Option[Q]) (*Manager[Q], error) {
	cfg := config[Q]{
		tileW: DefaultTileWidth,
		tileH: DefaultTileHeight,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	if width <= 0 || height <= 0 || channels <= 0 || cfg.tileW <= 0 || cfg.tileH <= 0 {
		return nil, fmt.Errorf("%w: plane %dx%d, %d channels, tile %dx%d",
			ErrInvalidDimensions, width, height, channels, cfg.tileW, cfg.tileH)
	}
	if cfg.tileW > MaxTileSamples/cfg.tileH/channels {
		return nil, fmt.Errorf("%w: tile %dx%d with %d channels exceeds %d samples",
			ErrInvalidDimensions, cfg.tileW, cfg.tileH, channels, MaxTileSamples)
	}
	tilesX := (width-1)/cfg.tileW + 1
	tilesY := (height-1)/cfg.tileH + 1
	if tilesX > MaxGridTiles/tilesY {
		return nil, fmt.Errorf("%w: %dx%d tile grid exceeds %d tiles",
			ErrInvalidDimensions, tilesX, tilesY, MaxGridTiles)
	}
	if cfg.def == nil {
		cfg.def = make(colorspace.Pixel[Q], channels)
	}
	if len(cfg.def) != channels {
		return nil, fmt.Errorf("%w: default pixel has %d samples, want %d",
			ErrDepthMismatch, len(cfg.def), channels)
	}
	if cfg.pool == nil {
		cfg.pool = DefaultPool[Q]()
	}

	return &Manager[Q]{
		width:    width,
		height:   height,
		channels: channels,
		tileW:    cfg.tileW,
		tileH:    cfg.tileH,
		tilesX:   tilesX,
		tilesY:   tilesY,
		maxTiles: cfg.maxTiles,
		pool:     cfg.pool,
		def:      cfg.def,
		grid:     make([]*Tile[Q], tilesX*tilesY),
		dirty:    parallel.NewDirtyRegion(tilesX, tilesY),
	}, nil
}

// Bounds returns the plane rectangle.
func (m *Manager[Q]) Bounds() image.Rectangle {
	return image.Rect(0, 0, m.width, m.height)
}

// TileSize returns the tile width and height in pixels.
func (m *Manager[Q]) TileSize() (w, h int) {
	return m.tileW, m.tileH
}

// Grid returns the number of tile columns and rows.
func (m *Manager[Q]) Grid() (tilesX, tilesY int) {
	return m.tilesX, m.tilesY
}

// Channels returns the number of samples per pixel.
func (m *Manager[Q]) Channels() int {
	return m.channels
}

// Default returns a copy of the default pixel.
func (m *Manager[Q]) Default() colorspace.Pixel[Q] {
	return append(colorspace.Pixel[Q](nil), m.def...)
}

// TileCount returns the number of allocated tiles.
func (m *Manager[Q]) TileCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.count
}

// TileAt returns the tile at grid position (tx, ty), or nil if the cell
// was never written or lies outside the grid.
func (m *Manager[Q]) TileAt(tx, ty int) *Tile[Q] {
	if tx < 0 || tx >= m.tilesX || ty < 0 || ty >= m.tilesY {
		return nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil
	}
	return m.grid[ty*m.tilesX+tx]
}

// TileRect returns the part of tile (tx, ty) that lies inside the plane.
func (m *Manager[Q]) TileRect(tx, ty int) image.Rectangle {
	r := image.Rect(tx*m.tileW, ty*m.tileH, (tx+1)*m.tileW, (ty+1)*m.tileH)
	return r.Intersect(m.Bounds())
}

// ReadPixelData fills pd from the plane. Cells that were never written
// read as the default pixel.
func (m *Manager[Q]) ReadPixelData(pd *PixelData[Q]) error {
	if err := m.checkRegion(pd, ModeRead); err != nil {
		return err
	}
	ch := m.channels
	return m.region(pd.X1, pd.Y1, pd.X2, pd.Y2, false, func(t *Tile[Q], x1, y1, x2, y2 int) {
		n := (x2 - x1 + 1) * ch
		for y := y1; y <= y2; y++ {
			dst := pd.Data[(y-pd.Y1)*pd.Stride+(x1-pd.X1)*ch:][:n]
			if t == nil {
				fillPixels(dst, m.def)
				continue
			}
			copy(dst, t.row(x1, y, x2))
		}
	})
}

// WritePixelData scatters pd into the plane, allocating tiles as needed.
//
// If the tile budget runs out, tiles preceding the first unallocatable one
// in row-major order are written and ErrTileBudget is returned; tiles
// already in the plane are never lost.
func (m *Manager[Q]) WritePixelData(pd *PixelData[Q]) error {
	if err := m.checkRegion(pd, ModeWrite); err != nil {
		return err
	}
	ch := m.channels
	return m.region(pd.X1, pd.Y1, pd.X2, pd.Y2, true, func(t *Tile[Q], x1, y1, x2, y2 int) {
		n := (x2 - x1 + 1) * ch
		for y := y1; y <= y2; y++ {
			copy(t.row(x1, y, x2), pd.Data[(y-pd.Y1)*pd.Stride+(x1-pd.X1)*ch:][:n])
		}
	})
}

// ReadPixels reads rect into dst, which must hold rect.Dx()*rect.Dy()
// pixels packed without padding.
func (m *Manager[Q]) ReadPixels(rect image.Rectangle, dst []Q) error {
	pd, err := Borrow(rect, ModeRead, m.channels, dst)
	if err != nil {
		return err
	}
	return m.ReadPixelData(pd)
}

// WritePixels writes src, packed without padding, into rect.
func (m *Manager[Q]) WritePixels(rect image.Rectangle, src []Q) error {
	pd, err := Borrow(rect, ModeWrite, m.channels, src)
	if err != nil {
		return err
	}
	return m.WritePixelData(pd)
}

// Fill sets every pixel of rect to px.
func (m *Manager[Q]) Fill(rect image.Rectangle, px colorspace.Pixel[Q]) error {
	if len(px) != m.channels {
		return fmt.Errorf("%w: fill pixel has %d samples, want %d", ErrDepthMismatch, len(px), m.channels)
	}
	if rect.Empty() {
		return fmt.Errorf("%w: %v", ErrMalformedRect, rect)
	}
	if !rect.In(m.Bounds()) {
		return fmt.Errorf("%w: %v not in %v", ErrOutOfBounds, rect, m.Bounds())
	}
	return m.region(rect.Min.X, rect.Min.Y, rect.Max.X-1, rect.Max.Y-1, true, func(t *Tile[Q], x1, y1, x2, y2 int) {
		for y := y1; y <= y2; y++ {
			fillPixels(t.row(x1, y, x2), px)
		}
	})
}

// SetTile replaces the full contents of tile (tx, ty), allocating it if
// needed. data must hold exactly one tile of samples.
func (m *Manager[Q]) SetTile(tx, ty int, data []Q) error {
	if tx < 0 || tx >= m.tilesX || ty < 0 || ty >= m.tilesY {
		return fmt.Errorf("%w: tile (%d,%d)", ErrOutOfBounds, tx, ty)
	}
	if want := m.tileW * m.tileH * m.channels; len(data) != want {
		return fmt.Errorf("%w: tile data has %d samples, want %d", ErrShortBuffer, len(data), want)
	}
	ox, oy := tx*m.tileW, ty*m.tileH
	return m.region(ox, oy, ox, oy, true, func(t *Tile[Q], _, _, _, _ int) {
		copy(t.data, data)
	})
}

// ClearTile drops tile (tx, ty). The cell reads as the default pixel
// afterwards. Clearing a cell that was never written is a no-op.
func (m *Manager[Q]) ClearTile(tx, ty int) error {
	if tx < 0 || tx >= m.tilesX || ty < 0 || ty >= m.tilesY {
		return fmt.Errorf("%w: tile (%d,%d)", ErrOutOfBounds, tx, ty)
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	i := ty*m.tilesX + tx
	t := m.grid[i]
	m.grid[i] = nil
	if t != nil {
		m.count--
	}
	m.mu.Unlock()

	if t == nil {
		return nil
	}
	t.mu.Lock()
	t.release(m.pool)
	t.mu.Unlock()
	m.dirty.Mark(tx, ty)
	return nil
}

// ForEachTile calls fn for every allocated tile in row-major order with
// the tile's storage under its read lock. fn must not retain data.
func (m *Manager[Q]) ForEachTile(fn func(tx, ty int, data []Q)) error {
	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return ErrClosed
	}
	tiles := make([]*Tile[Q], 0, m.count)
	for _, t := range m.grid {
		if t != nil {
			tiles = append(tiles, t)
		}
	}
	m.mu.RUnlock()

	for _, t := range tiles {
		t.mu.RLock()
		if !t.released {
			fn(t.X, t.Y, t.data)
		}
		t.mu.RUnlock()
	}
	return nil
}

// DirtyRects returns the in-plane rectangles of tiles changed since the
// last ClearDirty or TakeDirty, in row-major order.
func (m *Manager[Q]) DirtyRects() []image.Rectangle {
	return m.rects(m.dirty.Points())
}

// TakeDirty is DirtyRects followed by clearing the returned flags as one
// atomic step per flag word.
func (m *Manager[Q]) TakeDirty() []image.Rectangle {
	return m.rects(m.dirty.Take())
}

// ClearDirty resets all dirty flags.
func (m *Manager[Q]) ClearDirty() {
	m.dirty.Clear()
}

// MarkAllDirty flags every tile.
func (m *Manager[Q]) MarkAllDirty() {
	m.dirty.MarkAll()
}

// MarkDirty flags every tile intersecting rect.
func (m *Manager[Q]) MarkDirty(rect image.Rectangle) {
	rect = rect.Intersect(m.Bounds())
	if rect.Empty() {
		return
	}
	m.dirty.MarkRange(rect.Min.X/m.tileW, rect.Min.Y/m.tileH,
		(rect.Max.X-1)/m.tileW, (rect.Max.Y-1)/m.tileH)
}

func (m *Manager[Q]) rects(pts []image.Point) []image.Rectangle {
	out := make([]image.Rectangle, len(pts))
	for i, p := range pts {
		out[i] = m.TileRect(p.X, p.Y)
	}
	return out
}

// Close releases every tile. Later calls fail with ErrClosed.
func (m *Manager[Q]) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	for i, t := range m.grid {
		if t == nil {
			continue
		}
		t.mu.Lock()
		t.release(m.pool)
		t.mu.Unlock()
		m.grid[i] = nil
	}
	m.count = 0
	return nil
}

func (m *Manager[Q]) checkRegion(pd *PixelData[Q], mode Mode) error {
	if err := pd.check(mode, m.channels); err != nil {
		return err
	}
	if pd.X1 < 0 || pd.Y1 < 0 || pd.X2 >= m.width || pd.Y2 >= m.height {
		return fmt.Errorf("%w: (%d,%d)-(%d,%d) in %dx%d plane",
			ErrOutOfBounds, pd.X1, pd.Y1, pd.X2, pd.Y2, m.width, m.height)
	}
	return nil
}

// region calls fn once per tile cell intersecting the inclusive pixel
// rectangle, in row-major order, with every involved tile locked. fn gets
// the cell's tile (nil for an unwritten cell on reads) and the
// intersection corners. Written cells are marked dirty.
func (m *Manager[Q]) region(x1, y1, x2, y2 int, write bool, fn func(t *Tile[Q], x1, y1, x2, y2 int)) error {
	tx1, ty1 := x1/m.tileW, y1/m.tileH
	tx2, ty2 := x2/m.tileW, y2/m.tileH

	tiles, err := m.lockRegion(tx1, ty1, tx2, ty2, write)
	defer unlockTiles(tiles, write)

	i := 0
	for ty := ty1; ty <= ty2; ty++ {
		for tx := tx1; tx <= tx2; tx++ {
			if i == len(tiles) {
				return err
			}
			ox, oy := tx*m.tileW, ty*m.tileH
			fn(tiles[i], max(x1, ox), max(y1, oy), min(x2, ox+m.tileW-1), min(y2, oy+m.tileH-1))
			if write {
				m.dirty.Mark(tx, ty)
			}
			i++
		}
	}
	return err
}

// lockRegion looks up the tiles of the grid range in row-major order and
// locks them. For writes, missing tiles are allocated under the exclusive
// grid lock; on budget exhaustion the returned prefix is locked and the
// error is returned alongside it.
//
// The grid lock is held while tile locks are taken, so ClearTile cannot
// release a tile between lookup and lock.
func (m *Manager[Q]) lockRegion(tx1, ty1, tx2, ty2 int, write bool) ([]*Tile[Q], error) {
	tiles := make([]*Tile[Q], 0, (tx2-tx1+1)*(ty2-ty1+1))

	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return nil, ErrClosed
	}
	missing := false
	for ty := ty1; ty <= ty2; ty++ {
		for tx := tx1; tx <= tx2; tx++ {
			t := m.grid[ty*m.tilesX+tx]
			missing = missing || t == nil
			tiles = append(tiles, t)
		}
	}
	if !write || !missing {
		lockTiles(tiles, write)
		m.mu.RUnlock()
		return tiles, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}
	tiles = tiles[:0]
	var err error
alloc:
	for ty := ty1; ty <= ty2; ty++ {
		for tx := tx1; tx <= tx2; tx++ {
			t, aerr := m.getOrCreate(tx, ty)
			if aerr != nil {
				err = aerr
				break alloc
			}
			tiles = append(tiles, t)
		}
	}
	lockTiles(tiles, true)
	return tiles, err
}

// getOrCreate returns tile (tx, ty), allocating it if absent. The caller
// holds the exclusive grid lock, so exactly one caller allocates a cell.
func (m *Manager[Q]) getOrCreate(tx, ty int) (*Tile[Q], error) {
	i := ty*m.tilesX + tx
	if t := m.grid[i]; t != nil {
		return t, nil
	}
	if m.maxTiles > 0 && m.count >= m.maxTiles {
		logging.Logger().Warn("tiles: tile budget exhausted",
			"tile_x", tx, "tile_y", ty, "max_tiles", m.maxTiles)
		return nil, fmt.Errorf("tiles: allocate tile (%d,%d): %w", tx, ty, ErrTileBudget)
	}

	t := &Tile[Q]{
		X:        tx,
		Y:        ty,
		Width:    m.tileW,
		Height:   m.tileH,
		Channels: m.channels,
		data:     m.pool.Get(m.tileW * m.tileH * m.channels),
	}
	fillPixels(t.data, m.def)
	m.grid[i] = t
	m.count++
	logging.Logger().Debug("tiles: allocated tile", "tile_x", tx, "tile_y", ty, "count", m.count)
	return t, nil
}
