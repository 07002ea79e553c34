package tilecomp

import (
	"testing"

	"github.com/gogpu/tilecomp/colorspace"
	"github.com/gogpu/tilecomp/tiles"
)

func TestDefaultOptions(t *testing.T) {
	o := defaultOptions()
	if o.tileW != tiles.DefaultTileWidth || o.tileH != tiles.DefaultTileHeight {
		t.Errorf("tile size = %dx%d, want %dx%d", o.tileW, o.tileH,
			tiles.DefaultTileWidth, tiles.DefaultTileHeight)
	}
	if o.maxTiles != 0 {
		t.Errorf("maxTiles = %d, want 0", o.maxTiles)
	}
	if o.background != nil {
		t.Errorf("background = %v, want nil", o.background)
	}
}

func TestOptions(t *testing.T) {
	o := defaultOptions()
	for _, opt := range []Option{
		WithTileSize(32, 16),
		WithMaxTiles(7),
		WithWorkers(3),
		WithBackground(colorspace.PackRGB(1, 2, 3)),
	} {
		opt(&o)
	}

	if o.tileW != 32 || o.tileH != 16 {
		t.Errorf("tile size = %dx%d, want 32x16", o.tileW, o.tileH)
	}
	if o.maxTiles != 7 {
		t.Errorf("maxTiles = %d, want 7", o.maxTiles)
	}
	if o.workers != 3 {
		t.Errorf("workers = %d, want 3", o.workers)
	}
	if o.background != colorspace.PackRGB(1, 2, 3) {
		t.Errorf("background = %v, want PackRGB(1, 2, 3)", o.background)
	}
}

func TestNewImageAppliesOptions(t *testing.T) {
	img, err := NewImage[uint8](100, 50, colorspace.RGB[uint8]{},
		WithTileSize(32, 16), WithWorkers(2))
	if err != nil {
		t.Fatal(err)
	}
	defer img.Close()

	if w, h := img.Projection().TileSize(); w != 32 || h != 16 {
		t.Errorf("projection tile size = %dx%d, want 32x16", w, h)
	}
	if tx, ty := img.Projection().Grid(); tx != 4 || ty != 4 {
		t.Errorf("projection grid = %dx%d, want 4x4", tx, ty)
	}
	if got := img.workers.Workers(); got != 2 {
		t.Errorf("workers = %d, want 2", got)
	}
}

func TestNewImageInvalidTileSize(t *testing.T) {
	if _, err := NewImage[uint8](10, 10, colorspace.RGB[uint8]{}, WithTileSize(0, 8)); err == nil {
		t.Error("NewImage with zero tile width should fail")
	}
}
