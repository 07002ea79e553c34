// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	"github.com/disintegration/imaging"
	"github.com/h2non/filetype"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/gogpu/tilecomp"
	"github.com/gogpu/tilecomp/colorspace"
	"github.com/gogpu/tilecomp/internal/scene"
	"github.com/gogpu/tilecomp/render"
	"github.com/gogpu/tilecomp/surface"
	"github.com/gogpu/tilecomp/tilestore"
)

// errNotImage is returned for a scene input that does not sniff as an
// image.
var errNotImage = errors.New("not an image")

// stats summarizes one build.
type stats struct {
	Layers      int
	Tiles       int
	Painted     int
	Unsupported uint64
}

// result is a rendered scene.
type result struct {
	Image *image.RGBA
	Stats stats
}

// build renders sc at the depth and model it names. snapshot, when not
// nil, receives the flattened projection.
func build(sc *scene.Scene, snapshot io.Writer) (*result, error) {
	switch {
	case sc.Depth == 16 && sc.Model == "gray":
		return buildAs(sc, colorspace.Gray[uint16]{}, snapshot)
	case sc.Depth == 16:
		return buildAs(sc, colorspace.RGB[uint16]{}, snapshot)
	case sc.Model == "gray":
		return buildAs(sc, colorspace.Gray[uint8]{}, snapshot)
	default:
		return buildAs(sc, colorspace.RGB[uint8]{}, snapshot)
	}
}

func buildAs[Q colorspace.Quantum](sc *scene.Scene, s colorspace.Strategy[Q], snapshot io.Writer) (*result, error) {
	opts := []tilecomp.Option{
		tilecomp.WithMaxTiles(sc.MaxTiles),
		tilecomp.WithWorkers(sc.Workers),
	}
	if sc.TileSize > 0 {
		opts = append(opts, tilecomp.WithTileSize(sc.TileSize, sc.TileSize))
	}
	if bg := sc.BackgroundColor(); bg != nil {
		opts = append(opts, tilecomp.WithBackground(bg))
	}

	img, err := tilecomp.NewImage(sc.Width, sc.Height, s, opts...)
	if err != nil {
		return nil, err
	}
	defer img.Close()

	for _, sl := range sc.Layers {
		if err := paintLayer(img, sc, sl); err != nil {
			return nil, err
		}
	}

	order, err := sc.Order()
	if err != nil {
		return nil, err
	}
	r, err := render.NewRenderer(s, order)
	if err != nil {
		return nil, err
	}
	tw, th := img.Projection().TileSize()
	scratch := render.NewScratch[Q](tw, th, s.Channels())
	surf := surface.NewImageSurface(sc.Width, sc.Height)
	defer surf.Close()

	painted, err := img.Update(r, scratch, surf)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}

	if snapshot != nil {
		if err := tilestore.Save(snapshot, img.Projection()); err != nil {
			return nil, err
		}
	}

	return &result{
		Image: surf.Snapshot(),
		Stats: stats{
			Layers:      len(img.Layers()),
			Tiles:       img.Projection().TileCount(),
			Painted:     painted,
			Unsupported: img.Engine().Unsupported(),
		},
	}, nil
}

func paintLayer[Q colorspace.Quantum](img *tilecomp.Image[Q], sc *scene.Scene, sl scene.Layer) error {
	l, err := img.AddLayer(sl.Name, sl.CompositeOp(), scene.Opacity[Q](sl.Opacity))
	if err != nil {
		return err
	}
	l.SetVisible(sl.IsVisible())

	for i, f := range sl.Fills {
		if err := l.Fill(f.Bounds(), f.ColorSource(), scene.Opacity[Q](f.Opacity)); err != nil {
			return fmt.Errorf("layer %q: fill %d: %w", sl.Name, i, err)
		}
	}
	for _, im := range sl.Images {
		src, err := loadImage(sc.ImagePath(im.Path))
		if err != nil {
			return fmt.Errorf("layer %q: %w", sl.Name, err)
		}
		if err := l.ImportImage(src, image.Pt(im.X, im.Y), scene.Opacity[Q](im.Opacity)); err != nil {
			return fmt.Errorf("layer %q: image %s: %w", sl.Name, im.Path, err)
		}
	}
	return nil
}

// loadImage decodes the image at path after checking its magic bytes.
func loadImage(path string) (image.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if !filetype.IsImage(data) {
		return nil, fmt.Errorf("%s: %w", path, errNotImage)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

// scaled resizes img by factor with Lanczos resampling. A factor of 1
// returns img unchanged.
func scaled(img image.Image, factor float64) image.Image {
	if factor == 1 {
		return img
	}
	w := max(int(float64(img.Bounds().Dx())*factor+0.5), 1)
	return imaging.Resize(img, w, 0, imaging.Lanczos)
}
