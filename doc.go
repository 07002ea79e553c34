// Package tilecomp is a tiled raster compositing engine.
//
// # Overview
//
// Pixels live in sparse planes of fixed-size tiles (package tiles). A tile
// is allocated on the first write to its cell; cells never written read as
// the plane's default pixel. Images are stacks of such planes: each Layer
// owns one, and the projection holds their composite.
//
// Samples are generic over colorspace.Quantum, so the same code serves
// 8-bit and 16-bit images. Channels at rest are straight (not
// premultiplied) alpha.
//
// # Quick Start
//
//	img, err := tilecomp.NewImage[uint8](256, 256, colorspace.RGB[uint8]{},
//		tilecomp.WithBackground(colorspace.PackRGB(255, 255, 255)))
//	if err != nil {
//		return err
//	}
//	defer img.Close()
//
//	base, _ := img.AddLayer("base", colorspace.Over, 255)
//	_ = base.Fill(image.Rect(0, 0, 128, 128), colorspace.PackRGB(255, 0, 0), 255)
//
//	r, _ := render.NewRenderer[uint8](img.Strategy(), render.OrderRGBA)
//	scratch := render.NewScratch[uint8](64, 64, 4)
//	s := surface.NewImageSurface(256, 256)
//	_, err = img.Update(r, scratch, s)
//
// # Architecture
//
//   - colorspace: quantum math, channel layouts, composite op algebra
//   - composite: pixel, run and rectangle compositing
//   - tiles: tile grid, pixel transfer descriptors, buffer pools
//   - render: channel-order conversion of tile regions for display
//   - surface: image.Image backed painters and file export
//   - tilestore: compressed tile snapshots
//
// # Concurrency
//
// Planes lock per tile. Flatten and MergeDown run one job per tile on a
// work-stealing pool; jobs never share a tile.
//
// # Logging
//
// tilecomp is silent by default. See SetLogger.
package tilecomp
