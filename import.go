package tilecomp

import (
	"image"
	"image/color"

	"github.com/anthonynsimon/bild/clone"

	"github.com/gogpu/tilecomp/colorspace"
	"github.com/gogpu/tilecomp/tiles"
)

// ImportImage replaces the pixels under src, placed with its top-left
// corner at at, with src's pixels. Each pixel's alpha is scaled by
// opacity. The part of src outside the image is dropped.
//
// *image.NRGBA sources are read as stored. Other images go through a
// premultiplied copy, so colors under very low alpha lose precision.
func (l *Layer[Q]) ImportImage(src image.Image, at image.Point, opacity Q) error {
	sb := src.Bounds()
	dst := sb.Sub(sb.Min).Add(at).Intersect(l.img.Bounds())
	if dst.Empty() {
		return nil
	}

	var nrgbaAt func(x, y int) color.NRGBA
	switch img := src.(type) {
	case *image.NRGBA:
		nrgbaAt = img.NRGBAAt
	default:
		rgba := clone.AsShallowRGBA(src)
		nrgbaAt = func(x, y int) color.NRGBA {
			return color.NRGBAModel.Convert(rgba.RGBAAt(x, y)).(color.NRGBA)
		}
	}

	s := l.img.strategy
	return tiles.WithPixelData(dst, tiles.ModeWrite, s.Channels(), func(pd *tiles.PixelData[Q]) error {
		for y := dst.Min.Y; y < dst.Max.Y; y++ {
			for x := dst.Min.X; x < dst.Max.X; x++ {
				n := nrgbaAt(sb.Min.X+x-at.X, sb.Min.Y+y-at.Y)
				alpha := colorspace.Scale(colorspace.Upscale[Q](n.A), opacity)
				s.NativeColorOpacity(colorspace.PackRGB(n.R, n.G, n.B), alpha, pd.Pixel(x, y))
			}
		}
		return l.plane.WritePixelData(pd)
	})
}
