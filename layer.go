package tilecomp

import (
	"fmt"
	"image"

	"github.com/gogpu/tilecomp/colorspace"
	"github.com/gogpu/tilecomp/tiles"
)

// Layer is one paint plane of an Image.
//
// A layer owns a sparse tile plane; writes go straight to it and mark the
// touched tiles for the next Flatten. The op and opacity apply when the
// layer is composited onto the layers below.
type Layer[Q colorspace.Quantum] struct {
	img   *Image[Q]
	name  string
	plane *tiles.Manager[Q]

	// Guarded by img.mu.
	op      colorspace.CompositeOp
	opacity Q
	visible bool
}

// Name returns the layer name.
func (l *Layer[Q]) Name() string {
	return l.name
}

// Plane returns the layer's tile plane.
func (l *Layer[Q]) Plane() *tiles.Manager[Q] {
	return l.plane
}

// Op returns the op used to composite the layer.
func (l *Layer[Q]) Op() colorspace.CompositeOp {
	l.img.mu.RLock()
	defer l.img.mu.RUnlock()
	return l.op
}

// SetOp changes the layer op. The whole image is recomposited on the next
// Flatten.
func (l *Layer[Q]) SetOp(op colorspace.CompositeOp) error {
	if !op.IsValid() {
		return fmt.Errorf("tilecomp: layer %q: invalid op %v", l.name, op)
	}
	l.img.mu.Lock()
	defer l.img.mu.Unlock()
	if l.op != op {
		l.op = op
		l.img.invalidate()
	}
	return nil
}

// Opacity returns the layer opacity.
func (l *Layer[Q]) Opacity() Q {
	l.img.mu.RLock()
	defer l.img.mu.RUnlock()
	return l.opacity
}

// SetOpacity changes the layer opacity.
func (l *Layer[Q]) SetOpacity(opacity Q) {
	l.img.mu.Lock()
	defer l.img.mu.Unlock()
	if l.opacity != opacity {
		l.opacity = opacity
		l.img.invalidate()
	}
}

// Visible reports whether the layer takes part in Flatten.
func (l *Layer[Q]) Visible() bool {
	l.img.mu.RLock()
	defer l.img.mu.RUnlock()
	return l.visible
}

// SetVisible shows or hides the layer.
func (l *Layer[Q]) SetVisible(visible bool) {
	l.img.mu.Lock()
	defer l.img.mu.Unlock()
	if l.visible != visible {
		l.visible = visible
		l.img.invalidate()
	}
}

// Fill sets every pixel of rect to c with alpha opacity. rect is clipped
// to the image.
func (l *Layer[Q]) Fill(rect image.Rectangle, c colorspace.ColorSource, opacity Q) error {
	rect = rect.Intersect(l.img.Bounds())
	if rect.Empty() {
		return nil
	}
	px := make(colorspace.Pixel[Q], l.img.strategy.Channels())
	l.img.strategy.NativeColorOpacity(c, opacity, px)
	return l.plane.Fill(rect, px)
}

// FillPixel sets every pixel of rect to px, which is in native layout.
func (l *Layer[Q]) FillPixel(rect image.Rectangle, px colorspace.Pixel[Q]) error {
	return l.plane.Fill(rect, px)
}

// ReadPixels reads rect into dst, packed without padding.
func (l *Layer[Q]) ReadPixels(rect image.Rectangle, dst []Q) error {
	return l.plane.ReadPixels(rect, dst)
}

// WritePixels replaces rect with src, packed without padding.
func (l *Layer[Q]) WritePixels(rect image.Rectangle, src []Q) error {
	return l.plane.WritePixels(rect, src)
}

// Composite blends src, packed without padding, onto rect of the layer
// under op. Pixels outside the image are dropped.
func (l *Layer[Q]) Composite(rect image.Rectangle, src []Q, opacity Q, op colorspace.CompositeOp) error {
	ch := l.img.strategy.Channels()
	if len(src) < rect.Dx()*rect.Dy()*ch {
		return fmt.Errorf("%w: composite %v with %d samples", tiles.ErrShortBuffer, rect, len(src))
	}
	clip := rect.Intersect(l.img.Bounds())
	if clip.Empty() {
		return nil
	}

	return tiles.WithPixelData(clip, tiles.ModeRead, ch, func(pd *tiles.PixelData[Q]) error {
		if err := l.plane.ReadPixelData(pd); err != nil {
			return err
		}
		srcStride := rect.Dx() * ch
		off := (clip.Min.Y-rect.Min.Y)*srcStride + (clip.Min.X-rect.Min.X)*ch
		l.img.engine.CompositeRect(pd.Data, pd.Stride, src[off:], srcStride,
			clip.Dx(), clip.Dy(), opacity, op)
		pd.Mode = tiles.ModeWrite
		return l.plane.WritePixelData(pd)
	})
}
