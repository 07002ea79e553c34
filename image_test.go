package tilecomp

import (
	"image"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/tilecomp/colorspace"
	"github.com/gogpu/tilecomp/render"
	"github.com/gogpu/tilecomp/surface"
	"github.com/gogpu/tilecomp/tiles"
)

var (
	red   = colorspace.PackRGB(255, 0, 0)
	green = colorspace.PackRGB(0, 255, 0)
	blue  = colorspace.PackRGB(0, 0, 255)
	white = colorspace.PackRGB(255, 255, 255)
)

func newTestImage(t *testing.T, opts ...Option) *Image[uint8] {
	t.Helper()
	opts = append([]Option{WithWorkers(2)}, opts...)
	img, err := NewImage[uint8](128, 128, colorspace.RGB[uint8]{}, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = img.Close() })
	return img
}

func pixelAt[Q colorspace.Quantum](t *testing.T, m *tiles.Manager[Q], x, y int) []Q {
	t.Helper()
	out := make([]Q, m.Channels())
	require.NoError(t, m.ReadPixels(image.Rect(x, y, x+1, y+1), out))
	return out
}

func TestNewImage(t *testing.T) {
	img := newTestImage(t)
	assert.Equal(t, image.Rect(0, 0, 128, 128), img.Bounds())
	assert.Equal(t, "rgba", img.Strategy().Name())
	assert.NotNil(t, img.Engine())
	assert.Empty(t, img.Layers())

	_, err := NewImage[uint8](0, 10, colorspace.RGB[uint8]{})
	assert.ErrorIs(t, err, tiles.ErrInvalidDimensions)

	_, err = NewImage[uint8](1<<31, 1<<31, colorspace.RGB[uint8]{}, WithTileSize(1, 1))
	assert.ErrorIs(t, err, tiles.ErrInvalidDimensions)
}

func TestImage_AddLayer(t *testing.T) {
	img := newTestImage(t)

	a, err := img.AddLayer("a", colorspace.Over, 255)
	require.NoError(t, err)
	b, err := img.AddLayer("b", colorspace.Copy, 100)
	require.NoError(t, err)

	assert.Equal(t, []*Layer[uint8]{a, b}, img.Layers())
	assert.Same(t, b, img.Layer("b"))
	assert.Nil(t, img.Layer("missing"))
	assert.Equal(t, colorspace.Copy, b.Op())
	assert.Equal(t, uint8(100), b.Opacity())
	assert.True(t, b.Visible())

	_, err = img.AddLayer("a", colorspace.Over, 255)
	assert.ErrorIs(t, err, ErrDuplicateLayer)

	_, err = img.AddLayer("bad", colorspace.CompositeOp(250), 255)
	assert.Error(t, err)
}

func TestImage_Flatten(t *testing.T) {
	img := newTestImage(t, WithBackground(white))
	base, err := img.AddLayer("base", colorspace.Over, 255)
	require.NoError(t, err)
	require.NoError(t, base.Fill(image.Rect(0, 0, 64, 64), red, 255))

	n, err := img.Flatten()
	require.NoError(t, err)
	assert.Equal(t, 4, n, "first flatten covers every tile")

	proj := img.Projection()
	assert.Equal(t, []uint8{255, 0, 0, 255}, pixelAt(t, proj, 10, 10))
	assert.Equal(t, []uint8{255, 255, 255, 255}, pixelAt(t, proj, 100, 100))

	n, err = img.Flatten()
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, base.Fill(image.Rect(70, 70, 80, 80), blue, 255))
	n, err = img.Flatten()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []uint8{0, 0, 255, 255}, pixelAt(t, proj, 75, 75))
}

func TestImage_FlattenLayerOpacity(t *testing.T) {
	img := newTestImage(t, WithBackground(white))
	l, err := img.AddLayer("tint", colorspace.Over, 128)
	require.NoError(t, err)
	require.NoError(t, l.Fill(img.Bounds(), blue, 255))

	_, err = img.Flatten()
	require.NoError(t, err)
	assert.Equal(t, []uint8{127, 127, 255, 255}, pixelAt(t, img.Projection(), 0, 0))
}

func TestImage_FlattenTransparent(t *testing.T) {
	img := newTestImage(t)
	l, err := img.AddLayer("l", colorspace.Over, 255)
	require.NoError(t, err)
	require.NoError(t, l.Fill(image.Rect(0, 0, 1, 1), red, 255))

	n, err := img.Flatten()
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	proj := img.Projection()
	assert.Equal(t, 1, proj.TileCount(), "empty cells stay unallocated")
	// Two-step alpha: opaque over transparent stores alpha 1.
	assert.Equal(t, []uint8{255, 0, 0, 1}, pixelAt(t, proj, 0, 0))
	assert.Equal(t, []uint8{0, 0, 0, 0}, pixelAt(t, proj, 127, 127))
}

func TestImage_FlattenTransparentCopyBase(t *testing.T) {
	img := newTestImage(t)
	base, err := img.AddLayer("base", colorspace.Copy, 255)
	require.NoError(t, err)
	require.NoError(t, base.Fill(image.Rect(0, 0, 2, 1), red, 255))
	top, err := img.AddLayer("top", colorspace.Over, 255)
	require.NoError(t, err)
	require.NoError(t, top.Fill(image.Rect(1, 0, 2, 1), blue, 255))

	_, err = img.Flatten()
	require.NoError(t, err)

	proj := img.Projection()
	assert.Equal(t, []uint8{255, 0, 0, 255}, pixelAt(t, proj, 0, 0))
	assert.Equal(t, []uint8{0, 0, 255, 255}, pixelAt(t, proj, 1, 0), "over an opaque base")
}

func TestImage_FlattenLayerProperties(t *testing.T) {
	img := newTestImage(t, WithBackground(white))
	l, err := img.AddLayer("l", colorspace.Over, 255)
	require.NoError(t, err)
	require.NoError(t, l.Fill(image.Rect(0, 0, 8, 8), red, 255))
	_, err = img.Flatten()
	require.NoError(t, err)

	l.SetVisible(false)
	n, err := img.Flatten()
	require.NoError(t, err)
	assert.Equal(t, 4, n, "visibility change recomposites everything")
	assert.Equal(t, []uint8{255, 255, 255, 255}, pixelAt(t, img.Projection(), 0, 0))

	l.SetVisible(true)
	require.NoError(t, l.SetOp(colorspace.Clear))
	_, err = img.Flatten()
	require.NoError(t, err)
	assert.Equal(t, []uint8{0, 0, 0, 0}, pixelAt(t, img.Projection(), 100, 100))

	require.NoError(t, l.SetOp(colorspace.Over))
	l.SetOpacity(0)
	_, err = img.Flatten()
	require.NoError(t, err)
	assert.Equal(t, []uint8{255, 255, 255, 255}, pixelAt(t, img.Projection(), 0, 0))

	assert.Error(t, l.SetOp(colorspace.CompositeOp(200)))

	// Unchanged setters do not schedule work.
	l.SetOpacity(0)
	n, err = img.Flatten()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestImage_FlattenUnsupportedOp(t *testing.T) {
	img := newTestImage(t, WithBackground(white))
	l, err := img.AddLayer("l", colorspace.Dissolve, 255)
	require.NoError(t, err)
	require.NoError(t, l.Fill(img.Bounds(), red, 255))

	_, err = img.Flatten()
	require.NoError(t, err)
	assert.Equal(t, []uint8{255, 255, 255, 255}, pixelAt(t, img.Projection(), 5, 5))
	assert.NotZero(t, img.Engine().Unsupported())
}

func TestImage_RemoveLayer(t *testing.T) {
	img := newTestImage(t, WithBackground(white))
	l, err := img.AddLayer("l", colorspace.Over, 255)
	require.NoError(t, err)
	require.NoError(t, l.Fill(image.Rect(0, 0, 8, 8), red, 255))
	_, err = img.Flatten()
	require.NoError(t, err)

	require.NoError(t, img.RemoveLayer(l))
	assert.Nil(t, img.Layer("l"))
	assert.ErrorIs(t, img.RemoveLayer(l), ErrLayerNotFound)

	n, err := img.Flatten()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []uint8{255, 255, 255, 255}, pixelAt(t, img.Projection(), 0, 0))
}

func TestImage_MergeDown(t *testing.T) {
	img := newTestImage(t, WithBackground(white))
	bottom, err := img.AddLayer("bottom", colorspace.Over, 255)
	require.NoError(t, err)
	top, err := img.AddLayer("top", colorspace.Over, 255)
	require.NoError(t, err)

	require.NoError(t, bottom.Fill(img.Bounds(), green, 255))
	require.NoError(t, top.Fill(image.Rect(0, 0, 10, 10), red, 255))

	assert.ErrorIs(t, img.MergeDown(bottom), ErrNoLayerBelow)
	require.NoError(t, img.MergeDown(top))
	assert.Equal(t, []*Layer[uint8]{bottom}, img.Layers())
	assert.ErrorIs(t, img.MergeDown(top), ErrLayerNotFound)

	assert.Equal(t, []uint8{255, 0, 0, 255}, pixelAt(t, bottom.Plane(), 5, 5))
	assert.Equal(t, []uint8{0, 255, 0, 255}, pixelAt(t, bottom.Plane(), 50, 50))

	_, err = img.Flatten()
	require.NoError(t, err)
	assert.Equal(t, []uint8{255, 0, 0, 255}, pixelAt(t, img.Projection(), 5, 5))
}

func TestImage_MergeDownHidden(t *testing.T) {
	img := newTestImage(t)
	bottom, err := img.AddLayer("bottom", colorspace.Over, 255)
	require.NoError(t, err)
	top, err := img.AddLayer("top", colorspace.Copy, 255)
	require.NoError(t, err)
	require.NoError(t, top.Fill(img.Bounds(), red, 255))
	top.SetVisible(false)

	require.NoError(t, img.MergeDown(top))
	assert.Zero(t, bottom.Plane().TileCount())
}

func TestImage_TileBudget(t *testing.T) {
	img := newTestImage(t, WithMaxTiles(1))
	l, err := img.AddLayer("l", colorspace.Over, 255)
	require.NoError(t, err)

	err = l.Fill(img.Bounds(), red, 255)
	assert.ErrorIs(t, err, tiles.ErrTileBudget)
	assert.Equal(t, 1, l.Plane().TileCount())
}

func TestImage_Update(t *testing.T) {
	img := newTestImage(t, WithBackground(white))
	l, err := img.AddLayer("l", colorspace.Over, 255)
	require.NoError(t, err)
	require.NoError(t, l.Fill(image.Rect(0, 0, 64, 64), red, 255))

	r, err := render.NewRenderer(img.Strategy(), render.OrderRGBA)
	require.NoError(t, err)
	scratch := render.NewScratch[uint8](64, 64, 4)
	s := surface.NewImageSurface(128, 128)

	n, err := img.Update(r, scratch, s)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	out := s.Image()
	assert.Equal(t, []uint8{255, 0, 0, 255}, out.Pix[out.PixOffset(10, 10):][:4])
	assert.Equal(t, []uint8{255, 255, 255, 255}, out.Pix[out.PixOffset(100, 100):][:4])

	n, err = img.Update(r, scratch, s)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestImage_ConcurrentPaint(t *testing.T) {
	img := newTestImage(t, WithBackground(white))
	var layers []*Layer[uint8]
	for _, name := range []string{"a", "b", "c", "d"} {
		l, err := img.AddLayer(name, colorspace.Over, 255)
		require.NoError(t, err)
		layers = append(layers, l)
	}

	var wg sync.WaitGroup
	for i, l := range layers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			x := i * 32
			assert.NoError(t, l.Fill(image.Rect(x, 0, x+32, 128), blue, 255))
		}()
	}
	wg.Wait()

	_, err := img.Flatten()
	require.NoError(t, err)
	for _, x := range []int{0, 40, 70, 127} {
		assert.Equal(t, []uint8{0, 0, 255, 255}, pixelAt(t, img.Projection(), x, 64))
	}
}

func TestImage_Close(t *testing.T) {
	img, err := NewImage[uint8](64, 64, colorspace.RGB[uint8]{})
	require.NoError(t, err)
	l, err := img.AddLayer("l", colorspace.Over, 255)
	require.NoError(t, err)

	require.NoError(t, img.Close())
	require.NoError(t, img.Close())

	_, err = img.Flatten()
	assert.ErrorIs(t, err, ErrClosed)
	_, err = img.AddLayer("m", colorspace.Over, 255)
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, img.MergeDown(l), ErrClosed)
	assert.ErrorIs(t, l.Fill(image.Rect(0, 0, 1, 1), red, 255), tiles.ErrClosed)
}

func TestImage_Gray16(t *testing.T) {
	img, err := NewImage[uint16](70, 70, colorspace.Gray[uint16]{}, WithBackground(colorspace.PackRGB(0, 0, 0)))
	require.NoError(t, err)
	defer img.Close()

	l, err := img.AddLayer("l", colorspace.Over, 65535)
	require.NoError(t, err)
	require.NoError(t, l.Fill(image.Rect(60, 60, 70, 70), white, 65535))

	_, err = img.Flatten()
	require.NoError(t, err)
	assert.Equal(t, []uint16{65535, 65535}, pixelAt(t, img.Projection(), 65, 65))
	assert.Equal(t, []uint16{0, 65535}, pixelAt(t, img.Projection(), 0, 0))
}

func BenchmarkImage_Flatten(b *testing.B) {
	img, err := NewImage[uint8](512, 512, colorspace.RGB[uint8]{}, WithBackground(white))
	if err != nil {
		b.Fatal(err)
	}
	defer img.Close()
	for i := range 4 {
		l, err := img.AddLayer(string(rune('a'+i)), colorspace.Over, 200)
		if err != nil {
			b.Fatal(err)
		}
		if err := l.Fill(img.Bounds(), red, 128); err != nil {
			b.Fatal(err)
		}
	}
	for b.Loop() {
		img.invalidate()
		if _, err := img.Flatten(); err != nil {
			b.Fatal(err)
		}
	}
}
