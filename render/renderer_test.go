// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/tilecomp/colorspace"
	"github.com/gogpu/tilecomp/tiles"
)

type recordingPainter struct {
	calls []image.Point
	last  image.Image
}

func (p *recordingPainter) DrawImage(x, y int, img image.Image) {
	p.calls = append(p.calls, image.Pt(x, y))
	p.last = img
}

func newPlane[Q colorspace.Quantum](t *testing.T, w, h, ch int) *tiles.Manager[Q] {
	t.Helper()
	m, err := tiles.NewManager[Q](w, h, ch, tiles.WithTileSize[Q](16, 16))
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func TestRenderer_ZeroCopy(t *testing.T) {
	plane := newPlane[uint8](t, 32, 32, 4)
	require.NoError(t, plane.Fill(image.Rect(0, 0, 32, 32), colorspace.Pixel[uint8]{10, 20, 30, 40}))

	r, err := NewRenderer[uint8](colorspace.RGB[uint8]{}, OrderRGBA)
	require.NoError(t, err)
	assert.True(t, r.ZeroCopy())

	scratch := NewScratch[uint8](32, 32, 4)
	f, err := r.Frame(plane, scratch, image.Rect(4, 4, 12, 8))
	require.NoError(t, err)

	assert.Equal(t, image.Rect(4, 4, 12, 8), f.Bounds())
	assert.Equal(t, 32, f.Stride)
	assert.Equal(t, []byte{10, 20, 30, 40}, f.Pix[:4])
	assert.Same(t, &scratch.samples[0], &f.Pix[0], "frame wraps scratch samples")

	img := f.NRGBA()
	assert.Same(t, &f.Pix[0], &img.Pix[0], "identity NRGBA is zero-copy")
	assert.Equal(t, color.NRGBA{R: 10, G: 20, B: 30, A: 40}, img.NRGBAAt(5, 5))
}

func TestRenderer_ConvertPaths(t *testing.T) {
	tests := []struct {
		name  string
		order ChannelOrder
		want  []byte
	}{
		{"rgba", OrderRGBA, []byte{255, 128, 0, 255}},
		{"bgra", OrderBGRA, []byte{0, 128, 255, 255}},
		{"argb", OrderARGB, []byte{255, 255, 128, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plane := newPlane[uint16](t, 20, 20, 4)
			require.NoError(t, plane.Fill(image.Rect(0, 0, 20, 20), colorspace.Pixel[uint16]{65535, 32896, 0, 65535}))

			r, err := NewRenderer[uint16](colorspace.RGB[uint16]{}, tt.order)
			require.NoError(t, err)
			assert.False(t, r.ZeroCopy())

			f, err := r.Frame(plane, NewScratch[uint16](20, 20, 4), image.Rect(15, 15, 20, 20))
			require.NoError(t, err)
			assert.Equal(t, tt.order, f.Order)
			assert.Len(t, f.Pix, 5*5*4)
			assert.Equal(t, tt.want, f.Pix[len(f.Pix)-4:])
			assert.Equal(t, color.NRGBA{R: 255, G: 128, B: 0, A: 255}, f.At(19, 19))
			assert.Equal(t, color.NRGBA{R: 255, G: 128, B: 0, A: 255}, f.NRGBA().NRGBAAt(15, 15))
		})
	}
}

func TestRenderer_Gray(t *testing.T) {
	plane := newPlane[uint8](t, 8, 8, 2)
	require.NoError(t, plane.Fill(image.Rect(0, 0, 8, 8), colorspace.Pixel[uint8]{90, 200}))

	r, err := NewRenderer[uint8](colorspace.Gray[uint8]{}, OrderRGBA)
	require.NoError(t, err)
	assert.False(t, r.ZeroCopy(), "gray samples are not display bytes")

	f, err := r.Frame(plane, NewScratch[uint8](8, 8, 2), image.Rect(0, 0, 2, 1))
	require.NoError(t, err)
	assert.Equal(t, []byte{90, 90, 90, 200, 90, 90, 90, 200}, f.Pix)
}

func TestRenderer_Errors(t *testing.T) {
	plane := newPlane[uint8](t, 64, 64, 4)

	_, err := NewRenderer[uint8](colorspace.RGB[uint8]{}, ChannelOrder{0, 0, 0, 0})
	assert.ErrorIs(t, err, ErrInvalidOrder)

	r, err := NewRenderer[uint8](colorspace.RGB[uint8]{}, OrderBGRA)
	require.NoError(t, err)

	_, err = r.Frame(plane, NewScratch[uint8](16, 16, 4), image.Rect(0, 0, 17, 4))
	assert.ErrorIs(t, err, ErrScratchTooSmall)

	_, err = r.Frame(plane, NewScratch[uint8](16, 16, 2), image.Rect(0, 0, 4, 4))
	assert.ErrorIs(t, err, tiles.ErrDepthMismatch, "scratch channels")
	assert.NotErrorIs(t, err, ErrScratchTooSmall)

	_, err = r.Frame(plane, NewScratch[uint8](16, 16, 4), image.Rect(60, 60, 70, 70))
	assert.ErrorIs(t, err, tiles.ErrOutOfBounds)

	gray := newPlane[uint8](t, 8, 8, 2)
	_, err = r.Frame(gray, NewScratch[uint8](8, 8, 4), image.Rect(0, 0, 4, 4))
	assert.ErrorIs(t, err, tiles.ErrDepthMismatch)
}

func TestRenderer_Render(t *testing.T) {
	plane := newPlane[uint8](t, 32, 32, 4)
	r, err := NewRenderer[uint8](colorspace.RGB[uint8]{}, NativeARGB32())
	require.NoError(t, err)

	var p recordingPainter
	require.NoError(t, r.Render(plane, NewScratch[uint8](32, 32, 4), image.Rect(3, 5, 9, 9), &p))
	assert.Equal(t, []image.Point{{3, 5}}, p.calls)
	assert.Equal(t, image.Rect(3, 5, 9, 9), p.last.Bounds())
}

func TestRenderer_Update(t *testing.T) {
	plane := newPlane[uint8](t, 40, 20, 4)
	r, err := NewRenderer[uint8](colorspace.RGB[uint8]{}, OrderRGBA)
	require.NoError(t, err)
	scratch := NewScratch[uint8](16, 16, 4)

	var p recordingPainter
	n, err := r.Update(plane, scratch, &p)
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, plane.Fill(image.Rect(10, 10, 20, 12), colorspace.Pixel[uint8]{1, 2, 3, 255}))
	n, err = r.Update(plane, scratch, &p)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []image.Point{{0, 0}, {16, 0}}, p.calls)
	assert.Empty(t, plane.DirtyRects())

	// Edge tiles are clipped to the plane.
	plane.MarkDirty(image.Rect(39, 19, 40, 20))
	p.calls = nil
	_, err = r.Update(plane, scratch, PainterFunc(func(x, y int, img image.Image) {
		p.calls = append(p.calls, image.Pt(x, y))
		assert.Equal(t, image.Rect(32, 16, 40, 20), img.Bounds())
	}))
	require.NoError(t, err)
	assert.Equal(t, []image.Point{{32, 16}}, p.calls)
}

func TestRenderer_UpdateRestoresDirtyOnError(t *testing.T) {
	plane := newPlane[uint8](t, 32, 32, 4)
	plane.MarkAllDirty()

	r, err := NewRenderer[uint8](colorspace.RGB[uint8]{}, OrderRGBA)
	require.NoError(t, err)

	// 8x8 scratch cannot hold a 16x16 tile.
	n, err := r.Update(plane, NewScratch[uint8](8, 8, 4), &recordingPainter{})
	require.True(t, errors.Is(err, ErrScratchTooSmall))
	assert.Zero(t, n)
	assert.Len(t, plane.DirtyRects(), 4)
}
