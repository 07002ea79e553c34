// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package surface

import (
	"bytes"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

func TestFormatFromExt(t *testing.T) {
	tests := []struct {
		name    string
		want    Format
		wantErr bool
	}{
		{"out.png", FormatPNG, false},
		{"OUT.PNG", FormatPNG, false},
		{"a/b/c.jpg", FormatJPEG, false},
		{"x.jpeg", FormatJPEG, false},
		{"x.bmp", FormatBMP, false},
		{"x.tif", FormatTIFF, false},
		{"tiff", FormatTIFF, false},
		{"x.webp", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FormatFromExt(tt.name)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncode_Decodes(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 3, 3))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	img.SetRGBA(1, 1, color.RGBA{200, 100, 50, 255})

	for _, f := range []Format{FormatPNG, FormatBMP, FormatTIFF, FormatJPEG} {
		t.Run(f.String(), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Encode(&buf, img, f))

			got, name, err := image.Decode(&buf)
			require.NoError(t, err)
			assert.Equal(t, f.String(), name)
			assert.Equal(t, img.Bounds(), got.Bounds())
		})
	}

	assert.ErrorIs(t, Encode(&bytes.Buffer{}, img, Format(42)), ErrUnknownFormat)
	assert.Equal(t, "Format(42)", Format(42).String())
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))

	path := filepath.Join(dir, "out.png")
	require.NoError(t, Save(path, img))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")))

	assert.ErrorIs(t, Save(filepath.Join(dir, "out.xyz"), img), ErrUnknownFormat)
	assert.Error(t, Save(filepath.Join(dir, "missing", "out.png"), img))
}
