// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package surface

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// ErrUnknownFormat is returned for an unsupported image format.
var ErrUnknownFormat = errors.New("surface: unknown image format")

// Format is an image export format.
type Format uint8

// Supported export formats.
const (
	FormatPNG Format = iota
	FormatJPEG
	FormatBMP
	FormatTIFF
)

// String returns the canonical extension without the dot.
func (f Format) String() string {
	switch f {
	case FormatPNG:
		return "png"
	case FormatJPEG:
		return "jpeg"
	case FormatBMP:
		return "bmp"
	case FormatTIFF:
		return "tiff"
	}
	return fmt.Sprintf("Format(%d)", f)
}

// FormatFromExt picks a format from a file name or bare extension.
func FormatFromExt(name string) (Format, error) {
	ext := filepath.Ext(name)
	if ext == "" {
		ext = name
	}
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "png":
		return FormatPNG, nil
	case "jpg", "jpeg":
		return FormatJPEG, nil
	case "bmp":
		return FormatBMP, nil
	case "tif", "tiff":
		return FormatTIFF, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

// Encode writes img to w in format f.
func Encode(w io.Writer, img image.Image, f Format) error {
	switch f {
	case FormatPNG:
		return png.Encode(w, img)
	case FormatJPEG:
		return jpeg.Encode(w, img, &jpeg.Options{Quality: 95})
	case FormatBMP:
		return bmp.Encode(w, img)
	case FormatTIFF:
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	}
	return fmt.Errorf("%w: %v", ErrUnknownFormat, f)
}

// Save writes img to path, with the format taken from the extension.
func Save(path string, img image.Image) (err error) {
	f, err := FormatFromExt(path)
	if err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("surface: create %s: %w", path, err)
	}
	defer func() {
		if cerr := file.Close(); err == nil {
			err = cerr
		}
	}()

	bw := bufio.NewWriter(file)
	if err := Encode(bw, img, f); err != nil {
		return fmt.Errorf("surface: encode %s: %w", path, err)
	}
	return bw.Flush()
}
