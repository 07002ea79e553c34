// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import "image"

// Painter is the presentation side of rendering: it draws a frame with its
// top-left corner at (x, y) of the display.
type Painter interface {
	DrawImage(x, y int, img image.Image)
}

// PainterFunc adapts a function to Painter.
type PainterFunc func(x, y int, img image.Image)

// DrawImage implements Painter.
func (f PainterFunc) DrawImage(x, y int, img image.Image) { f(x, y, img) }
