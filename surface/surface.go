// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package surface

import (
	"image"
	"image/color"

	"github.com/gogpu/tilecomp/render"
)

// Surface is a display target that frames are painted onto.
//
// Surfaces are NOT thread-safe. Each surface should be used from a single
// goroutine, or external synchronization must be used.
type Surface interface {
	render.Painter

	// Width returns the surface width in pixels.
	Width() int

	// Height returns the surface height in pixels.
	Height() int

	// Clear fills the entire surface with the given color.
	Clear(c color.Color)

	// Snapshot returns a copy of the current contents.
	Snapshot() *image.RGBA

	// Close releases the surface. Close is idempotent.
	Close() error
}
