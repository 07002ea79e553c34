// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package tiles

import "errors"

// Descriptor errors.
var (
	// ErrMalformedRect is returned for a rectangle with x2 < x1 or y2 < y1,
	// or whose Width/Height disagree with its corners.
	ErrMalformedRect = errors.New("tiles: malformed rectangle")

	// ErrDepthMismatch is returned when a descriptor's depth differs from
	// the plane's channel count.
	ErrDepthMismatch = errors.New("tiles: depth mismatch")

	// ErrStrideMismatch is returned when Stride != Depth*Width.
	ErrStrideMismatch = errors.New("tiles: stride mismatch")

	// ErrShortBuffer is returned when a buffer holds fewer than
	// Stride*Height samples.
	ErrShortBuffer = errors.New("tiles: buffer too short")

	// ErrWrongMode is returned when a read descriptor is passed to a write
	// or the other way round.
	ErrWrongMode = errors.New("tiles: wrong descriptor mode")
)

// Manager errors.
var (
	// ErrOutOfBounds is returned for rectangles or tile coordinates
	// outside the plane.
	ErrOutOfBounds = errors.New("tiles: out of bounds")

	// ErrInvalidDimensions is returned for non-positive plane, tile or
	// channel dimensions, and for planes beyond MaxGridTiles or
	// MaxTileSamples.
	ErrInvalidDimensions = errors.New("tiles: invalid dimensions")

	// ErrClosed is returned by every operation on a closed Manager.
	ErrClosed = errors.New("tiles: manager closed")

	// ErrTileBudget is returned when a write needs a new tile and the
	// manager already holds its maximum number of tiles.
	ErrTileBudget = errors.New("tiles: tile budget exhausted")
)
