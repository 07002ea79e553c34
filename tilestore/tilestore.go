// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package tilestore saves and restores tile planes as compressed snapshots.
//
// A snapshot is a fixed header followed by one record per allocated tile.
// Cells that were never written are not stored and read back as the
// plane's default pixel. Each record holds the tile's samples, big-endian
// for 16-bit planes, compressed with zstd. Tiles are compressed and
// decompressed in parallel.
//
// Layout (all integers big-endian):
//
//	header: magic "TLCS", version u16, sample bytes u8, channels u8,
//	        width u32, height u32, tile width u16, tile height u16,
//	        tile count u32
//	record: tile x u32, tile y u32, payload size u32, payload
package tilestore

import (
	"errors"
	"fmt"
	"image"

	"github.com/gogpu/tilecomp/colorspace"
	"github.com/gogpu/tilecomp/tiles"
)

// Version is the snapshot format version written by Save.
const Version = 1

// MaxSamples bounds Width*Height*Channels of a snapshot header. Larger
// headers are rejected with ErrCorrupt before any allocation.
const MaxSamples = 1 << 36

var magic = [4]byte{'T', 'L', 'C', 'S'}

// Errors returned by Load.
var (
	// ErrBadMagic is returned when the input is not a snapshot.
	ErrBadMagic = errors.New("tilestore: bad magic")

	// ErrVersion is returned for an unsupported format version.
	ErrVersion = errors.New("tilestore: unsupported version")

	// ErrLayoutMismatch is returned when a snapshot's sample size,
	// channels, tile size or bounds do not match the target plane.
	ErrLayoutMismatch = errors.New("tilestore: layout mismatch")

	// ErrCorrupt is returned for headers that describe no valid plane and
	// for records that cannot belong to the snapshot's plane.
	ErrCorrupt = errors.New("tilestore: corrupt snapshot")
)

// Header describes a snapshot.
type Header struct {
	Version     int
	SampleBytes int
	Channels    int
	Width       int
	Height      int
	TileWidth   int
	TileHeight  int
	Tiles       int
}

// Bounds returns the plane rectangle.
func (h Header) Bounds() image.Rectangle {
	return image.Rect(0, 0, h.Width, h.Height)
}

func (h Header) grid() (tilesX, tilesY int) {
	return (h.Width + h.TileWidth - 1) / h.TileWidth, (h.Height + h.TileHeight - 1) / h.TileHeight
}

func (h Header) tileBytes() int {
	return h.TileWidth * h.TileHeight * h.Channels * h.SampleBytes
}

// headerFor describes plane m.
func headerFor[Q colorspace.Quantum](m *tiles.Manager[Q], count int) Header {
	tw, th := m.TileSize()
	b := m.Bounds()
	return Header{
		Version:     Version,
		SampleBytes: colorspace.Bytes[Q](),
		Channels:    m.Channels(),
		Width:       b.Dx(),
		Height:      b.Dy(),
		TileWidth:   tw,
		TileHeight:  th,
		Tiles:       count,
	}
}

// matches reports whether a snapshot with header h can be loaded into m.
func (h Header) matches(other Header) error {
	if h.SampleBytes != other.SampleBytes || h.Channels != other.Channels ||
		h.Width != other.Width || h.Height != other.Height ||
		h.TileWidth != other.TileWidth || h.TileHeight != other.TileHeight {
		return fmt.Errorf("%w: snapshot %dx%d %dch %d-byte tiles %dx%d, plane %dx%d %dch %d-byte tiles %dx%d",
			ErrLayoutMismatch,
			h.Width, h.Height, h.Channels, h.SampleBytes, h.TileWidth, h.TileHeight,
			other.Width, other.Height, other.Channels, other.SampleBytes, other.TileWidth, other.TileHeight)
	}
	return nil
}
