// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package tilestore

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"runtime"

	"github.com/klauspost/compress/zstd"
	"golang.org/x/sync/errgroup"

	"github.com/gogpu/tilecomp/colorspace"
	"github.com/gogpu/tilecomp/internal/logging"
	"github.com/gogpu/tilecomp/tiles"
)

type wireHeader struct {
	Magic       [4]byte
	Version     uint16
	SampleBytes uint8
	Channels    uint8
	Width       uint32
	Height      uint32
	TileWidth   uint16
	TileHeight  uint16
	Tiles       uint32
}

type wireRecord struct {
	X, Y uint32
	Size uint32
}

type record struct {
	x, y int
	raw  []byte
	zst  []byte
}

// Save writes a snapshot of every allocated tile of m to w.
func Save[Q colorspace.Quantum](w io.Writer, m *tiles.Manager[Q]) error {
	var recs []*record
	err := m.ForEachTile(func(tx, ty int, data []Q) {
		recs = append(recs, &record{x: tx, y: ty, raw: appendSamples(nil, data)})
	})
	if err != nil {
		return err
	}

	h := headerFor(m, len(recs))
	if h.Channels > 0xFF || h.TileWidth > 0xFFFF || h.TileHeight > 0xFFFF {
		return fmt.Errorf("%w: %d channels, tile %dx%d do not fit the format",
			ErrLayoutMismatch, h.Channels, h.TileWidth, h.TileHeight)
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return fmt.Errorf("tilestore: zstd encoder: %w", err)
	}
	defer enc.Close()

	// EncodeAll is safe for concurrent use.
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, r := range recs {
		g.Go(func() error {
			r.zst = enc.EncodeAll(r.raw, make([]byte, 0, len(r.raw)/4))
			r.raw = nil
			return nil
		})
	}
	_ = g.Wait()

	bw := bufio.NewWriter(w)
	wh := wireHeader{
		Magic:       magic,
		Version:     Version,
		SampleBytes: uint8(h.SampleBytes),
		Channels:    uint8(h.Channels),
		Width:       uint32(h.Width),
		Height:      uint32(h.Height),
		TileWidth:   uint16(h.TileWidth),
		TileHeight:  uint16(h.TileHeight),
		Tiles:       uint32(h.Tiles),
	}
	if err := binary.Write(bw, binary.BigEndian, &wh); err != nil {
		return fmt.Errorf("tilestore: write header: %w", err)
	}
	packed := 0
	for _, r := range recs {
		wr := wireRecord{X: uint32(r.x), Y: uint32(r.y), Size: uint32(len(r.zst))}
		if err := binary.Write(bw, binary.BigEndian, &wr); err != nil {
			return fmt.Errorf("tilestore: write tile (%d,%d): %w", r.x, r.y, err)
		}
		if _, err := bw.Write(r.zst); err != nil {
			return fmt.Errorf("tilestore: write tile (%d,%d): %w", r.x, r.y, err)
		}
		packed += len(r.zst)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("tilestore: flush: %w", err)
	}

	logging.Logger().Debug("tilestore: saved snapshot",
		"tiles", len(recs), "raw_bytes", len(recs)*h.tileBytes(), "packed_bytes", packed)
	return nil
}

// ReadHeader reads and checks a snapshot header.
func ReadHeader(r io.Reader) (Header, error) {
	var wh wireHeader
	if err := binary.Read(r, binary.BigEndian, &wh); err != nil {
		return Header{}, fmt.Errorf("tilestore: read header: %w", err)
	}
	if wh.Magic != magic {
		return Header{}, fmt.Errorf("%w: %q", ErrBadMagic, wh.Magic[:])
	}
	if wh.Version != Version {
		return Header{}, fmt.Errorf("%w: %d", ErrVersion, wh.Version)
	}
	h := Header{
		Version:     int(wh.Version),
		SampleBytes: int(wh.SampleBytes),
		Channels:    int(wh.Channels),
		Width:       int(wh.Width),
		Height:      int(wh.Height),
		TileWidth:   int(wh.TileWidth),
		TileHeight:  int(wh.TileHeight),
		Tiles:       int(wh.Tiles),
	}
	if h.SampleBytes != 1 && h.SampleBytes != 2 || h.Channels == 0 ||
		h.Width == 0 || h.Height == 0 || h.TileWidth == 0 || h.TileHeight == 0 {
		return Header{}, fmt.Errorf("%w: header %+v", ErrCorrupt, h)
	}
	if h.Width > MaxSamples/h.Height/h.Channels {
		return Header{}, fmt.Errorf("%w: %dx%d plane with %d channels exceeds %d samples",
			ErrCorrupt, h.Width, h.Height, h.Channels, MaxSamples)
	}
	if tx, ty := h.grid(); h.Tiles > tx*ty {
		return Header{}, fmt.Errorf("%w: %d tiles in a %dx%d grid", ErrCorrupt, h.Tiles, tx, ty)
	}
	return h, nil
}

// Load reads a snapshot into a new plane. opts apply to the new manager;
// the snapshot's tile size always wins.
func Load[Q colorspace.Quantum](r io.Reader, opts ...tiles.Option[Q]) (*tiles.Manager[Q], error) {
	br := bufio.NewReader(r)
	h, err := ReadHeader(br)
	if err != nil {
		return nil, err
	}
	if h.SampleBytes != colorspace.Bytes[Q]() {
		return nil, fmt.Errorf("%w: %d-byte samples, want %d", ErrLayoutMismatch, h.SampleBytes, colorspace.Bytes[Q]())
	}

	opts = append(opts, tiles.WithTileSize[Q](h.TileWidth, h.TileHeight))
	m, err := tiles.NewManager(h.Width, h.Height, h.Channels, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	if err := readTiles(br, h, m); err != nil {
		_ = m.Close()
		return nil, err
	}
	return m, nil
}

// LoadInto restores a snapshot into an existing plane of the same layout.
// Tiles in the snapshot replace the plane's; other tiles are kept.
func LoadInto[Q colorspace.Quantum](r io.Reader, m *tiles.Manager[Q]) error {
	br := bufio.NewReader(r)
	h, err := ReadHeader(br)
	if err != nil {
		return err
	}
	if err := h.matches(headerFor(m, 0)); err != nil {
		return err
	}
	return readTiles(br, h, m)
}

func readTiles[Q colorspace.Quantum](r io.Reader, h Header, m *tiles.Manager[Q]) error {
	tx, ty := h.grid()
	rawSize := h.tileBytes()
	// zstd never grows incompressible input by more than a small frame
	// overhead; anything larger is not a tile of this plane.
	maxPacked := rawSize + rawSize/8 + 1024

	recs := make([]*record, 0, min(h.Tiles, tx*ty, 4096))
	for range h.Tiles {
		var wr wireRecord
		if err := binary.Read(r, binary.BigEndian, &wr); err != nil {
			return fmt.Errorf("tilestore: read tile record: %w", err)
		}
		if int(wr.X) >= tx || int(wr.Y) >= ty || int(wr.Size) > maxPacked {
			return fmt.Errorf("%w: tile (%d,%d) of %d bytes", ErrCorrupt, wr.X, wr.Y, wr.Size)
		}
		rec := &record{x: int(wr.X), y: int(wr.Y), zst: make([]byte, wr.Size)}
		if _, err := io.ReadFull(r, rec.zst); err != nil {
			return fmt.Errorf("tilestore: read tile (%d,%d): %w", rec.x, rec.y, err)
		}
		recs = append(recs, rec)
	}

	dec, err := zstd.NewReader(nil, zstd.WithDecoderMaxMemory(uint64(rawSize)+1))
	if err != nil {
		return fmt.Errorf("tilestore: zstd decoder: %w", err)
	}
	defer dec.Close()

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, rec := range recs {
		g.Go(func() error {
			raw, err := dec.DecodeAll(rec.zst, make([]byte, 0, rawSize))
			if err != nil {
				return fmt.Errorf("tilestore: decode tile (%d,%d): %w", rec.x, rec.y, err)
			}
			if len(raw) != rawSize {
				return fmt.Errorf("%w: tile (%d,%d) has %d bytes, want %d", ErrCorrupt, rec.x, rec.y, len(raw), rawSize)
			}
			samples := make([]Q, rawSize/h.SampleBytes)
			decodeSamples(samples, raw)
			return m.SetTile(rec.x, rec.y, samples)
		})
	}
	return g.Wait()
}

// appendSamples serializes samples, big-endian for 16-bit quanta.
func appendSamples[Q colorspace.Quantum](dst []byte, src []Q) []byte {
	if colorspace.Bytes[Q]() == 1 {
		for _, v := range src {
			dst = append(dst, byte(v))
		}
		return dst
	}
	for _, v := range src {
		dst = binary.BigEndian.AppendUint16(dst, uint16(v))
	}
	return dst
}

// decodeSamples is the inverse of appendSamples. len(src) must be
// len(dst) samples.
func decodeSamples[Q colorspace.Quantum](dst []Q, src []byte) {
	if colorspace.Bytes[Q]() == 1 {
		for i := range dst {
			dst[i] = Q(src[i])
		}
		return
	}
	for i := range dst {
		dst[i] = Q(binary.BigEndian.Uint16(src[i*2:]))
	}
}
