// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package composite

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gogpu/tilecomp/colorspace"
	"github.com/gogpu/tilecomp/internal/logging"
)

func TestEngine_Composite(t *testing.T) {
	e := NewEngine[uint8](colorspace.RGB[uint8]{})

	dst := colorspace.Pixel[uint8]{0, 0, 255, 255}
	e.Composite(dst, colorspace.Pixel[uint8]{255, 255, 255, 0}, 255, colorspace.Over)
	assert.Equal(t, colorspace.Pixel[uint8]{0, 0, 255, 255}, dst)

	e.Composite(dst, colorspace.Pixel[uint8]{1, 2, 3, 4}, 255, colorspace.Copy)
	assert.Equal(t, colorspace.Pixel[uint8]{1, 2, 3, 4}, dst)
	assert.Zero(t, e.Unsupported())
}

func TestEngine_CompositeRun(t *testing.T) {
	tests := []struct {
		name    string
		op      colorspace.CompositeOp
		opacity uint8
		dst     []uint8
		src     []uint8
		want    []uint8
	}{
		{
			name:    "copy run",
			op:      colorspace.Copy,
			opacity: 255,
			dst:     []uint8{1, 1, 1, 1, 2, 2, 2, 2},
			src:     []uint8{9, 8, 7, 6, 5, 4, 3, 2},
			want:    []uint8{9, 8, 7, 6, 5, 4, 3, 2},
		},
		{
			name:    "clear run",
			op:      colorspace.Clear,
			opacity: 255,
			dst:     []uint8{1, 1, 1, 1, 2, 2, 2, 2},
			src:     []uint8{9, 8, 7, 6, 5, 4, 3, 2},
			want:    []uint8{0, 0, 0, 0, 0, 0, 0, 0},
		},
		{
			name:    "partial copy run untouched",
			op:      colorspace.Copy,
			opacity: 100,
			dst:     []uint8{1, 1, 1, 1, 2, 2, 2, 2},
			src:     []uint8{9, 8, 7, 6, 5, 4, 3, 2},
			want:    []uint8{1, 1, 1, 1, 2, 2, 2, 2},
		},
		{
			name:    "over mixed run",
			op:      colorspace.Over,
			opacity: 255,
			dst:     []uint8{0, 0, 255, 255, 0, 0, 255, 255},
			src:     []uint8{255, 0, 0, 0, 255, 0, 0, 128},
			want:    []uint8{0, 0, 255, 255, 128, 0, 127, 128},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEngine[uint8](colorspace.RGB[uint8]{})
			e.CompositeRun(tt.dst, tt.src, 2, tt.opacity, tt.op)
			assert.Equal(t, tt.want, tt.dst)
		})
	}
}

func TestEngine_CompositeRunLeavesTail(t *testing.T) {
	e := NewEngine[uint16](colorspace.Gray[uint16]{})
	dst := []uint16{1, 1, 2, 2, 3, 3}
	src := []uint16{9, 9, 9, 9, 9, 9}
	e.CompositeRun(dst, src, 2, 65535, colorspace.Copy)
	assert.Equal(t, []uint16{9, 9, 9, 9, 3, 3}, dst)

	e.CompositeRun(dst, src, 0, 65535, colorspace.Clear)
	assert.Equal(t, []uint16{9, 9, 9, 9, 3, 3}, dst)
}

func TestEngine_CompositeRect(t *testing.T) {
	e := NewEngine[uint8](colorspace.Gray[uint8]{})
	// 3x2 destination, stride 6 samples; blend a 2x2 source at its origin.
	dst := []uint8{
		1, 1, 1, 1, 1, 1,
		1, 1, 1, 1, 1, 1,
	}
	src := []uint8{
		5, 255, 6, 255,
		7, 255, 8, 255,
	}
	e.CompositeRect(dst, 6, src, 4, 2, 2, 255, colorspace.Copy)
	assert.Equal(t, []uint8{
		5, 255, 6, 255, 1, 1,
		7, 255, 8, 255, 1, 1,
	}, dst)
}

func TestEngine_Unsupported(t *testing.T) {
	orig := logging.Logger()
	t.Cleanup(func() { logging.Set(orig) })

	var buf bytes.Buffer
	logging.Set(slog.New(slog.NewTextHandler(&buf, nil)))

	e := NewEngine[uint8](colorspace.RGB[uint8]{})
	dst := []uint8{1, 2, 3, 4, 5, 6, 7, 8}
	src := []uint8{9, 9, 9, 9, 9, 9, 9, 9}

	e.CompositeRun(dst, src, 2, 255, colorspace.Dissolve)
	e.Composite(dst[:4], src[:4], 255, colorspace.Mult)
	e.CompositeRect(dst, 8, src, 8, 2, 1, 255, colorspace.Threshold)

	assert.Equal(t, []uint8{1, 2, 3, 4, 5, 6, 7, 8}, dst)
	assert.Equal(t, uint64(3), e.Unsupported())
	assert.Contains(t, buf.String(), "op=dissolve")
	assert.Contains(t, buf.String(), "op=mult")
	assert.False(t, e.Supports(colorspace.Dissolve))
	assert.True(t, e.Supports(colorspace.Over))
}

func BenchmarkEngine_OverRun(b *testing.B) {
	e := NewEngine[uint8](colorspace.RGB[uint8]{})
	const n = 64 * 64
	dst := make([]uint8, n*4)
	src := make([]uint8, n*4)
	for i := range n {
		src[i*4+3] = uint8(i)
		dst[i*4+3] = 255
	}
	for b.Loop() {
		e.CompositeRun(dst, src, n, 200, colorspace.Over)
	}
}
