// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package colorspace defines the per-pixel data model of tilecomp.
//
// A pixel is a short slice of fixed-point channel samples ("quanta"). The
// sample type is generic over [Quantum], so the same engine runs at 8 or
// 16 bits per channel; [Max] is the full-scale value of the active width.
//
// A [Strategy] describes one color model: its channel count and order,
// how external colors are converted into native samples, and the
// compositing algebra for a single pixel. Two strategies are provided:
//
//   - [RGB]: four channels {Red, Green, Blue, Alpha}
//   - [Gray]: two channels {Gray, GrayAlpha}
//
// Channels are stored straight (not premultiplied by alpha).
//
// Compositing is selected with a [CompositeOp]. Only Clear, Copy and Over
// have defined math; the remaining ops are named placeholders and
// [Strategy.Composite] reports them as not applied, leaving the
// destination untouched.
package colorspace
