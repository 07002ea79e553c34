// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package colorspace

import (
	"fmt"
	"strings"
)

// CompositeOp selects the blending algebra used to combine a source pixel
// with a destination pixel.
type CompositeOp uint8

const (
	Clear       CompositeOp = iota // zero the destination
	Copy                           // replace the destination with the source
	Over                           // straight alpha source-over
	In                             // placeholder
	Atop                           // placeholder
	Xor                            // placeholder
	Plus                           // placeholder
	Minus                          // placeholder
	Add                            // placeholder
	Subtract                       // placeholder
	Diff                           // placeholder
	Mult                           // placeholder
	BumpMap                        // placeholder
	CopyRed                        // placeholder
	CopyGreen                      // placeholder
	CopyBlue                       // placeholder
	CopyOpacity                    // placeholder
	Dissolve                       // placeholder
	Displace                       // placeholder
	Modulate                       // placeholder
	Threshold                      // placeholder

	opCount
)

var opNames = [opCount]string{
	Clear:       "clear",
	Copy:        "copy",
	Over:        "over",
	In:          "in",
	Atop:        "atop",
	Xor:         "xor",
	Plus:        "plus",
	Minus:       "minus",
	Add:         "add",
	Subtract:    "subtract",
	Diff:        "diff",
	Mult:        "mult",
	BumpMap:     "bumpmap",
	CopyRed:     "copy_red",
	CopyGreen:   "copy_green",
	CopyBlue:    "copy_blue",
	CopyOpacity: "copy_opacity",
	Dissolve:    "dissolve",
	Displace:    "displace",
	Modulate:    "modulate",
	Threshold:   "threshold",
}

// String returns the lower-case name of the op.
func (op CompositeOp) String() string {
	if op < opCount {
		return opNames[op]
	}
	return fmt.Sprintf("CompositeOp(%d)", uint8(op))
}

// IsValid reports whether op is one of the named ops.
func (op CompositeOp) IsValid() bool {
	return op < opCount
}

// Supported reports whether op has defined compositing math.
// Selecting any other op leaves the destination unchanged.
func (op CompositeOp) Supported() bool {
	switch op {
	case Clear, Copy, Over:
		return true
	default:
		return false
	}
}

// CompositeOps returns every named op in declaration order.
func CompositeOps() []CompositeOp {
	ops := make([]CompositeOp, opCount)
	for i := range ops {
		ops[i] = CompositeOp(i)
	}
	return ops
}

// ParseCompositeOp returns the op with the given name.
// Matching ignores case and accepts '-' in place of '_'.
func ParseCompositeOp(name string) (CompositeOp, error) {
	n := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_")
	for i, s := range opNames {
		if s == n {
			return CompositeOp(i), nil
		}
	}
	return 0, fmt.Errorf("colorspace: unknown composite op %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (op CompositeOp) MarshalText() ([]byte, error) {
	if !op.IsValid() {
		return nil, fmt.Errorf("colorspace: invalid composite op %d", uint8(op))
	}
	return []byte(op.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (op *CompositeOp) UnmarshalText(text []byte) error {
	v, err := ParseCompositeOp(string(text))
	if err != nil {
		return err
	}
	*op = v
	return nil
}
