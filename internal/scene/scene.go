// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package scene loads the layer scenes rendered by the tilecomp command.
//
// A scene is a TOML or YAML document, chosen by file extension:
//
//	width = 256
//	height = 256
//	background = "#ffffff"
//
//	[[layers]]
//	name = "base"
//	op = "over"
//	fills = [{ rect = [0, 0, 128, 128], color = "#ff0000" }]
//
// Layers are blended bottom-up onto the background. Without a background
// the stack starts fully transparent, and "over" keeps the destination
// alpha nearly at zero: an opaque layer over an empty cell ends with alpha
// 1 of 255. Set background for a visible result, or give the bottom layer
// op "copy".
package scene

import (
	"errors"
	"fmt"
	"image"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/gogpu/tilecomp/colorspace"
	"github.com/gogpu/tilecomp/render"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("scene: invalid")

// ErrUnknownFormat is returned for a file extension other than .toml,
// .yaml or .yml.
var ErrUnknownFormat = errors.New("scene: unknown format")

// Format is a scene document syntax.
type Format int

const (
	TOML Format = iota
	YAML
)

// FormatFromPath picks the format from the extension of path.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return TOML, nil
	case ".yaml", ".yml":
		return YAML, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, path)
}

// Scene describes an image and its layers.
type Scene struct {
	Width    int    `toml:"width" yaml:"width"`
	Height   int    `toml:"height" yaml:"height"`
	Depth    int    `toml:"depth" yaml:"depth"`
	Model    string `toml:"model" yaml:"model"`
	TileSize int    `toml:"tile_size" yaml:"tile_size"`
	MaxTiles int    `toml:"max_tiles" yaml:"max_tiles"`
	Workers  int    `toml:"workers" yaml:"workers"`

	// Background is a hex color. Empty means transparent, in which case
	// "over" layers land almost invisible (see the package doc).
	Background string `toml:"background" yaml:"background"`

	// ByteOrder is the channel order of rendered frames: "rgba", "argb",
	// "bgra" or "argb32".
	ByteOrder string `toml:"byte_order" yaml:"byte_order"`

	Output string  `toml:"output" yaml:"output"`
	Scale  float64 `toml:"scale" yaml:"scale"`

	Layers []Layer `toml:"layers" yaml:"layers"`

	// Dir is the directory image paths are relative to. Load sets it to
	// the scene file's directory.
	Dir string `toml:"-" yaml:"-"`
}

// Layer describes one layer and the paint applied to it, fills first,
// then images.
type Layer struct {
	Name    string   `toml:"name" yaml:"name"`
	Op      string   `toml:"op" yaml:"op"`
	Opacity *float64 `toml:"opacity" yaml:"opacity"`
	Visible *bool    `toml:"visible" yaml:"visible"`
	Fills   []Fill   `toml:"fills" yaml:"fills"`
	Images  []Image  `toml:"images" yaml:"images"`
}

// Fill paints a rectangle [x0, y0, x1, y1) with a solid color.
type Fill struct {
	Rect    [4]int   `toml:"rect" yaml:"rect"`
	Color   string   `toml:"color" yaml:"color"`
	Opacity *float64 `toml:"opacity" yaml:"opacity"`
}

// Image places an image file with its top-left corner at (X, Y).
type Image struct {
	Path    string   `toml:"path" yaml:"path"`
	X       int      `toml:"x" yaml:"x"`
	Y       int      `toml:"y" yaml:"y"`
	Opacity *float64 `toml:"opacity" yaml:"opacity"`
}

// Load reads, decodes and validates the scene file at path.
func Load(path string) (*Scene, error) {
	f, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scene: %w", err)
	}
	s, err := Decode(data, f)
	if err != nil {
		return nil, fmt.Errorf("scene: %s: %w", path, err)
	}
	s.Dir = filepath.Dir(path)
	return s, nil
}

// Decode parses and validates a scene document.
func Decode(data []byte, f Format) (*Scene, error) {
	s := &Scene{}
	var err error
	switch f {
	case TOML:
		err = toml.Unmarshal(data, s)
	case YAML:
		err = yaml.Unmarshal(data, s)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownFormat, f)
	}
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	s.applyDefaults()
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scene) applyDefaults() {
	if s.Depth == 0 {
		s.Depth = 8
	}
	if s.Model == "" {
		s.Model = "rgba"
	}
	if s.ByteOrder == "" {
		s.ByteOrder = "rgba"
	}
	if s.Scale == 0 {
		s.Scale = 1
	}
	for i := range s.Layers {
		if s.Layers[i].Op == "" {
			s.Layers[i].Op = "over"
		}
	}
}

// Validate reports every problem in the scene, joined.
func (s *Scene) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	if s.Width <= 0 || s.Height <= 0 {
		bad("size %dx%d", s.Width, s.Height)
	}
	if s.Depth != 8 && s.Depth != 16 {
		bad("depth %d, want 8 or 16", s.Depth)
	}
	if s.Model != "rgba" && s.Model != "gray" {
		bad("model %q, want rgba or gray", s.Model)
	}
	if s.TileSize < 0 || s.MaxTiles < 0 || s.Workers < 0 {
		bad("tile_size, max_tiles and workers must not be negative")
	}
	if s.Background != "" {
		if _, err := colorspace.ParseHex(s.Background); err != nil {
			bad("background: %v", err)
		}
	}
	if _, err := s.Order(); err != nil {
		bad("byte_order: %v", err)
	}
	if s.Scale <= 0 || s.Scale > 16 {
		bad("scale %g, want (0, 16]", s.Scale)
	}

	names := make(map[string]bool, len(s.Layers))
	for i, l := range s.Layers {
		if l.Name == "" {
			bad("layer %d: empty name", i)
		} else if names[l.Name] {
			bad("layer %d: duplicate name %q", i, l.Name)
		}
		names[l.Name] = true

		if _, err := colorspace.ParseCompositeOp(l.Op); err != nil {
			bad("layer %q: %v", l.Name, err)
		}
		if !validOpacity(l.Opacity) {
			bad("layer %q: opacity %g, want [0, 1]", l.Name, *l.Opacity)
		}
		for j, f := range l.Fills {
			if f.Bounds().Empty() {
				bad("layer %q: fill %d: empty rect %v", l.Name, j, f.Rect)
			}
			if _, err := colorspace.ParseHex(f.Color); err != nil {
				bad("layer %q: fill %d: %v", l.Name, j, err)
			}
			if !validOpacity(f.Opacity) {
				bad("layer %q: fill %d: opacity %g, want [0, 1]", l.Name, j, *f.Opacity)
			}
		}
		for j, im := range l.Images {
			if im.Path == "" {
				bad("layer %q: image %d: empty path", l.Name, j)
			}
			if !validOpacity(im.Opacity) {
				bad("layer %q: image %d: opacity %g, want [0, 1]", l.Name, j, *im.Opacity)
			}
		}
	}
	return errors.Join(errs...)
}

func validOpacity(p *float64) bool {
	return p == nil || (*p >= 0 && *p <= 1)
}

// Bounds returns the image rectangle.
func (s *Scene) Bounds() image.Rectangle {
	return image.Rect(0, 0, s.Width, s.Height)
}

// BackgroundColor returns the parsed background, or nil for none.
func (s *Scene) BackgroundColor() colorspace.ColorSource {
	if s.Background == "" {
		return nil
	}
	c, err := colorspace.ParseHex(s.Background)
	if err != nil {
		return nil
	}
	return c
}

// Order returns the parsed byte order.
func (s *Scene) Order() (render.ChannelOrder, error) {
	return render.ParseChannelOrder(s.ByteOrder)
}

// ImagePath resolves p against the scene directory.
func (s *Scene) ImagePath(p string) string {
	if filepath.IsAbs(p) || s.Dir == "" {
		return p
	}
	return filepath.Join(s.Dir, p)
}

// CompositeOp returns the parsed layer op.
func (l Layer) CompositeOp() colorspace.CompositeOp {
	op, _ := colorspace.ParseCompositeOp(l.Op)
	return op
}

// IsVisible reports whether the layer is visible. Layers are visible
// unless set otherwise.
func (l Layer) IsVisible() bool {
	return l.Visible == nil || *l.Visible
}

// Bounds returns the fill rectangle.
func (f Fill) Bounds() image.Rectangle {
	return image.Rect(f.Rect[0], f.Rect[1], f.Rect[2], f.Rect[3])
}

// ColorSource returns the parsed fill color.
func (f Fill) ColorSource() colorspace.ColorSource {
	c, _ := colorspace.ParseHex(f.Color)
	return c
}

// Opacity converts an optional [0, 1] opacity to Q. A nil opacity is fully
// opaque.
func Opacity[Q colorspace.Quantum](p *float64) Q {
	if p == nil {
		return colorspace.Max[Q]()
	}
	return Q(math.Round(*p * float64(colorspace.Max[Q]())))
}
