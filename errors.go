package tilecomp

import "errors"

// Errors returned by Image and Layer.
var (
	// ErrClosed is returned by operations on a closed Image.
	ErrClosed = errors.New("tilecomp: image closed")

	// ErrLayerNotFound is returned for a layer that is not in the image.
	ErrLayerNotFound = errors.New("tilecomp: layer not found")

	// ErrDuplicateLayer is returned when a layer name is already in use.
	ErrDuplicateLayer = errors.New("tilecomp: duplicate layer name")

	// ErrNoLayerBelow is returned by MergeDown for the bottom layer.
	ErrNoLayerBelow = errors.New("tilecomp: no layer below")
)
