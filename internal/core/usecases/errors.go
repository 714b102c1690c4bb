package usecases

import "errors"

var (
	// ErrBoundaryNotLoaded is returned when a filtered layer is built before
	// the boundary.
	ErrBoundaryNotLoaded = errors.New("boundary not loaded")
	// ErrBoundaryUnavailable wraps any failure to load the boundary, which
	// aborts the whole render.
	ErrBoundaryUnavailable = errors.New("boundary unavailable")
	// ErrEmptyBoundary is returned when the boundary dataset has no geometry.
	ErrEmptyBoundary = errors.New("boundary dataset has no geometry")
	// ErrLayerNotFound is returned for an unknown layer ID.
	ErrLayerNotFound = errors.New("layer not found")
)
