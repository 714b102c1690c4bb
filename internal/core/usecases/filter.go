package usecases

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/samirrijal/districtmap/internal/core/domain"
)

// SpatialFilter decides whether a feature belongs on the map by testing it
// against the boundary's bounding box.
//
// A line is kept when any of its vertices is inside the box. Lines that cross
// the box without a vertex inside are dropped.
type SpatialFilter struct {
	bounds *domain.Bounds
}

// NewSpatialFilter creates a filter for the given box. A nil box rejects
// every feature.
func NewSpatialFilter(bounds *domain.Bounds) *SpatialFilter {
	return &SpatialFilter{bounds: bounds}
}

// Loaded reports whether the filter has a box to test against.
func (f *SpatialFilter) Loaded() bool {
	return f != nil && f.bounds != nil
}

// Contains reports whether the feature should be displayed.
func (f *SpatialFilter) Contains(feature *geojson.Feature) bool {
	if !f.Loaded() || feature == nil || feature.Geometry == nil {
		return false
	}

	switch g := feature.Geometry.(type) {
	case orb.Point:
		return f.containsPoint(g)
	case orb.LineString:
		return f.anyVertex(g)
	case orb.MultiLineString:
		for _, ls := range g {
			if f.anyVertex(ls) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// Apply returns the features of fc that pass the filter and the number rejected.
func (f *SpatialFilter) Apply(fc *geojson.FeatureCollection, keep func(*geojson.Feature) bool) ([]*geojson.Feature, int) {
	if fc == nil {
		return nil, 0
	}
	var out []*geojson.Feature
	rejected := 0
	for _, feat := range fc.Features {
		if keep != nil && !keep(feat) {
			continue
		}
		if !f.Contains(feat) {
			rejected++
			continue
		}
		out = append(out, feat)
	}
	return out, rejected
}

func (f *SpatialFilter) containsPoint(p orb.Point) bool {
	return f.bounds.Contains(domain.PointFromOrb(p))
}

func (f *SpatialFilter) anyVertex(ls orb.LineString) bool {
	for _, p := range ls {
		if f.containsPoint(p) {
			return true
		}
	}
	return false
}

// BoundaryBounds returns the bounding box of every geometry in fc.
func BoundaryBounds(fc *geojson.FeatureCollection) (*domain.Bounds, error) {
	if fc == nil {
		return nil, ErrEmptyBoundary
	}

	var (
		bound orb.Bound
		found bool
	)
	for _, feat := range fc.Features {
		if feat == nil || feat.Geometry == nil {
			continue
		}
		b := feat.Geometry.Bound()
		if !found {
			bound, found = b, true
			continue
		}
		bound = bound.Union(b)
	}
	if !found {
		return nil, ErrEmptyBoundary
	}

	bounds := domain.BoundsFromOrb(bound)
	return &bounds, nil
}

// IsLine reports whether the feature is a LineString or MultiLineString.
func IsLine(feature *geojson.Feature) bool {
	if feature == nil || feature.Geometry == nil {
		return false
	}
	switch feature.Geometry.(type) {
	case orb.LineString, orb.MultiLineString:
		return true
	}
	return false
}

// IsPoint reports whether the feature is a Point.
func IsPoint(feature *geojson.Feature) bool {
	if feature == nil || feature.Geometry == nil {
		return false
	}
	_, ok := feature.Geometry.(orb.Point)
	return ok
}
