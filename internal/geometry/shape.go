// Package geometry turns caller-supplied geometries into the normalized
// polygon form consumed by the coverage engine.
package geometry

import (
	"errors"

	"github.com/paulmach/orb"
)

var (
	// ErrNotPolygonal is returned for recognized geometries that are not a
	// Polygon or MultiPolygon.
	ErrNotPolygonal = errors.New("geometry: requires a Polygon or MultiPolygon")

	// ErrExtraction is returned when the input is not a usable geometry at all.
	ErrExtraction = errors.New("geometry: could not extract geometry")
)

// Polygon is one closed exterior ring with zero or more closed holes.
type Polygon struct {
	Exterior orb.Ring
	Holes    []orb.Ring
}

// Bound is the bounding box of the exterior ring.
func (p Polygon) Bound() orb.Bound {
	return p.Exterior.Bound()
}

// Orb returns the polygon as an orb.Polygon sharing the same rings.
func (p Polygon) Orb() orb.Polygon {
	out := make(orb.Polygon, 0, 1+len(p.Holes))
	out = append(out, p.Exterior)
	out = append(out, p.Holes...)
	return out
}

// Shape is the normalized form of a Polygon or MultiPolygon: members are kept
// in input order and are never merged.
type Shape []Polygon

// Bound is the union of the members' bounding boxes.
func (s Shape) Bound() orb.Bound {
	if len(s) == 0 {
		return orb.Bound{}
	}
	b := s[0].Bound()
	for _, p := range s[1:] {
		b = b.Union(p.Bound())
	}
	return b
}

// Orb returns the shape as an orb.MultiPolygon.
func (s Shape) Orb() orb.MultiPolygon {
	out := make(orb.MultiPolygon, 0, len(s))
	for _, p := range s {
		out = append(out, p.Orb())
	}
	return out
}
