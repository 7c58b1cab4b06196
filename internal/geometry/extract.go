package geometry

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

const minRingPoints = 4

// Extract normalizes v into a Shape. Accepted values are orb.Polygon,
// orb.MultiPolygon and GeoJSON geometries or features carrying one of them.
func Extract(v any) (Shape, error) {
	switch g := v.(type) {
	case nil:
		return nil, fmt.Errorf("%w: nil value", ErrExtraction)
	case *geojson.Geometry:
		if g == nil {
			return nil, fmt.Errorf("%w: nil geojson geometry", ErrExtraction)
		}
		return fromOrb(g.Geometry())
	case geojson.Geometry:
		return fromOrb(g.Geometry())
	case *geojson.Feature:
		if g == nil || g.Geometry == nil {
			return nil, fmt.Errorf("%w: feature without geometry", ErrExtraction)
		}
		return fromOrb(g.Geometry)
	case orb.Geometry:
		return fromOrb(g)
	default:
		return nil, fmt.Errorf("%w: unsupported value of type %T", ErrExtraction, v)
	}
}

func fromOrb(g orb.Geometry) (Shape, error) {
	switch t := g.(type) {
	case nil:
		return nil, fmt.Errorf("%w: nil geometry", ErrExtraction)
	case orb.Polygon:
		p, ok, err := normalizePolygon(t)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: empty polygon", ErrExtraction)
		}
		return Shape{p}, nil
	case orb.Bound:
		return fromOrb(t.ToPolygon())
	case orb.MultiPolygon:
		out := make(Shape, 0, len(t))
		for i, member := range t {
			p, ok, err := normalizePolygon(member)
			if err != nil {
				return nil, fmt.Errorf("polygon %d: %w", i, err)
			}
			if ok {
				out = append(out, p)
			}
		}
		if len(out) == 0 {
			return nil, fmt.Errorf("%w: empty multipolygon", ErrExtraction)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: got %s", ErrNotPolygonal, g.GeoJSONType())
	}
}

// normalizePolygon copies and closes every ring. ok is false for a polygon
// without rings.
func normalizePolygon(p orb.Polygon) (Polygon, bool, error) {
	if len(p) == 0 || len(p[0]) == 0 {
		return Polygon{}, false, nil
	}
	ext, err := normalizeRing(p[0])
	if err != nil {
		return Polygon{}, false, fmt.Errorf("exterior: %w", err)
	}
	out := Polygon{Exterior: ext}
	for i, h := range p[1:] {
		if len(h) == 0 {
			continue
		}
		hole, err := normalizeRing(h)
		if err != nil {
			return Polygon{}, false, fmt.Errorf("hole %d: %w", i, err)
		}
		out.Holes = append(out.Holes, hole)
	}
	return out, true, nil
}

func normalizeRing(r orb.Ring) (orb.Ring, error) {
	out := make(orb.Ring, 0, len(r)+1)
	for _, pt := range r {
		if !finite(pt[0]) || !finite(pt[1]) {
			return nil, fmt.Errorf("%w: non-finite coordinate %v", ErrExtraction, pt)
		}
		out = append(out, pt)
	}
	if !out[0].Equal(out[len(out)-1]) {
		out = append(out, out[0])
	}
	if len(out) < minRingPoints {
		return nil, fmt.Errorf("%w: ring has < %d points", ErrExtraction, minRingPoints)
	}
	return out, nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
