package coverage

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/mohammed-shakir/geohash-polyfill/internal/geohash"
	"github.com/mohammed-shakir/geohash-polyfill/internal/geometry"
)

// probes lists candidate seed points in the order they are tried: bounding
// box centre, area centroid, box corners (SW, SE, NE, NW), box edge
// midpoints (S, E, N, W), then the exterior vertices.
func probes(p geometry.Polygon) []orb.Point {
	b := p.Bound()
	c := b.Center()
	out := make([]orb.Point, 0, 10+len(p.Exterior))
	out = append(out, c)
	if centroid, area := planar.CentroidArea(p.Orb()); area != 0 {
		out = append(out, centroid)
	}
	out = append(out,
		b.Min, orb.Point{b.Max[0], b.Min[1]}, b.Max, orb.Point{b.Min[0], b.Max[1]},
		orb.Point{c[0], b.Min[1]}, orb.Point{b.Max[0], c[1]}, orb.Point{c[0], b.Max[1]}, orb.Point{b.Min[0], c[1]},
	)
	return append(out, p.Exterior...)
}

// seed returns the first probe cell whose box intersects the polygon.
func seed(p geometry.Polygon, o *Oracle, precision int) (string, error) {
	if area := planar.Area(p.Exterior); area == 0 || math.IsNaN(area) {
		return "", fmt.Errorf("%w: exterior ring has no area", ErrNoSeedFound)
	}

	var encErr error
	for _, pt := range probes(p) {
		code, err := geohash.Encode(pt[1], pt[0], precision)
		if err != nil {
			if encErr == nil {
				encErr = err
			}
			continue
		}
		b, _ := geohash.DecodeBounds(code)
		if o.Intersects(b) {
			return code, nil
		}
	}
	if encErr != nil {
		return "", encErr
	}
	return "", ErrNoSeedFound
}
