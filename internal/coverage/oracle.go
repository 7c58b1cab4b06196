package coverage

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/mohammed-shakir/geohash-polyfill/internal/geometry"
)

// Oracle answers box/polygon relationship queries for one polygon. It is
// read-only after NewOracle and safe for concurrent use.
type Oracle struct {
	exterior ring
	holes    []ring
}

func NewOracle(p geometry.Polygon) *Oracle {
	o := &Oracle{exterior: newRing(p.Exterior)}
	for _, h := range p.Holes {
		o.holes = append(o.holes, newRing(h))
	}
	return o
}

// Bound is the bounding box of the exterior ring.
func (o *Oracle) Bound() orb.Bound { return o.exterior.bound }

// Intersects reports whether b shares any point with the polygon's filled
// area, boundaries included.
func (o *Oracle) Intersects(b orb.Bound) bool {
	if !o.exterior.bound.Intersects(b) {
		return false
	}
	if o.exterior.touches(b) {
		return true
	}
	for _, h := range o.holes {
		if h.touches(b) {
			return true
		}
	}

	// No ring touches b, so b lies wholly inside or outside each ring and a
	// single corner decides.
	if !planar.RingContains(o.exterior.pts, b.Min) {
		return false
	}
	for _, h := range o.holes {
		if planar.RingContains(h.pts, b.Min) {
			return false
		}
	}
	return true
}

// Contains reports whether every point of b lies inside the exterior ring
// and outside every hole. Touching a hole boundary denies containment;
// touching the exterior boundary from inside does not.
func (o *Oracle) Contains(b orb.Bound) bool {
	eb := o.exterior.bound
	if b.Min[0] < eb.Min[0] || b.Min[1] < eb.Min[1] || b.Max[0] > eb.Max[0] || b.Max[1] > eb.Max[1] {
		return false
	}
	if o.exterior.crosses(b) {
		return false
	}
	// The exterior stays out of b's interior, so the centre is either
	// strictly inside or strictly outside.
	if !planar.RingContains(o.exterior.pts, b.Center()) {
		return false
	}
	for _, h := range o.holes {
		if h.touches(b) || planar.RingContains(h.pts, b.Min) {
			return false
		}
	}
	return true
}
