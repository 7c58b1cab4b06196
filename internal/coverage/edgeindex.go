package coverage

import (
	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"
)

const (
	// rings with at least this many edges get an R-tree over their edges
	indexThreshold = 64

	// rtreego rejects zero-length sides and treats touching rectangles as
	// disjoint, so every rectangle is grown by pad on each side.
	pad = 1e-9
)

type edge struct {
	a, c orb.Point
	rect rtreego.Rect
}

func (e *edge) Bounds() rtreego.Rect { return e.rect }

// ring is one closed polygon ring prepared for repeated box queries.
type ring struct {
	pts   orb.Ring
	bound orb.Bound
	tree  *rtreego.Rtree
}

func newRing(pts orb.Ring) ring {
	r := ring{pts: pts, bound: pts.Bound()}
	if len(pts)-1 < indexThreshold {
		return r
	}
	objs := make([]rtreego.Spatial, 0, len(pts)-1)
	for i := 0; i+1 < len(pts); i++ {
		e := &edge{a: pts[i], c: pts[i+1]}
		rect, err := rectFor(orb.Bound{Min: e.a, Max: e.a}.Extend(e.c))
		if err != nil {
			// non-finite coordinates never reach here; fall back to a scan
			return ring{pts: pts, bound: r.bound}
		}
		e.rect = rect
		objs = append(objs, e)
	}
	r.tree = rtreego.NewTree(2, 25, 50, objs...)
	return r
}

func rectFor(b orb.Bound) (rtreego.Rect, error) {
	return rtreego.NewRect(
		rtreego.Point{b.Min[0] - pad, b.Min[1] - pad},
		[]float64{b.Max[0] - b.Min[0] + 2*pad, b.Max[1] - b.Min[1] + 2*pad},
	)
}

// anyEdge calls fn for the ring's edges that may touch b and stops at the
// first one for which fn returns true.
func (r ring) anyEdge(b orb.Bound, fn func(a, c orb.Point) bool) bool {
	if !r.bound.Intersects(b) {
		return false
	}
	if r.tree == nil {
		for i := 0; i+1 < len(r.pts); i++ {
			if fn(r.pts[i], r.pts[i+1]) {
				return true
			}
		}
		return false
	}

	q, err := rectFor(b)
	if err != nil {
		return false
	}
	for _, s := range r.tree.SearchIntersect(q) {
		e := s.(*edge)
		if fn(e.a, e.c) {
			return true
		}
	}
	return false
}

// touches reports whether any edge of the ring shares a point with b.
func (r ring) touches(b orb.Bound) bool {
	return r.anyEdge(b, func(a, c orb.Point) bool { return touchesBox(b, a, c) })
}

// crosses reports whether any edge of the ring enters the open interior of b.
func (r ring) crosses(b orb.Bound) bool {
	return r.anyEdge(b, func(a, c orb.Point) bool { return entersInterior(b, a, c) })
}
