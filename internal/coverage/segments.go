package coverage

import "github.com/paulmach/orb"

// clip intersects segment a->c with the closed box b (Liang-Barsky) and
// returns the parameter range of the part inside. ok is false when the
// segment misses the box entirely.
func clip(b orb.Bound, a, c orb.Point) (t0, t1 float64, ok bool) {
	t0, t1 = 0, 1
	dx, dy := c[0]-a[0], c[1]-a[1]
	p := [4]float64{-dx, dx, -dy, dy}
	q := [4]float64{a[0] - b.Min[0], b.Max[0] - a[0], a[1] - b.Min[1], b.Max[1] - a[1]}

	for i := range p {
		if p[i] == 0 {
			if q[i] < 0 {
				return 0, 0, false
			}
			continue
		}
		r := q[i] / p[i]
		if p[i] < 0 {
			if r > t1 {
				return 0, 0, false
			}
			if r > t0 {
				t0 = r
			}
		} else {
			if r < t0 {
				return 0, 0, false
			}
			if r < t1 {
				t1 = r
			}
		}
	}
	return t0, t1, true
}

// touchesBox reports whether the closed segment shares at least one point with
// the closed box.
func touchesBox(b orb.Bound, a, c orb.Point) bool {
	_, _, ok := clip(b, a, c)
	return ok
}

// entersInterior reports whether the segment passes through the open interior
// of b. A segment running along an edge of b or grazing a corner does not.
func entersInterior(b orb.Bound, a, c orb.Point) bool {
	t0, t1, ok := clip(b, a, c)
	if !ok {
		return false
	}
	t := (t0 + t1) / 2
	x := a[0] + t*(c[0]-a[0])
	y := a[1] + t*(c[1]-a[1])
	return x > b.Min[0] && x < b.Max[0] && y > b.Min[1] && y < b.Max[1]
}
