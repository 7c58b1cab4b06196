// Package coverage computes the set of geohash cells covering a polygon.
//
// Cells are discovered by a flood fill over the geohash adjacency graph that
// starts at a seed cell and only grows from cells touching the polygon, so
// the work done is proportional to the polygon's footprint rather than to
// its bounding box.
package coverage

import (
	"fmt"
	"sort"

	"github.com/mohammed-shakir/geohash-polyfill/internal/core/model"
	"github.com/mohammed-shakir/geohash-polyfill/internal/geohash"
	"github.com/mohammed-shakir/geohash-polyfill/internal/geometry"
)

// Mode selects which cells are kept.
type Mode int

const (
	// Outer keeps every cell that intersects the polygon.
	Outer Mode = iota
	// Inner keeps only cells wholly inside the polygon.
	Inner
)

// ModeOf maps the inner flag of the public API to a Mode.
func ModeOf(inner bool) Mode {
	if inner {
		return Inner
	}
	return Outer
}

func (m Mode) String() string {
	if m == Inner {
		return "inner"
	}
	return "outer"
}

// Stats describes one coverage run.
type Stats struct {
	Members  int
	Visited  int
	Accepted int
}

// PolygonToGeohashes returns the sorted geohash codes of length precision
// covering geom, a Polygon or MultiPolygon in any form geometry.Extract
// accepts.
func PolygonToGeohashes(geom any, precision int, inner bool) (model.Cells, error) {
	shape, err := geometry.Extract(geom)
	if err != nil {
		return nil, err
	}
	return Cover(shape, precision, ModeOf(inner))
}

func Cover(shape geometry.Shape, precision int, mode Mode) (model.Cells, error) {
	cells, _, err := CoverWithStats(shape, precision, mode)
	return cells, err
}

// CoverWithStats is Cover that also reports traversal counters. Members
// share the result set; each member is traversed with its own visited set.
func CoverWithStats(shape geometry.Shape, precision int, mode Mode) (model.Cells, Stats, error) {
	var st Stats
	if err := geohash.ValidatePrecision(precision); err != nil {
		return nil, st, err
	}
	if len(shape) == 0 {
		return nil, st, fmt.Errorf("%w: empty shape", ErrNoSeedFound)
	}

	accepted := make(map[string]struct{})
	for i, p := range shape {
		o := NewOracle(p)
		start, err := seed(p, o, precision)
		if err != nil {
			if len(shape) > 1 {
				err = fmt.Errorf("polygon %d: %w", i, err)
			}
			return nil, st, err
		}
		st.Visited += fill(o, start, mode, accepted)
		st.Members++
	}

	out := make(model.Cells, 0, len(accepted))
	for c := range accepted {
		out = append(out, c)
	}
	sort.Strings(out)
	st.Accepted = len(out)
	return out, st, nil
}

// fill runs the breadth-first traversal from start and records admitted
// cells in accepted. Traversal grows from every intersecting cell in both
// modes; Inner only narrows what is recorded. It returns the number of cells
// evaluated.
func fill(o *Oracle, start string, mode Mode, accepted map[string]struct{}) int {
	visited := map[string]struct{}{start: {}}
	queue := []string{start}

	for head := 0; head < len(queue); head++ {
		c := queue[head]
		b, err := geohash.DecodeBounds(c)
		if err != nil || !o.Intersects(b) {
			continue
		}
		if mode == Outer || o.Contains(b) {
			accepted[c] = struct{}{}
		}

		adj, err := geohash.Neighbors(c)
		if err != nil {
			continue
		}
		for _, n := range adj {
			if n == "" {
				continue
			}
			if _, seen := visited[n]; seen {
				continue
			}
			visited[n] = struct{}{}
			queue = append(queue, n)
		}
	}
	return len(visited)
}
