// Package fgb reads polygon features from FlatGeobuf files and writes
// polygon layers (such as coverings rendered as cell rectangles) back out.
package fgb

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	flatgeobuf "github.com/flatgeobuf/flatgeobuf/src/go"
	"github.com/flatgeobuf/flatgeobuf/src/go/flattypes"
	"github.com/flatgeobuf/flatgeobuf/src/go/writer"
	flatbuffers "github.com/google/flatbuffers/go"
	"github.com/paulmach/orb"
)

var (
	ErrNoIndex    = errors.New("fgb: file has no spatial index")
	ErrNoPolygons = errors.New("fgb: no polygon features")
	ErrMalformed  = errors.New("fgb: malformed geometry")
)

var magic = []byte{'f', 'g', 'b', 3}

// IsFGB reports whether data starts with the FlatGeobuf magic bytes.
func IsFGB(data []byte) bool {
	return bytes.HasPrefix(data, magic)
}

// ReadMultiPolygon returns every Polygon and MultiPolygon member of the file
// as one MultiPolygon, in file order. Other feature kinds are skipped.
// The official reader only iterates through the spatial index, so unindexed
// files are rejected.
func ReadMultiPolygon(data []byte) (out orb.MultiPolygon, err error) {
	// the flatbuffers accessors panic on out-of-range offsets
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("%w: %v", ErrMalformed, r)
		}
	}()

	f, err := flatgeobuf.NewWithData(data)
	if err != nil {
		return nil, fmt.Errorf("fgb: open: %w", err)
	}
	h := f.Header()
	if h == nil {
		return nil, fmt.Errorf("fgb: missing header")
	}
	if h.FeaturesCount() == 0 {
		return nil, ErrNoPolygons
	}
	if h.IndexNodeSize() == 0 || h.EnvelopeLength() < 4 {
		return nil, ErrNoIndex
	}

	features, err := f.Search(h.Envelope(0), h.Envelope(1), h.Envelope(2), h.Envelope(3))
	if err != nil {
		return nil, fmt.Errorf("fgb: search: %w", err)
	}

	for _, feat := range features {
		if feat == nil {
			continue
		}
		var g flattypes.Geometry
		geom := feat.Geometry(&g)
		if geom == nil {
			continue
		}
		switch geom.Type() {
		case flattypes.GeometryTypePolygon:
			p, err := polygonFromXYEnds(geom)
			if err != nil {
				return nil, err
			}
			if len(p) > 0 {
				out = append(out, p)
			}
		case flattypes.GeometryTypeMultiPolygon:
			mp, err := multiPolygonFromParts(geom)
			if err != nil {
				return nil, err
			}
			out = append(out, mp...)
		}
	}
	if len(out) == 0 {
		return nil, ErrNoPolygons
	}
	return out, nil
}

// polygonFromXYEnds splits the flat coordinate array at the ring end
// offsets. Offsets must be non-decreasing and stay within the array.
func polygonFromXYEnds(g *flattypes.Geometry) (orb.Polygon, error) {
	xyLen := g.XyLength()
	endsLen := g.EndsLength()
	if xyLen < 2 {
		return nil, nil
	}
	if xyLen%2 != 0 {
		return nil, fmt.Errorf("%w: odd coordinate count %d", ErrMalformed, xyLen)
	}
	points := xyLen / 2

	if endsLen == 0 {
		ring := make(orb.Ring, 0, points)
		for i := 0; i < points; i++ {
			ring = append(ring, orb.Point{g.Xy(2 * i), g.Xy(2*i + 1)})
		}
		return orb.Polygon{ring}, nil
	}

	poly := make(orb.Polygon, 0, endsLen)
	start := 0
	for i := 0; i < endsLen; i++ {
		end := int(g.Ends(i))
		if end < start || end > points {
			return nil, fmt.Errorf("%w: ring %d ends at %d (start %d, %d points)",
				ErrMalformed, i, end, start, points)
		}
		ring := make(orb.Ring, 0, end-start)
		for j := start; j < end; j++ {
			ring = append(ring, orb.Point{g.Xy(2 * j), g.Xy(2*j + 1)})
		}
		poly = append(poly, ring)
		start = end
	}
	return poly, nil
}

func multiPolygonFromParts(g *flattypes.Geometry) (orb.MultiPolygon, error) {
	n := g.PartsLength()
	if n == 0 {
		p, err := polygonFromXYEnds(g)
		if err != nil || len(p) == 0 {
			return nil, err
		}
		return orb.MultiPolygon{p}, nil
	}
	mp := make(orb.MultiPolygon, 0, n)
	for i := 0; i < n; i++ {
		var part flattypes.Geometry
		if !g.Parts(&part, i) {
			continue
		}
		p, err := polygonFromXYEnds(&part)
		if err != nil {
			return nil, fmt.Errorf("part %d: %w", i, err)
		}
		if len(p) > 0 {
			mp = append(mp, p)
		}
	}
	return mp, nil
}

// WritePolygons writes polys as an indexed Polygon layer named name.
func WritePolygons(w io.Writer, name string, polys []orb.Polygon) error {
	if len(polys) == 0 {
		return ErrNoPolygons
	}
	b := flatbuffers.NewBuilder(4096)
	header := writer.NewHeader(b)
	header.SetGeometryType(flattypes.GeometryTypePolygon)
	if name != "" {
		header.SetName(name)
	}

	gen := &polygonGenerator{polys: polys}
	fw := writer.NewWriter(header, true, gen, nil)
	if _, err := fw.Write(w); err != nil {
		return fmt.Errorf("fgb: write: %w", err)
	}
	return nil
}

type polygonGenerator struct {
	polys []orb.Polygon
	next  int
}

func (g *polygonGenerator) Generate() *writer.Feature {
	for g.next < len(g.polys) {
		p := g.polys[g.next]
		g.next++
		if len(p) == 0 {
			continue
		}

		b := flatbuffers.NewBuilder(1024)
		geom := writer.NewGeometry(b)
		geom.SetType(flattypes.GeometryTypePolygon)
		xy, ends := polygonToXYEnds(p)
		geom.SetXY(xy)
		geom.SetEnds(ends)

		f := writer.NewFeature(b)
		f.SetGeometry(geom)
		return f
	}
	return nil
}

func polygonToXYEnds(p orb.Polygon) ([]float64, []uint32) {
	n := 0
	for _, r := range p {
		n += len(r)
	}
	xy := make([]float64, 0, n*2)
	ends := make([]uint32, 0, len(p))
	var end uint32
	for _, r := range p {
		for _, pt := range r {
			xy = append(xy, pt[0], pt[1])
		}
		end += uint32(len(r))
		ends = append(ends, end)
	}
	return xy, ends
}
