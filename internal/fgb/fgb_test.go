package fgb

import (
	"bytes"
	"errors"
	"testing"

	"github.com/flatgeobuf/flatgeobuf/src/go/flattypes"
	"github.com/flatgeobuf/flatgeobuf/src/go/writer"
	flatbuffers "github.com/google/flatbuffers/go"
	"github.com/paulmach/orb"
)

func writeLayer(t *testing.T, polys ...orb.Polygon) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := WritePolygons(&buf, "test", polys); err != nil {
		t.Fatalf("WritePolygons: %v", err)
	}
	return buf.Bytes()
}

func TestRoundTrip_Polygons(t *testing.T) {
	sq := orb.Polygon{{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}}}
	holed := orb.Polygon{
		{{20, 20}, {30, 20}, {30, 30}, {20, 30}, {20, 20}},
		{{22, 22}, {24, 22}, {24, 24}, {22, 24}, {22, 22}},
	}
	data := writeLayer(t, sq, holed)
	if !IsFGB(data) {
		t.Fatalf("written data lacks magic bytes: % x", data[:8])
	}

	mp, err := ReadMultiPolygon(data)
	if err != nil {
		t.Fatalf("ReadMultiPolygon: %v", err)
	}
	if len(mp) != 2 {
		t.Fatalf("want 2 polygons, got %d", len(mp))
	}
	var sawHole bool
	for _, p := range mp {
		b := p.Bound()
		switch {
		case b == sq.Bound():
			if len(p) != 1 || len(p[0]) != 5 {
				t.Fatalf("square came back as %v", p)
			}
		case b == holed.Bound():
			sawHole = len(p) == 2 && p[1].Bound() == holed[1].Bound()
		default:
			t.Fatalf("unexpected polygon %v", p)
		}
	}
	if !sawHole {
		t.Fatalf("hole ring lost in round trip: %v", mp)
	}
}

func TestReadMultiPolygon_Invalid(t *testing.T) {
	if _, err := ReadMultiPolygon([]byte("not a flatgeobuf")); err == nil {
		t.Fatalf("expected error for invalid data")
	}
	if IsFGB([]byte("POLYGON((0 0,1 0,1 1,0 0))")) {
		t.Fatalf("WKT is not FlatGeobuf")
	}
}

func TestWritePolygons_Empty(t *testing.T) {
	if err := WritePolygons(&bytes.Buffer{}, "x", nil); !errors.Is(err, ErrNoPolygons) {
		t.Fatalf("want ErrNoPolygons, got %v", err)
	}
}

// rawGenerator emits one polygon feature with the given coordinates and ring
// end offsets exactly as supplied.
type rawGenerator struct {
	xy   []float64
	ends []uint32
	done bool
}

func (g *rawGenerator) Generate() *writer.Feature {
	if g.done {
		return nil
	}
	g.done = true
	b := flatbuffers.NewBuilder(1024)
	geom := writer.NewGeometry(b)
	geom.SetType(flattypes.GeometryTypePolygon)
	geom.SetXY(g.xy)
	geom.SetEnds(g.ends)
	f := writer.NewFeature(b)
	f.SetGeometry(geom)
	return f
}

func writeRaw(t *testing.T, xy []float64, ends []uint32) []byte {
	t.Helper()
	b := flatbuffers.NewBuilder(1024)
	header := writer.NewHeader(b)
	header.SetGeometryType(flattypes.GeometryTypePolygon)
	fw := writer.NewWriter(header, true, &rawGenerator{xy: xy, ends: ends}, nil)
	var buf bytes.Buffer
	if _, err := fw.Write(&buf); err != nil {
		t.Fatalf("write raw layer: %v", err)
	}
	return buf.Bytes()
}

func TestReadMultiPolygon_BadRingEnds(t *testing.T) {
	// two closed rings of four points each
	xy := []float64{
		0, 0, 10, 0, 10, 10, 0, 0,
		2, 2, 4, 2, 4, 4, 2, 2,
	}
	cases := []struct {
		name string
		ends []uint32
	}{
		{"decreasing", []uint32{8, 4}},
		{"past coordinates", []uint32{4, 9}},
		{"huge offset", []uint32{4, 1 << 30}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ReadMultiPolygon(writeRaw(t, xy, tc.ends))
			if !errors.Is(err, ErrMalformed) {
				t.Fatalf("want ErrMalformed, got %v", err)
			}
		})
	}

	mp, err := ReadMultiPolygon(writeRaw(t, xy, []uint32{4, 8}))
	if err != nil {
		t.Fatalf("well-formed ends: %v", err)
	}
	if len(mp) != 1 || len(mp[0]) != 2 || len(mp[0][1]) != 4 {
		t.Fatalf("unexpected polygon %v", mp)
	}
}
