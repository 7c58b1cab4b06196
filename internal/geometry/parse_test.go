package geometry

import (
	"bytes"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"

	"github.com/mohammed-shakir/geohash-polyfill/internal/fgb"
)

const triangleWKT = "POLYGON((-99.1795917 19.432134,-99.1656847 19.429034,-99.1776492 19.414236,-99.1795917 19.432134))"

const triangleGeoJSON = `{"type":"Polygon","coordinates":[[
	[-99.1795917,19.432134],[-99.1656847,19.429034],[-99.1776492,19.414236],[-99.1795917,19.432134]
]]}`

func TestParse_AllFormatsAgree(t *testing.T) {
	raw, err := wkb.Marshal(triangle)
	if err != nil {
		t.Fatalf("wkb.Marshal: %v", err)
	}
	inputs := map[string][]byte{
		"wkt":     []byte(triangleWKT),
		"geojson": []byte(triangleGeoJSON),
		"feature": []byte(`{"type":"Feature","properties":{},"geometry":` + triangleGeoJSON + `}`),
		"wkb":     raw,
		"wkbhex":  []byte(hex.EncodeToString(raw)),
	}
	for name, data := range inputs {
		s, err := Parse(data, FormatAuto)
		if err != nil {
			t.Fatalf("%s: Parse: %v", name, err)
		}
		if len(s) != 1 || len(s[0].Exterior) != 4 {
			t.Fatalf("%s: unexpected shape %+v", name, s)
		}
		if s[0].Exterior[1][0] != -99.1656847 || s[0].Exterior[1][1] != 19.429034 {
			t.Fatalf("%s: coordinates changed: %v", name, s[0].Exterior)
		}
	}
}

func TestParse_ExplicitFormats(t *testing.T) {
	if _, err := Parse([]byte(triangleWKT), FormatWKT); err != nil {
		t.Fatalf("wkt: %v", err)
	}
	if _, err := Parse([]byte(triangleGeoJSON), FormatGeoJSON); err != nil {
		t.Fatalf("geojson: %v", err)
	}
	if _, err := Parse([]byte(triangleWKT), FormatGeoJSON); !errors.Is(err, ErrExtraction) {
		t.Fatalf("wkt as geojson err=%v want ErrExtraction", err)
	}
}

func TestParse_Errors(t *testing.T) {
	extraction := [][]byte{
		[]byte(""),
		[]byte("not a geometry"),
		[]byte(`{"coordinates":[]}`),
		[]byte(`{"type":"Polygon","coordinates":[[]]}`),
		[]byte(`{"type":"Polygon"`),
		{0x01, 0x02},
	}
	for _, d := range extraction {
		if _, err := Parse(d, FormatAuto); !errors.Is(err, ErrExtraction) {
			t.Fatalf("Parse(%q) err=%v want ErrExtraction", d, err)
		}
	}

	notPolygonal := []string{
		"POINT(-99.1795917 19.432134)",
		"LINESTRING(0 0,1 1)",
		`{"type":"Point","coordinates":[1,2]}`,
	}
	for _, d := range notPolygonal {
		if _, err := Parse([]byte(d), FormatAuto); !errors.Is(err, ErrNotPolygonal) {
			t.Fatalf("Parse(%q) err=%v want ErrNotPolygonal", d, err)
		}
	}
}

func TestParseFormat(t *testing.T) {
	cases := map[string]Format{"": FormatAuto, "WKT": FormatWKT, "json": FormatGeoJSON, " wkb ": FormatWKB, "flatgeobuf": FormatFGB}
	for in, want := range cases {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Fatalf("ParseFormat(%q)=%q,%v want %q", in, got, err, want)
		}
	}
	if _, err := ParseFormat("kml"); err == nil {
		t.Fatalf("expected error for kml")
	}
}

func TestParse_FlatGeobuf(t *testing.T) {
	var buf bytes.Buffer
	if err := fgb.WritePolygons(&buf, "tri", []orb.Polygon{triangle}); err != nil {
		t.Fatalf("WritePolygons: %v", err)
	}
	if f := Sniff(buf.Bytes()); f != FormatFGB {
		t.Fatalf("Sniff=%q want fgb", f)
	}
	s, err := Parse(buf.Bytes(), FormatAuto)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(s) != 1 || s.Bound() != triangle.Bound() {
		t.Fatalf("unexpected shape %v", s)
	}

	if _, err := Parse([]byte("fgb\x03garbage"), FormatFGB); !errors.Is(err, ErrExtraction) {
		t.Fatalf("want ErrExtraction, got %v", err)
	}
}
