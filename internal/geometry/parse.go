package geometry

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/paulmach/orb/geojson"

	"github.com/mohammed-shakir/geohash-polyfill/internal/fgb"
)

type Format string

const (
	FormatAuto    Format = "auto"
	FormatWKT     Format = "wkt"
	FormatWKB     Format = "wkb"
	FormatGeoJSON Format = "geojson"
	FormatFGB     Format = "fgb"
)

// ParseFormat maps a user supplied name to a Format; empty means auto.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatAuto, nil
	case FormatAuto, FormatWKT, FormatWKB, FormatGeoJSON, FormatFGB:
		return f, nil
	case "json":
		return FormatGeoJSON, nil
	case "flatgeobuf":
		return FormatFGB, nil
	default:
		return "", fmt.Errorf("unknown geometry format %q (want auto|wkt|wkb|geojson|fgb)", s)
	}
}

// Parse decodes data in the given format and normalizes it.
func Parse(data []byte, f Format) (Shape, error) {
	g, err := Decode(data, f)
	if err != nil {
		return nil, err
	}
	return Extract(g)
}

// Decode returns the raw orb geometry without checking its kind.
func Decode(data []byte, f Format) (orb.Geometry, error) {
	if f == FormatAuto || f == "" {
		f = Sniff(data)
	}
	switch f {
	case FormatGeoJSON:
		return decodeGeoJSON(data)
	case FormatWKT:
		g, err := wkt.Unmarshal(strings.TrimSpace(string(data)))
		if err != nil {
			return nil, fmt.Errorf("%w: wkt: %w", ErrExtraction, err)
		}
		return g, nil
	case FormatWKB:
		raw := data
		if isHexWKB(data) {
			raw, _ = hex.DecodeString(string(bytes.TrimSpace(data)))
		}
		g, err := wkb.Unmarshal(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: wkb: %w", ErrExtraction, err)
		}
		return g, nil
	case FormatFGB:
		mp, err := fgb.ReadMultiPolygon(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrExtraction, err)
		}
		return mp, nil
	default:
		return nil, fmt.Errorf("%w: unknown format %q", ErrExtraction, f)
	}
}

// Sniff guesses the encoding of data: FlatGeobuf magic bytes, a JSON object
// is GeoJSON, a leading byte-order marker (raw or hex) is WKB, anything else
// is treated as WKT.
func Sniff(data []byte) Format {
	if fgb.IsFGB(data) {
		return FormatFGB
	}
	if len(data) > 0 && (data[0] == 0x00 || data[0] == 0x01) {
		return FormatWKB
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		return FormatGeoJSON
	}
	if isHexWKB(trimmed) {
		return FormatWKB
	}
	return FormatWKT
}

func isHexWKB(data []byte) bool {
	data = bytes.TrimSpace(data)
	if len(data) < 10 || len(data)%2 != 0 {
		return false
	}
	if !bytes.HasPrefix(data, []byte("00")) && !bytes.HasPrefix(data, []byte("01")) {
		return false
	}
	for _, c := range data {
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F') {
			return false
		}
	}
	return true
}

func decodeGeoJSON(data []byte) (orb.Geometry, error) {
	var hdr struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &hdr); err != nil {
		return nil, fmt.Errorf("%w: parse geojson: %w", ErrExtraction, err)
	}
	switch hdr.Type {
	case "Feature":
		f, err := geojson.UnmarshalFeature(data)
		if err != nil {
			return nil, fmt.Errorf("%w: parse geojson feature: %w", ErrExtraction, err)
		}
		if f.Geometry == nil {
			return nil, fmt.Errorf("%w: feature without geometry", ErrExtraction)
		}
		return f.Geometry, nil
	case "":
		return nil, fmt.Errorf("%w: geojson object without type", ErrExtraction)
	default:
		g, err := geojson.UnmarshalGeometry(data)
		if err != nil {
			return nil, fmt.Errorf("%w: parse geojson geometry: %w", ErrExtraction, err)
		}
		if g.Coordinates == nil && len(g.Geometries) == 0 {
			return nil, fmt.Errorf("%w: geojson %s without coordinates", ErrExtraction, hdr.Type)
		}
		return g.Geometry(), nil
	}
}
