package geohashmapper

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"

	"github.com/mohammed-shakir/geohash-polyfill/internal/core/model"
	"github.com/mohammed-shakir/geohash-polyfill/internal/coverage"
	"github.com/mohammed-shakir/geohash-polyfill/internal/geohash"
	"github.com/mohammed-shakir/geohash-polyfill/internal/geometry"
	"github.com/mohammed-shakir/geohash-polyfill/internal/mapper"
)

// Mapper covers polygons and boxes with geohash cells. MaxPrecision caps the
// precision a caller may ask for; zero means geohash.MaxPrecision.
type Mapper struct {
	MaxPrecision int
}

var _ mapper.Interface = (*Mapper)(nil)

func New() *Mapper { return &Mapper{} }

func (m *Mapper) CellsForBBox(bb model.BBox, precision int, inner bool) (model.Cells, error) {
	if err := m.ValidatePrecision(precision); err != nil {
		return nil, err
	}
	shape, err := BBoxShape(bb)
	if err != nil {
		return nil, err
	}
	return coverage.Cover(shape, precision, coverage.ModeOf(inner))
}

func (m *Mapper) CellsForPolygon(poly model.Polygon, precision int, inner bool) (model.Cells, error) {
	shape, err := ParsePolygon(poly)
	if err != nil {
		return nil, err
	}
	cells, _, err := m.CellsForShape(shape, precision, inner)
	return cells, err
}

// CellsForShape covers an already parsed shape and reports traversal stats.
func (m *Mapper) CellsForShape(shape geometry.Shape, precision int, inner bool) (model.Cells, coverage.Stats, error) {
	if err := m.ValidatePrecision(precision); err != nil {
		return nil, coverage.Stats{}, err
	}
	return coverage.CoverWithStats(shape, precision, coverage.ModeOf(inner))
}

// BBoxShape turns bb into a single rectangular polygon.
func BBoxShape(bb model.BBox) (geometry.Shape, error) {
	if !bb.Valid() {
		return nil, fmt.Errorf("%w: empty bbox %s", geometry.ErrExtraction, bb)
	}
	b := orb.Bound{Min: orb.Point{bb.X1, bb.Y1}, Max: orb.Point{bb.X2, bb.Y2}}
	return geometry.Extract(b)
}

// RequestShape returns the geometry a request asks to cover: the polygon
// when present, otherwise the bbox.
func RequestShape(req model.CoverRequest) (geometry.Shape, error) {
	if req.Polygon.Raw != "" || req.BBox == nil {
		return ParsePolygon(req.Polygon)
	}
	return BBoxShape(*req.BBox)
}

// ParsePolygon decodes the raw GeoJSON, WKT or hex WKB text of poly.
func ParsePolygon(poly model.Polygon) (geometry.Shape, error) {
	if poly.Raw == "" {
		return nil, fmt.Errorf("%w: empty polygon", geometry.ErrExtraction)
	}
	return geometry.Parse([]byte(poly.Raw), geometry.FormatAuto)
}

// ValidatePrecision checks p against 1..12 and MaxPrecision.
func (m *Mapper) ValidatePrecision(p int) error {
	if err := geohash.ValidatePrecision(p); err != nil {
		return err
	}
	if m.MaxPrecision > 0 && p > m.MaxPrecision {
		return fmt.Errorf("%w: %d exceeds configured max %d", geohash.ErrInvalidPrecision, p, m.MaxPrecision)
	}
	return nil
}

// IsClientError reports whether err was caused by the caller's input.
func IsClientError(err error) bool {
	return errors.Is(err, geometry.ErrExtraction) ||
		errors.Is(err, geometry.ErrNotPolygonal) ||
		errors.Is(err, geohash.ErrInvalidPrecision) ||
		errors.Is(err, geohash.ErrInvalidCoordinate) ||
		errors.Is(err, geohash.ErrInvalidGeohash)
}
