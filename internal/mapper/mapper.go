// Package mapper converts between geometries and geohash cells.
package mapper

import (
	"github.com/mohammed-shakir/geohash-polyfill/internal/core/model"
)

type Interface interface {
	CellsForBBox(bb model.BBox, precision int, inner bool) (model.Cells, error)
	CellsForPolygon(poly model.Polygon, precision int, inner bool) (model.Cells, error)
}
