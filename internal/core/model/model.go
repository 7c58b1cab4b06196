// Package model defines core domain types shared across the service.
package model

import "fmt"

// BBox is an axis-aligned lon/lat rectangle.
type BBox struct {
	X1, Y1 float64
	X2, Y2 float64
}

// String renders the box as minx,miny,maxx,maxy.
func (b BBox) String() string {
	return fmt.Sprintf("%.6f,%.6f,%.6f,%.6f", b.X1, b.Y1, b.X2, b.Y2)
}

func (b BBox) Valid() bool {
	return b.X1 < b.X2 && b.Y1 < b.Y2
}

// Polygon carries a caller supplied geometry: a GeoJSON object, WKT text or
// hex-encoded WKB.
type Polygon struct {
	Raw string
}

// Cells is a sorted, duplicate-free list of geohash codes.
type Cells []string

// CoverRequest asks for the covering of Polygon (or of BBox when set) at
// Precision.
type CoverRequest struct {
	Polygon   Polygon
	BBox      *BBox
	Precision int
	Inner     bool
}

func (r CoverRequest) Mode() string {
	if r.Inner {
		return "inner"
	}
	return "outer"
}

// CoverResult is the JSON body returned for a covering.
type CoverResult struct {
	Precision int   `json:"precision"`
	Inner     bool  `json:"inner"`
	Count     int   `json:"count"`
	Geohashes Cells `json:"geohashes"`
}

func NewCoverResult(req CoverRequest, cells Cells) CoverResult {
	if cells == nil {
		cells = Cells{}
	}
	return CoverResult{Precision: req.Precision, Inner: req.Inner, Count: len(cells), Geohashes: cells}
}
