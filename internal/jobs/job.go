// Package jobs defines the batch covering messages exchanged over Kafka.
package jobs

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mohammed-shakir/geohash-polyfill/internal/core/model"
	"github.com/mohammed-shakir/geohash-polyfill/internal/geohash"
)

// Job asks for the covering of Geometry. Geometry is either a GeoJSON object
// or a JSON string holding WKT or hex WKB.
type Job struct {
	ID        string          `json:"id"`
	Version   uint64          `json:"version"`
	Geometry  json.RawMessage `json:"geometry"`
	Precision int             `json:"precision"`
	Inner     bool            `json:"inner,omitempty"`
	TS        time.Time       `json:"ts"`
}

// Result answers the job with the same ID and Version. Exactly one of
// Geohashes or Error is meaningful.
type Result struct {
	ID        string      `json:"id"`
	Version   uint64      `json:"version"`
	Precision int         `json:"precision"`
	Inner     bool        `json:"inner"`
	Geohashes model.Cells `json:"geohashes"`
	Error     string      `json:"error,omitempty"`
	TS        time.Time   `json:"ts"`
}

func (j Job) Validate() error {
	if j.Version < 1 {
		return errors.New("version must be >= 1")
	}
	if strings.TrimSpace(j.ID) == "" {
		return errors.New("id is required")
	}
	if err := geohash.ValidatePrecision(j.Precision); err != nil {
		return err
	}
	if _, err := j.geometryText(); err != nil {
		return err
	}
	return nil
}

// Request converts the job into the request shape the HTTP surface uses.
func (j Job) Request() (model.CoverRequest, error) {
	raw, err := j.geometryText()
	if err != nil {
		return model.CoverRequest{}, err
	}
	return model.CoverRequest{
		Polygon:   model.Polygon{Raw: raw},
		Precision: j.Precision,
		Inner:     j.Inner,
	}, nil
}

func (j Job) geometryText() (string, error) {
	g := json.RawMessage(strings.TrimSpace(string(j.Geometry)))
	if len(g) == 0 || string(g) == "null" {
		return "", errors.New("geometry is required")
	}
	switch g[0] {
	case '"':
		var s string
		if err := json.Unmarshal(g, &s); err != nil {
			return "", fmt.Errorf("geometry parse: %w", err)
		}
		if s = strings.TrimSpace(s); s == "" {
			return "", errors.New("geometry is required")
		}
		return s, nil
	case '{':
		var hdr struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(g, &hdr); err != nil {
			return "", fmt.Errorf("geometry parse: %w", err)
		}
		switch hdr.Type {
		case "Polygon", "MultiPolygon", "Feature":
		default:
			return "", fmt.Errorf("geometry.type must be Polygon, MultiPolygon or Feature, got %q", hdr.Type)
		}
		return string(g), nil
	default:
		return "", errors.New("geometry must be a GeoJSON object or a WKT string")
	}
}

// Failed builds the result reported for a job that produced no covering.
func (j Job) Failed(err error) Result {
	return Result{ID: j.ID, Version: j.Version, Precision: j.Precision, Inner: j.Inner, Error: err.Error(), TS: time.Now().UTC()}
}

// Done builds the result for a successful covering.
func (j Job) Done(cells model.Cells) Result {
	if cells == nil {
		cells = model.Cells{}
	}
	return Result{ID: j.ID, Version: j.Version, Precision: j.Precision, Inner: j.Inner, Geohashes: cells, TS: time.Now().UTC()}
}
