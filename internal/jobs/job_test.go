package jobs

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/mohammed-shakir/geohash-polyfill/internal/geohash"
)

func mustTS() time.Time { return time.Date(2025, 10, 26, 12, 30, 45, 0, time.UTC) }

const square = `{"type":"Polygon","coordinates":[[[11,55],[12,55],[12,56],[11,56],[11,55]]]}`

func TestJob_Validate_HappyPaths(t *testing.T) {
	for name, g := range map[string]string{
		"geojson": square,
		"feature": `{"type":"Feature","geometry":` + square + `,"properties":{}}`,
		"wkt":     `"POLYGON((11 55,12 55,12 56,11 56,11 55))"`,
	} {
		j := Job{ID: "a", Version: 1, Geometry: json.RawMessage(g), Precision: 5, TS: mustTS()}
		if err := j.Validate(); err != nil {
			t.Fatalf("%s: unexpected %v", name, err)
		}
	}
}

func TestJob_Validate_Rejects(t *testing.T) {
	base := Job{ID: "a", Version: 1, Geometry: json.RawMessage(square), Precision: 5, TS: mustTS()}

	cases := map[string]func(j *Job){
		"version":   func(j *Job) { j.Version = 0 },
		"id":        func(j *Job) { j.ID = "  " },
		"precision": func(j *Job) { j.Precision = 13 },
		"missing":   func(j *Job) { j.Geometry = nil },
		"null":      func(j *Job) { j.Geometry = json.RawMessage("null") },
		"empty-wkt": func(j *Job) { j.Geometry = json.RawMessage(`" "`) },
		"point":     func(j *Job) { j.Geometry = json.RawMessage(`{"type":"Point","coordinates":[1,2]}`) },
		"number":    func(j *Job) { j.Geometry = json.RawMessage(`42`) },
	}
	for name, mut := range cases {
		j := base
		mut(&j)
		if err := j.Validate(); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}

	j := base
	j.Precision = 0
	if err := j.Validate(); !errors.Is(err, geohash.ErrInvalidPrecision) {
		t.Fatalf("want ErrInvalidPrecision, got %v", err)
	}
}

func TestJob_Request(t *testing.T) {
	j := Job{ID: "a", Version: 2, Geometry: json.RawMessage(`"  POLYGON((0 0,1 0,1 1,0 0))  "`), Precision: 4, Inner: true}
	req, err := j.Request()
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if req.Polygon.Raw != "POLYGON((0 0,1 0,1 1,0 0))" || req.Precision != 4 || !req.Inner || req.BBox != nil {
		t.Fatalf("unexpected %+v", req)
	}
}

func TestResult_JSON(t *testing.T) {
	j := Job{ID: "a", Version: 3, Precision: 5}
	b, err := json.Marshal(j.Done(nil))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := out["error"]; ok {
		t.Fatalf("successful result must omit error: %s", b)
	}
	if g, ok := out["geohashes"].([]any); !ok || len(g) != 0 {
		t.Fatalf("empty covering must encode as []: %s", b)
	}

	f := j.Failed(errors.New("boom"))
	if f.Error != "boom" || f.Geohashes != nil {
		t.Fatalf("unexpected failed result %+v", f)
	}
}
