// Package router parses HTTP requests into covering requests and renders the
// results.
package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mohammed-shakir/geohash-polyfill/internal/core/config"
	"github.com/mohammed-shakir/geohash-polyfill/internal/core/model"
	"github.com/mohammed-shakir/geohash-polyfill/internal/core/observability"
	"github.com/mohammed-shakir/geohash-polyfill/internal/coverage"
	geohashmapper "github.com/mohammed-shakir/geohash-polyfill/internal/mapper/geohash"
)

// CoverHandler produces coverings for validated requests. Scenarios implement
// it; the HTTP routes and the job runner both call it.
type CoverHandler interface {
	Cover(ctx context.Context, req model.CoverRequest) (model.Cells, error)
}

// Invalidator is implemented by scenarios that cache coverings.
type Invalidator interface {
	Invalidate(ctx context.Context, req model.CoverRequest) error
}

const maxBodyBytes = 8 << 20

// HandleCover serves GET and POST /cover.
func HandleCover(logger *slog.Logger, cfg config.Config, h CoverHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		defer func() {
			observability.ObserveHTTP(r.Method, "/cover", sw.code, time.Since(start).Seconds())
		}()

		var (
			req  model.CoverRequest
			warn string
			err  error
		)
		if r.Method == http.MethodPost {
			req, err = ParseCoverBody(http.MaxBytesReader(sw, r.Body, maxBodyBytes), cfg)
		} else {
			req, warn, err = ParseCoverQuery(r, cfg)
		}
		if warn != "" {
			logger.WarnContext(r.Context(), warn)
		}
		if err != nil {
			writeError(sw, http.StatusBadRequest, err)
			return
		}

		cells, err := h.Cover(r.Context(), req)
		if err != nil {
			status := StatusFor(err)
			if status >= http.StatusInternalServerError {
				logger.ErrorContext(r.Context(), "cover failed", "err", err, "mode", req.Mode(), "precision", req.Precision)
			}
			writeError(sw, status, err)
			return
		}
		writeJSON(sw, http.StatusOK, model.NewCoverResult(req, cells))
	}
}

// HandleInvalidate serves DELETE /cover with the GET query parameters.
func HandleInvalidate(logger *slog.Logger, cfg config.Config, inv Invalidator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		defer func() {
			observability.ObserveHTTP(r.Method, "/cover", sw.code, time.Since(start).Seconds())
		}()

		req, _, err := ParseCoverQuery(r, cfg)
		if err != nil {
			writeError(sw, http.StatusBadRequest, err)
			return
		}
		if err := inv.Invalidate(r.Context(), req); err != nil {
			status := StatusFor(err)
			if status >= http.StatusInternalServerError {
				logger.ErrorContext(r.Context(), "invalidate failed", "err", err)
			}
			writeError(sw, status, err)
			return
		}
		sw.WriteHeader(http.StatusNoContent)
	}
}

// StatusFor maps covering errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case geohashmapper.IsClientError(err):
		return http.StatusBadRequest
	case errors.Is(err, coverage.ErrNoSeedFound):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// ParseCoverQuery reads polygon|bbox, precision and inner from the query
// string. When both polygon and bbox are given the polygon wins.
func ParseCoverQuery(r *http.Request, cfg config.Config) (model.CoverRequest, string, error) {
	var warn string
	q := r.URL.Query()

	rawBBox := strings.TrimSpace(q.Get("bbox"))
	rawPoly := strings.TrimSpace(q.Get("polygon"))
	if rawBBox != "" && rawPoly != "" {
		warn = "both bbox and polygon supplied; preferring polygon"
		rawBBox = ""
	}
	if rawBBox == "" && rawPoly == "" {
		return model.CoverRequest{}, warn, errors.New("missing required parameter: polygon or bbox")
	}

	req := model.CoverRequest{Polygon: model.Polygon{Raw: rawPoly}}
	if rawBBox != "" {
		bb, err := parseBBOX(rawBBox)
		if err != nil {
			return model.CoverRequest{}, warn, fmt.Errorf("invalid bbox: %w", err)
		}
		req.BBox = &bb
	}

	p, err := parsePrecision(q.Get("precision"), cfg)
	if err != nil {
		return model.CoverRequest{}, warn, err
	}
	req.Precision = p

	if s := strings.TrimSpace(q.Get("inner")); s != "" {
		inner, err := strconv.ParseBool(s)
		if err != nil {
			return model.CoverRequest{}, warn, fmt.Errorf("invalid inner %q: %w", s, err)
		}
		req.Inner = inner
	}
	return req, warn, nil
}

type coverBody struct {
	Geometry  json.RawMessage `json:"geometry"`
	BBox      []float64       `json:"bbox"`
	Precision *int            `json:"precision"`
	Inner     bool            `json:"inner"`
}

// ParseCoverBody reads {"geometry": <GeoJSON object | WKT string>,
// "bbox": [x1,y1,x2,y2], "precision": n, "inner": b}.
func ParseCoverBody(body io.Reader, cfg config.Config) (model.CoverRequest, error) {
	var in coverBody
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		return model.CoverRequest{}, fmt.Errorf("decode body: %w", err)
	}

	var req model.CoverRequest
	switch {
	case len(in.Geometry) > 0 && string(in.Geometry) != "null":
		raw, err := geometryText(in.Geometry)
		if err != nil {
			return model.CoverRequest{}, err
		}
		req.Polygon = model.Polygon{Raw: raw}
	case len(in.BBox) > 0:
		if len(in.BBox) != 4 {
			return model.CoverRequest{}, errors.New("invalid bbox: expected [x1,y1,x2,y2]")
		}
		bb, err := checkBBox(in.BBox[0], in.BBox[1], in.BBox[2], in.BBox[3])
		if err != nil {
			return model.CoverRequest{}, fmt.Errorf("invalid bbox: %w", err)
		}
		req.BBox = &bb
	default:
		return model.CoverRequest{}, errors.New("missing required field: geometry or bbox")
	}

	req.Precision = cfg.Precision
	if in.Precision != nil {
		if *in.Precision < 1 || *in.Precision > cfg.MaxPrecision {
			return model.CoverRequest{}, fmt.Errorf("precision %d outside 1..%d", *in.Precision, cfg.MaxPrecision)
		}
		req.Precision = *in.Precision
	}
	req.Inner = in.Inner
	return req, nil
}

// geometryText returns a JSON string's contents (WKT or hex WKB) or the raw
// object text (GeoJSON).
func geometryText(raw json.RawMessage) (string, error) {
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", fmt.Errorf("geometry: %w", err)
		}
		return strings.TrimSpace(s), nil
	}
	if raw[0] != '{' {
		return "", errors.New("geometry must be a GeoJSON object or a WKT string")
	}
	return string(raw), nil
}

func parsePrecision(s string, cfg config.Config) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return cfg.Precision, nil
	}
	p, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid precision %q: %w", s, err)
	}
	if p < 1 || p > cfg.MaxPrecision {
		return 0, fmt.Errorf("precision %d outside 1..%d", p, cfg.MaxPrecision)
	}
	return p, nil
}

// parseBBOX accepts "x1,y1,x2,y2" with an optional trailing EPSG:4326.
func parseBBOX(bboxParam string) (model.BBox, error) {
	parts := strings.Split(bboxParam, ",")
	if len(parts) == 5 {
		if srid := strings.ToUpper(strings.TrimSpace(parts[4])); srid != "EPSG:4326" {
			return model.BBox{}, fmt.Errorf("only EPSG:4326 is supported (got %q)", srid)
		}
		parts = parts[:4]
	}
	if len(parts) != 4 {
		return model.BBox{}, errors.New("expected 4 comma-separated values: x1,y1,x2,y2")
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return model.BBox{}, fmt.Errorf("value %d: %w", i+1, err)
		}
		v[i] = f
	}
	return checkBBox(v[0], v[1], v[2], v[3])
}

func checkBBox(xMin, yMin, xMax, yMax float64) (model.BBox, error) {
	if !(xMin >= -180 && xMin <= 180 && xMax >= -180 && xMax <= 180) {
		return model.BBox{}, errors.New("longitude must be in [-180,180]")
	}
	if !(yMin >= -90 && yMin <= 90 && yMax >= -90 && yMax <= 90) {
		return model.BBox{}, errors.New("latitude must be in [-90,90]")
	}
	if xMax <= xMin || yMax <= yMin {
		return model.BBox{}, errors.New("coordinates must satisfy x2>x1 and y2>y1")
	}
	return model.BBox{X1: xMin, Y1: yMin, X2: xMax, Y2: yMax}, nil
}
