package router

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mohammed-shakir/geohash-polyfill/internal/core/config"
	"github.com/mohammed-shakir/geohash-polyfill/internal/core/observability"
	"github.com/mohammed-shakir/geohash-polyfill/internal/geohash"
)

type boundsJSON struct {
	MinLon float64 `json:"min_lon"`
	MinLat float64 `json:"min_lat"`
	MaxLon float64 `json:"max_lon"`
	MaxLat float64 `json:"max_lat"`
}

type cellJSON struct {
	Geohash   string     `json:"geohash"`
	Precision int        `json:"precision"`
	Bounds    boundsJSON `json:"bounds"`
	Center    [2]float64 `json:"center"`
}

// GeohashInfo serves GET /geohash/{code}: bounds and centre (lon, lat).
func GeohashInfo() http.HandlerFunc {
	return observed("/geohash/{code}", func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")
		b, err := geohash.DecodeBounds(code)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		c := b.Center()
		writeJSON(w, http.StatusOK, cellJSON{
			Geohash:   code,
			Precision: len(code),
			Bounds:    boundsJSON{MinLon: b.Min[0], MinLat: b.Min[1], MaxLon: b.Max[0], MaxLat: b.Max[1]},
			Center:    [2]float64{c[0], c[1]},
		})
	})
}

// GeohashNeighbors serves GET /geohash/{code}/neighbors keyed by direction
// (n, ne, e, se, s, sw, w, nw). Directions beyond a pole are omitted.
func GeohashNeighbors() http.HandlerFunc {
	return observed("/geohash/{code}/neighbors", func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")
		adj, err := geohash.Neighbors(code)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		out := make(map[string]string, len(adj))
		for _, d := range geohash.Directions {
			if n := adj.Get(d); n != "" {
				out[d.String()] = n
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{"geohash": code, "neighbors": out})
	})
}

// GeohashChildren serves GET /geohash/{code}/children?precision=n; n defaults
// to one level below code and may not exceed the configured max precision.
func GeohashChildren(cfg config.Config) http.HandlerFunc {
	return observed("/geohash/{code}/children", func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")
		p := len(code) + 1
		if s := strings.TrimSpace(r.URL.Query().Get("precision")); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil {
				writeError(w, http.StatusBadRequest, err)
				return
			}
			p = n
		}
		if p > cfg.MaxPrecision || p-len(code) > 2 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "requested precision too deep"})
			return
		}
		kids, err := geohash.ToChildren(code, p)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"geohash": code, "precision": p, "children": kids})
	})
}

func observed(route string, fn http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		fn(sw, r)
		observability.ObserveHTTP(r.Method, route, sw.code, time.Since(start).Seconds())
	}
}
