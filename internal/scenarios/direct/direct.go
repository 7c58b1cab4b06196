// Package direct computes every covering on demand.
package direct

import (
	"context"
	"log/slog"
	"time"

	"github.com/mohammed-shakir/geohash-polyfill/internal/core/config"
	"github.com/mohammed-shakir/geohash-polyfill/internal/core/model"
	"github.com/mohammed-shakir/geohash-polyfill/internal/core/observability"
	"github.com/mohammed-shakir/geohash-polyfill/internal/core/router"
	geohashmapper "github.com/mohammed-shakir/geohash-polyfill/internal/mapper/geohash"
	"github.com/mohammed-shakir/geohash-polyfill/internal/scenarios"
)

type Engine struct {
	logger *slog.Logger
	mapr   *geohashmapper.Mapper
}

func init() {
	scenarios.Register("direct", newDirect)
}

func newDirect(cfg config.Config, logger *slog.Logger) (router.CoverHandler, error) {
	return New(cfg, logger), nil
}

func New(cfg config.Config, logger *slog.Logger) *Engine {
	return &Engine{
		logger: logger,
		mapr:   &geohashmapper.Mapper{MaxPrecision: cfg.MaxPrecision},
	}
}

func (e *Engine) Cover(ctx context.Context, req model.CoverRequest) (model.Cells, error) {
	start := time.Now()
	cells, err := e.cover(ctx, req)
	observability.ObserveCover(req.Mode(), scenarios.Outcome(err), len(cells), time.Since(start).Seconds())
	return cells, err
}

func (e *Engine) cover(ctx context.Context, req model.CoverRequest) (model.Cells, error) {
	shape, err := geohashmapper.RequestShape(req)
	if err != nil {
		return nil, err
	}
	cells, st, err := e.mapr.CellsForShape(shape, req.Precision, req.Inner)
	if err != nil {
		e.logger.DebugContext(ctx, "geohash mapping failed", "err", err)
		return nil, err
	}
	e.logger.DebugContext(ctx, "geohash mapping success",
		"mode", req.Mode(),
		"precision", req.Precision,
		"members", st.Members,
		"visited", st.Visited,
		"cells", len(cells))
	return cells, nil
}
