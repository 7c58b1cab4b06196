// Package cache serves coverings from a local LRU and Redis, computing and
// storing them on a miss.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	cacheiface "github.com/mohammed-shakir/geohash-polyfill/internal/cache"
	"github.com/mohammed-shakir/geohash-polyfill/internal/cache/coverstore"
	"github.com/mohammed-shakir/geohash-polyfill/internal/cache/keys"
	"github.com/mohammed-shakir/geohash-polyfill/internal/cache/redisstore"
	"github.com/mohammed-shakir/geohash-polyfill/internal/core/config"
	"github.com/mohammed-shakir/geohash-polyfill/internal/core/model"
	"github.com/mohammed-shakir/geohash-polyfill/internal/core/observability"
	"github.com/mohammed-shakir/geohash-polyfill/internal/core/router"
	"github.com/mohammed-shakir/geohash-polyfill/internal/geometry"
	"github.com/mohammed-shakir/geohash-polyfill/internal/hotness"
	"github.com/mohammed-shakir/geohash-polyfill/internal/hotness/expdecay"
	"github.com/mohammed-shakir/geohash-polyfill/internal/hotness/metricswrap"
	mylog "github.com/mohammed-shakir/geohash-polyfill/internal/logger"
	geohashmapper "github.com/mohammed-shakir/geohash-polyfill/internal/mapper/geohash"
	"github.com/mohammed-shakir/geohash-polyfill/internal/scenarios"
	"github.com/mohammed-shakir/geohash-polyfill/pkg/adaptive"
	"github.com/mohammed-shakir/geohash-polyfill/pkg/adaptive/simple"
)

type Engine struct {
	logger    *slog.Logger
	mapr      *geohashmapper.Mapper
	store     cacheiface.Interface
	hot       hotness.Interface
	decider   adaptive.Decider
	namespace string
	opTimeout time.Duration
}

func init() {
	scenarios.Register("cache", newCache)
}

func newCache(cfg config.Config, logger *slog.Logger) (router.CoverHandler, error) {
	var opts []redisstore.Option
	if cfg.CacheOpTimeout > 0 {
		opts = append(opts, redisstore.WithIOTimeout(cfg.CacheOpTimeout))
	}
	rc, err := redisstore.New(context.Background(), cfg.RedisAddr, opts...)
	if err != nil {
		return nil, fmt.Errorf("redis client: %w", err)
	}
	return New(cfg, logger, coverstore.New(rc, cfg.CacheLocalSize, cfg.CacheLocalTTL)), nil
}

// New builds the scenario on top of an existing store.
func New(cfg config.Config, logger *slog.Logger, store cacheiface.Interface) *Engine {
	adm := cfg.Admission
	return &Engine{
		logger: logger,
		mapr:   &geohashmapper.Mapper{MaxPrecision: cfg.MaxPrecision},
		store:  store,
		hot: metricswrap.New(expdecay.New(adm.HalfLife), logger, metricswrap.Options{
			HotThreshold: adm.Threshold,
			LogSample:    adm.LogSample,
		}),
		decider: simple.New(simple.Config{
			Threshold: adm.Threshold,
			MaxCells:  adm.MaxCells,
			TTLCold:   cfg.CacheTTLDefault,
			TTLWarm:   adm.TTLWarm,
			TTLHot:    adm.TTLHot,
		}),
		namespace: cfg.CacheNamespace,
		opTimeout: cfg.CacheOpTimeout,
	}
}

// returns context with timeout if set
func (e *Engine) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.opTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, e.opTimeout)
}

func (e *Engine) Cover(ctx context.Context, req model.CoverRequest) (model.Cells, error) {
	start := time.Now()
	cells, err := e.cover(ctx, req)
	observability.ObserveCover(req.Mode(), scenarios.Outcome(err), len(cells), time.Since(start).Seconds())
	return cells, err
}

// Invalidate drops the cached covering for req and forgets its hotness.
func (e *Engine) Invalidate(ctx context.Context, req model.CoverRequest) error {
	key, _, err := e.key(req)
	if err != nil {
		return err
	}
	e.hot.Reset(key)
	d, ok := e.store.(cacheiface.Deleter)
	if !ok {
		return nil
	}
	dctx, cancel := e.withTimeout(ctx)
	defer cancel()
	if err := d.Del(dctx, key); err != nil {
		return fmt.Errorf("invalidate %s: %w", key, err)
	}
	e.logger.InfoContext(ctx, "covering invalidated", "key", key)
	return nil
}

func (e *Engine) key(req model.CoverRequest) (string, geometry.Shape, error) {
	if err := e.mapr.ValidatePrecision(req.Precision); err != nil {
		return "", nil, err
	}
	shape, err := geohashmapper.RequestShape(req)
	if err != nil {
		return "", nil, err
	}
	digest, err := keys.Digest(shape)
	if err != nil {
		return "", nil, err
	}
	return keys.CoverKey(e.namespace, req.Mode(), req.Precision, digest), shape, nil
}

// cache errors are logged and treated as misses; only covering errors reach
// the caller.
func (e *Engine) cover(ctx context.Context, req model.CoverRequest) (model.Cells, error) {
	key, shape, err := e.key(req)
	if err != nil {
		return nil, err
	}
	e.hot.Inc(key)

	gctx, cancel := e.withTimeout(ctx)
	cells, ok, err := e.store.Get(gctx, key)
	cancel()
	if err != nil {
		e.logger.WarnContext(ctx, "cache get failed", "key", key, "err", err)
	}
	if ok {
		e.logger.DebugContext(mylog.WithCacheResult(ctx, "hit"), "cover served from cache", "key", key, "cells", len(cells))
		return cells, nil
	}

	cells, st, err := e.mapr.CellsForShape(shape, req.Precision, req.Inner)
	if err != nil {
		return nil, err
	}
	e.logger.DebugContext(mylog.WithCacheResult(ctx, "miss"), "cover computed",
		"key", key,
		"members", st.Members,
		"visited", st.Visited,
		"cells", len(cells))

	dec, reason := e.decider.Decide(adaptive.Query{
		Key:       key,
		Precision: req.Precision,
		Inner:     req.Inner,
		Cells:     len(cells),
	}, e.hot)
	observability.IncAdmission(dec.Type.String(), string(reason))
	if dec.Type != adaptive.DecisionFill {
		e.logger.DebugContext(ctx, "covering not stored", "key", key, "reason", reason)
		return cells, nil
	}

	sctx, cancel := e.withTimeout(ctx)
	defer cancel()
	if err := e.store.Set(sctx, key, cells, dec.TTL); err != nil {
		e.logger.WarnContext(ctx, "cache set failed", "key", key, "err", err)
	}
	return cells, nil
}
