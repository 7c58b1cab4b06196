// Package metricswrap reports hotness tracker size and hot keys.
package metricswrap

import (
	"fmt"
	"log/slog"

	xx "github.com/cespare/xxhash/v2"

	"github.com/mohammed-shakir/geohash-polyfill/internal/core/observability"
	"github.com/mohammed-shakir/geohash-polyfill/internal/hotness"
)

type Sizer interface{ Size() int }

type Options struct {
	// HotThreshold enables a sampled log line when a key's score reaches it.
	HotThreshold float64
	// LogSample is the fraction of hot keys that get logged, by key hash.
	LogSample float64
}

type WithMetrics struct {
	inner  hotness.Interface
	logger *slog.Logger
	opts   Options
}

var _ hotness.Interface = (*WithMetrics)(nil)

func New(inner hotness.Interface, logger *slog.Logger, opts Options) *WithMetrics {
	if logger == nil {
		logger = slog.Default()
	}
	return &WithMetrics{inner: inner, logger: logger, opts: opts}
}

func (w *WithMetrics) Inc(key string) {
	w.inner.Inc(key)
	if w.opts.HotThreshold > 0 {
		score := w.inner.Score(key)
		if score >= w.opts.HotThreshold && shouldLog(w.opts.LogSample, key) {
			w.logger.Info("hot key above threshold",
				"event", "hotness_threshold",
				"score", score,
				"key_hash", fmt.Sprintf("%08x", xx.Sum64String(key)))
		}
	}
	w.report()
}

func (w *WithMetrics) Score(key string) float64 {
	return w.inner.Score(key)
}

func (w *WithMetrics) Reset(keys ...string) {
	w.inner.Reset(keys...)
	w.report()
}

func (w *WithMetrics) report() {
	if s, ok := w.inner.(Sizer); ok {
		observability.SetHotKeys(s.Size())
	}
}

func shouldLog(sample float64, key string) bool {
	if sample <= 0 {
		return false
	}
	if sample >= 1 {
		return true
	}
	const denom = 10000 // 0.01 => 100/10000
	threshold := uint64(sample*denom + 0.5)
	if threshold == 0 {
		return false
	}
	return xx.Sum64String(key)%denom < threshold
}
