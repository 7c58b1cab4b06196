// Package scenarios holds the named covering strategies the service can run
// with. Implementations register themselves from init.
package scenarios

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/mohammed-shakir/geohash-polyfill/internal/core/config"
	"github.com/mohammed-shakir/geohash-polyfill/internal/core/router"
	"github.com/mohammed-shakir/geohash-polyfill/internal/coverage"
	geohashmapper "github.com/mohammed-shakir/geohash-polyfill/internal/mapper/geohash"
)

const Default = "direct"

type Factory func(cfg config.Config, logger *slog.Logger) (router.CoverHandler, error)

var reg = map[string]Factory{}

func Register(name string, f Factory) {
	reg[name] = f
}

// New builds the named scenario, falling back to Default for unknown names.
func New(name string, cfg config.Config, logger *slog.Logger) (router.CoverHandler, error) {
	if f, ok := reg[name]; ok {
		return f(cfg, logger)
	}
	if f, ok := reg[Default]; ok {
		logger.Warn("unknown scenario; falling back", "scenario", name, "fallback", Default)
		return f(cfg, logger)
	}
	return nil, fmt.Errorf("no factory for scenario %q and no %s registered", name, Default)
}

// Outcome labels a covering error for metrics.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case geohashmapper.IsClientError(err):
		return "invalid"
	case errors.Is(err, coverage.ErrNoSeedFound):
		return "no_seed"
	default:
		return "error"
	}
}
