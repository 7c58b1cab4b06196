package scenarios_test

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/mohammed-shakir/geohash-polyfill/internal/core/config"
	"github.com/mohammed-shakir/geohash-polyfill/internal/coverage"
	"github.com/mohammed-shakir/geohash-polyfill/internal/geometry"
	"github.com/mohammed-shakir/geohash-polyfill/internal/scenarios"
	_ "github.com/mohammed-shakir/geohash-polyfill/internal/scenarios/direct"
)

func TestRegistry_FallbackToDirect(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg, err := config.FromEnv()
	if err != nil {
		t.Fatalf("config: %v", err)
	}

	h, err := scenarios.New("totally-unknown", cfg, logger)
	if err != nil || h == nil {
		t.Fatalf("expected fallback to direct, got err=%v h=%v", err, h)
	}
}

func TestOutcome(t *testing.T) {
	cases := map[string]error{
		"ok":      nil,
		"invalid": fmt.Errorf("wrap: %w", geometry.ErrExtraction),
		"no_seed": coverage.ErrNoSeedFound,
		"error":   errors.New("boom"),
	}
	for want, err := range cases {
		if got := scenarios.Outcome(err); got != want {
			t.Fatalf("Outcome(%v)=%q want %q", err, got, want)
		}
	}
}
