package simple

import (
	"time"

	"github.com/mohammed-shakir/geohash-polyfill/pkg/adaptive"
)

type Config struct {
	// Threshold is the hotness a key needs before it is stored; zero stores
	// every covering.
	Threshold float64
	// MaxCells bypasses coverings larger than this; zero means no limit.
	MaxCells int
	TTLCold  time.Duration
	TTLWarm  time.Duration
	TTLHot   time.Duration
}

type SimpleDecider struct {
	cfg Config
}

var _ adaptive.Decider = (*SimpleDecider)(nil)

func New(cfg Config) *SimpleDecider {
	return &SimpleDecider{cfg: cfg}
}

func (d *SimpleDecider) Decide(q adaptive.Query, view adaptive.HotnessView) (adaptive.Decision, adaptive.Reason) {
	if d.cfg.MaxCells > 0 && q.Cells > d.cfg.MaxCells {
		return adaptive.Decision{Type: adaptive.DecisionBypass}, adaptive.ReasonTooLarge
	}
	if d.cfg.Threshold <= 0 || view == nil {
		return adaptive.Decision{Type: adaptive.DecisionFill, TTL: d.cfg.TTLCold}, adaptive.ReasonDefaultFill
	}

	score := view.Score(q.Key)
	switch {
	case score < d.cfg.Threshold:
		return adaptive.Decision{Type: adaptive.DecisionBypass}, adaptive.ReasonCold
	case score >= 4*d.cfg.Threshold && d.cfg.TTLHot > 0:
		return adaptive.Decision{Type: adaptive.DecisionFill, TTL: d.cfg.TTLHot}, adaptive.ReasonHot
	case d.cfg.TTLWarm > 0:
		return adaptive.Decision{Type: adaptive.DecisionFill, TTL: d.cfg.TTLWarm}, adaptive.ReasonWarm
	default:
		return adaptive.Decision{Type: adaptive.DecisionFill, TTL: d.cfg.TTLCold}, adaptive.ReasonWarm
	}
}
