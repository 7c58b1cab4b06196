package simple

import (
	"testing"
	"time"

	"github.com/mohammed-shakir/geohash-polyfill/pkg/adaptive"
)

type fakeView map[string]float64

func (f fakeView) Score(k string) float64 { return f[k] }

func TestSimpleDecider_Bands(t *testing.T) {
	d := New(Config{
		Threshold: 1.0,
		TTLCold:   5 * time.Second, TTLWarm: 30 * time.Second, TTLHot: time.Minute,
	})
	view := fakeView{"cold": 0.5, "warm": 1.0, "hot": 4.0}

	dec, reason := d.Decide(adaptive.Query{Key: "cold", Cells: 2}, view)
	if dec.Type != adaptive.DecisionBypass || reason != adaptive.ReasonCold {
		t.Fatalf("expected bypass cold, got %+v, %s", dec, reason)
	}

	dec, reason = d.Decide(adaptive.Query{Key: "warm", Cells: 2}, view)
	if dec.Type != adaptive.DecisionFill || dec.TTL != 30*time.Second || reason != adaptive.ReasonWarm {
		t.Fatalf("expected fill warm TTL, got %+v %s", dec, reason)
	}

	dec, reason = d.Decide(adaptive.Query{Key: "hot", Cells: 2}, view)
	if dec.TTL != time.Minute || reason != adaptive.ReasonHot {
		t.Fatalf("expected hot TTL, got %+v %s", dec, reason)
	}
}

func TestSimpleDecider_ZeroThresholdAlwaysFills(t *testing.T) {
	d := New(Config{TTLCold: time.Minute})
	dec, reason := d.Decide(adaptive.Query{Key: "never-seen"}, fakeView{})
	if dec.Type != adaptive.DecisionFill || dec.TTL != time.Minute || reason != adaptive.ReasonDefaultFill {
		t.Fatalf("got %+v %s", dec, reason)
	}
}

func TestSimpleDecider_MaxCells(t *testing.T) {
	d := New(Config{MaxCells: 10, TTLCold: time.Minute})
	dec, reason := d.Decide(adaptive.Query{Key: "k", Cells: 11}, nil)
	if dec.Type != adaptive.DecisionBypass || reason != adaptive.ReasonTooLarge {
		t.Fatalf("got %+v %s", dec, reason)
	}
	if dec.Type.String() != "bypass" {
		t.Fatalf("String=%q", dec.Type.String())
	}
}

func TestSimpleDecider_DeterministicGivenInputs(t *testing.T) {
	cfg := Config{Threshold: 1.0, TTLWarm: 30 * time.Second}
	v := fakeView{"a": 2.0}
	q := adaptive.Query{Key: "a", Cells: 3}

	dec1, r1 := New(cfg).Decide(q, v)
	dec2, r2 := New(cfg).Decide(q, v)
	if dec1 != dec2 || r1 != r2 {
		t.Fatalf("decisions should be identical; got %+v/%s vs %+v/%s", dec1, r1, dec2, r2)
	}
}
