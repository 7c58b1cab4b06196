// Package adaptive decides whether a freshly computed covering is worth
// storing, and for how long.
package adaptive

import "time"

type HotnessView interface {
	Score(key string) float64
}

type Query struct {
	Key       string
	Precision int
	Inner     bool
	Cells     int
}

type DecisionType int

const (
	DecisionBypass DecisionType = iota
	DecisionFill
)

func (d DecisionType) String() string {
	if d == DecisionFill {
		return "fill"
	}
	return "bypass"
}

type Reason string

const (
	ReasonCold        Reason = "cold"
	ReasonDefaultFill Reason = "default_fill"
	ReasonWarm        Reason = "warm"
	ReasonHot         Reason = "hot"
	ReasonTooLarge    Reason = "too_large"
)

type Decision struct {
	Type DecisionType
	TTL  time.Duration
}

type Decider interface {
	Decide(q Query, view HotnessView) (Decision, Reason)
}
