package kafka

import (
	"time"

	"github.com/mohammed-shakir/geohash-polyfill/internal/core/config"
)

type RunnerConfig struct {
	Enabled bool

	Brokers      []string
	JobsTopic    string
	ResultsTopic string
	GroupID      string
	DedupeSize   int

	SessionTimeout   time.Duration
	Heartbeat        time.Duration
	RebalanceTimeout time.Duration
	InitialOldest    bool
	JobTimeout       time.Duration
}

// FromConfig fills the consumer group timings the service config does not
// expose.
func FromConfig(c config.JobsCfg) RunnerConfig {
	return RunnerConfig{
		Enabled:          c.Enabled,
		Brokers:          c.Brokers,
		JobsTopic:        c.JobsTopic,
		ResultsTopic:     c.ResultsTopic,
		GroupID:          c.GroupID,
		DedupeSize:       c.DedupeSize,
		SessionTimeout:   30 * time.Second,
		Heartbeat:        3 * time.Second,
		RebalanceTimeout: 30 * time.Second,
		InitialOldest:    true,
		JobTimeout:       30 * time.Second,
	}
}
