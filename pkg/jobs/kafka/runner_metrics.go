package kafka

import (
	"github.com/prometheus/client_golang/prometheus"
)

type metricSet struct {
	msgs     *prometheus.CounterVec
	proc     *prometheus.HistogramVec
	cells    prometheus.Histogram
	lagGauge prometheus.Gauge
}

func newMetricSet(r prometheus.Registerer) *metricSet {
	m := &metricSet{
		msgs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "job_msgs_total",
				Help: "Count of cover job messages by result.",
			},
			[]string{"result"},
		),
		proc: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "job_processing_seconds",
				Help:    "Time from decode to published result for one job.",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 15),
			},
			[]string{"mode"},
		),
		cells: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "job_result_cells",
				Help:    "Number of geohashes in published job results.",
				Buckets: prometheus.ExponentialBuckets(1, 4, 10),
			},
		),
		lagGauge: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "job_lag_seconds",
				Help: "Approximate lag: now - message.timestamp.",
			},
		),
	}
	if r != nil {
		r.MustRegister(m.msgs, m.proc, m.cells, m.lagGauge)
	}
	return m
}
