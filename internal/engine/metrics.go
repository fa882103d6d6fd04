package engine

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts batches and actions.
//
// Metrics are registered on the registry passed to NewMetrics rather than
// the global default, so a CLI run can export exactly one batch and tests
// can assert on a fresh registry.
type Metrics struct {
	// batchesTotal counts batches by final status
	batchesTotal *prometheus.CounterVec

	// actionsTotal counts actions by kind and outcome
	actionsTotal *prometheus.CounterVec

	// batchDuration tracks wall time from guard to record
	batchDuration prometheus.Histogram
}

// NewMetrics creates and registers the engine metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		batchesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "redline_batches_total",
			Help: "Total executed batches by status",
		}, []string{"status"}),
		actionsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "redline_actions_total",
			Help: "Total actions by kind and outcome",
		}, []string{"kind", "outcome"}),
		batchDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "redline_batch_duration_seconds",
			Help:    "Batch execution duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		}),
	}
}

func (m *Metrics) observe(res Result, d time.Duration) {
	if res.Status != "" {
		m.batchesTotal.WithLabelValues(string(res.Status)).Inc()
	}
	for _, o := range res.Outcomes {
		m.actionsTotal.WithLabelValues(string(o.Kind), string(o.Status)).Inc()
	}
	m.batchDuration.Observe(d.Seconds())
}
