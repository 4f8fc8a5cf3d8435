package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Layout sources recorded in the requests counter.
const (
	sourceInline   = "inline"
	sourceAPI      = "api"
	sourceSnapshot = "snapshot"
)

// metrics holds the service's Prometheus collectors. Each Server owns its
// own registry so tests can run servers side by side.
type metrics struct {
	requests    *prometheus.CounterVec
	diagnostics *prometheus.CounterVec
	duration    prometheus.Histogram
	groups      prometheus.Histogram

	snapshotErrors *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	f := promauto.With(reg)
	return &metrics{
		// Labels: source (inline, api, snapshot)
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flowlane",
			Subsystem: "layout",
			Name:      "requests_total",
			Help:      "Layouts served, by where the groups came from",
		}, []string{"source"}),
		// Labels: kind (missing_ref, cycle, duplicate)
		diagnostics: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flowlane",
			Subsystem: "layout",
			Name:      "diagnostics_total",
			Help:      "Layout diagnostics reported, by kind",
		}, []string{"kind"}),
		duration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "flowlane",
			Subsystem: "layout",
			Name:      "duration_seconds",
			Help:      "Time spent computing a layout",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}),
		groups: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "flowlane",
			Subsystem: "layout",
			Name:      "groups",
			Help:      "Number of groups per laid-out workflow",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
		// Labels: op (save, prune)
		snapshotErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flowlane",
			Subsystem: "snapshot",
			Name:      "errors_total",
			Help:      "Snapshot store operations that failed, by operation",
		}, []string{"op"}),
	}
}
