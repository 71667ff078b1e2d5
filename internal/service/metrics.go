package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Transform results.
const (
	resultApplied  = "applied"
	resultNoop     = "noop"
	resultRejected = "rejected"
	resultError    = "error"
)

var (
	// transformTotal counts tree and collection edits by op and result
	transformTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coursebook_transform_total",
		Help: "Document edits by operation and result",
	}, []string{"op", "result"})

	// layoutDuration tracks flatten + layout latency
	layoutDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "coursebook_layout_duration_seconds",
		Help:    "Mind map layout duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.00001, 2, 14), // 10µs to ~80ms
	})

	// layoutNodes tracks the number of visible nodes per layout
	layoutNodes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "coursebook_layout_nodes",
		Help:    "Visible nodes per mind map layout",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250},
	})

	// importTotal counts document imports by result
	importTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coursebook_import_total",
		Help: "Document imports by result",
	}, []string{"result"})

	// exportTotal counts exported documents by result
	exportTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coursebook_export_total",
		Help: "Document exports by result",
	}, []string{"result"})
)
