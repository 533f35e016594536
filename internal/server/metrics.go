package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	datasetsAnalyzed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "datasage_datasets_analyzed_total",
		Help: "Datasets analyzed, by inferred problem type.",
	}, []string{"problem_type"})

	narrationFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "datasage_narration_fallbacks_total",
		Help: "Narrations that fell back to canned text, by task.",
	}, []string{"task"})

	analyzeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "datasage_analyze_duration_seconds",
		Help:    "Time spent handling analyze requests.",
		Buckets: prometheus.DefBuckets,
	})
)
