// internal/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ScoreSubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "score_submissions_total",
			Help: "Total number of score submissions",
		},
		[]string{"competition", "phase", "status"},
	)

	DuplicateSubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duplicate_submissions_total",
			Help: "Submissions rejected because the phase was already scored",
		},
		[]string{"competition", "phase"},
	)

	DrawsGeneratedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "draws_generated_total",
			Help: "Total number of generated draws",
		},
		[]string{"competition", "phase"},
	)

	SyncRunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sync_runs_total",
			Help: "Reconciliation passes executed by the coordinator",
		},
	)

	RealtimeMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realtime_messages_total",
			Help: "Realtime push messages received, per channel",
		},
		[]string{"channel"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method", "status"},
	)
)
