// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	APIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_api_requests_total",
			Help: "Total number of backend API requests by route and outcome",
		},
		[]string{"route", "outcome"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "portal_api_request_duration_seconds",
			Help: "Duration of backend API requests in seconds",
		},
		[]string{"route"},
	)

	StatusTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_status_transitions_total",
			Help: "Total number of application status transitions by target and result",
		},
		[]string{"target", "result"},
	)

	ReviewSweepFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "portal_review_sweep_item_failures_total",
			Help: "Total number of per-item failures during automatic review sweeps",
		},
	)
)
