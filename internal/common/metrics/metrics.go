// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SearchChatRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "search_chat_requests_total",
			Help: "Total number of search-chat requests by session state and envelope status",
		},
		[]string{"state", "status"},
	)

	SearchChatDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "search_chat_duration_seconds",
			Help:    "Duration of search-chat requests in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 80},
		},
		[]string{"state"},
	)

	SourceExtractions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "source_extractions_total",
			Help: "Total number of source pages processed by outcome",
		},
		[]string{"outcome"},
	)

	CompletionStreamEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "completion_stream_events_total",
			Help: "Total number of upstream completion events by outcome",
		},
		[]string{"outcome"},
	)

	SessionStoreOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "session_store_operations_total",
			Help: "Total number of session store operations",
		},
		[]string{"backend", "op", "outcome"},
	)

	ActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "search_chat_active_requests",
			Help: "Number of search-chat requests in flight",
		},
	)
)
