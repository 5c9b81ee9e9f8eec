package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OperatorRequests counts adapter calls by operator and outcome
	// (ok|error).
	OperatorRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ferry",
		Name:      "operator_requests_total",
		Help:      "Ferry operator adapter calls by operator and outcome.",
	}, []string{"operator", "outcome"})

	// SearchDuration observes the wall time of one aggregated search.
	SearchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "ferry",
		Name:      "search_duration_seconds",
		Help:      "Duration of aggregated ferry searches.",
		Buckets:   prometheus.DefBuckets,
	})

	// ActiveSessions gauges live booking sessions in the store.
	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "ferry",
		Name:      "booking_sessions_active",
		Help:      "Booking sessions currently held in the session store.",
	})
)
