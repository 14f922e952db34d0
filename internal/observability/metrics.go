package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SessionsOpen = promauto.NewGauge(prometheus.GaugeOpts{Namespace: "gatiyaan", Name: "sessions_open", Help: "Number of open client sessions"})

	BookingsCreated   = promauto.NewCounter(prometheus.CounterOpts{Namespace: "gatiyaan", Name: "bookings_created_total", Help: "Total bookings created"})
	BookingsCompleted = promauto.NewCounter(prometheus.CounterOpts{Namespace: "gatiyaan", Name: "bookings_completed_total", Help: "Total bookings completed"})
	BookingsCancelled = promauto.NewCounter(prometheus.CounterOpts{Namespace: "gatiyaan", Name: "bookings_cancelled_total", Help: "Total bookings cancelled"})
	JobsAccepted      = promauto.NewCounter(prometheus.CounterOpts{Namespace: "gatiyaan", Name: "jobs_accepted_total", Help: "Total jobs accepted by providers"})
	RatingsRecorded   = promauto.NewCounter(prometheus.CounterOpts{Namespace: "gatiyaan", Name: "ratings_recorded_total", Help: "Total booking ratings recorded"})

	OfferSourceFallbacks = promauto.NewCounter(prometheus.CounterOpts{Namespace: "gatiyaan", Name: "offer_source_fallbacks_total", Help: "Times the catalog seeded from the built-in fallback fleet"})

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "gatiyaan", Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "gatiyaan",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
