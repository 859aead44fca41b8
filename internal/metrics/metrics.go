package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP latency per route template.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "offers_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "route", "status"},
	)

	// AccessDenied counts requests refused with 401 or 403.
	AccessDenied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "offers_access_denied_total",
			Help: "Requests rejected by the permission evaluator",
		},
		[]string{"route", "reason"},
	)

	// OffersCreated counts successfully stored offers by source (api, importer).
	OffersCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "offers_created_total",
			Help: "Offers persisted",
		},
		[]string{"source"},
	)

	// Uploads counts stored images by kind (logo, id_card).
	Uploads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "offers_uploads_total",
			Help: "Images written to blob storage",
		},
		[]string{"kind"},
	)
)

func ObserveRequest(method, route, status string, seconds float64) {
	RequestDuration.WithLabelValues(method, route, status).Observe(seconds)
}

func RecordDenied(route, reason string) {
	AccessDenied.WithLabelValues(route, reason).Inc()
}

func RecordOfferCreated(source string) {
	OffersCreated.WithLabelValues(source).Inc()
}

func RecordUpload(kind string) {
	Uploads.WithLabelValues(kind).Inc()
}
