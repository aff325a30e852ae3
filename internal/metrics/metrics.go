// Package metrics holds the Prometheus collectors shared across the API.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "projecthub_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
	authorizationDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "projecthub_authorization_decisions_total",
			Help: "Ownership decisions by resource kind, action and outcome",
		},
		[]string{"resource", "action", "outcome"},
	)
)

// ObserveRequest records one served request.
func ObserveRequest(method, route, status string, seconds float64) {
	httpRequestDuration.WithLabelValues(method, route, status).Observe(seconds)
}

// RecordAuthorization records an ownership decision.
func RecordAuthorization(resource, action string, allowed bool) {
	outcome := "denied"
	if allowed {
		outcome = "allowed"
	}
	authorizationDecisions.WithLabelValues(resource, action, outcome).Inc()
}
