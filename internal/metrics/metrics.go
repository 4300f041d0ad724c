package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry is the dedicated Prometheus registry for the process
	Registry = prometheus.NewRegistry()
	// HTTPRequests counts requests by method, route, and status
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "path", "status"},
	)
	// HTTPDuration records request durations in seconds
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"method", "path", "status"},
	)
	// EventsPublished counts itinerary change events by type
	EventsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "itinerary_events_published_total", Help: "Itinerary change events published."},
		[]string{"type"},
	)

	// WebhookDeliveries counts webhook attempts by outcome (delivered, retry, failed)
	WebhookDeliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "webhook_deliveries_total", Help: "Webhook delivery attempts by outcome."},
		[]string{"outcome"},
	)

	// Operations counts client lifecycle operations by outcome (fulfilled, rejected)
	Operations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "itinerary_operations_total", Help: "Itinerary lifecycle operations by outcome."},
		[]string{"op", "outcome"},
	)
	// OperationDuration tracks lifecycle operation latency including the remote call
	OperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "itinerary_operation_duration_seconds", Help: "Itinerary lifecycle operation duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"op"},
	)
)

// RegisterDefault registers collectors on Registry once.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(HTTPRequests)
		Registry.MustRegister(HTTPDuration)
		Registry.MustRegister(EventsPublished)
		Registry.MustRegister(WebhookDeliveries)
		Registry.MustRegister(Operations)
		Registry.MustRegister(OperationDuration)
		// Go/process collectors on our registry
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

var regOnce sync.Once

// Handler serves Registry in the Prometheus text format.
func Handler() http.Handler {
	RegisterDefault()
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// ObserveOperation records one settled lifecycle operation.
func ObserveOperation(op, outcome string, d time.Duration) {
	Operations.WithLabelValues(op, outcome).Inc()
	OperationDuration.WithLabelValues(op).Observe(d.Seconds())
}

// ObserveHTTP records one served request.
func ObserveHTTP(method, path string, status int, d time.Duration) {
	code := statusLabel(status)
	HTTPRequests.WithLabelValues(method, path, code).Inc()
	HTTPDuration.WithLabelValues(method, path, code).Observe(d.Seconds())
}

func statusLabel(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
