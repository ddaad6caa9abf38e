// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// storeOperations counts record store calls by collection, verb and result
	storeOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "console_store_operations_total",
		Help: "Record store operations by collection, verb and result",
	}, []string{"collection", "verb", "result"})

	// storeDuration tracks record store latency
	storeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "console_store_operation_duration_seconds",
		Help:    "Record store operation duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
	}, []string{"collection", "verb"})

	// endpointChecks counts endpoint probes by resulting status
	endpointChecks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "console_endpoint_checks_total",
		Help: "Endpoint status checks by resulting status",
	}, []string{"status"})

	// webhookSyncs counts outbound model syncs by result
	webhookSyncs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "console_webhook_syncs_total",
		Help: "Outbound model endpoint syncs by result",
	}, []string{"result"})

	httpRequests = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "console_http_request_duration_seconds",
		Help:    "HTTP request duration by method, route and status",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	// reports counts notifications raised to the user by level
	reports = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "console_reports_total",
		Help: "User-facing notifications by level",
	}, []string{"level"})
)

// ObserveHTTP records one served request. route is the matched route
// pattern, not the raw path.
func ObserveHTTP(method, route string, status int, start time.Time) {
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Observe(time.Since(start).Seconds())
}

// ObserveStore records one record store call.
func ObserveStore(collection, verb string, start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	storeOperations.WithLabelValues(collection, verb, result).Inc()
	storeDuration.WithLabelValues(collection, verb).Observe(time.Since(start).Seconds())
}

// ObserveEndpointCheck records the outcome of one endpoint probe.
func ObserveEndpointCheck(status string) {
	endpointChecks.WithLabelValues(status).Inc()
}

// ObserveWebhookSync records one outbound sync.
func ObserveWebhookSync(err error) {
	if err != nil {
		webhookSyncs.WithLabelValues("error").Inc()
		return
	}
	webhookSyncs.WithLabelValues("ok").Inc()
}

// ObserveReport records a user-facing notification.
func ObserveReport(level string) {
	reports.WithLabelValues(level).Inc()
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
