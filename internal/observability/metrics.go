package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce       sync.Once
	pollCyclesTotal    *prometheus.CounterVec
	pollSourcesTotal   *prometheus.CounterVec
	pollRecordsTotal   *prometheus.CounterVec
	notificationsTotal *prometheus.CounterVec
	httpRequestsTotal  *prometheus.CounterVec
	httpLatencySeconds *prometheus.HistogramVec
	httpErrorsTotal    *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the tracker.
func RegisterMetrics() {
	registerOnce.Do(func() {
		pollCyclesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fittober_poll_cycles_total",
			Help: "Total number of poll cycles run, by result.",
		}, []string{"result"})

		pollSourcesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fittober_poll_sources_total",
			Help: "Total number of per-source passes, by outcome.",
		}, []string{"outcome"})

		pollRecordsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fittober_poll_records_total",
			Help: "Total number of source records handled, by outcome.",
		}, []string{"outcome"})

		notificationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fittober_notifications_total",
			Help: "Total number of notification channel dispatches, by channel and outcome.",
		}, []string{"channel", "outcome"})

		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fittober_http_requests_total",
			Help: "Total number of HTTP requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fittober_http_latency_seconds",
			Help:    "Latency distribution for HTTP requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fittober_http_errors_total",
			Help: "Total number of error responses returned.",
		}, []string{"method", "route", "status"})

		prometheus.MustRegister(
			pollCyclesTotal,
			pollSourcesTotal,
			pollRecordsTotal,
			notificationsTotal,
			httpRequestsTotal,
			httpLatencySeconds,
			httpErrorsTotal,
		)
	})
}

// PollCycles exposes the counter for completed poll cycles.
func PollCycles() *prometheus.CounterVec {
	RegisterMetrics()
	return pollCyclesTotal
}

// PollSources exposes the counter for per-source pass outcomes.
func PollSources() *prometheus.CounterVec {
	RegisterMetrics()
	return pollSourcesTotal
}

// PollRecords exposes the counter for per-record outcomes.
func PollRecords() *prometheus.CounterVec {
	RegisterMetrics()
	return pollRecordsTotal
}

// Notifications exposes the counter for notification dispatch outcomes.
func Notifications() *prometheus.CounterVec {
	RegisterMetrics()
	return notificationsTotal
}

// HTTPRequests exposes the counter for served requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for served requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the counter for error responses.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}
