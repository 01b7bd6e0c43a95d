package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	httpRequestsTotal     *prometheus.CounterVec
	httpLatencySeconds    *prometheus.HistogramVec
	httpErrorsTotal       *prometheus.CounterVec
	submissionsTotal      *prometheus.CounterVec
	groupMutationsTotal   *prometheus.CounterVec
	realtimeClientsActive prometheus.Gauge
	submissionEventsTotal *prometheus.CounterVec
	groupEventsTotal      *prometheus.CounterVec
	lateSubmissionsTotal  prometheus.Counter
	withdrawnSubmissions  prometheus.Counter
)

// RegisterMetrics initialises the Prometheus collectors used across the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grouplab_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "grouplab_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grouplab_errors_total",
			Help: "Total number of error responses returned by API endpoints.",
		}, []string{"method", "route", "status"})

		submissionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grouplab_submissions_total",
			Help: "Submissions accepted, labelled by payload kind and validation status.",
		}, []string{"kind", "status"})

		groupMutationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grouplab_group_mutations_total",
			Help: "Group create, join and leave operations that were accepted.",
		}, []string{"action"})

		realtimeClientsActive = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "grouplab_realtime_clients_active",
			Help: "Currently connected submission stream clients.",
		})

		submissionEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grouplab_submission_events_total",
			Help: "Submission lifecycle events broadcast to stream subscribers.",
		}, []string{"event"})

		groupEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grouplab_group_events_total",
			Help: "Group membership events published to the message brokers.",
		}, []string{"event"})

		lateSubmissionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "grouplab_late_submissions_total",
			Help: "Submissions accepted after the deliverable deadline.",
		})

		withdrawnSubmissions = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "grouplab_withdrawn_submissions_total",
			Help: "Submissions withdrawn by their owning group.",
		})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			httpErrorsTotal,
			submissionsTotal,
			groupMutationsTotal,
			realtimeClientsActive,
			submissionEventsTotal,
			groupEventsTotal,
			lateSubmissionsTotal,
			withdrawnSubmissions,
		)
	})
}

// HTTPRequests exposes the counter for API requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for API requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the counter for API error responses.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// SubmissionsTotal exposes the counter for accepted submissions.
func SubmissionsTotal() *prometheus.CounterVec {
	RegisterMetrics()
	return submissionsTotal
}

// GroupMutationsTotal exposes the counter for group mutations.
func GroupMutationsTotal() *prometheus.CounterVec {
	RegisterMetrics()
	return groupMutationsTotal
}

// RealtimeClientsActive exposes the gauge for connected stream clients.
func RealtimeClientsActive() prometheus.Gauge {
	RegisterMetrics()
	return realtimeClientsActive
}

// SubmissionEventsTotal exposes the counter for broadcast lifecycle events.
func SubmissionEventsTotal() *prometheus.CounterVec {
	RegisterMetrics()
	return submissionEventsTotal
}

// GroupEventsTotal exposes the counter for published membership events.
func GroupEventsTotal() *prometheus.CounterVec {
	RegisterMetrics()
	return groupEventsTotal
}

// LateSubmissionsTotal exposes the counter for late submissions.
func LateSubmissionsTotal() prometheus.Counter {
	RegisterMetrics()
	return lateSubmissionsTotal
}

// WithdrawnSubmissionsTotal exposes the counter for withdrawals.
func WithdrawnSubmissionsTotal() prometheus.Counter {
	RegisterMetrics()
	return withdrawnSubmissions
}
