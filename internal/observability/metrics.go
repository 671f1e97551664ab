package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce        sync.Once
	adminRequestsTotal  *prometheus.CounterVec
	adminLatencySeconds *prometheus.HistogramVec
	adminErrorsTotal    *prometheus.CounterVec
	uploadRequestsTotal *prometheus.CounterVec
	uploadRejectedTotal *prometheus.CounterVec
	uploadLatency       prometheus.Histogram
	webhookEventsTotal  *prometheus.CounterVec
	reconcileTotal      *prometheus.CounterVec
	verifyAttemptsTotal *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the service.
func RegisterMetrics() {
	registerOnce.Do(func() {
		adminRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "admin_requests_total",
			Help: "Total number of admin API requests served.",
		}, []string{"method", "route", "status"})

		adminLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "admin_latency_seconds",
			Help:    "Latency distribution for admin API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		adminErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "admin_errors_total",
			Help: "Total number of error responses returned by admin endpoints.",
		}, []string{"method", "route", "status"})

		uploadRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "upload_requests_total",
			Help: "Total number of direct uploads orchestrated, by outcome.",
		}, []string{"outcome"})

		uploadRejectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "upload_rejected_total",
			Help: "Total number of upload requests rejected before reaching the provider.",
		}, []string{"reason"})

		uploadLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "upload_confirm_latency_seconds",
			Help:    "Latency distribution for upload confirmation calls.",
			Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
		})

		webhookEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "webhook_events_total",
			Help: "Total number of provider webhook events received, by type and result.",
		}, []string{"type", "result"})

		reconcileTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reconcile_transitions_total",
			Help: "Total number of video status transitions applied, by source path and target status.",
		}, []string{"source", "status"})

		verifyAttemptsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "student_verify_attempts_total",
			Help: "Total number of student code verification attempts, by outcome.",
		}, []string{"outcome"})

		prometheus.MustRegister(
			adminRequestsTotal,
			adminLatencySeconds,
			adminErrorsTotal,
			uploadRequestsTotal,
			uploadRejectedTotal,
			uploadLatency,
			webhookEventsTotal,
			reconcileTotal,
			verifyAttemptsTotal,
		)
	})
}

// AdminRequests exposes the counter for admin requests.
func AdminRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return adminRequestsTotal
}

// AdminLatency exposes the latency histogram for admin requests.
func AdminLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return adminLatencySeconds
}

// AdminErrors exposes the counter for admin error responses.
func AdminErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return adminErrorsTotal
}

// UploadRequests counts orchestrated uploads by outcome.
func UploadRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return uploadRequestsTotal
}

// UploadRejected counts uploads rejected during validation.
func UploadRejected() *prometheus.CounterVec {
	RegisterMetrics()
	return uploadRejectedTotal
}

// UploadLatency observes upload-confirm latency.
func UploadLatency() prometheus.Histogram {
	RegisterMetrics()
	return uploadLatency
}

// WebhookEvents counts received provider webhook events.
func WebhookEvents() *prometheus.CounterVec {
	RegisterMetrics()
	return webhookEventsTotal
}

// ReconcileTransitions counts applied video status transitions.
func ReconcileTransitions() *prometheus.CounterVec {
	RegisterMetrics()
	return reconcileTotal
}

// VerifyAttempts counts student verification attempts.
func VerifyAttempts() *prometheus.CounterVec {
	RegisterMetrics()
	return verifyAttemptsTotal
}
