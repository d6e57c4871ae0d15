package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "contractwatch_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "contractwatch_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	scanDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "contractwatch_renewal_scan_duration_seconds",
		Help:    "Duration of renewal scan passes",
		Buckets: prometheus.DefBuckets,
	})

	scanErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "contractwatch_renewal_scan_errors_total",
		Help: "Count of per-contract errors collected during renewal scans",
	})

	notificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "contractwatch_notifications_total",
		Help: "Count of notification delivery attempts by type and status",
	}, []string{"type", "status"})

	upcomingRenewals = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "contractwatch_upcoming_renewals",
		Help: "Number of contracts renewing within the next 30 days",
	})

	jobRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "contractwatch_job_runs_total",
		Help: "Count of scheduled job executions by job id and result",
	}, []string{"job", "result"})
)

// ObserveHTTPRequest records an HTTP request metric.
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// ObserveScan records the duration of a renewal scan and its error count.
func ObserveScan(duration time.Duration, errorCount int) {
	scanDuration.Observe(duration.Seconds())
	scanErrors.Add(float64(errorCount))
}

// ObserveNotification counts one delivery attempt outcome.
func ObserveNotification(notifType, status string) {
	notificationsTotal.WithLabelValues(notifType, status).Inc()
}

// SetUpcomingRenewals sets the upcoming-renewals gauge.
func SetUpcomingRenewals(count int) {
	if count < 0 {
		count = 0
	}
	upcomingRenewals.Set(float64(count))
}

// ObserveJobRun counts one scheduled job execution.
func ObserveJobRun(jobID, result string) {
	jobRuns.WithLabelValues(jobID, result).Inc()
}
