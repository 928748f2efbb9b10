// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_sent_total",
			Help: "Notification sends by channel and outcome",
		},
		[]string{"channel", "outcome"},
	)

	ReferenceCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reference_cache_lookups_total",
			Help: "Reference data cache lookups by entity and result",
		},
		[]string{"entity", "result"},
	)
)

// Channel labels.
const (
	ChannelEmployeeEmail = "employee_email"
	ChannelClientEmail   = "client_email"
	ChannelClientSMS     = "client_sms"
)

// RecordSend counts one send attempt on channel.
func RecordSend(channel string, ok bool) {
	outcome := "sent"
	if !ok {
		outcome = "failed"
	}
	NotificationsSent.WithLabelValues(channel, outcome).Inc()
}

// RecordSkip counts a channel that had nothing to send.
func RecordSkip(channel string) {
	NotificationsSent.WithLabelValues(channel, "skipped").Inc()
}
