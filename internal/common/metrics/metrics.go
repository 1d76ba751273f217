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
			Name:    "worker_job_duration_seconds",
			Help:    "Duration of job processing in seconds",
			Buckets: prometheus.DefBuckets,
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
)

// Onboarding metrics
var (
	OverallCompletion = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "onboarding_overall_completion_percent",
			Help:    "Overall wizard completion observed per evaluation",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
	)

	IncompleteSteps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onboarding_incomplete_steps_total",
			Help: "Times a wizard step was reported below 100 percent",
		},
		[]string{"step"},
	)

	SubmissionsGated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onboarding_submissions_gated_total",
			Help: "Final submissions by gate outcome",
		},
		[]string{"outcome"}, // accepted, warned, blocked, invalid
	)

	ProgressCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onboarding_progress_cache_lookups_total",
			Help: "Progress cache lookups by result",
		},
		[]string{"result"}, // hit, miss, error
	)

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onboarding_notifications_total",
			Help: "Onboarding notifications by channel and status",
		},
		[]string{"channel", "status"},
	)
)

// ObserveCompletion records one evaluation of a form.
func ObserveCompletion(overall int, stepLabels []string) {
	OverallCompletion.Observe(float64(overall))
	for _, step := range stepLabels {
		IncompleteSteps.WithLabelValues(step).Inc()
	}
}
