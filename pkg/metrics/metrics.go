package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	renderScheduler = "render_scheduler"

	// Job metrics
	jobsTotal             = "jobs_total"
	JobsProcessing        = "jobs_processing"
	JobsQueued            = "jobs_queued"
	jobRetries            = "job_retries_total"
	jobProcessingDuration = "job_processing_duration_seconds"

	// Labels
	jobStatusLabel = "status"
	jobTypeLabel   = "job_type"
)

var jobsTotalLabels = []string{
	jobTypeLabel,
	jobStatusLabel,
}

var jobRetriesLabels = []string{
	jobTypeLabel,
}

/**
* Metrics definition
**/
var jobsTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: renderScheduler,
		Name:      jobsTotal,
		Help:      "number of jobs that reached a terminal status, by job type and status",
	},
	jobsTotalLabels,
)

var jobsProcessingMetric = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Subsystem: renderScheduler,
		Name:      JobsProcessing,
		Help:      "number of jobs currently being processed",
	},
)

var jobsQueuedMetric = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Subsystem: renderScheduler,
		Name:      JobsQueued,
		Help:      "number of jobs currently waiting in the submission queue",
	},
)

var jobRetriesMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: renderScheduler,
		Name:      jobRetries,
		Help:      "number of job retry cycles, by job type",
	},
	jobRetriesLabels,
)

var jobProcessingDurationMetric = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Subsystem: renderScheduler,
		Name:      jobProcessingDuration,
		Help:      "handler execution time in seconds, by job type",
		Buckets:   []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900},
	},
	jobRetriesLabels,
)

func IncreaseJobsTotalMetric(jobType, status string) {
	labels := prometheus.Labels{
		jobTypeLabel:   jobType,
		jobStatusLabel: status,
	}
	jobsTotalMetric.With(labels).Inc()
}

func IncreaseJobRetriesMetric(jobType string) {
	jobRetriesMetric.With(prometheus.Labels{jobTypeLabel: jobType}).Inc()
}

func ObserveJobProcessingDuration(jobType string, seconds float64) {
	jobProcessingDurationMetric.With(prometheus.Labels{jobTypeLabel: jobType}).Observe(seconds)
}

func UpdateJobsProcessingMetric(count int) {
	jobsProcessingMetric.Set(float64(count))
}

func UpdateJobsQueuedMetric(count int) {
	jobsQueuedMetric.Set(float64(count))
}

func init() {
	registerMetrics()
}

func registerMetrics() {
	prometheus.MustRegister(jobsTotalMetric)
	prometheus.MustRegister(jobsProcessingMetric)
	prometheus.MustRegister(jobsQueuedMetric)
	prometheus.MustRegister(jobRetriesMetric)
	prometheus.MustRegister(jobProcessingDurationMetric)
}
