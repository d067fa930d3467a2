package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"muse-workers/internal/common/errors"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "muse_worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "muse_worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "muse_worker_job_duration_seconds",
			Help:    "Duration of job processing in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "muse_worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	RemoteAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "muse_remote_request_attempts_total",
			Help: "Remote request attempts by outcome",
		},
		[]string{"endpoint", "outcome"},
	)

	RemoteExhausted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "muse_remote_request_exhausted_total",
			Help: "Remote requests that used up their retry budget",
		},
		[]string{"endpoint"},
	)

	StylistFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "muse_stylist_fallbacks_total",
			Help: "Stylist answers replaced by a canned fallback",
		},
		[]string{"task_type"},
	)
)

// RemoteObserver feeds the remote request metrics. It satisfies resilient.Observer.
type RemoteObserver struct{}

func (RemoteObserver) ObserveAttempt(endpoint string, attempt int, err error) {
	RemoteAttempts.WithLabelValues(endpoint, Outcome(err)).Inc()
}

func (RemoteObserver) ObserveExhausted(endpoint string, attempts int) {
	RemoteExhausted.WithLabelValues(endpoint).Inc()
}

// Outcome maps an attempt error to a low-cardinality label.
func Outcome(err error) string {
	if err == nil {
		return "success"
	}
	stdErr, ok := errors.AsStandard(err)
	if !ok {
		return "error"
	}
	if code, ok := stdErr.Metadata["statusCode"].(int); ok {
		return strconv.Itoa(code/100) + "xx"
	}
	return string(stdErr.Code)
}

// ObserveJob records the outcome of one worker job. errCode is empty on success.
func ObserveJob(taskType string, seconds float64, errCode string) {
	WorkerJobDuration.WithLabelValues(taskType).Observe(seconds)
	if errCode == "" {
		WorkerJobsCompleted.WithLabelValues(taskType).Inc()
		return
	}
	WorkerJobsFailed.WithLabelValues(taskType, errCode).Inc()
}
