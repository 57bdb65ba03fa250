package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	workflowRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "release_workflow_runs_total",
		Help: "Finished workflow runs by stage and status",
	}, []string{"stage", "status"})

	workflowErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "release_workflow_errors_total",
		Help: "Workflow errors by stage and error kind",
	}, []string{"stage", "kind"})

	stepDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "release_workflow_step_duration_seconds",
		Help:    "Duration of workflow steps in seconds",
		Buckets: prometheus.ExponentialBuckets(1, 2, 14), // 1s to ~4.5h
	}, []string{"step"})

	pollAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "release_platform_poll_attempts_total",
		Help: "Describe calls issued while waiting on platform resources",
	}, []string{"resource"})

	cleanups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "release_cleanup_total",
		Help: "Cleanup requests by result",
	}, []string{"result"})
)

func ObserveRun(stage, status string) {
	workflowRuns.WithLabelValues(stage, status).Inc()
}

func ObserveError(stage, kind string) {
	workflowErrors.WithLabelValues(stage, kind).Inc()
}

// ObserveStep records the time elapsed since start for step.
func ObserveStep(step string, start time.Time) {
	stepDuration.WithLabelValues(step).Observe(time.Since(start).Seconds())
}

func ObservePoll(resource string) {
	pollAttempts.WithLabelValues(resource).Inc()
}

func ObserveCleanup(result string) {
	cleanups.WithLabelValues(result).Inc()
}
