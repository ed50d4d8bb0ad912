package scheduler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "expwatch"

var (
	passes = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "passes_total",
			Help:      "Total completed enqueue passes",
		},
	)

	jobsEnqueued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "jobs_total",
			Help:      "Fetch jobs per pass by outcome",
		},
		[]string{"outcome"},
	)
)

func recordPass(result *RunResult) {
	passes.Inc()
	jobsEnqueued.WithLabelValues("enqueued").Add(float64(result.Enqueued))
	jobsEnqueued.WithLabelValues("skipped").Add(float64(result.Skipped))
}
