package queue

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "expwatch"

var (
	queueSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "size",
			Help:      "Number of jobs per queue by status",
		},
		[]string{"queue", "status"},
	)

	jobsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "jobs_processed_total",
			Help:      "Total jobs processed by outcome",
		},
		[]string{"queue", "status"},
	)

	jobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "job_duration_seconds",
			Help:      "Time to process one job",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"queue"},
	)

	jobsClaimed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "jobs_claimed_total",
			Help:      "Total jobs claimed from the queue (before processing)",
		},
		[]string{"queue"},
	)
)

// recordJobProcessed records a processed job outcome.
func recordJobProcessed(queue, status string) {
	jobsProcessed.WithLabelValues(queue, status).Inc()
}

// recordJobDuration records job processing duration.
func recordJobDuration(queue string, duration time.Duration) {
	jobDuration.WithLabelValues(queue).Observe(duration.Seconds())
}

// recordJobsClaimed records the number of jobs claimed in one batch.
func recordJobsClaimed(queue string, count int) {
	jobsClaimed.WithLabelValues(queue).Add(float64(count))
}

// RecordQueueStats updates the queue size gauges.
func RecordQueueStats(queue Name, stats *Stats) {
	queueSize.WithLabelValues(string(queue), "pending").Set(float64(stats.Pending))
	queueSize.WithLabelValues(string(queue), "active").Set(float64(stats.Active))
	queueSize.WithLabelValues(string(queue), "completed").Set(float64(stats.Completed))
	queueSize.WithLabelValues(string(queue), "failed").Set(float64(stats.Failed))
}
