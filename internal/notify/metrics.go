package notify

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "expwatch"

var (
	messagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notify",
			Name:      "messages_sent_total",
			Help:      "Total delivery attempts by outcome",
		},
		[]string{"status"},
	)

	formatFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notify",
			Name:      "format_fallbacks_total",
			Help:      "Messages delivered with the fallback text after a formatting failure",
		},
	)

	sendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "notify",
			Name:      "send_duration_seconds",
			Help:      "Time to deliver one message",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
	)
)

func recordMessageSent(status string) {
	messagesSent.WithLabelValues(status).Inc()
}

func recordFormatFallback() {
	formatFallbacks.Inc()
}

func recordSendDuration(duration time.Duration) {
	sendDuration.Observe(duration.Seconds())
}
