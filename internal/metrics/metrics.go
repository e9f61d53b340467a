// Package metrics provides Prometheus metrics for the editorial workflow.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DecisionsTotal counts editorial transition attempts by outcome.
	DecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "newsdesk",
			Name:      "decisions_total",
			Help:      "Total number of approve/reject attempts",
		},
		[]string{"decision", "result"},
	)

	// NotificationsTotal counts per-reader notification hand-offs.
	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "newsdesk",
			Name:      "notifications_total",
			Help:      "Total number of notification intents by delivery status",
		},
		[]string{"stage", "status"},
	)

	// FanoutRecipients observes the size of each approval fan-out.
	FanoutRecipients = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "newsdesk",
			Name:      "fanout_recipients",
			Help:      "Distribution of unique readers notified per approval",
			Buckets:   []float64{0, 1, 5, 10, 50, 100, 500, 1000, 5000},
		},
	)
)

// RecordDecision records an approve or reject attempt.
func RecordDecision(decision, result string) {
	DecisionsTotal.WithLabelValues(decision, result).Inc()
}

// RecordNotification records one delivery attempt at the given stage
// ("fanout" hand-off or "dispatch" to the courier).
func RecordNotification(stage string, err error) {
	status := "ok"
	if err != nil {
		status = "failed"
	}
	NotificationsTotal.WithLabelValues(stage, status).Inc()
}

// RecordFanout records the number of unique recipients of one approval.
func RecordFanout(recipients int) {
	FanoutRecipients.Observe(float64(recipients))
}
