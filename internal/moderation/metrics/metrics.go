package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the moderation module.
type Metrics struct {
	// Review outcomes by action and result ("approved", "rejected",
	// "not_found", "conflict", "error").
	ReviewOutcome *prometheus.CounterVec

	// Review transaction latency.
	ReviewLatency prometheus.Histogram

	// Broadcast failures after a committed approval.
	NotifyFailures prometheus.Counter
}

// New creates and registers all moderation metrics.
func New() *Metrics {
	return &Metrics{
		ReviewOutcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "cropwatch_moderation_reviews_total",
			Help: "Total review actions by action and outcome",
		}, []string{"action", "outcome"}),
		ReviewLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "cropwatch_moderation_review_duration_seconds",
			Help:    "Duration of the review transaction",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		NotifyFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cropwatch_moderation_notify_failures_total",
			Help: "Total broadcast failures after committed approvals",
		}),
	}
}

// IncOutcome records a review outcome.
func (m *Metrics) IncOutcome(action, outcome string) {
	if m != nil {
		m.ReviewOutcome.WithLabelValues(action, outcome).Inc()
	}
}

// ObserveReviewLatency records the review transaction duration.
func (m *Metrics) ObserveReviewLatency(d time.Duration) {
	if m != nil {
		m.ReviewLatency.Observe(d.Seconds())
	}
}

// IncNotifyFailure records a post-commit broadcast failure.
func (m *Metrics) IncNotifyFailure() {
	if m != nil {
		m.NotifyFailures.Inc()
	}
}
