package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the ingest worker.
type Metrics struct {
	// Messages pulled from the queue.
	Consumed prometheus.Counter

	// Messages dropped without staging, by reason ("invalid", "duplicate").
	Dropped *prometheus.CounterVec

	// Observations staged, by resulting status ("pending", "flagged").
	Staged *prometheus.CounterVec

	// Messages left unacknowledged for redelivery.
	Requeued prometheus.Counter

	// End-to-end processing latency per message.
	ProcessDuration prometheus.Histogram
}

// New creates and registers all ingest metrics.
func New() *Metrics {
	return &Metrics{
		Consumed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cropwatch_ingest_messages_consumed_total",
			Help: "Total messages pulled from the ingest queue",
		}),
		Dropped: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "cropwatch_ingest_messages_dropped_total",
			Help: "Total messages dropped without staging, by reason",
		}, []string{"reason"}),
		Staged: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "cropwatch_ingest_observations_staged_total",
			Help: "Total observations staged, by status",
		}, []string{"status"}),
		Requeued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cropwatch_ingest_messages_requeued_total",
			Help: "Total messages left unacknowledged for redelivery",
		}),
		ProcessDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "cropwatch_ingest_process_duration_seconds",
			Help:    "Duration of processing one queue message",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
	}
}

// IncConsumed records one message pulled from the queue.
func (m *Metrics) IncConsumed() {
	if m != nil {
		m.Consumed.Inc()
	}
}

// IncDropped records a message dropped for the given reason.
func (m *Metrics) IncDropped(reason string) {
	if m != nil {
		m.Dropped.WithLabelValues(reason).Inc()
	}
}

// IncStaged records an observation staged with the given status.
func (m *Metrics) IncStaged(status string) {
	if m != nil {
		m.Staged.WithLabelValues(status).Inc()
	}
}

// IncRequeued records a message left for redelivery.
func (m *Metrics) IncRequeued() {
	if m != nil {
		m.Requeued.Inc()
	}
}

// ObserveProcessDuration records processing latency for one message.
func (m *Metrics) ObserveProcessDuration(d time.Duration) {
	if m != nil {
		m.ProcessDuration.Observe(d.Seconds())
	}
}
