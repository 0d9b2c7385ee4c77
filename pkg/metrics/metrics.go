package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for hookrun. promauto registers everything with the
// default registry, served by the API's /metrics endpoint.
var (
	// --- Run metrics ---

	// RunsTotal counts completed pipeline runs by conclusion.
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hookrun",
			Subsystem: "runs",
			Name:      "total",
			Help:      "Total number of pipeline runs by conclusion",
		},
		[]string{"conclusion"},
	)

	// ScriptResults counts inner script outcomes, independent of the
	// pipeline's own conclusion.
	ScriptResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hookrun",
			Subsystem: "runs",
			Name:      "script_results_total",
			Help:      "Inner script outcomes (ok, nonzero_exit, not_run)",
		},
		[]string{"result"},
	)

	// RunDuration tracks wall-clock run duration.
	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "hookrun",
			Subsystem: "runs",
			Name:      "duration_seconds",
			Help:      "Duration of pipeline runs in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 15), // 0.1s to ~1.8h
		},
	)

	// RunsInFlight tracks concurrently executing runs on this node.
	RunsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "hookrun",
			Subsystem: "runs",
			Name:      "in_flight",
			Help:      "Number of runs currently executing on this node",
		},
	)

	// --- Delivery metrics ---

	// DeliveriesTotal counts callback delivery attempts by outcome.
	DeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hookrun",
			Subsystem: "callback",
			Name:      "deliveries_total",
			Help:      "Callback delivery attempts by outcome (sent, failed, shed)",
		},
		[]string{"outcome"},
	)

	// --- Queue metrics ---

	// RunsAccepted counts trigger requests accepted by the API.
	RunsAccepted = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "hookrun",
			Subsystem: "queue",
			Name:      "runs_accepted_total",
			Help:      "Total trigger requests accepted and enqueued",
		},
	)

	// QueueDepth tracks the pending stream length, sampled on the runner
	// daemon's heartbeat.
	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "hookrun",
			Subsystem: "queue",
			Name:      "depth",
			Help:      "Number of job requests in the pending stream",
		},
	)

	// --- Node metrics ---

	// HeartbeatsSent counts liveness heartbeats sent by the runner daemon.
	HeartbeatsSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "hookrun",
			Subsystem: "node",
			Name:      "heartbeats_total",
			Help:      "Total heartbeats sent",
		},
	)

	// WorkspacesReaped counts stale workspaces removed by the janitor.
	WorkspacesReaped = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "hookrun",
			Subsystem: "node",
			Name:      "workspaces_reaped_total",
			Help:      "Total stale run workspaces removed by the janitor",
		},
	)
)

// RecordRun records metrics for one completed pipeline run.
func RecordRun(conclusion string, durationSeconds float64) {
	RunsTotal.WithLabelValues(conclusion).Inc()
	RunDuration.Observe(durationSeconds)
}

// RecordDelivery records the outcome of one callback delivery attempt.
func RecordDelivery(outcome string) {
	DeliveriesTotal.WithLabelValues(outcome).Inc()
}
