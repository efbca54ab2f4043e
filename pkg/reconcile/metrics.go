package reconcile

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains Prometheus metrics for reconciliation runs.
type Metrics struct {
	plannedOps *prometheus.CounterVec
	appliedOps *prometheus.CounterVec
	runTotal   *prometheus.CounterVec
	planSize   prometheus.Histogram
}

// NewMetrics creates a Metrics instance with Prometheus collectors.
// Collectors register against the default registry, so call this at
// most once per process.
func NewMetrics() *Metrics {
	return &Metrics{
		plannedOps: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "capsync_reconcile_planned_operations_total",
				Help: "Total operations emitted by the planner, by action",
			},
			[]string{"action"},
		),

		appliedOps: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "capsync_reconcile_applied_operations_total",
				Help: "Total operations driven through the gateway, by action and result",
			},
			[]string{"action", "result"},
		),

		runTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "capsync_reconcile_runs_total",
				Help: "Total reconciliation runs, by outcome",
			},
			[]string{"outcome"},
		),

		planSize: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "capsync_reconcile_plan_size",
				Help:    "Number of operations per plan",
				Buckets: prometheus.ExponentialBuckets(1, 4, 8),
			},
		),
	}
}

// RecordPlan records the composition of a freshly computed plan.
func (m *Metrics) RecordPlan(ops []ChangeOperation) {
	for _, op := range ops {
		m.plannedOps.WithLabelValues(string(op.Action)).Inc()
	}
	m.planSize.Observe(float64(len(ops)))
}

// RecordApply records the outcome of one applied operation.
func (m *Metrics) RecordApply(action Action, success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	m.appliedOps.WithLabelValues(string(action), result).Inc()
}

// RecordRun records the outcome of one whole reconciliation run.
func (m *Metrics) RecordRun(outcome string) {
	m.runTotal.WithLabelValues(outcome).Inc()
}
