// Package metrics holds the Prometheus collectors for the workflow engine.
// All methods are safe on a nil *Metrics so tests can skip registration.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type Metrics struct {
	Registry *prometheus.Registry

	stepsTotal     *prometheus.CounterVec
	stepDuration   *prometheus.HistogramVec
	timersTotal    *prometheus.CounterVec
	approvalsTotal *prometheus.CounterVec
	claimsFiled    prometheus.Counter
	queueDepth     prometheus.Gauge
	queueOverflow  prometheus.Counter
}

func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		stepsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "claims",
				Name:      "workflow_steps_total",
				Help:      "Workflow steps executed, by task type and outcome",
			},
			[]string{"task_type", "outcome"},
		),
		stepDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "claims",
				Name:      "workflow_step_duration_seconds",
				Help:      "Time spent inside one advance transaction",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"task_type"},
		),
		timersTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "claims",
				Name:      "workflow_timers_total",
				Help:      "Timer resumes, by result",
			},
			[]string{"result"},
		),
		approvalsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "claims",
				Name:      "policy_approvals_total",
				Help:      "Policy approval attempts, by result",
			},
			[]string{"result"},
		),
		claimsFiled: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "claims",
				Name:      "claims_filed_total",
				Help:      "Claims filed",
			},
		),
		queueDepth: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "claims",
				Name:      "engine_queue_depth",
				Help:      "Advance requests waiting for a worker",
			},
		),
		queueOverflow: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "claims",
				Name:      "engine_queue_overflow_total",
				Help:      "Advance requests that found the queue full",
			},
		),
	}

	m.Registry.MustRegister(
		m.stepsTotal,
		m.stepDuration,
		m.timersTotal,
		m.approvalsTotal,
		m.claimsFiled,
		m.queueDepth,
		m.queueOverflow,
		collectors.NewGoCollector(),
	)
	return m
}

func (m *Metrics) StepExecuted(taskType, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.stepsTotal.WithLabelValues(taskType, outcome).Inc()
	m.stepDuration.WithLabelValues(taskType).Observe(seconds)
}

func (m *Metrics) TimerResolved(result string) {
	if m == nil {
		return
	}
	m.timersTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) ApprovalAttempt(result string) {
	if m == nil {
		return
	}
	m.approvalsTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) ClaimFiled() {
	if m == nil {
		return
	}
	m.claimsFiled.Inc()
}

func (m *Metrics) QueueDepth(n int) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(n))
}

func (m *Metrics) QueueOverflow() {
	if m == nil {
		return
	}
	m.queueOverflow.Inc()
}
