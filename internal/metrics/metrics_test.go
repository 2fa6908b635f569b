package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.StepExecuted("RULE", "advanced", 0.01)
		m.TimerResolved("fired")
		m.ApprovalAttempt("ok")
		m.ClaimFiled()
		m.QueueDepth(3)
		m.QueueOverflow()
	})
}

func TestCountersIncrement(t *testing.T) {
	m := NewMetrics()
	m.StepExecuted("RULE", "advanced", 0.01)
	m.StepExecuted("RULE", "advanced", 0.02)
	m.TimerResolved("stale")
	m.ClaimFiled()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.stepsTotal.WithLabelValues("RULE", "advanced")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.timersTotal.WithLabelValues("stale")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.claimsFiled))
}
