package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Record(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.IncrementAnalysis("READY")
	m.IncrementAnalysis("READY")
	m.IncrementProviderOutcome("whois", "degraded")
	m.IncrementDispatch("deduplicated")
	m.IncrementReputationRetry()
	m.SetSweepSelected(7)
	m.IncInFlight()
	m.ObserveAnalysisDuration(time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Analyses.WithLabelValues("READY")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProviderOutcomes.WithLabelValues("whois", "degraded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Dispatches.WithLabelValues("deduplicated")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReputationRetries))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.SweepSelected))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.InFlight))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncrementAnalysis("ERROR")
		m.ObserveAnalysisDuration(time.Second)
		m.IncrementProviderOutcome("virustotal", "success")
		m.IncrementReputationRetry()
		m.IncrementDispatch("started")
		m.IncInFlight()
		m.DecInFlight()
		m.SetSweepSelected(1)
	})
}
