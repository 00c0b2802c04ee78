package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for analysis passes, dispatch and sweeps.
type Metrics struct {
	// Completed passes by persisted status (READY, ERROR)
	Analyses *prometheus.CounterVec

	AnalysisDuration prometheus.Histogram

	// Provider results by provider and variant (success, degraded)
	ProviderOutcomes *prometheus.CounterVec

	ReputationRetries prometheus.Counter

	// Dispatch requests by result (started, deduplicated, rejected)
	Dispatches *prometheus.CounterVec

	InFlight prometheus.Gauge

	SweepSelected prometheus.Gauge
}

// New registers all analysis metrics on reg. Pass prometheus.DefaultRegisterer
// in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Analyses: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "domainwatch_analyses_total",
			Help: "Completed analysis passes by persisted status",
		}, []string{"status"}),

		AnalysisDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "domainwatch_analysis_duration_seconds",
			Help:    "Duration of a full analysis pass including provider retries",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15, 30},
		}),

		ProviderOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "domainwatch_provider_outcomes_total",
			Help: "Provider call outcomes by provider and variant",
		}, []string{"provider", "variant"}),

		ReputationRetries: factory.NewCounter(prometheus.CounterOpts{
			Name: "domainwatch_reputation_retries_total",
			Help: "Reputation lookups retried after a rate-limit response",
		}),

		Dispatches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "domainwatch_dispatches_total",
			Help: "Analysis requests by dispatch result",
		}, []string{"result"}),

		InFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "domainwatch_analyses_in_flight",
			Help: "Analysis passes currently running or waiting for a slot",
		}),

		SweepSelected: factory.NewGauge(prometheus.GaugeOpts{
			Name: "domainwatch_sweep_selected_domains",
			Help: "Domains selected as stale by the most recent sweep",
		}),
	}
}

func (m *Metrics) IncrementAnalysis(status string) {
	if m != nil {
		m.Analyses.WithLabelValues(status).Inc()
	}
}

func (m *Metrics) ObserveAnalysisDuration(d time.Duration) {
	if m != nil {
		m.AnalysisDuration.Observe(d.Seconds())
	}
}

func (m *Metrics) IncrementProviderOutcome(provider, variant string) {
	if m != nil {
		m.ProviderOutcomes.WithLabelValues(provider, variant).Inc()
	}
}

func (m *Metrics) IncrementReputationRetry() {
	if m != nil {
		m.ReputationRetries.Inc()
	}
}

func (m *Metrics) IncrementDispatch(result string) {
	if m != nil {
		m.Dispatches.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) IncInFlight() {
	if m != nil {
		m.InFlight.Inc()
	}
}

func (m *Metrics) DecInFlight() {
	if m != nil {
		m.InFlight.Dec()
	}
}

func (m *Metrics) SetSweepSelected(n int) {
	if m != nil {
		m.SweepSelected.Set(float64(n))
	}
}
