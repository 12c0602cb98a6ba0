package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application. A nil *Metrics
// is valid and records nothing, which keeps unit tests free of registry
// bookkeeping.
type Metrics struct {
	Transitions         *prometheus.CounterVec
	DiscrepantBundles   prometheus.Counter
	ForcedCompletions   prometheus.Counter
	VerificationBatches *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		Transitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "distrack_transitions_total",
			Help: "Distribution lifecycle transitions by action",
		}, []string{"action"}),
		DiscrepantBundles: promauto.NewCounter(prometheus.CounterOpts{
			Name: "distrack_discrepant_distributions_total",
			Help: "Distributions flagged with discrepancies at receiver verification",
		}),
		ForcedCompletions: promauto.NewCounter(prometheus.CounterOpts{
			Name: "distrack_forced_completions_total",
			Help: "Completions forced despite unresolved discrepancies",
		}),
		VerificationBatches: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "distrack_verification_batches_total",
			Help: "Verification batches recorded by side",
		}, []string{"side"}),
	}
}

func (m *Metrics) IncTransition(action string) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(action).Inc()
}

func (m *Metrics) IncDiscrepantBundle() {
	if m == nil {
		return
	}
	m.DiscrepantBundles.Inc()
}

func (m *Metrics) IncForcedCompletion() {
	if m == nil {
		return
	}
	m.ForcedCompletions.Inc()
}

func (m *Metrics) IncVerificationBatch(side string) {
	if m == nil {
		return
	}
	m.VerificationBatches.WithLabelValues(side).Inc()
}
