package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the ledger's Prometheus collectors.
type Metrics struct {
	Operations *prometheus.CounterVec
	Upvotes    prometheus.Counter
	Tips       *prometheus.CounterVec
	Minted     prometheus.Counter
}

// New creates the collectors and registers them with reg. A nil reg leaves
// them unregistered, which tests use to avoid global state.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "goflow_ledger_operations_total",
				Help: "Ledger calls by operation and result (ok or failure kind).",
			},
			[]string{"operation", "result"},
		),
		Upvotes: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "goflow_upvotes_total",
				Help: "Committed upvotes.",
			},
		),
		Tips: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "goflow_tips_total",
				Help: "Tips paid, by destination (creator or sink).",
			},
			[]string{"destination"},
		),
		Minted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "goflow_minted_units_total",
				Help: "Units minted.",
			},
		),
	}
	if reg != nil {
		reg.MustRegister(m.Operations, m.Upvotes, m.Tips, m.Minted)
	}
	return m
}
