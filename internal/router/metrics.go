package router

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/domeapi/dome-escrow-router/internal/escrow"
)

// Metrics counts placements by terminal state and fee volume.
type Metrics struct {
	placements *prometheus.CounterVec
	fees       prometheus.Counter
	latency    prometheus.Histogram
}

// NewMetrics creates the placement metrics and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		placements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dome",
			Subsystem: "escrow",
			Name:      "placements_total",
			Help:      "Order placements by terminal state and escrow usage.",
		}, []string{"state", "escrow"}),
		fees: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dome",
			Subsystem: "escrow",
			Name:      "authorized_fees_usdc_units_total",
			Help:      "Sum of signed fee authorizations in USDC base units.",
		}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "dome",
			Subsystem: "escrow",
			Name:      "placement_duration_seconds",
			Help:      "Duration of order placements.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg != nil {
		reg.MustRegister(m.placements, m.fees, m.latency)
	}
	return m
}

func (m *Metrics) observe(state State, escrowed bool, seconds float64) {
	label := "false"
	if escrowed {
		label = "true"
	}
	m.placements.WithLabelValues(string(state), label).Inc()
	m.latency.Observe(seconds)
}

func (m *Metrics) addFee(units float64) {
	m.fees.Add(units)
}

// TerminalState maps the outcome of a placement to its terminal state.
func TerminalState(err error) State {
	switch {
	case err == nil:
		return StateFulfilled
	case errors.Is(err, escrow.ErrRejected):
		return StateRejected
	default:
		return StateFailed
	}
}
