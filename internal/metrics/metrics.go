package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for ConversionsTotal.
const (
	OutcomeSuccess     = "success"
	OutcomeFailed      = "failed"      // provider answered with a non-success result
	OutcomeUnavailable = "unavailable" // transport or decoding failure
)

// ConverterMetrics covers the upstream conversion call and the widget views.
type ConverterMetrics struct {
	ConversionsTotal  *prometheus.CounterVec
	UpstreamDuration  *prometheus.HistogramVec
	SameCurrencyTotal prometheus.Counter
	SupersededTotal   prometheus.Counter
	ActiveSessions    prometheus.Gauge
}

// New registers every metric on reg.
func New(reg prometheus.Registerer) *ConverterMetrics {
	factory := promauto.With(reg)
	return &ConverterMetrics{
		ConversionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "currency_conversions_total",
				Help: "Conversion requests sent to the exchange-rate provider",
			},
			[]string{"from", "to", "outcome"},
		),
		UpstreamDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "currency_upstream_duration_seconds",
				Help:    "Latency of exchange-rate provider calls",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"outcome"},
		),
		SameCurrencyTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "currency_same_currency_total",
			Help: "Conversions answered locally because both sides share a currency",
		}),
		SupersededTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "currency_superseded_responses_total",
			Help: "Provider responses discarded because a newer request replaced them",
		}),
		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "currency_widget_sessions",
			Help: "Live widget views",
		}),
	}
}

// NewNop returns metrics bound to a private registry, for tests and tools.
func NewNop() *ConverterMetrics {
	return New(prometheus.NewRegistry())
}
