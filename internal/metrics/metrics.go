// Package metrics exposes Prometheus counters/gauges for observability,
// grounded directly on metrics.go's label-vec style.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	OrdersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tradebot_orders_total",
			Help: "Orders placed",
		},
		[]string{"mode", "broker", "direction"},
	)

	SignalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tradebot_signals_total",
			Help: "Divergence signals produced by the detector",
		},
		[]string{"symbol", "timeframe", "divergence_type"},
	)

	ValidationRejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tradebot_validation_rejections_total",
			Help: "Signals rejected by the validator, by rule",
		},
		[]string{"rule"},
	)

	RiskRejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tradebot_risk_rejections_total",
			Help: "Signals rejected by the risk manager admission check",
		},
		[]string{"broker"},
	)

	EquityUSD = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tradebot_equity_usd",
			Help: "Reconstructed portfolio equity per broker",
		},
		[]string{"broker"},
	)

	ExitReasonsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tradebot_exit_reasons_total",
			Help: "Position closes split by reason and direction",
		},
		[]string{"reason", "direction"},
	)

	CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tradebot_circuit_breaker_state",
			Help: "1 if the named circuit breaker state is currently active for the broker",
		},
		[]string{"broker", "state"},
	)

	AnalysisCycleDurationMs = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tradebot_analysis_cycle_duration_ms",
			Help: "Duration of the last completed analysis cycle",
		},
		[]string{},
	)

	OutcomeVerdictsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tradebot_outcome_verdicts_total",
			Help: "Signal outcomes resolved by verdict",
		},
		[]string{"verdict"},
	)
)

func init() {
	prometheus.MustRegister(
		OrdersTotal,
		SignalsTotal,
		ValidationRejectionsTotal,
		RiskRejectionsTotal,
		EquityUSD,
		ExitReasonsTotal,
		CircuitBreakerState,
		AnalysisCycleDurationMs,
		OutcomeVerdictsTotal,
	)
}
