package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// TradeMetricsCollector handles executed trade metrics
type TradeMetricsCollector struct {
	tradesTotal *prometheus.CounterVec
}

// NewTradeMetricsCollector creates a new trade metrics collector
func NewTradeMetricsCollector() *TradeMetricsCollector {
	return &TradeMetricsCollector{
		tradesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "trades_total",
				Help:      "Total executed trades by system, trigger type and outcome",
			},
			[]string{"system", "trigger_type", "outcome"},
		),
	}
}

// Register registers all trade metrics with the Prometheus registry
func (c *TradeMetricsCollector) Register() error {
	if Registry == nil {
		return nil // Metrics not enabled
	}
	return Registry.Register(c.tradesTotal)
}

// RecordTrade records one executed trade
func (c *TradeMetricsCollector) RecordTrade(system, triggerType string, success bool) {
	outcome := "success"
	if !success {
		outcome = "error"
	}
	c.tradesTotal.WithLabelValues(system, triggerType, outcome).Inc()
}
