package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/guidryheal-create/trader.exe-sub001/internal/domain/execution"
)

// ExecutionMetricsCollector handles tracked async execution metrics
type ExecutionMetricsCollector struct {
	executionsTotal   *prometheus.CounterVec
	executionDuration *prometheus.HistogramVec
	inFlight          prometheus.Gauge
}

// NewExecutionMetricsCollector creates a new execution metrics collector
func NewExecutionMetricsCollector() *ExecutionMetricsCollector {
	return &ExecutionMetricsCollector{
		executionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "executions_total",
				Help:      "Total tracked executions by mode and terminal status",
			},
			[]string{"mode", "status"},
		),
		executionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "execution_duration_seconds",
				Help:      "Tracked execution duration distribution",
				Buckets:   []float64{1, 5, 15, 60, 300, 900, 3600},
			},
			[]string{"mode"},
		),
		inFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "executions_in_flight",
				Help:      "Number of currently running tracked executions",
			},
		),
	}
}

// Register registers all execution metrics with the Prometheus registry
func (c *ExecutionMetricsCollector) Register() error {
	if Registry == nil {
		return nil // Metrics not enabled
	}
	for _, metric := range []prometheus.Collector{
		c.executionsTotal,
		c.executionDuration,
		c.inFlight,
	} {
		if err := Registry.Register(metric); err != nil {
			return err
		}
	}
	return nil
}

// RecordExecution records one terminal execution outcome
func (c *ExecutionMetricsCollector) RecordExecution(mode string, status execution.Status, elapsed time.Duration) {
	c.executionsTotal.WithLabelValues(mode, string(status)).Inc()
	c.executionDuration.WithLabelValues(mode).Observe(elapsed.Seconds())
}

// SetInFlight updates the in-flight execution gauge
func (c *ExecutionMetricsCollector) SetInFlight(count int) {
	c.inFlight.Set(float64(count))
}
