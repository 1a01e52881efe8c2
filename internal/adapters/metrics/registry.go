package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/guidryheal-create/trader.exe-sub001/internal/domain/execution"
)

const (
	// Namespace for all metrics
	namespace = "trader"
	// Subsystem for daemon metrics
	subsystem = "daemon"
)

var (
	// Registry is the global Prometheus registry for all metrics
	Registry *prometheus.Registry

	// globalPipelineCollector is set by SetGlobalPipelineCollector() when
	// metrics are enabled
	globalPipelineCollector PipelineMetricsRecorder

	// globalExecutionCollector is set by SetGlobalExecutionCollector()
	globalExecutionCollector ExecutionMetricsRecorder

	// globalTradeCollector is set by SetGlobalTradeCollector()
	globalTradeCollector TradeMetricsRecorder
)

// PipelineMetricsRecorder records task-flow and trigger-flow events.
// Application code records through the package-level functions so metrics
// stay optional.
type PipelineMetricsRecorder interface {
	RecordTaskRun(pipeline, taskID, status string)
	RecordTriggerRun(pipeline, triggerID, status string, duration float64)
}

// ExecutionMetricsRecorder records tracked async execution outcomes
type ExecutionMetricsRecorder interface {
	RecordExecution(mode string, status execution.Status, elapsed time.Duration)
	SetInFlight(count int)
}

// TradeMetricsRecorder records executed trades
type TradeMetricsRecorder interface {
	RecordTrade(system, triggerType string, success bool)
}

// InitRegistry initializes the Prometheus registry.
// Should be called once at application startup if metrics are enabled.
func InitRegistry() {
	Registry = prometheus.NewRegistry()
}

// GetRegistry returns the global Prometheus registry, nil when disabled
func GetRegistry() *prometheus.Registry {
	return Registry
}

// IsEnabled returns true if metrics collection is enabled
func IsEnabled() bool {
	return Registry != nil
}

// SetGlobalPipelineCollector sets the global pipeline metrics collector
func SetGlobalPipelineCollector(collector PipelineMetricsRecorder) {
	globalPipelineCollector = collector
}

// SetGlobalExecutionCollector sets the global execution metrics collector
func SetGlobalExecutionCollector(collector ExecutionMetricsRecorder) {
	globalExecutionCollector = collector
}

// SetGlobalTradeCollector sets the global trade metrics collector
func SetGlobalTradeCollector(collector TradeMetricsRecorder) {
	globalTradeCollector = collector
}

// RecordTaskRun records one task-flow outcome globally
func RecordTaskRun(pipeline, taskID, status string) {
	if globalPipelineCollector != nil {
		globalPipelineCollector.RecordTaskRun(pipeline, taskID, status)
	}
}

// RecordTriggerRun records one trigger-flow outcome globally
func RecordTriggerRun(pipeline, triggerID, status string, duration float64) {
	if globalPipelineCollector != nil {
		globalPipelineCollector.RecordTriggerRun(pipeline, triggerID, status, duration)
	}
}

// RecordExecution records one tracked execution outcome globally
func RecordExecution(mode string, status execution.Status, elapsed time.Duration) {
	if globalExecutionCollector != nil {
		globalExecutionCollector.RecordExecution(mode, status, elapsed)
	}
}

// SetInFlight updates the in-flight execution gauge globally
func SetInFlight(count int) {
	if globalExecutionCollector != nil {
		globalExecutionCollector.SetInFlight(count)
	}
}

// RecordTrade records one executed trade globally
func RecordTrade(system, triggerType string, success bool) {
	if globalTradeCollector != nil {
		globalTradeCollector.RecordTrade(system, triggerType, success)
	}
}
