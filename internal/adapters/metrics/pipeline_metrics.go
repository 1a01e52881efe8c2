package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PipelineMetricsCollector handles task-flow and trigger-flow metrics
type PipelineMetricsCollector struct {
	taskRunsTotal    *prometheus.CounterVec
	triggerRunsTotal *prometheus.CounterVec
	triggerDuration  *prometheus.HistogramVec
}

// NewPipelineMetricsCollector creates a new pipeline metrics collector
func NewPipelineMetricsCollector() *PipelineMetricsCollector {
	return &PipelineMetricsCollector{
		taskRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "task_runs_total",
				Help:      "Total task-flow runs by pipeline, task and status",
			},
			[]string{"pipeline", "task", "status"},
		),
		triggerRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "trigger_runs_total",
				Help:      "Total trigger-flow runs by pipeline, trigger and status",
			},
			[]string{"pipeline", "trigger", "status"},
		),
		triggerDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "trigger_duration_seconds",
				Help:      "Trigger-flow execution duration distribution",
				Buckets:   []float64{0.1, 0.5, 1.0, 5.0, 15.0, 60.0, 300.0, 900.0},
			},
			[]string{"pipeline", "trigger"},
		),
	}
}

// Register registers all pipeline metrics with the Prometheus registry
func (c *PipelineMetricsCollector) Register() error {
	if Registry == nil {
		return nil // Metrics not enabled
	}
	for _, metric := range []prometheus.Collector{
		c.taskRunsTotal,
		c.triggerRunsTotal,
		c.triggerDuration,
	} {
		if err := Registry.Register(metric); err != nil {
			return err
		}
	}
	return nil
}

// RecordTaskRun records one task-flow outcome
func (c *PipelineMetricsCollector) RecordTaskRun(pipeline, taskID, status string) {
	c.taskRunsTotal.WithLabelValues(pipeline, taskID, status).Inc()
}

// RecordTriggerRun records one trigger-flow outcome with its duration
func (c *PipelineMetricsCollector) RecordTriggerRun(pipeline, triggerID, status string, duration float64) {
	c.triggerRunsTotal.WithLabelValues(pipeline, triggerID, status).Inc()
	c.triggerDuration.WithLabelValues(pipeline, triggerID).Observe(duration)
}
