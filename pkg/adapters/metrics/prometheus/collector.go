package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector implements ports.MetricsCollector using Prometheus.
type Collector struct {
	workflowsRegistered   prometheus.Counter
	workflowsUnregistered prometheus.Counter
	activeWorkflows       prometheus.Gauge
	eventsRouted          *prometheus.CounterVec
	eventsWithoutTarget   *prometheus.CounterVec
	commandsEmitted       *prometheus.CounterVec
	executions            *prometheus.CounterVec
	executionDuration     prometheus.Histogram
	busyRejections        prometheus.Counter
	handlerFailures       prometheus.Counter
}

// NewCollector creates a new Prometheus metrics collector.
func NewCollector() *Collector {
	return &Collector{
		workflowsRegistered: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "aptosflow_workflows_registered_total",
				Help: "Total number of workflow registrations",
			},
		),
		workflowsUnregistered: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "aptosflow_workflows_unregistered_total",
				Help: "Total number of workflow unregistrations",
			},
		),
		activeWorkflows: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "aptosflow_active_workflows",
				Help: "Number of currently registered workflows",
			},
		),
		eventsRouted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aptosflow_events_routed_total",
				Help: "Total number of domain events routed",
			},
			[]string{"event_type"},
		),
		eventsWithoutTarget: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aptosflow_events_without_target_total",
				Help: "Total number of domain events that matched no target node",
			},
			[]string{"event_type"},
		),
		commandsEmitted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aptosflow_commands_emitted_total",
				Help: "Total number of routed commands emitted on the event bus",
			},
			[]string{"event_type"},
		),
		executions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aptosflow_executions_total",
				Help: "Total number of capability executions",
			},
			[]string{"status"},
		),
		executionDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "aptosflow_execution_duration_seconds",
				Help:    "Capability execution duration in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
			},
		),
		busyRejections: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "aptosflow_busy_rejections_total",
				Help: "Total number of executions refused because the workflow was busy",
			},
		),
		handlerFailures: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "aptosflow_handler_failures_total",
				Help: "Total number of event handlers that failed or panicked",
			},
		),
	}
}

// RecordWorkflowRegistered counts a workflow registration.
func (c *Collector) RecordWorkflowRegistered() {
	c.workflowsRegistered.Inc()
}

// RecordWorkflowUnregistered counts a workflow unregistration.
func (c *Collector) RecordWorkflowUnregistered() {
	c.workflowsUnregistered.Inc()
}

// SetActiveWorkflows sets the registered-workflow gauge.
func (c *Collector) SetActiveWorkflows(n int) {
	c.activeWorkflows.Set(float64(n))
}

// RecordEventRouted counts a routed domain event and, when it matched no
// node, a no-target occurrence.
func (c *Collector) RecordEventRouted(eventType string, targets int) {
	c.eventsRouted.WithLabelValues(eventType).Inc()
	if targets == 0 {
		c.eventsWithoutTarget.WithLabelValues(eventType).Inc()
	}
}

// RecordCommandEmitted counts a command emitted on the event bus.
func (c *Collector) RecordCommandEmitted(eventType string) {
	c.commandsEmitted.WithLabelValues(eventType).Inc()
}

// RecordExecution counts a capability execution and observes its duration.
func (c *Collector) RecordExecution(status string, duration time.Duration) {
	c.executions.WithLabelValues(status).Inc()
	c.executionDuration.Observe(duration.Seconds())
}

// RecordBusyRejection counts an execution refused while busy.
func (c *Collector) RecordBusyRejection() {
	c.busyRejections.Inc()
}

// RecordHandlerFailure counts a failed or panicked bus handler.
func (c *Collector) RecordHandlerFailure() {
	c.handlerFailures.Inc()
}
