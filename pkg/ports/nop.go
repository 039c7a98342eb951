package ports

import (
	"time"

	"github.com/aptosflow/aptosflow/pkg/domain"
)

// NopNotifier discards all notifications.
type NopNotifier struct{}

func (NopNotifier) NodeStateChanged(string, string, domain.NodeRunState) {}
func (NopNotifier) CommandRouted(domain.Command)                         {}
func (NopNotifier) ExecutionFinished(string, string, domain.Outcome)     {}

// MultiNotifier fans every notification out to each wrapped notifier.
type MultiNotifier []Notifier

func (m MultiNotifier) NodeStateChanged(workflowID, nodeID string, state domain.NodeRunState) {
	for _, n := range m {
		n.NodeStateChanged(workflowID, nodeID, state)
	}
}

func (m MultiNotifier) CommandRouted(cmd domain.Command) {
	for _, n := range m {
		n.CommandRouted(cmd)
	}
}

func (m MultiNotifier) ExecutionFinished(workflowID, nodeID string, outcome domain.Outcome) {
	for _, n := range m {
		n.ExecutionFinished(workflowID, nodeID, outcome)
	}
}

// NopMetrics discards all measurements.
type NopMetrics struct{}

func (NopMetrics) RecordWorkflowRegistered()             {}
func (NopMetrics) RecordWorkflowUnregistered()           {}
func (NopMetrics) SetActiveWorkflows(int)                {}
func (NopMetrics) RecordEventRouted(string, int)         {}
func (NopMetrics) RecordCommandEmitted(string)           {}
func (NopMetrics) RecordExecution(string, time.Duration) {}
func (NopMetrics) RecordBusyRejection()                  {}
func (NopMetrics) RecordHandlerFailure()                 {}
