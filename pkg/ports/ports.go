// Package ports defines the interfaces between the coordination core and
// its adapters: the event bus, the external signing capability, history
// storage, metrics and the notification sink.
package ports

import (
	"context"
	"time"

	"github.com/aptosflow/aptosflow/pkg/domain"
)

// Handler consumes a routed command addressed to a subscribed node id.
// A handler error is logged by the bus and never interrupts siblings.
type Handler func(ctx context.Context, cmd domain.Command) error

// Subscription identifies one handler registration. Go function values are
// not comparable, so unsubscribing is done by token rather than by handler
// reference.
type Subscription struct {
	NodeID string
	Token  uint64
}

// EventBus is an in-process publish/subscribe facility keyed by node id.
// Emit invokes the handlers subscribed to a node id synchronously, in
// registration order; Broadcast does the same for every node id.
type EventBus interface {
	Subscribe(nodeID string, h Handler) Subscription
	Unsubscribe(sub Subscription)
	Emit(ctx context.Context, nodeID string, cmd domain.Command)
	Broadcast(ctx context.Context, cmd domain.Command)
}

// ActionCapability is the external, opaque signing/action capability
// invoked by action nodes. A transport failure is returned as an error;
// a declined or rejected request comes back as an unsuccessful SignResult.
type ActionCapability interface {
	Execute(ctx context.Context, payload map[string]interface{}) (*domain.SignResult, error)
}

// HistoryStore persists per-workflow execution records.
type HistoryStore interface {
	SaveRecord(ctx context.Context, record *domain.ExecutionRecord) error
	LoadRecord(ctx context.Context, workflowID string) (*domain.ExecutionRecord, error)
	DeleteRecord(ctx context.Context, workflowID string) error
	ListRecords(ctx context.Context) ([]*domain.ExecutionRecord, error)
}

// MetricsCollector records coordination metrics.
type MetricsCollector interface {
	RecordWorkflowRegistered()
	RecordWorkflowUnregistered()
	SetActiveWorkflows(n int)
	RecordEventRouted(eventType string, targets int)
	RecordCommandEmitted(eventType string)
	RecordExecution(status string, duration time.Duration)
	RecordBusyRejection()
	RecordHandlerFailure()
}

// Notifier is the injected side-effect sink for user-visible state:
// node highlighting, routed-command streams and execution results. It is
// observational only; coordination logic never depends on it.
type Notifier interface {
	NodeStateChanged(workflowID, nodeID string, state domain.NodeRunState)
	CommandRouted(cmd domain.Command)
	ExecutionFinished(workflowID, nodeID string, outcome domain.Outcome)
}
