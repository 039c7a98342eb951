package coordinator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aptosflow/aptosflow/internal/application/registry"
	"github.com/aptosflow/aptosflow/pkg/domain"
	"github.com/aptosflow/aptosflow/pkg/ports"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Coordinator routes domain events through registered workflows and
// serializes execution per workflow.
type Coordinator struct {
	registry   *registry.Registry
	bus        ports.EventBus
	capability ports.ActionCapability
	store      ports.HistoryStore
	metrics    ports.MetricsCollector
	notifier   ports.Notifier
	logger     *zap.Logger

	capabilityTimeout time.Duration
	historyLimit      int

	mu       sync.Mutex
	records  map[string]*executionRecord
	bindings map[string][]ports.Subscription
}

// executionRecord is the per-workflow execution state. Its own mutex guards
// the busy flag and history so that the at-most-one-concurrent-execution
// guarantee holds on a multi-threaded runtime.
type executionRecord struct {
	mu          sync.Mutex
	isExecuting bool
	history     []domain.HistoryEntry
}

// Config holds coordinator construction parameters.
type Config struct {
	Registry          *registry.Registry
	Bus               ports.EventBus
	Capability        ports.ActionCapability
	Store             ports.HistoryStore
	Metrics           ports.MetricsCollector
	Notifier          ports.Notifier
	Logger            *zap.Logger
	CapabilityTimeout time.Duration
	HistoryLimit      int
}

// New creates a coordinator. Notifier and Metrics default to no-ops.
func New(cfg Config) *Coordinator {
	notifier := cfg.Notifier
	if notifier == nil {
		notifier = ports.NopNotifier{}
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	limit := cfg.HistoryLimit
	if limit <= 0 {
		limit = 50
	}
	return &Coordinator{
		registry:          cfg.Registry,
		bus:               cfg.Bus,
		capability:        cfg.Capability,
		store:             cfg.Store,
		metrics:           metrics,
		notifier:          notifier,
		logger:            cfg.Logger,
		capabilityTimeout: cfg.CapabilityTimeout,
		historyLimit:      limit,
		records:           make(map[string]*executionRecord),
		bindings:          make(map[string][]ports.Subscription),
	}
}

// RegisterWorkflow registers a nodes+edges snapshot, creates the workflow's
// execution record and binds action and output nodes to the event bus.
// Re-registering an id fully replaces the prior registration.
func (c *Coordinator) RegisterWorkflow(ctx context.Context, workflowID string, nodes []domain.Node, edges []domain.Edge) error {
	wf, err := c.registry.Register(workflowID, nodes, edges)
	if err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}

	// The registry accepted the replacement; only now drop the prior
	// bindings so a rejected graph leaves the old registration routable.
	c.unbind(workflowID)

	c.mu.Lock()
	c.records[workflowID] = &executionRecord{}
	c.mu.Unlock()

	c.bind(wf)
	c.metrics.RecordWorkflowRegistered()
	c.metrics.SetActiveWorkflows(len(c.registry.List()))

	if c.store != nil {
		if err := c.store.SaveRecord(ctx, &domain.ExecutionRecord{WorkflowID: workflowID}); err != nil {
			c.logger.Warn("failed to persist execution record",
				zap.String("workflow_id", workflowID),
				zap.Error(err))
		}
	}

	return nil
}

// UnregisterWorkflow removes a workflow, its bindings and its execution
// record. Unknown ids are a no-op.
func (c *Coordinator) UnregisterWorkflow(ctx context.Context, workflowID string) {
	c.unbind(workflowID)
	c.registry.Unregister(workflowID)

	c.mu.Lock()
	delete(c.records, workflowID)
	c.mu.Unlock()

	c.metrics.RecordWorkflowUnregistered()
	c.metrics.SetActiveWorkflows(len(c.registry.List()))

	if c.store != nil {
		if err := c.store.DeleteRecord(ctx, workflowID); err != nil {
			c.logger.Warn("failed to delete execution record",
				zap.String("workflow_id", workflowID),
				zap.Error(err))
		}
	}
}

// bind subscribes execution handlers for every action node and delivery
// handlers for every output node of the workflow.
func (c *Coordinator) bind(wf *domain.Workflow) {
	var subs []ports.Subscription
	for _, nodeID := range wf.Order {
		node := wf.Nodes[nodeID]
		switch node.Type {
		case domain.NodeAction:
			subs = append(subs, c.bus.Subscribe(node.ID, c.actionHandler(wf.ID, node.ID)))
		case domain.NodeOutput:
			subs = append(subs, c.bus.Subscribe(node.ID, c.outputHandler(wf.ID, node.ID)))
		}
	}

	c.mu.Lock()
	c.bindings[wf.ID] = subs
	c.mu.Unlock()
}

func (c *Coordinator) unbind(workflowID string) {
	c.mu.Lock()
	subs := c.bindings[workflowID]
	delete(c.bindings, workflowID)
	c.mu.Unlock()

	for _, sub := range subs {
		c.bus.Unsubscribe(sub)
	}
}

// actionHandler executes the signing capability when a command addressed to
// an action node arrives.
func (c *Coordinator) actionHandler(workflowID, nodeID string) ports.Handler {
	return func(ctx context.Context, cmd domain.Command) error {
		outcome := c.Execute(ctx, workflowID, nodeID, cmd.Data)
		if !outcome.Success && outcome.ErrorKind != domain.ErrorKindBusy {
			return fmt.Errorf("execution failed: %s", outcome.Message)
		}
		return nil
	}
}

// outputHandler records result delivery to an output sink node.
func (c *Coordinator) outputHandler(workflowID, nodeID string) ports.Handler {
	return func(ctx context.Context, cmd domain.Command) error {
		c.logger.Info("result delivered to output node",
			zap.String("workflow_id", workflowID),
			zap.String("node_id", nodeID),
			zap.String("command_type", string(cmd.Type)))
		c.notifier.NodeStateChanged(workflowID, nodeID, domain.StateCompleted)
		return nil
	}
}

// RouteEvent resolves target nodes for a domain event and emits a routed
// command to each, in target order. Transfer payloads are normalized to the
// canonical field names before dispatch. Zero targets is logged, not an
// error.
func (c *Coordinator) RouteEvent(ctx context.Context, workflowID string, eventType domain.EventType, payload map[string]interface{}, sourceNodeID string) {
	if eventType == domain.EventTransferDetected {
		payload = domain.NormalizeTransferPayload(payload)
	}

	targets := c.registry.FindTargetNodes(workflowID, eventType, sourceNodeID)
	c.metrics.RecordEventRouted(string(eventType), len(targets))

	if len(targets) == 0 {
		c.logger.Info("no target nodes for event",
			zap.String("workflow_id", workflowID),
			zap.String("event_type", string(eventType)),
			zap.String("source_node", sourceNodeID))
		return
	}

	for _, targetID := range targets {
		cmd := domain.Command{
			ID:           uuid.New().String(),
			Type:         eventType,
			TargetNodeID: targetID,
			Data:         payload,
			WorkflowID:   workflowID,
			SourceNodeID: sourceNodeID,
			Timestamp:    time.Now(),
		}

		c.logger.Debug("routing command",
			zap.String("workflow_id", workflowID),
			zap.String("event_type", string(eventType)),
			zap.String("target_node", targetID))

		c.notifier.CommandRouted(cmd)
		c.metrics.RecordCommandEmitted(string(eventType))
		c.bus.Emit(ctx, targetID, cmd)
	}
}

// HandleInbound decodes an inbound event envelope and acts on it. An
// action_executed notification becomes a TRANSFER_DETECTED domain event
// routed from the envelope's trigger node.
func (c *Coordinator) HandleInbound(ctx context.Context, env domain.Envelope) {
	switch env.Type {
	case domain.EnvelopeActionExecuted:
		payload := make(map[string]interface{})
		if env.Event != nil {
			for key, value := range env.Event.Data {
				payload[key] = value
			}
			if env.Event.SequenceNumber != "" {
				payload["event_id"] = env.Event.SequenceNumber
			}
		}
		payload["trigger_source"] = "event_stream"
		c.RouteEvent(ctx, env.WorkflowID, domain.EventTransferDetected, payload, env.TriggerNode)

	case domain.EnvelopeWorkflowStarted:
		c.markListening(env.WorkflowID)

	case domain.EnvelopeWorkflowStopped:
		c.clearStates(env.WorkflowID)

	default:
		c.logger.Debug("unhandled inbound envelope type",
			zap.String("type", env.Type),
			zap.String("workflow_id", env.WorkflowID))
	}
}

// markListening highlights every trigger node of a started workflow.
func (c *Coordinator) markListening(workflowID string) {
	wf, ok := c.registry.Get(workflowID)
	if !ok {
		return
	}
	for _, nodeID := range wf.Order {
		if wf.Nodes[nodeID].Type == domain.NodeTrigger {
			c.notifier.NodeStateChanged(workflowID, nodeID, domain.StateListening)
		}
	}
}

// clearStates resets every node of a stopped workflow to idle.
func (c *Coordinator) clearStates(workflowID string) {
	wf, ok := c.registry.Get(workflowID)
	if !ok {
		return
	}
	for _, nodeID := range wf.Order {
		c.notifier.NodeStateChanged(workflowID, nodeID, domain.StateIdle)
	}
}
