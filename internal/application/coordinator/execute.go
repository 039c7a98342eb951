package coordinator

import (
	"context"
	"time"

	"github.com/aptosflow/aptosflow/pkg/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Execute runs the signing capability for one node, serialized per
// workflow: while a run is in flight, further requests for the same
// workflow are refused with a busy outcome rather than run concurrently.
// The busy flag is cleared even when the capability fails.
func (c *Coordinator) Execute(ctx context.Context, workflowID, nodeID string, payload map[string]interface{}) domain.Outcome {
	rec := c.record(workflowID)
	if rec == nil {
		return domain.Outcome{
			Success:   false,
			ErrorKind: domain.ErrorKindUnknown,
			Message:   "workflow is not registered: " + workflowID,
		}
	}

	rec.mu.Lock()
	if rec.isExecuting {
		rec.mu.Unlock()
		c.metrics.RecordBusyRejection()
		c.logger.Info("workflow already executing, rejecting request",
			zap.String("workflow_id", workflowID),
			zap.String("node_id", nodeID))
		return domain.Outcome{
			Success:   false,
			ErrorKind: domain.ErrorKindBusy,
			Message:   "workflow is already executing",
		}
	}
	rec.isExecuting = true
	rec.mu.Unlock()

	// Cleared again on the normal path below; this guards against a
	// panicking capability leaving the workflow stuck busy.
	defer func() {
		rec.mu.Lock()
		rec.isExecuting = false
		rec.mu.Unlock()
	}()

	start := time.Now()
	c.notifier.NodeStateChanged(workflowID, nodeID, domain.StateExecuting)

	outcome := c.invokeCapability(ctx, workflowID, nodeID, payload)

	entry := domain.HistoryEntry{
		ID:        uuid.New().String(),
		Timestamp: time.Now(),
		NodeID:    nodeID,
		Success:   outcome.Success,
		ErrorKind: outcome.ErrorKind,
		Message:   outcome.Message,
	}
	if hash, ok := outcome.Data["transaction_hash"].(string); ok {
		entry.TransactionHash = hash
	}

	rec.mu.Lock()
	rec.history = append(rec.history, entry)
	if len(rec.history) > c.historyLimit {
		rec.history = rec.history[len(rec.history)-c.historyLimit:]
	}
	snapshot := c.snapshotLocked(workflowID, rec)
	rec.mu.Unlock()

	// The persisted record describes the settled run. The in-memory busy
	// flag holds until the observers below have been told, so a request
	// issued from inside a finish callback still sees the workflow busy.
	snapshot.IsExecuting = false
	c.persist(ctx, snapshot)

	status := "completed"
	state := domain.StateCompleted
	if !outcome.Success {
		status = "failed"
		state = domain.StateError
	}
	c.metrics.RecordExecution(status, time.Since(start))
	c.notifier.NodeStateChanged(workflowID, nodeID, state)
	c.notifier.ExecutionFinished(workflowID, nodeID, outcome)

	rec.mu.Lock()
	rec.isExecuting = false
	rec.mu.Unlock()

	if outcome.Success {
		c.forwardResult(ctx, workflowID, nodeID, outcome)
	}

	return outcome
}

// invokeCapability calls the external signing capability and converts every
// failure mode into a structured outcome.
func (c *Coordinator) invokeCapability(ctx context.Context, workflowID, nodeID string, payload map[string]interface{}) domain.Outcome {
	if c.capabilityTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.capabilityTimeout)
		defer cancel()
	}

	result, err := c.capability.Execute(ctx, payload)
	if err != nil {
		c.logger.Error("capability invocation failed",
			zap.String("workflow_id", workflowID),
			zap.String("node_id", nodeID),
			zap.Error(err))
		return domain.Outcome{
			Success:   false,
			ErrorKind: domain.ErrorKindCapability,
			Message:   err.Error(),
		}
	}
	if !result.Success {
		return domain.Outcome{
			Success:   false,
			ErrorKind: domain.ErrorKindCapability,
			Message:   result.Error,
		}
	}

	c.logger.Info("capability execution succeeded",
		zap.String("workflow_id", workflowID),
		zap.String("node_id", nodeID),
		zap.String("transaction_hash", result.TransactionHash))

	data := map[string]interface{}{
		"transaction_hash": result.TransactionHash,
	}
	for key, value := range payload {
		if _, exists := data[key]; !exists {
			data[key] = value
		}
	}
	return domain.Outcome{Success: true, Data: data}
}

// forwardResult pushes the successful outcome to each downstream output
// node. This is a delivery of the result, not a re-invocation of arbitrary
// downstream logic.
func (c *Coordinator) forwardResult(ctx context.Context, workflowID, nodeID string, outcome domain.Outcome) {
	wf, ok := c.registry.Get(workflowID)
	if !ok {
		return
	}

	for _, targetID := range wf.Downstream(nodeID) {
		if wf.Nodes[targetID].Type != domain.NodeOutput {
			continue
		}

		cmd := domain.Command{
			ID:           uuid.New().String(),
			Type:         domain.EventActionCompleted,
			TargetNodeID: targetID,
			Data:         outcome.Data,
			WorkflowID:   workflowID,
			SourceNodeID: nodeID,
			Timestamp:    time.Now(),
		}

		c.logger.Debug("forwarding result to output node",
			zap.String("workflow_id", workflowID),
			zap.String("source_node", nodeID),
			zap.String("target_node", targetID))

		c.notifier.CommandRouted(cmd)
		c.metrics.RecordCommandEmitted(string(domain.EventActionCompleted))
		c.bus.Emit(ctx, targetID, cmd)
	}
}

// ExecuteManual triggers the first action node of a workflow with the
// canonical test payload.
func (c *Coordinator) ExecuteManual(ctx context.Context, workflowID string) domain.Outcome {
	wf, ok := c.registry.Get(workflowID)
	if !ok {
		return domain.Outcome{
			Success:   false,
			ErrorKind: domain.ErrorKindUnknown,
			Message:   "workflow is not registered: " + workflowID,
		}
	}

	for _, nodeID := range wf.Order {
		if wf.Nodes[nodeID].Type != domain.NodeAction {
			continue
		}
		payload := map[string]interface{}{
			"action_type":    "token_transfer",
			"recipient":      domain.DefaultTransferRecipient,
			"amount":         domain.DefaultTransferAmount,
			"trigger_source": "manual_test",
		}
		return c.Execute(ctx, workflowID, nodeID, payload)
	}

	return domain.Outcome{
		Success:   false,
		ErrorKind: domain.ErrorKindMalformed,
		Message:   "no action nodes found in workflow",
	}
}

// Record returns a copy of the workflow's execution record, or nil for
// unknown ids.
func (c *Coordinator) Record(workflowID string) *domain.ExecutionRecord {
	rec := c.record(workflowID)
	if rec == nil {
		return nil
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return c.snapshotLocked(workflowID, rec)
}

func (c *Coordinator) record(workflowID string) *executionRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.records[workflowID]
}

// snapshotLocked copies the record; rec.mu must be held.
func (c *Coordinator) snapshotLocked(workflowID string, rec *executionRecord) *domain.ExecutionRecord {
	history := make([]domain.HistoryEntry, len(rec.history))
	copy(history, rec.history)
	return &domain.ExecutionRecord{
		WorkflowID:  workflowID,
		IsExecuting: rec.isExecuting,
		History:     history,
	}
}

func (c *Coordinator) persist(ctx context.Context, record *domain.ExecutionRecord) {
	if c.store == nil {
		return
	}
	if err := c.store.SaveRecord(ctx, record); err != nil {
		c.logger.Warn("failed to persist execution record",
			zap.String("workflow_id", record.WorkflowID),
			zap.Error(err))
	}
}
