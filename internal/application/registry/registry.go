package registry

import (
	"fmt"
	"sync"

	"github.com/aptosflow/aptosflow/pkg/domain"
	"go.uber.org/zap"
)

// Registry holds registered workflows and their derived lookups. It is the
// only owner of this state; other components query it through the methods
// below.
type Registry struct {
	mu        sync.RWMutex
	workflows map[string]*domain.Workflow
	logger    *zap.Logger
}

// New creates an empty registry.
func New(logger *zap.Logger) *Registry {
	return &Registry{
		workflows: make(map[string]*domain.Workflow),
		logger:    logger,
	}
}

// Register builds and stores a workflow from a nodes+edges snapshot,
// fully replacing any prior registration under the same id. Graphs with
// cycles, duplicate node ids or dangling edge endpoints are rejected.
func (r *Registry) Register(workflowID string, nodes []domain.Node, edges []domain.Edge) (*domain.Workflow, error) {
	if workflowID == "" {
		return nil, fmt.Errorf("workflow id is required")
	}

	wf := &domain.Workflow{
		ID:        workflowID,
		Nodes:     make(map[string]domain.Node, len(nodes)),
		Order:     make([]string, 0, len(nodes)),
		Edges:     edges,
		Adjacency: make(map[string][]string),
	}

	for _, node := range nodes {
		if node.ID == "" {
			return nil, fmt.Errorf("node id is required")
		}
		if _, exists := wf.Nodes[node.ID]; exists {
			return nil, fmt.Errorf("duplicate node id: %s", node.ID)
		}
		wf.Nodes[node.ID] = node
		wf.Order = append(wf.Order, node.ID)
	}

	for _, edge := range edges {
		if _, exists := wf.Nodes[edge.Source]; !exists {
			return nil, fmt.Errorf("edge references non-existent source node: %s", edge.Source)
		}
		if _, exists := wf.Nodes[edge.Target]; !exists {
			return nil, fmt.Errorf("edge references non-existent target node: %s", edge.Target)
		}
		wf.Adjacency[edge.Source] = append(wf.Adjacency[edge.Source], edge.Target)
	}

	if err := CheckAcyclic(nodes, edges); err != nil {
		return nil, fmt.Errorf("invalid graph: %w", err)
	}

	r.mu.Lock()
	r.workflows[workflowID] = wf
	r.mu.Unlock()

	r.logger.Info("workflow registered",
		zap.String("workflow_id", workflowID),
		zap.Int("nodes", len(nodes)),
		zap.Int("edges", len(edges)))

	return wf, nil
}

// Unregister removes a workflow and its derived lookups. Unknown ids are a
// no-op.
func (r *Registry) Unregister(workflowID string) {
	r.mu.Lock()
	_, existed := r.workflows[workflowID]
	delete(r.workflows, workflowID)
	r.mu.Unlock()

	if existed {
		r.logger.Info("workflow unregistered", zap.String("workflow_id", workflowID))
	}
}

// Get returns the workflow registered under id, if any.
func (r *Registry) Get(workflowID string) (*domain.Workflow, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	wf, ok := r.workflows[workflowID]
	return wf, ok
}

// Status summarizes a registered workflow, or returns nil for unknown ids.
func (r *Registry) Status(workflowID string) *domain.WorkflowStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()

	wf, ok := r.workflows[workflowID]
	if !ok {
		return nil
	}
	return &domain.WorkflowStatus{
		ID:        workflowID,
		NodeCount: len(wf.Nodes),
		EdgeCount: len(wf.Edges),
		IsActive:  true,
	}
}

// List returns the status of every registered workflow.
func (r *Registry) List() []*domain.WorkflowStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()

	statuses := make([]*domain.WorkflowStatus, 0, len(r.workflows))
	for id, wf := range r.workflows {
		statuses = append(statuses, &domain.WorkflowStatus{
			ID:        id,
			NodeCount: len(wf.Nodes),
			EdgeCount: len(wf.Edges),
			IsActive:  true,
		})
	}
	return statuses
}

// FindTargetNodes returns the node ids that should receive eventType. With
// a source node, only its downstream nodes are considered; without one,
// every capable node in the workflow matches (broadcast fallback). The
// result is empty, never an error, when nothing matches.
func (r *Registry) FindTargetNodes(workflowID string, eventType domain.EventType, sourceNodeID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	wf, ok := r.workflows[workflowID]
	if !ok {
		r.logger.Debug("workflow not found", zap.String("workflow_id", workflowID))
		return nil
	}

	var targets []string
	if sourceNodeID != "" && len(wf.Adjacency[sourceNodeID]) > 0 {
		for _, nodeID := range wf.Adjacency[sourceNodeID] {
			if CanHandle(wf.Nodes[nodeID].Type, eventType) {
				targets = append(targets, nodeID)
			}
		}
	} else {
		for _, nodeID := range wf.Order {
			if CanHandle(wf.Nodes[nodeID].Type, eventType) {
				targets = append(targets, nodeID)
			}
		}
	}

	r.logger.Debug("resolved event targets",
		zap.String("workflow_id", workflowID),
		zap.String("event_type", string(eventType)),
		zap.String("source_node", sourceNodeID),
		zap.Strings("targets", targets))

	return targets
}

// Downstream returns the ids directly downstream of nodeID within a
// workflow.
func (r *Registry) Downstream(workflowID, nodeID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	wf, ok := r.workflows[workflowID]
	if !ok {
		return nil
	}
	return wf.Adjacency[nodeID]
}
