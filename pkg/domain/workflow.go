package domain

import (
	"encoding/json"
	"time"
)

// NodeType identifies the kind of a node in a workflow graph.
type NodeType string

const (
	NodeTrigger     NodeType = "trigger"
	NodeAction      NodeType = "action"
	NodeOutput      NodeType = "output"
	NodeConditional NodeType = "conditional"
	NodeFilter      NodeType = "filter"
	NodeDataInput   NodeType = "input"
	NodeText        NodeType = "text"
	NodeMath        NodeType = "math"
	NodeAPI         NodeType = "api"
	NodeTimer       NodeType = "timer"
	NodeWallet      NodeType = "wallet"
)

// EventType identifies a domain event that can be routed through a workflow.
type EventType string

const (
	EventTransferDetected EventType = "TRANSFER_DETECTED"
	EventExecuteAction    EventType = "EXECUTE_ACTION"
	EventTokenReceived    EventType = "TOKEN_RECEIVED"
	EventStatusUpdate     EventType = "WORKFLOW_STATUS_UPDATE"
	EventActionCompleted  EventType = "ACTION_COMPLETED"
)

// Node is a typed unit of work in a workflow graph. Config holds the
// node-type-specific form values produced by the canvas; Position is opaque
// to this core and carried through unchanged.
type Node struct {
	ID       string                 `json:"id"`
	Type     NodeType               `json:"type"`
	Config   map[string]interface{} `json:"data,omitempty"`
	Position json.RawMessage        `json:"position,omitempty"`
}

// Edge connects a producing handle on one node to a consuming handle on
// another. Self-loops are forbidden.
type Edge struct {
	ID           string `json:"id,omitempty"`
	Source       string `json:"source"`
	SourceHandle string `json:"sourceHandle,omitempty"`
	Target       string `json:"target"`
	TargetHandle string `json:"targetHandle,omitempty"`
}

// Workflow is a registered graph instance. Adjacency maps a source node id
// to the ids of its downstream nodes and is derived from Edges at
// registration; Order preserves the node order of the registration snapshot.
type Workflow struct {
	ID        string              `json:"id"`
	Nodes     map[string]Node     `json:"nodes"`
	Order     []string            `json:"order"`
	Edges     []Edge              `json:"edges"`
	Adjacency map[string][]string `json:"adjacency"`
}

// Downstream returns the ids of the nodes directly downstream of nodeID.
func (w *Workflow) Downstream(nodeID string) []string {
	return w.Adjacency[nodeID]
}

// WorkflowStatus is the registry's summary of a registered workflow.
type WorkflowStatus struct {
	ID        string `json:"id"`
	NodeCount int    `json:"node_count"`
	EdgeCount int    `json:"edge_count"`
	IsActive  bool   `json:"is_active"`
}

// Command is a routed execution message addressed to a single node. It is
// transient: it exists only on the event bus during dispatch.
type Command struct {
	ID           string                 `json:"id"`
	Type         EventType              `json:"type"`
	TargetNodeID string                 `json:"targetNodeId"`
	Data         map[string]interface{} `json:"data,omitempty"`
	WorkflowID   string                 `json:"workflowId"`
	SourceNodeID string                 `json:"sourceNodeId,omitempty"`
	Timestamp    time.Time              `json:"timestamp"`
}
