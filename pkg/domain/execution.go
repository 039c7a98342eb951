package domain

import "time"

// ErrorKind classifies a failed execution outcome.
type ErrorKind string

const (
	ErrorKindBusy       ErrorKind = "busy"
	ErrorKindCapability ErrorKind = "capability_failure"
	ErrorKindMalformed  ErrorKind = "malformed_payload"
	ErrorKindUnknown    ErrorKind = "unknown_workflow"
)

// Outcome is the structured result of an execution request. Failures never
// propagate as raw errors above the coordinator; they are carried here.
type Outcome struct {
	Success   bool                   `json:"success"`
	Data      map[string]interface{} `json:"data,omitempty"`
	ErrorKind ErrorKind              `json:"error_kind,omitempty"`
	Message   string                 `json:"message,omitempty"`
}

// SignResult is what the external signing/action capability returns.
type SignResult struct {
	Success         bool   `json:"success"`
	TransactionHash string `json:"transactionHash,omitempty"`
	Error           string `json:"error,omitempty"`
}

// HistoryEntry records one completed execution attempt.
type HistoryEntry struct {
	ID              string    `json:"id"`
	Timestamp       time.Time `json:"timestamp"`
	NodeID          string    `json:"node_id"`
	Success         bool      `json:"success"`
	TransactionHash string    `json:"transaction_hash,omitempty"`
	ErrorKind       ErrorKind `json:"error_kind,omitempty"`
	Message         string    `json:"message,omitempty"`
}

// ExecutionRecord tracks per-workflow execution state. History is
// append-only and capped by the coordinator's configured limit.
type ExecutionRecord struct {
	WorkflowID  string         `json:"workflow_id"`
	IsExecuting bool           `json:"is_executing"`
	History     []HistoryEntry `json:"history"`
}

// NodeRunState is the observable lifecycle state of a node, consumed by the
// injected notification sink (highlighting, toasts).
type NodeRunState string

const (
	StateListening NodeRunState = "listening"
	StateExecuting NodeRunState = "executing"
	StateCompleted NodeRunState = "completed"
	StateError     NodeRunState = "error"
	StateIdle      NodeRunState = "idle"
)

// NodeInput is one resolved upstream input to a node during pull-based
// graph evaluation.
type NodeInput struct {
	SourceHandle string      `json:"sourceHandle,omitempty"`
	TargetHandle string      `json:"targetHandle,omitempty"`
	Data         interface{} `json:"data"`
}
