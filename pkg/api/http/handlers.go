package http

import (
	"net/http"

	"github.com/aptosflow/aptosflow/internal/application/engine"
	"github.com/aptosflow/aptosflow/internal/application/registry"
	"github.com/aptosflow/aptosflow/pkg/domain"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RegisterWorkflowRequest is a nodes+edges snapshot from the canvas.
type RegisterWorkflowRequest struct {
	WorkflowID string        `json:"workflow_id" binding:"required"`
	Nodes      []domain.Node `json:"nodes" binding:"required"`
	Edges      []domain.Edge `json:"edges"`
}

// ValidateConnectionRequest is a candidate edge from the canvas.
type ValidateConnectionRequest struct {
	Source       string `json:"source" binding:"required"`
	Target       string `json:"target" binding:"required"`
	SourceHandle string `json:"sourceHandle"`
	TargetHandle string `json:"targetHandle"`
}

// ParsePipelineRequest is a raw pipeline snapshot to analyze.
type ParsePipelineRequest struct {
	Nodes []domain.Node `json:"nodes"`
	Edges []domain.Edge `json:"edges"`
}

// RunPipelineRequest asks for a pull-based evaluation of a snapshot.
type RunPipelineRequest struct {
	Nodes       []domain.Node `json:"nodes" binding:"required"`
	Edges       []domain.Edge `json:"edges"`
	StartNodeID string        `json:"start_node_id" binding:"required"`
}

// InjectEventRequest wraps an inbound envelope delivered over HTTP instead
// of the streaming transport.
type InjectEventRequest struct {
	Type        string                `json:"type" binding:"required"`
	Event       *domain.EnvelopeEvent `json:"event"`
	TriggerNode string                `json:"trigger_node"`
	ActionNode  string                `json:"action_node"`
	Timestamp   string                `json:"timestamp"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail represents error details.
type ErrorDetail struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// handleHealth handles health check requests.
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"checks": gin.H{
			"coordinator": "ok",
			"workflows":   len(s.registry.List()),
		},
	})
}

// handleRegisterWorkflow registers a workflow snapshot.
func (s *Server) handleRegisterWorkflow(c *gin.Context) {
	var req RegisterWorkflowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.logger.Error("invalid request", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: ErrorDetail{Code: "INVALID_REQUEST", Message: err.Error()},
		})
		return
	}

	if err := s.coordinator.RegisterWorkflow(c.Request.Context(), req.WorkflowID, req.Nodes, req.Edges); err != nil {
		s.logger.Error("failed to register workflow",
			zap.String("workflow_id", req.WorkflowID),
			zap.Error(err))
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error: ErrorDetail{Code: "REGISTRATION_FAILED", Message: err.Error()},
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"workflow_id": req.WorkflowID,
		"status":      "registered",
	})
}

// handleListWorkflows lists registered workflows.
func (s *Server) handleListWorkflows(c *gin.Context) {
	statuses := s.registry.List()
	c.JSON(http.StatusOK, gin.H{
		"workflows": statuses,
		"total":     len(statuses),
	})
}

// handleWorkflowStatus returns the registry status of one workflow.
func (s *Server) handleWorkflowStatus(c *gin.Context) {
	workflowID := c.Param("id")

	status := s.registry.Status(workflowID)
	if status == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: ErrorDetail{Code: "NOT_FOUND", Message: "Workflow not found"},
		})
		return
	}

	record := s.coordinator.Record(workflowID)
	c.JSON(http.StatusOK, gin.H{
		"id":           status.ID,
		"node_count":   status.NodeCount,
		"edge_count":   status.EdgeCount,
		"is_active":    status.IsActive,
		"is_executing": record != nil && record.IsExecuting,
	})
}

// handleWorkflowHistory returns the execution history of one workflow.
func (s *Server) handleWorkflowHistory(c *gin.Context) {
	workflowID := c.Param("id")

	record := s.coordinator.Record(workflowID)
	if record == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: ErrorDetail{Code: "NOT_FOUND", Message: "Workflow not found"},
		})
		return
	}

	c.JSON(http.StatusOK, record)
}

// handleUnregisterWorkflow removes a workflow.
func (s *Server) handleUnregisterWorkflow(c *gin.Context) {
	workflowID := c.Param("id")
	s.coordinator.UnregisterWorkflow(c.Request.Context(), workflowID)
	c.JSON(http.StatusOK, gin.H{
		"workflow_id": workflowID,
		"status":      "unregistered",
	})
}

// handleInjectEvent feeds an inbound envelope to the coordinator.
func (s *Server) handleInjectEvent(c *gin.Context) {
	var req InjectEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: ErrorDetail{Code: "INVALID_REQUEST", Message: err.Error()},
		})
		return
	}

	env := domain.Envelope{
		Type:        req.Type,
		Event:       req.Event,
		WorkflowID:  c.Param("id"),
		TriggerNode: req.TriggerNode,
		ActionNode:  req.ActionNode,
		Timestamp:   req.Timestamp,
	}
	s.coordinator.HandleInbound(c.Request.Context(), env)

	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}

// handleManualExecute triggers the first action node of a workflow.
func (s *Server) handleManualExecute(c *gin.Context) {
	outcome := s.coordinator.ExecuteManual(c.Request.Context(), c.Param("id"))

	status := http.StatusOK
	switch outcome.ErrorKind {
	case domain.ErrorKindUnknown:
		status = http.StatusNotFound
	case domain.ErrorKindBusy:
		status = http.StatusConflict
	}
	c.JSON(status, outcome)
}

// handleValidateConnection answers the canvas's edge-creation query.
func (s *Server) handleValidateConnection(c *gin.Context) {
	var req ValidateConnectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: ErrorDetail{Code: "INVALID_REQUEST", Message: err.Error()},
		})
		return
	}

	valid := s.validator.IsValid(domain.Edge{
		Source:       req.Source,
		SourceHandle: req.SourceHandle,
		Target:       req.Target,
		TargetHandle: req.TargetHandle,
	})

	c.JSON(http.StatusOK, gin.H{"valid": valid})
}

// handleParsePipeline analyzes a raw snapshot: counts and DAG check.
func (s *Server) handleParsePipeline(c *gin.Context) {
	var req ParsePipelineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: ErrorDetail{Code: "INVALID_REQUEST", Message: err.Error()},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"num_nodes": len(req.Nodes),
		"num_edges": len(req.Edges),
		"is_dag":    registry.CheckAcyclic(req.Nodes, req.Edges) == nil,
		"status":    "success",
	})
}

// handleRunPipeline evaluates a snapshot pull-based from a start node.
func (s *Server) handleRunPipeline(c *gin.Context) {
	var req RunPipelineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: ErrorDetail{Code: "INVALID_REQUEST", Message: err.Error()},
		})
		return
	}

	output, err := s.engine.Execute(c.Request.Context(), req.Nodes, req.Edges, req.StartNodeID, engine.Passthrough())
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error: ErrorDetail{Code: "EVALUATION_FAILED", Message: err.Error()},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"start_node_id": req.StartNodeID,
		"output":        output,
	})
}
