package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/aptosflow/aptosflow/pkg/domain"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for MVP
	},
}

// InboundSink consumes event envelopes pushed by connected clients.
type InboundSink interface {
	HandleInbound(ctx context.Context, env domain.Envelope)
}

// StreamMessage is the outbound wire format for coordination events.
type StreamMessage struct {
	Type       string              `json:"type"`
	WorkflowID string              `json:"workflow_id"`
	NodeID     string              `json:"node_id,omitempty"`
	State      domain.NodeRunState `json:"state,omitempty"`
	Command    *domain.Command     `json:"command,omitempty"`
	Outcome    *domain.Outcome     `json:"outcome,omitempty"`
	Timestamp  time.Time           `json:"timestamp"`
}

// client is one connected WebSocket subscriber.
type client struct {
	workflowID string
	send       chan []byte
}

// Handler fans coordination events out to WebSocket clients. It implements
// the notification sink the coordinator publishes to.
type Handler struct {
	logger *zap.Logger

	mu      sync.RWMutex
	clients map[*client]struct{}
	sink    InboundSink
}

// NewHandler creates a new WebSocket handler.
func NewHandler(logger *zap.Logger) *Handler {
	return &Handler{
		logger:  logger,
		clients: make(map[*client]struct{}),
	}
}

// BindSink attaches the consumer for client-pushed envelopes. The handler
// is constructed before the coordinator, so the sink arrives late.
func (h *Handler) BindSink(sink InboundSink) {
	h.mu.Lock()
	h.sink = sink
	h.mu.Unlock()
}

// ClientCount reports how many clients are currently connected.
func (h *Handler) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// NodeStateChanged streams a node highlight change.
func (h *Handler) NodeStateChanged(workflowID, nodeID string, state domain.NodeRunState) {
	h.broadcast(StreamMessage{
		Type:       "node_state",
		WorkflowID: workflowID,
		NodeID:     nodeID,
		State:      state,
		Timestamp:  time.Now(),
	})
}

// CommandRouted streams a routed command.
func (h *Handler) CommandRouted(cmd domain.Command) {
	h.broadcast(StreamMessage{
		Type:       "command_routed",
		WorkflowID: cmd.WorkflowID,
		NodeID:     cmd.TargetNodeID,
		Command:    &cmd,
		Timestamp:  time.Now(),
	})
}

// ExecutionFinished streams an execution outcome.
func (h *Handler) ExecutionFinished(workflowID, nodeID string, outcome domain.Outcome) {
	h.broadcast(StreamMessage{
		Type:       "execution_finished",
		WorkflowID: workflowID,
		NodeID:     nodeID,
		Outcome:    &outcome,
		Timestamp:  time.Now(),
	})
}

// broadcast sends a message to every client subscribed to its workflow.
func (h *Handler) broadcast(msg StreamMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("failed to marshal stream message", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for cl := range h.clients {
		if cl.workflowID != msg.WorkflowID {
			continue
		}
		// Send to channel (non-blocking)
		select {
		case cl.send <- data:
		default:
			// Channel full, skip message
			h.logger.Warn("client channel full, dropping message",
				zap.String("workflow_id", msg.WorkflowID),
				zap.String("message_type", msg.Type))
		}
	}
}

// HandleWorkflowStream handles WebSocket streaming for a specific workflow.
func (h *Handler) HandleWorkflowStream(c *gin.Context) {
	workflowID := c.Param("id")

	// Upgrade connection
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("failed to upgrade connection", zap.Error(err))
		return
	}
	defer func() { _ = conn.Close() }()

	h.logger.Info("WebSocket connection established",
		zap.String("workflow_id", workflowID),
		zap.String("client", c.ClientIP()))

	cl := &client{
		workflowID: workflowID,
		send:       make(chan []byte, 16),
	}

	h.mu.Lock()
	h.clients[cl] = struct{}{}
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, cl)
		h.mu.Unlock()
	}()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	// Writer goroutine: one writer per connection
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case data := <-cl.send:
				if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
					h.logger.Debug("failed to write message", zap.Error(err))
					cancel()
					return
				}
			}
		}
	}()

	// Read loop: clients may push inbound envelopes
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			h.logger.Info("WebSocket connection closed",
				zap.String("workflow_id", workflowID))
			return
		}

		var env domain.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			h.logger.Warn("invalid envelope from client", zap.Error(err))
			continue
		}
		if env.WorkflowID == "" {
			env.WorkflowID = workflowID
		}

		h.mu.RLock()
		sink := h.sink
		h.mu.RUnlock()

		if sink != nil {
			sink.HandleInbound(ctx, env)
		}
	}
}
