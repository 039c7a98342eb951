package memory

import (
	"context"
	"sync"

	"github.com/aptosflow/aptosflow/pkg/domain"
	"github.com/aptosflow/aptosflow/pkg/ports"
	"go.uber.org/zap"
)

// Bus implements ports.EventBus with in-process handler lists keyed by
// node id. Emit invokes handlers synchronously, in registration order; a
// failing or panicking handler is logged and never interrupts siblings.
// No ordering is guaranteed across different node ids.
type Bus struct {
	mu        sync.RWMutex
	nextToken uint64
	handlers  map[string][]entry
	order     []string
	logger    *zap.Logger
	metrics   ports.MetricsCollector
}

type entry struct {
	token   uint64
	handler ports.Handler
}

// NewBus creates an empty bus. Metrics may be nil.
func NewBus(logger *zap.Logger, metrics ports.MetricsCollector) *Bus {
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	return &Bus{
		handlers: make(map[string][]entry),
		logger:   logger,
		metrics:  metrics,
	}
}

// Subscribe registers a handler for commands addressed to nodeID. Multiple
// handlers per node id are allowed; the returned subscription removes
// exactly this registration.
func (b *Bus) Subscribe(nodeID string, h ports.Handler) ports.Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextToken++
	if _, exists := b.handlers[nodeID]; !exists {
		b.order = append(b.order, nodeID)
	}
	b.handlers[nodeID] = append(b.handlers[nodeID], entry{token: b.nextToken, handler: h})

	return ports.Subscription{NodeID: nodeID, Token: b.nextToken}
}

// Unsubscribe removes the registration identified by sub. Unknown
// subscriptions are a no-op.
func (b *Bus) Unsubscribe(sub ports.Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	entries := b.handlers[sub.NodeID]
	for i, e := range entries {
		if e.token == sub.Token {
			b.handlers[sub.NodeID] = append(entries[:i], entries[i+1:]...)
			break
		}
	}
	if len(b.handlers[sub.NodeID]) == 0 {
		delete(b.handlers, sub.NodeID)
		for i, id := range b.order {
			if id == sub.NodeID {
				b.order = append(b.order[:i], b.order[i+1:]...)
				break
			}
		}
	}
}

// Emit delivers cmd to every handler currently subscribed to nodeID.
func (b *Bus) Emit(ctx context.Context, nodeID string, cmd domain.Command) {
	b.mu.RLock()
	entries := make([]entry, len(b.handlers[nodeID]))
	copy(entries, b.handlers[nodeID])
	b.mu.RUnlock()

	for _, e := range entries {
		b.invoke(ctx, nodeID, e.handler, cmd)
	}
}

// Broadcast delivers cmd to every handler on every node id. Within one
// node id handlers run in registration order.
func (b *Bus) Broadcast(ctx context.Context, cmd domain.Command) {
	b.mu.RLock()
	order := make([]string, len(b.order))
	copy(order, b.order)
	snapshot := make(map[string][]entry, len(b.handlers))
	for nodeID, entries := range b.handlers {
		copied := make([]entry, len(entries))
		copy(copied, entries)
		snapshot[nodeID] = copied
	}
	b.mu.RUnlock()

	for _, nodeID := range order {
		for _, e := range snapshot[nodeID] {
			b.invoke(ctx, nodeID, e.handler, cmd)
		}
	}
}

// invoke runs one handler with error and panic isolation.
func (b *Bus) invoke(ctx context.Context, nodeID string, h ports.Handler, cmd domain.Command) {
	defer func() {
		if r := recover(); r != nil {
			b.metrics.RecordHandlerFailure()
			b.logger.Error("event handler panicked",
				zap.String("node_id", nodeID),
				zap.String("command_type", string(cmd.Type)),
				zap.Any("panic", r))
		}
	}()

	if err := h(ctx, cmd); err != nil {
		b.metrics.RecordHandlerFailure()
		b.logger.Error("event handler failed",
			zap.String("node_id", nodeID),
			zap.String("command_type", string(cmd.Type)),
			zap.Error(err))
	}
}
