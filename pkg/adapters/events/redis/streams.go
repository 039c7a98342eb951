package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aptosflow/aptosflow/pkg/domain"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Relay bridges the in-process coordination core to Redis Streams. It
// serves two roles: the inbound transport (a consumer-group loop feeding
// event envelopes to the coordinator) and an outbound firehose of routed
// commands and lifecycle changes for external monitors.
//
// Relay implements ports.Notifier for the outbound direction.
type Relay struct {
	client        *redis.Client
	logger        *zap.Logger
	consumerGroup string
	consumerName  string
}

// EnvelopeHandler consumes one inbound event envelope.
type EnvelopeHandler func(ctx context.Context, env domain.Envelope)

const (
	inboundStream  = "aptosflow:events:inbound"
	outboundStream = "aptosflow:events:outbound"
)

// NewRelay creates a Redis Streams relay.
func NewRelay(client *redis.Client, consumerGroup, consumerName string, logger *zap.Logger) *Relay {
	return &Relay{
		client:        client,
		logger:        logger,
		consumerGroup: consumerGroup,
		consumerName:  consumerName,
	}
}

// ConsumeInbound reads event envelopes from the inbound stream until the
// context is cancelled, delivering each to handler. The consumer group is
// created on first use.
func (r *Relay) ConsumeInbound(ctx context.Context, handler EnvelopeHandler) error {
	err := r.client.XGroupCreateMkStream(ctx, inboundStream, r.consumerGroup, "0").Err()
	if err != nil && err.Error() != "BUSYGROUP Consumer Group name already exists" {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	r.logger.Info("consuming inbound event stream",
		zap.String("stream", inboundStream),
		zap.String("consumer_group", r.consumerGroup),
		zap.String("consumer", r.consumerName))

	go r.readLoop(ctx, handler)
	return nil
}

func (r *Relay) readLoop(ctx context.Context, handler EnvelopeHandler) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
			streams, err := r.client.XReadGroup(ctx, &redis.XReadGroupArgs{
				Group:    r.consumerGroup,
				Consumer: r.consumerName,
				Streams:  []string{inboundStream, ">"},
				Count:    10,
				Block:    time.Second,
			}).Result()

			if err != nil {
				if err == redis.Nil {
					continue
				}
				if ctx.Err() != nil {
					return
				}
				r.logger.Error("failed to read inbound stream", zap.Error(err))
				time.Sleep(time.Second)
				continue
			}

			for _, stream := range streams {
				for _, message := range stream.Messages {
					r.processMessage(ctx, message, handler)
				}
			}
		}
	}
}

func (r *Relay) processMessage(ctx context.Context, message redis.XMessage, handler EnvelopeHandler) {
	data, ok := message.Values["data"].(string)
	if !ok {
		r.logger.Error("invalid inbound message format",
			zap.String("message_id", message.ID))
		return
	}

	var env domain.Envelope
	if err := json.Unmarshal([]byte(data), &env); err != nil {
		r.logger.Error("failed to unmarshal inbound envelope",
			zap.String("message_id", message.ID),
			zap.Error(err))
		return
	}

	handler(ctx, env)

	if err := r.client.XAck(ctx, inboundStream, r.consumerGroup, message.ID).Err(); err != nil {
		r.logger.Error("failed to acknowledge inbound message",
			zap.String("message_id", message.ID),
			zap.Error(err))
	}
}

// NodeStateChanged publishes a node lifecycle transition to the outbound
// stream (ports.Notifier).
func (r *Relay) NodeStateChanged(workflowID, nodeID string, state domain.NodeRunState) {
	r.publish(map[string]interface{}{
		"type":        "node_state",
		"workflow_id": workflowID,
		"node_id":     nodeID,
		"state":       state,
	})
}

// CommandRouted publishes a routed command to the outbound stream
// (ports.Notifier).
func (r *Relay) CommandRouted(cmd domain.Command) {
	r.publish(map[string]interface{}{
		"type":        "command_routed",
		"workflow_id": cmd.WorkflowID,
		"command":     cmd,
	})
}

// ExecutionFinished publishes an execution outcome to the outbound stream
// (ports.Notifier).
func (r *Relay) ExecutionFinished(workflowID, nodeID string, outcome domain.Outcome) {
	r.publish(map[string]interface{}{
		"type":        "execution_finished",
		"workflow_id": workflowID,
		"node_id":     nodeID,
		"outcome":     outcome,
	})
}

func (r *Relay) publish(event map[string]interface{}) {
	data, err := json.Marshal(event)
	if err != nil {
		r.logger.Error("failed to marshal outbound event", zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	args := &redis.XAddArgs{
		Stream: outboundStream,
		Values: map[string]interface{}{"data": string(data)},
	}
	if err := r.client.XAdd(ctx, args).Err(); err != nil {
		r.logger.Error("failed to publish outbound event", zap.Error(err))
	}
}
