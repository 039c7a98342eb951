package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aptosflow/aptosflow/pkg/domain"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRelay(t *testing.T) (*Relay, *goredis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRelay(client, "test-group", "test-consumer", zap.NewNop()), client
}

func TestRelayConsumeInbound(t *testing.T) {
	relay, client := newTestRelay(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan domain.Envelope, 1)
	require.NoError(t, relay.ConsumeInbound(ctx, func(_ context.Context, env domain.Envelope) {
		received <- env
	}))

	env := domain.Envelope{
		Type:        domain.EnvelopeActionExecuted,
		WorkflowID:  "wf-1",
		TriggerNode: "t1",
		Event: &domain.EnvelopeEvent{
			EventType: "transfer",
			Data:      map[string]interface{}{"to_address": "0xabc"},
		},
	}
	data, err := json.Marshal(env)
	require.NoError(t, err)

	require.NoError(t, client.XAdd(ctx, &goredis.XAddArgs{
		Stream: "aptosflow:events:inbound",
		Values: map[string]interface{}{"data": string(data)},
	}).Err())

	select {
	case got := <-received:
		assert.Equal(t, "wf-1", got.WorkflowID)
		assert.Equal(t, "t1", got.TriggerNode)
		require.NotNil(t, got.Event)
		assert.Equal(t, "transfer", got.Event.Kind())
	case <-time.After(5 * time.Second):
		t.Fatal("inbound envelope was not delivered")
	}
}

func TestRelayConsumeInboundSkipsMalformed(t *testing.T) {
	relay, client := newTestRelay(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan domain.Envelope, 1)
	require.NoError(t, relay.ConsumeInbound(ctx, func(_ context.Context, env domain.Envelope) {
		received <- env
	}))

	// Garbage first, then a valid envelope. Only the valid one arrives.
	require.NoError(t, client.XAdd(ctx, &goredis.XAddArgs{
		Stream: "aptosflow:events:inbound",
		Values: map[string]interface{}{"data": "{not json"},
	}).Err())

	valid, err := json.Marshal(domain.Envelope{Type: domain.EnvelopeWorkflowStarted, WorkflowID: "wf-2"})
	require.NoError(t, err)
	require.NoError(t, client.XAdd(ctx, &goredis.XAddArgs{
		Stream: "aptosflow:events:inbound",
		Values: map[string]interface{}{"data": string(valid)},
	}).Err())

	select {
	case got := <-received:
		assert.Equal(t, "wf-2", got.WorkflowID)
	case <-time.After(5 * time.Second):
		t.Fatal("valid envelope was not delivered")
	}
}

func TestRelayPublishesOutbound(t *testing.T) {
	relay, client := newTestRelay(t)
	ctx := context.Background()

	relay.NodeStateChanged("wf-1", "a1", domain.StateExecuting)
	relay.CommandRouted(domain.Command{ID: "c1", WorkflowID: "wf-1", TargetNodeID: "a1"})
	relay.ExecutionFinished("wf-1", "a1", domain.Outcome{Success: true})

	messages, err := client.XRange(ctx, "aptosflow:events:outbound", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, messages, 3)

	var first map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(messages[0].Values["data"].(string)), &first))
	assert.Equal(t, "node_state", first["type"])
	assert.Equal(t, "wf-1", first["workflow_id"])
	assert.Equal(t, string(domain.StateExecuting), first["state"])

	var last map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(messages[2].Values["data"].(string)), &last))
	assert.Equal(t, "execution_finished", last["type"])
}
