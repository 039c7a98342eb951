package registry

import (
	"testing"

	"github.com/aptosflow/aptosflow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testWorkflowNodes() []domain.Node {
	return []domain.Node{
		{ID: "t1", Type: domain.NodeTrigger},
		{ID: "a1", Type: domain.NodeAction},
		{ID: "o1", Type: domain.NodeOutput},
	}
}

func testWorkflowEdges() []domain.Edge {
	return []domain.Edge{
		{Source: "t1", Target: "a1"},
		{Source: "a1", Target: "o1"},
	}
}

func TestRegistryRegister(t *testing.T) {
	r := New(zap.NewNop())

	wf, err := r.Register("wf-1", testWorkflowNodes(), testWorkflowEdges())
	require.NoError(t, err)

	assert.Equal(t, "wf-1", wf.ID)
	assert.Len(t, wf.Nodes, 3)
	assert.Equal(t, []string{"t1", "a1", "o1"}, wf.Order)
	assert.Equal(t, []string{"a1"}, wf.Adjacency["t1"])
	assert.Equal(t, []string{"o1"}, wf.Adjacency["a1"])
}

func TestRegistryRegisterRejections(t *testing.T) {
	r := New(zap.NewNop())

	t.Run("empty workflow id", func(t *testing.T) {
		_, err := r.Register("", testWorkflowNodes(), nil)
		require.Error(t, err)
	})

	t.Run("empty node id", func(t *testing.T) {
		_, err := r.Register("wf", []domain.Node{{ID: ""}}, nil)
		require.Error(t, err)
	})

	t.Run("duplicate node id", func(t *testing.T) {
		nodes := []domain.Node{
			{ID: "a", Type: domain.NodeAction},
			{ID: "a", Type: domain.NodeAction},
		}
		_, err := r.Register("wf", nodes, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate")
	})

	t.Run("dangling edge source", func(t *testing.T) {
		_, err := r.Register("wf", testWorkflowNodes(), []domain.Edge{{Source: "ghost", Target: "a1"}})
		require.Error(t, err)
	})

	t.Run("dangling edge target", func(t *testing.T) {
		_, err := r.Register("wf", testWorkflowNodes(), []domain.Edge{{Source: "t1", Target: "ghost"}})
		require.Error(t, err)
	})

	t.Run("cyclic graph", func(t *testing.T) {
		edges := []domain.Edge{
			{Source: "t1", Target: "a1"},
			{Source: "a1", Target: "t1"},
		}
		_, err := r.Register("wf", testWorkflowNodes(), edges)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cycle")
	})

	t.Run("failed registration leaves no trace", func(t *testing.T) {
		assert.Nil(t, r.Status("wf"))
	})
}

func TestRegistryReRegisterReplaces(t *testing.T) {
	r := New(zap.NewNop())

	_, err := r.Register("wf-1", testWorkflowNodes(), testWorkflowEdges())
	require.NoError(t, err)

	replacement := []domain.Node{{ID: "x", Type: domain.NodeAction}}
	wf, err := r.Register("wf-1", replacement, nil)
	require.NoError(t, err)

	assert.Len(t, wf.Nodes, 1)
	assert.Empty(t, wf.Adjacency)

	status := r.Status("wf-1")
	require.NotNil(t, status)
	assert.Equal(t, 1, status.NodeCount)
	assert.Equal(t, 0, status.EdgeCount)
}

func TestRegistryUnregister(t *testing.T) {
	r := New(zap.NewNop())

	_, err := r.Register("wf-1", testWorkflowNodes(), testWorkflowEdges())
	require.NoError(t, err)

	r.Unregister("wf-1")

	assert.Nil(t, r.Status("wf-1"))
	assert.Empty(t, r.FindTargetNodes("wf-1", domain.EventTransferDetected, "t1"))

	// Unknown ids are a no-op
	r.Unregister("never-registered")
}

func TestRegistryStatusAndList(t *testing.T) {
	r := New(zap.NewNop())

	assert.Nil(t, r.Status("missing"))
	assert.Empty(t, r.List())

	_, err := r.Register("wf-1", testWorkflowNodes(), testWorkflowEdges())
	require.NoError(t, err)

	status := r.Status("wf-1")
	require.NotNil(t, status)
	assert.Equal(t, 3, status.NodeCount)
	assert.Equal(t, 2, status.EdgeCount)
	assert.True(t, status.IsActive)

	assert.Len(t, r.List(), 1)
}

func TestRegistryFindTargetNodes(t *testing.T) {
	r := New(zap.NewNop())

	nodes := []domain.Node{
		{ID: "t1", Type: domain.NodeTrigger},
		{ID: "a1", Type: domain.NodeAction},
		{ID: "a2", Type: domain.NodeAction},
		{ID: "o1", Type: domain.NodeOutput},
	}
	edges := []domain.Edge{
		{Source: "t1", Target: "a1"},
		{Source: "a1", Target: "o1"},
	}
	_, err := r.Register("wf-1", nodes, edges)
	require.NoError(t, err)

	t.Run("downstream of source only", func(t *testing.T) {
		targets := r.FindTargetNodes("wf-1", domain.EventTransferDetected, "t1")
		assert.Equal(t, []string{"a1"}, targets)
	})

	t.Run("capability filters downstream", func(t *testing.T) {
		// o1 is downstream of a1 but output nodes do not handle
		// TRANSFER_DETECTED.
		targets := r.FindTargetNodes("wf-1", domain.EventTransferDetected, "a1")
		assert.Empty(t, targets)
	})

	t.Run("broadcast without source node", func(t *testing.T) {
		targets := r.FindTargetNodes("wf-1", domain.EventTransferDetected, "")
		assert.Equal(t, []string{"a1", "a2"}, targets)
	})

	t.Run("broadcast when source has no downstream", func(t *testing.T) {
		targets := r.FindTargetNodes("wf-1", domain.EventTransferDetected, "a2")
		assert.Equal(t, []string{"a1", "a2"}, targets)
	})

	t.Run("unknown workflow yields nothing", func(t *testing.T) {
		assert.Empty(t, r.FindTargetNodes("missing", domain.EventTransferDetected, "t1"))
	})

	t.Run("output nodes match completion events", func(t *testing.T) {
		targets := r.FindTargetNodes("wf-1", domain.EventActionCompleted, "a1")
		assert.Equal(t, []string{"o1"}, targets)
	})
}

func TestCanHandle(t *testing.T) {
	assert.True(t, CanHandle(domain.NodeAction, domain.EventTransferDetected))
	assert.True(t, CanHandle(domain.NodeAction, domain.EventExecuteAction))
	assert.True(t, CanHandle(domain.NodeOutput, domain.EventActionCompleted))
	assert.True(t, CanHandle(domain.NodeConditional, domain.EventTokenReceived))
	assert.True(t, CanHandle(domain.NodeFilter, domain.EventTransferDetected))

	assert.False(t, CanHandle(domain.NodeTrigger, domain.EventTransferDetected))
	assert.False(t, CanHandle(domain.NodeOutput, domain.EventTransferDetected))
	assert.False(t, CanHandle(domain.NodeAction, domain.EventActionCompleted))
	assert.False(t, CanHandle(domain.NodeText, domain.EventTransferDetected))
}
