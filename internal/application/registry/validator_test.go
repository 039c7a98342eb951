package registry

import (
	"fmt"
	"testing"

	"github.com/aptosflow/aptosflow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectionValidatorIsValid(t *testing.T) {
	v := NewConnectionValidator()

	tests := []struct {
		name string
		edge domain.Edge
		want bool
	}{
		{
			"trigger to trigger",
			domain.Edge{Source: "a", SourceHandle: "trigger-out", Target: "b", TargetHandle: "trigger-in"},
			true,
		},
		{
			"data to data",
			domain.Edge{Source: "a", SourceHandle: "data-out", Target: "b", TargetHandle: "data-in"},
			true,
		},
		{
			"data to transaction",
			domain.Edge{Source: "a", SourceHandle: "data-out", Target: "b", TargetHandle: "transaction-in"},
			true,
		},
		{
			"trigger to transaction rejected",
			domain.Edge{Source: "a", SourceHandle: "trigger-out", Target: "b", TargetHandle: "transaction-in"},
			false,
		},
		{
			"success to condition",
			domain.Edge{Source: "a", SourceHandle: "on-success", Target: "b", TargetHandle: "condition-in"},
			true,
		},
		{
			"condition to data",
			domain.Edge{Source: "a", SourceHandle: "condition-out", Target: "b", TargetHandle: "data-in"},
			true,
		},
		{
			"unmatched handles default to data and connect",
			domain.Edge{Source: "a", SourceHandle: "left", Target: "b", TargetHandle: "right"},
			true,
		},
		{
			"self loop rejected",
			domain.Edge{Source: "a", SourceHandle: "data-out", Target: "a", TargetHandle: "data-in"},
			false,
		},
		{
			"missing source handle rejected",
			domain.Edge{Source: "a", Target: "b", TargetHandle: "data-in"},
			false,
		},
		{
			"missing target handle rejected",
			domain.Edge{Source: "a", SourceHandle: "data-out", Target: "b"},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, v.IsValid(tt.edge))
		})
	}
}

func TestConnectionValidatorEveryRoleReachesData(t *testing.T) {
	v := NewConnectionValidator()

	// Connectivity floor: whatever the source handle is, a data input
	// must accept it.
	for _, handle := range []string{
		"trigger-out", "data-out", "on-success", "on-error",
		"condition-out", "metadata-out", "transaction-out", "event-out",
	} {
		edge := domain.Edge{Source: "a", SourceHandle: handle, Target: "b", TargetHandle: "data-in"}
		assert.True(t, v.IsValid(edge), "handle %s should connect to data-in", handle)
	}
}

func TestCheckAcyclic(t *testing.T) {
	nodes := func(ids ...string) []domain.Node {
		out := make([]domain.Node, len(ids))
		for i, id := range ids {
			out[i] = domain.Node{ID: id, Type: domain.NodeAction}
		}
		return out
	}

	t.Run("diamond is acyclic", func(t *testing.T) {
		edges := []domain.Edge{
			{Source: "a", Target: "b"},
			{Source: "a", Target: "c"},
			{Source: "b", Target: "d"},
			{Source: "c", Target: "d"},
		}
		require.NoError(t, CheckAcyclic(nodes("a", "b", "c", "d"), edges))
	})

	t.Run("two node cycle rejected", func(t *testing.T) {
		edges := []domain.Edge{
			{Source: "a", Target: "b"},
			{Source: "b", Target: "a"},
		}
		err := CheckAcyclic(nodes("a", "b"), edges)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cycle")
	})

	t.Run("cycle in disconnected component rejected", func(t *testing.T) {
		edges := []domain.Edge{
			{Source: "a", Target: "b"},
			{Source: "c", Target: "d"},
			{Source: "d", Target: "c"},
		}
		require.Error(t, CheckAcyclic(nodes("a", "b", "c", "d"), edges))
	})

	t.Run("edges to unknown nodes are ignored", func(t *testing.T) {
		edges := []domain.Edge{
			{Source: "a", Target: "ghost"},
			{Source: "ghost", Target: "a"},
		}
		require.NoError(t, CheckAcyclic(nodes("a"), edges))
	})

	t.Run("long chain", func(t *testing.T) {
		var ids []string
		var edges []domain.Edge
		for i := 0; i < 100; i++ {
			ids = append(ids, fmt.Sprintf("n%d", i))
			if i > 0 {
				edges = append(edges, domain.Edge{Source: fmt.Sprintf("n%d", i-1), Target: fmt.Sprintf("n%d", i)})
			}
		}
		require.NoError(t, CheckAcyclic(nodes(ids...), edges))
	})
}
