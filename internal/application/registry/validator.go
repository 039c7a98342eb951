package registry

import (
	"fmt"

	"github.com/aptosflow/aptosflow/pkg/domain"
)

// allowedTargets maps each source handle role to the target roles it may
// connect to. The table is deliberately permissive: every role may reach
// data, trigger and condition, favoring connectivity over rejection.
var allowedTargets = map[domain.HandleRole][]domain.HandleRole{
	domain.RoleTrigger:     {domain.RoleTrigger, domain.RoleCondition, domain.RoleData},
	domain.RoleData:        {domain.RoleData, domain.RoleCondition, domain.RoleTransaction, domain.RoleTrigger},
	domain.RoleSuccess:     {domain.RoleData, domain.RoleTrigger, domain.RoleCondition},
	domain.RoleError:       {domain.RoleData, domain.RoleTrigger, domain.RoleCondition},
	domain.RoleCondition:   {domain.RoleData, domain.RoleTrigger, domain.RoleCondition},
	domain.RoleMetadata:    {domain.RoleData, domain.RoleCondition, domain.RoleTrigger},
	domain.RoleTransaction: {domain.RoleData, domain.RoleTrigger, domain.RoleCondition},
	domain.RoleEvent:       {domain.RoleData, domain.RoleTrigger, domain.RoleCondition},
	domain.RoleUnknown:     {domain.RoleData, domain.RoleTrigger, domain.RoleCondition},
}

// ConnectionValidator decides whether two handles may be linked. It is pure
// and deterministic given the two handle ids; the role rule table is
// injected so it can be tested exhaustively.
type ConnectionValidator struct {
	rules []domain.RoleRule
}

// NewConnectionValidator creates a validator with the default role rules.
func NewConnectionValidator() *ConnectionValidator {
	return &ConnectionValidator{rules: domain.DefaultRoleRules()}
}

// NewConnectionValidatorWithRules creates a validator with a custom
// ordered rule table.
func NewConnectionValidatorWithRules(rules []domain.RoleRule) *ConnectionValidator {
	return &ConnectionValidator{rules: rules}
}

// IsValid reports whether the candidate edge may be created. Self-loops and
// edges with a missing handle id are always rejected; otherwise the
// inferred source role's allowed-target set decides.
func (v *ConnectionValidator) IsValid(edge domain.Edge) bool {
	if edge.Source == edge.Target {
		return false
	}
	if edge.SourceHandle == "" || edge.TargetHandle == "" {
		return false
	}

	sourceRole := domain.InferRole(edge.SourceHandle, v.rules)
	targetRole := domain.InferRole(edge.TargetHandle, v.rules)

	for _, allowed := range allowedTargets[sourceRole] {
		if targetRole == allowed {
			return true
		}
	}
	return false
}

// dfs colors for cycle detection.
const (
	colorWhite = iota // unvisited
	colorGray         // on the current path
	colorBlack        // fully processed
)

// CheckAcyclic verifies that the graph formed by nodes and edges has no
// directed cycle, using depth-first traversal with three-color marking.
// Disconnected components are all checked.
func CheckAcyclic(nodes []domain.Node, edges []domain.Edge) error {
	adjacency := make(map[string][]string, len(nodes))
	for _, node := range nodes {
		adjacency[node.ID] = nil
	}
	for _, edge := range edges {
		if _, ok := adjacency[edge.Source]; !ok {
			continue
		}
		if _, ok := adjacency[edge.Target]; !ok {
			continue
		}
		adjacency[edge.Source] = append(adjacency[edge.Source], edge.Target)
	}

	colors := make(map[string]int, len(nodes))

	var visit func(nodeID string) error
	visit = func(nodeID string) error {
		switch colors[nodeID] {
		case colorGray:
			return fmt.Errorf("cycle detected at node %s", nodeID)
		case colorBlack:
			return nil
		}
		colors[nodeID] = colorGray
		for _, next := range adjacency[nodeID] {
			if err := visit(next); err != nil {
				return err
			}
		}
		colors[nodeID] = colorBlack
		return nil
	}

	for _, node := range nodes {
		if colors[node.ID] == colorWhite {
			if err := visit(node.ID); err != nil {
				return err
			}
		}
	}
	return nil
}
