package domain

import "strings"

// HandleRole is the semantic category of a connection point, inferred from
// the textual content of its handle id.
type HandleRole string

const (
	RoleTrigger     HandleRole = "trigger"
	RoleData        HandleRole = "data"
	RoleSuccess     HandleRole = "success"
	RoleError       HandleRole = "error"
	RoleCondition   HandleRole = "condition"
	RoleMetadata    HandleRole = "metadata"
	RoleTransaction HandleRole = "transaction"
	RoleEvent       HandleRole = "event"
	RoleUnknown     HandleRole = "unknown"
)

// RoleRule maps a handle-id substring to a role. Matching is
// case-insensitive and the first matching rule wins.
type RoleRule struct {
	Substring string
	Role      HandleRole
}

// DefaultRoleRules returns the ordered rule table used to classify handles.
// More specific substrings come before the ones they contain ("metadata"
// before "data", "event-data" before "event") so they are not shadowed.
func DefaultRoleRules() []RoleRule {
	return []RoleRule{
		{"trigger", RoleTrigger},
		{"event-data", RoleData},
		{"metadata", RoleMetadata},
		{"data", RoleData},
		{"success", RoleSuccess},
		{"error", RoleError},
		{"condition", RoleCondition},
		{"transaction", RoleTransaction},
		{"event", RoleEvent},
		{"value", RoleData},
		{"address", RoleData},
		{"balance", RoleData},
	}
}

// InferRole classifies a handle id using the given rule table. An empty id
// yields RoleUnknown; an id matching no rule defaults to RoleData.
func InferRole(handleID string, rules []RoleRule) HandleRole {
	if handleID == "" {
		return RoleUnknown
	}
	lower := strings.ToLower(handleID)
	for _, rule := range rules {
		if strings.Contains(lower, rule.Substring) {
			return rule.Role
		}
	}
	return RoleData
}
