package registry

import "github.com/aptosflow/aptosflow/pkg/domain"

// eventCapabilities maps a node type to the domain events it handles.
// Types absent from the table handle no routed events; trigger nodes only
// originate events and never receive them.
var eventCapabilities = map[domain.NodeType][]domain.EventType{
	domain.NodeAction: {
		domain.EventTransferDetected,
		domain.EventExecuteAction,
		domain.EventTokenReceived,
	},
	domain.NodeOutput: {
		domain.EventStatusUpdate,
		domain.EventActionCompleted,
	},
	domain.NodeConditional: {
		domain.EventTransferDetected,
		domain.EventTokenReceived,
	},
	domain.NodeFilter: {
		domain.EventTransferDetected,
		domain.EventTokenReceived,
	},
}

// CanHandle reports whether a node type is capable of handling eventType.
func CanHandle(nodeType domain.NodeType, eventType domain.EventType) bool {
	for _, et := range eventCapabilities[nodeType] {
		if et == eventType {
			return true
		}
	}
	return false
}
