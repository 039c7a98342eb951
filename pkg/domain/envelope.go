package domain

// Envelope is an inbound event notification as delivered by the transport.
// The field layout follows the monitoring stream's wire format.
type Envelope struct {
	Type        string         `json:"type"`
	Event       *EnvelopeEvent `json:"event,omitempty"`
	WorkflowID  string         `json:"workflow_id"`
	TriggerNode string         `json:"trigger_node,omitempty"`
	ActionNode  string         `json:"action_node,omitempty"`
	Timestamp   string         `json:"timestamp,omitempty"`
}

// Inbound envelope types.
const (
	EnvelopeActionExecuted  = "action_executed"
	EnvelopeWorkflowStarted = "workflow_started"
	EnvelopeWorkflowStopped = "workflow_stopped"
)

// EnvelopeEvent carries the observed chain event. Some producers set
// EventType, others Type; Kind resolves whichever is present.
type EnvelopeEvent struct {
	EventType      string                 `json:"event_type,omitempty"`
	Type           string                 `json:"type,omitempty"`
	SequenceNumber string                 `json:"sequence_number,omitempty"`
	Data           map[string]interface{} `json:"data,omitempty"`
}

// Kind returns the event type, preferring EventType over Type.
func (e *EnvelopeEvent) Kind() string {
	if e == nil {
		return ""
	}
	if e.EventType != "" {
		return e.EventType
	}
	return e.Type
}

// Transfer payload defaults, used when the observed event carries no
// recipient or amount.
const (
	DefaultTransferRecipient = "0x1"
	DefaultTransferAmount    = 100000000
)

// NormalizeTransferPayload maps a raw transfer event payload to the
// canonical command payload. Producers disagree on field names, so both
// to_address/recipient and from_address/sender are accepted. Keys outside
// the transfer vocabulary pass through unchanged.
func NormalizeTransferPayload(raw map[string]interface{}) map[string]interface{} {
	payload := make(map[string]interface{}, len(raw)+3)
	for key, value := range raw {
		switch key {
		case "recipient", "to_address", "amount", "sender", "from_address":
		default:
			payload[key] = value
		}
	}
	payload["action_type"] = "token_transfer"
	payload["recipient"] = firstString(raw, "recipient", "to_address")
	payload["amount"] = firstValue(raw, "amount")
	if payload["recipient"] == "" {
		payload["recipient"] = DefaultTransferRecipient
	}
	if payload["amount"] == nil {
		payload["amount"] = DefaultTransferAmount
	}
	if sender := firstString(raw, "sender", "from_address"); sender != "" {
		payload["sender"] = sender
	}
	return payload
}

func firstString(raw map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		if s, ok := raw[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func firstValue(raw map[string]interface{}, keys ...string) interface{} {
	for _, key := range keys {
		if v, ok := raw[key]; ok && v != nil {
			return v
		}
	}
	return nil
}
