// Package flowmsg is the shared vocabulary of the flow engine: the typed
// messages node actors exchange and the lifecycle events delivered to them.
// Contract only, no behavior.
package flowmsg

import (
	"github.com/google/uuid"
)

// Type tags a flow message.
type Type string

const (
	TypeIncoming     Type = "incoming"
	TypeOutgoing     Type = "outgoing"
	TypeCompleted    Type = "completed"
	TypeException    Type = "exception"
	TypeWsEvent      Type = "ws_event"
	TypeLinkReturn   Type = "link_return"
	TypeDelayPushOut Type = "delay_push_out"
)

// countedTypes are the message types tracked by per-node counters. Other
// types are dispatched but not counted.
var countedTypes = map[Type]bool{
	TypeException:  true,
	TypeLinkReturn: true,
	TypeWsEvent:    true,
	TypeOutgoing:   true,
	TypeIncoming:   true,
}

// Counted reports whether dispatching a message of this type bumps the
// node's per-type counter.
func (t Type) Counted() bool {
	return countedTypes[t]
}

// Msg is one unit of flow traffic. Payload entries are free-form and belong
// to the node types; the envelope only ever reads well-known keys.
type Msg struct {
	ID      string                 `json:"_msgid"`
	Type    Type                   `json:"type"`
	Source  string                 `json:"source,omitempty"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// New creates a message of the given type with a fresh id.
func New(t Type) *Msg {
	return &Msg{
		ID:      uuid.NewString(),
		Type:    t,
		Payload: make(map[string]interface{}),
	}
}

// With sets a payload entry and returns the message for chaining.
func (m *Msg) With(key string, value interface{}) *Msg {
	if m.Payload == nil {
		m.Payload = make(map[string]interface{})
	}
	m.Payload[key] = value
	return m
}

// Action returns the payload "action" entry, or "" when absent.
func (m *Msg) Action() string {
	action, _ := m.Payload["action"].(string)
	return action
}

// Clone returns a copy with the same id and a shallow copy of the payload,
// retagged with the given type.
func (m *Msg) Clone(t Type) *Msg {
	payload := make(map[string]interface{}, len(m.Payload))
	for k, v := range m.Payload {
		payload[k] = v
	}
	return &Msg{
		ID:      m.ID,
		Type:    t,
		Source:  m.Source,
		Payload: payload,
	}
}
