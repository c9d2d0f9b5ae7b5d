// Package websocket provides the push transport: long-lived sessions that
// receive room and notification events as they happen.
package websocket

import "encoding/json"

// Frame is the wire envelope of the push protocol. Inbound events are
// "register" and "message"; outbound events are "message", "task", and
// "notification".
type Frame struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Inbound event names.
const (
	EventRegister = "register"
	EventMessage  = "message"
)

// Outbound event names.
const (
	EventTask         = "task"
	EventNotification = "notification"
)

// NewFrame builds a frame with a marshaled payload.
func NewFrame(event string, payload interface{}) (*Frame, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Frame{Event: event, Payload: data}, nil
}

// ParsePayload unmarshals the frame payload into the given value.
func (f *Frame) ParsePayload(v interface{}) error {
	return json.Unmarshal(f.Payload, v)
}

// RegisterPayload is the payload of the registration frame.
type RegisterPayload struct {
	AgentID string `json:"agentId"`
	Room    string `json:"room"`
}
