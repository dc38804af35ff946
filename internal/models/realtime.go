package models

import (
	"encoding/json"
	"fmt"
)

// Wire event names.
const (
	EventUserJoin       = "user:join"
	EventUserOnline     = "user:online"
	EventUserOffline    = "user:offline"
	EventMessageSend    = "message:send"
	EventMessageReceive = "message:receive"
	EventTypingStart    = "typing:start"
	EventTypingStop     = "typing:stop"
	EventTypingShow     = "typing:show"
	EventTypingHide     = "typing:hide"
)

// Event is the envelope of every WebSocket frame.
type Event struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewEvent marshals data into an envelope.
func NewEvent(name string, data any) (Event, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Event{}, fmt.Errorf("failed to encode %s payload: %w", name, err)
	}
	return Event{Event: name, Data: raw}, nil
}

// Decode unmarshals the payload into v.
func (e Event) Decode(v any) error {
	if len(e.Data) == 0 {
		return fmt.Errorf("event %s has no payload", e.Event)
	}
	return json.Unmarshal(e.Data, v)
}

// SendPayload is the data of a message:send request. Message is forwarded
// to the receiver verbatim.
type SendPayload struct {
	ReceiverID string          `json:"receiverId"`
	Message    json.RawMessage `json:"message"`
}

// TypingPayload is the data of typing:start and typing:stop.
type TypingPayload struct {
	ReceiverID string `json:"receiverId"`
	SenderID   string `json:"senderId"`
}
