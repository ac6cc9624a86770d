package ws

import "encoding/json"

// MessageType identifies the kind of WebSocket message.
type MessageType string

const (
	MsgSchemaReloaded  MessageType = "schema_reloaded"
	MsgIngestCompleted MessageType = "ingest_completed"
	MsgIngestFailed    MessageType = "ingest_failed"
	MsgError           MessageType = "error"
	MsgSync            MessageType = "sync"
	MsgFullState       MessageType = "full_state"
)

// Message is the envelope for all WebSocket messages.
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewMessage encodes payload inside a Message of the given type.
func NewMessage(typ MessageType, payload any) ([]byte, error) {
	var p json.RawMessage
	if payload != nil {
		var err error
		if p, err = json.Marshal(payload); err != nil {
			return nil, err
		}
	}
	return json.Marshal(Message{Type: typ, Payload: p})
}
