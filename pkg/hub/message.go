// Package hub fans JSON updates out to websocket subscribers
// using a channel-based broadcast loop.
package hub

import "encoding/json"

// Message is one pre-encoded update.
type Message struct {
	Data []byte
}

// NewJSONMessage encodes v.
func NewJSONMessage(v any) (Message, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return Message{}, err
	}
	return Message{Data: data}, nil
}
