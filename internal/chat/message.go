// Package chat defines the wire-level message shape shared by every
// participant and the rules for recognizing messages addressed to the
// assistant.
package chat

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Message is a single chat message as it travels over the wire and as it
// is stored in hub history. Messages are immutable once broadcast.
// Text may be empty; an empty message is still broadcast.
type Message struct {
	Username  string `json:"username" validate:"required"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

var validate = validator.New()

// NewMessage creates a message stamped with the current time.
func NewMessage(username, text string) Message {
	return Message{
		Username:  username,
		Text:      text,
		Timestamp: time.Now().Format(time.RFC3339),
	}
}

// ParseMessage decodes and validates a raw inbound frame. A frame that is
// not valid JSON or is missing a username is rejected; the caller treats
// that as fatal for the connection.
func ParseMessage(frame []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(frame, &msg); err != nil {
		return Message{}, fmt.Errorf("decode frame: %w", err)
	}
	if err := validate.Struct(msg); err != nil {
		return Message{}, fmt.Errorf("invalid frame: %w", err)
	}
	if msg.Timestamp == "" {
		msg.Timestamp = time.Now().Format(time.RFC3339)
	}
	return msg, nil
}

// Encode marshals a message for transmission. Message is a plain value
// type, so encoding cannot fail in practice.
func (m Message) Encode() []byte {
	data, _ := json.Marshal(m)
	return data
}
