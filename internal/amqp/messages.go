package amqp

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"finalyze/internal/email"
)

var (
	ErrMissingMessageID = errors.New("render request message has no id")
	ErrMissingRecipient = errors.New("render request message has no recipient")
)

// RenderRequestMessage asks the worker to render Request for Recipient and
// store the result in the outbox. ID doubles as the outbox key.
type RenderRequestMessage struct {
	ID        uuid.UUID     `json:"id"`
	Recipient string        `json:"recipient"`
	Request   email.Request `json:"request"`
	Timestamp time.Time     `json:"timestamp"`
}

// NewRenderRequestMessage creates a message with a fresh random ID.
func NewRenderRequestMessage(recipient string, req email.Request) *RenderRequestMessage {
	return &RenderRequestMessage{
		ID:        uuid.New(),
		Recipient: strings.TrimSpace(recipient),
		Request:   req,
		Timestamp: time.Now().UTC(),
	}
}

// Validate checks the envelope; the request itself never fails to render.
func (m *RenderRequestMessage) Validate() error {
	if m.ID == uuid.Nil {
		return ErrMissingMessageID
	}
	if strings.TrimSpace(m.Recipient) == "" {
		return ErrMissingRecipient
	}
	return nil
}

// ToJSON converts the message to JSON bytes
func (m *RenderRequestMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RenderRequestMessageFromJSON decodes and validates a message body.
func RenderRequestMessageFromJSON(data []byte) (*RenderRequestMessage, error) {
	var msg RenderRequestMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
