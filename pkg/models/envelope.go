package models

import (
	"encoding/json"
	"time"
)

// Envelope is the unit exchanged with the session process over the broker.
type Envelope struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`

	// Set only on envelopes republished to the dead-letter topic.
	DLQReason   string `json:"dlqReason,omitempty"`
	SourceTopic string `json:"sourceTopic,omitempty"`
}

const (
	EnvelopeTypeMessage = "message"
	EnvelopeTypeState   = "state"
	EnvelopeTypeSend    = "send"
)

// StatePayload reports the session lifecycle, e.g. "ready" or "disconnected".
type StatePayload struct {
	State string `json:"state"`
}

const SessionStateReady = "ready"

type SendKind string

const (
	SendKindText     SendKind = "text"
	SendKindLocation SendKind = "location"
)

// SendCommand asks the session to deliver a message to a normalised recipient.
type SendCommand struct {
	To        string   `json:"to"`
	Kind      SendKind `json:"kind"`
	Text      string   `json:"text,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Name      string   `json:"name,omitempty"`
	Address   string   `json:"address,omitempty"`
}
